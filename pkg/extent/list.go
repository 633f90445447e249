package extent

import (
	"sort"
)

// Format denotes how a list of extent records is stored on disk.
type Format int

const (
	// FormatInline stores file contents directly inside the inode
	// literal area. Inline forks hold no extent records.
	FormatInline Format = iota
	// FormatFlat stores extent records as a flat array inside the
	// inode literal area. The number of records that fit is bounded
	// by the size of that area.
	FormatFlat
	// FormatTree stores extent records in a tree of dedicated
	// blocks, with only the root living inside the inode literal
	// area. The number of records is effectively unbounded.
	FormatTree
)

const (
	// RecordSizeBytes is the on-disk size of a single extent
	// record, both in flat arrays and in tree blocks.
	RecordSizeBytes = 16

	treeRootHeaderSizeBytes = 4
	extentsPerTreeNode      = 128
)

// TreeNode is a dedicated block of a tree backed list. Each node
// carries the number of the inode that owns it, so that consistency
// checks can detect misdirected writes.
type TreeNode struct {
	Owner uint64
}

// WorstIndexBlocks returns the number of tree blocks that recording
// the given number of file blocks may occupy in the worst case,
// namely when every block ends up in a record of its own. Delayed
// allocation reserves this amount on top of the blocks themselves.
func WorstIndexBlocks(count BlockCount) BlockCount {
	return (count + extentsPerTreeNode - 1) / extentsPerTreeNode
}

// OwnerScan is the outcome of a single bounded pass of
// ChangeTreeOwner.
type OwnerScan int

const (
	// OwnerScanDone indicates that all tree nodes now carry the new
	// owner.
	OwnerScanDone OwnerScan = iota
	// OwnerScanRetry indicates that the rewrite budget was exhausted
	// and that another pass is needed.
	OwnerScanRetry
)

// Cursor addresses a single record within a List. Cursors are
// invalidated by insertions and removals, except where documented.
type Cursor struct {
	index int
}

// List holds the extent records of a single file fork, ordered by
// file offset and non-overlapping. Holes are not stored; they are
// implied by gaps between records. Records with a delayed placement
// are held in memory only and do not count against the on-disk
// format's capacity.
type List struct {
	format       Format
	records      []Extent
	diskRecords  int
	flatCapacity int
	treeOwner    uint64
	treeNodes    []TreeNode
	needsLoad    bool
}

// NewInlineList creates an empty list in inline format. The provided
// capacity determines how many records the list may hold after an
// upgrade to flat format.
func NewInlineList(flatCapacity int) *List {
	return &List{
		format:       FormatInline,
		flatCapacity: flatCapacity,
	}
}

// NewFlatList creates an empty list in flat format that can hold up
// to flatCapacity records with a decided placement.
func NewFlatList(flatCapacity int) *List {
	return &List{
		format:       FormatFlat,
		flatCapacity: flatCapacity,
	}
}

func (l *List) checkLoaded() {
	if l.needsLoad {
		panic("Extent records have not been loaded")
	}
}

// Format returns the current storage format of the list.
func (l *List) Format() Format {
	return l.format
}

// NeedsLoad returns true if the records of this list still have to be
// read from disk. Most accessors may not be called in that state.
func (l *List) NeedsLoad() bool {
	return l.needsLoad
}

// MarkUnloaded declares that the records of this list have not been
// read from disk yet.
func (l *List) MarkUnloaded() {
	l.needsLoad = true
}

// MarkLoaded declares that the records of this list have been read
// from disk.
func (l *List) MarkLoaded() {
	l.needsLoad = false
}

// NumExtents returns the number of records held, including ones with
// a delayed placement.
func (l *List) NumExtents() int {
	return len(l.records)
}

// NumDiskExtents returns the number of records with a decided
// placement. Only these occupy space in the on-disk format.
func (l *List) NumDiskExtents() int {
	return l.diskRecords
}

// CountMayOverflow returns true if adding the given number of records
// with a decided placement would exceed the capacity of the current
// storage format.
func (l *List) CountMayOverflow(add int) bool {
	switch l.format {
	case FormatInline:
		return add > 0
	case FormatFlat:
		return l.diskRecords+add > l.flatCapacity
	default:
		return false
	}
}

// UpgradeCapacity converts the list to the next larger storage
// format. Tree backed lists stamp newly created nodes with the
// provided owner.
func (l *List) UpgradeCapacity(owner uint64) {
	switch l.format {
	case FormatInline:
		l.format = FormatFlat
	case FormatFlat:
		l.format = FormatTree
		l.treeOwner = owner
		l.resizeTree()
	default:
		panic("Tree backed lists have no larger format")
	}
}

// SetFlatCapacity changes the number of records the list may hold in
// flat format, after the inode literal area backing it has been
// resized or the list has been attached to a different inode.
func (l *List) SetFlatCapacity(flatCapacity int) {
	if l.format == FormatFlat && l.diskRecords > flatCapacity {
		panic("List holds more records than the new capacity permits")
	}
	l.flatCapacity = flatCapacity
}

// TreeRootSizeBytes returns the size of the tree root stored in the
// inode literal area, or zero if the list is not tree backed.
func (l *List) TreeRootSizeBytes() uint32 {
	if l.format != FormatTree {
		return 0
	}
	return treeRootHeaderSizeBytes + RecordSizeBytes*uint32(len(l.treeNodes))
}

// TreeNodes returns a copy of the dedicated blocks backing a tree
// backed list.
func (l *List) TreeNodes() []TreeNode {
	return append([]TreeNode(nil), l.treeNodes...)
}

// ChangeTreeOwner rewrites the owner stamped into the nodes of a tree
// backed list, modifying at most budget nodes. It returns
// OwnerScanRetry if nodes remain to be rewritten, in which case the
// caller must invoke it again after making the changes so far
// durable.
func (l *List) ChangeTreeOwner(newOwner uint64, budget int) OwnerScan {
	if l.format != FormatTree {
		panic("Owner changes only apply to tree backed lists")
	}
	if budget < 1 {
		panic("Owner change budget must be positive")
	}
	l.treeOwner = newOwner
	for i := range l.treeNodes {
		if l.treeNodes[i].Owner != newOwner {
			if budget == 0 {
				return OwnerScanRetry
			}
			l.treeNodes[i].Owner = newOwner
			budget--
		}
	}
	return OwnerScanDone
}

func (l *List) resizeTree() {
	if l.format != FormatTree {
		return
	}
	want := (l.diskRecords + extentsPerTreeNode - 1) / extentsPerTreeNode
	if want < 1 {
		want = 1
	}
	for len(l.treeNodes) < want {
		l.treeNodes = append(l.treeNodes, TreeNode{Owner: l.treeOwner})
	}
	if len(l.treeNodes) > want {
		l.treeNodes = l.treeNodes[:want]
	}
}

// Lookup returns the first record that ends past the given offset,
// which is the record containing the offset if one exists.
func (l *List) Lookup(offset FileOffset) (Cursor, Extent, bool) {
	l.checkLoaded()
	i := sort.Search(len(l.records), func(i int) bool {
		return l.records[i].End() > offset
	})
	if i >= len(l.records) {
		return Cursor{}, Extent{}, false
	}
	return Cursor{index: i}, l.records[i], true
}

// LookupBefore returns the record containing the given offset, or the
// nearest record before it.
func (l *List) LookupBefore(offset FileOffset) (Cursor, Extent, bool) {
	l.checkLoaded()
	i := sort.Search(len(l.records), func(i int) bool {
		return l.records[i].Offset > offset
	}) - 1
	if i < 0 {
		return Cursor{}, Extent{}, false
	}
	return Cursor{index: i}, l.records[i], true
}

// Get returns the record addressed by the cursor.
func (l *List) Get(c Cursor) (Extent, bool) {
	l.checkLoaded()
	if c.index < 0 || c.index >= len(l.records) {
		return Extent{}, false
	}
	return l.records[c.index], true
}

// Next advances the cursor to the following record and returns it.
func (l *List) Next(c *Cursor) (Extent, bool) {
	c.index++
	return l.Get(*c)
}

// Prev steps the cursor back to the preceding record and returns it.
func (l *List) Prev(c *Cursor) (Extent, bool) {
	c.index--
	if c.index < 0 {
		return Extent{}, false
	}
	return l.Get(*c)
}

// Last returns a cursor addressing the final record of the list.
func (l *List) Last() (Cursor, Extent, bool) {
	l.checkLoaded()
	if len(l.records) == 0 {
		return Cursor{}, Extent{}, false
	}
	i := len(l.records) - 1
	return Cursor{index: i}, l.records[i], true
}

func (l *List) insertionPoint(e Extent) int {
	if e.Length == 0 {
		panic("Extent records must not be empty")
	}
	if e.IsHole() {
		panic("Holes are not stored as records")
	}
	i := sort.Search(len(l.records), func(i int) bool {
		return l.records[i].Offset >= e.Offset
	})
	if i > 0 && l.records[i-1].End() > e.Offset {
		panic("Extent record overlaps its predecessor")
	}
	if i < len(l.records) && l.records[i].Offset < e.End() {
		panic("Extent record overlaps its successor")
	}
	return i
}

func (l *List) ensureRoomForRecord(e Extent) {
	if l.format == FormatInline {
		panic("Inline lists cannot hold extent records")
	}
	if !e.IsDelayed() && l.format == FormatFlat && l.diskRecords >= l.flatCapacity {
		panic("Flat list capacity exhausted")
	}
}

func (l *List) insertAt(i int, e Extent) {
	l.records = append(l.records, Extent{})
	copy(l.records[i+1:], l.records[i:])
	l.records[i] = e
	if !e.IsDelayed() {
		l.diskRecords++
	}
	l.resizeTree()
}

// Insert adds a record to the list and returns a cursor addressing
// it. The record must not overlap any existing record, and the
// caller is responsible for having upgraded the storage format if its
// capacity would be exceeded.
func (l *List) Insert(e Extent) Cursor {
	l.checkLoaded()
	i := l.insertionPoint(e)
	l.ensureRoomForRecord(e)
	l.insertAt(i, e)
	return Cursor{index: i}
}

func canMergeRecords(a, b Extent) bool {
	if a.End() != b.Offset || a.State != b.State {
		return false
	}
	if a.Length+b.Length > MaxExtentLength {
		return false
	}
	if a.IsDelayed() && b.IsDelayed() {
		return true
	}
	return a.IsReal() && b.IsReal() &&
		a.StartBlock+PhysicalBlock(a.Length) == b.StartBlock
}

// InsertMerging adds a record to the list, combining it with adjacent
// compatible records where possible, and returns a cursor addressing
// the record now covering the inserted range.
func (l *List) InsertMerging(e Extent) Cursor {
	l.checkLoaded()
	i := l.insertionPoint(e)
	if i > 0 && canMergeRecords(l.records[i-1], e) {
		l.records[i-1].Length += e.Length
		if i < len(l.records) && canMergeRecords(l.records[i-1], l.records[i]) {
			l.records[i-1].Length += l.records[i].Length
			l.removeAt(i)
		}
		return Cursor{index: i - 1}
	}
	if i < len(l.records) && canMergeRecords(e, l.records[i]) {
		l.records[i].Offset = e.Offset
		l.records[i].StartBlock = e.StartBlock
		l.records[i].Length += e.Length
		return Cursor{index: i}
	}
	l.ensureRoomForRecord(e)
	l.insertAt(i, e)
	return Cursor{index: i}
}

func (l *List) removeAt(i int) {
	if !l.records[i].IsDelayed() {
		l.diskRecords--
	}
	l.records = append(l.records[:i], l.records[i+1:]...)
	l.resizeTree()
}

// Remove deletes the record addressed by the cursor. The cursor
// subsequently addresses the record that followed the removed one.
func (l *List) Remove(c Cursor) {
	l.checkLoaded()
	if c.index < 0 || c.index >= len(l.records) {
		panic("Cursor does not address a record")
	}
	l.removeAt(c.index)
}

// Update replaces the record addressed by the cursor. The replacement
// must not overlap the neighbouring records.
func (l *List) Update(c Cursor, e Extent) {
	l.checkLoaded()
	if c.index < 0 || c.index >= len(l.records) {
		panic("Cursor does not address a record")
	}
	if e.Length == 0 {
		panic("Extent records must not be empty")
	}
	if e.IsHole() {
		panic("Holes are not stored as records")
	}
	if c.index > 0 && l.records[c.index-1].End() > e.Offset {
		panic("Updated record would overlap its predecessor")
	}
	if c.index < len(l.records)-1 && l.records[c.index+1].Offset < e.End() {
		panic("Updated record would overlap its successor")
	}
	old := l.records[c.index]
	if old.IsDelayed() != e.IsDelayed() {
		if e.IsDelayed() {
			l.diskRecords--
		} else {
			if l.format == FormatFlat && l.diskRecords >= l.flatCapacity {
				panic("Flat list capacity exhausted")
			}
			l.diskRecords++
		}
	}
	l.records[c.index] = e
	l.resizeTree()
}

// MappingAt returns the single mapping covering the given offset,
// materializing a hole if no record covers it. The returned mapping
// spans at most maxBlocks.
func (l *List) MappingAt(offset FileOffset, maxBlocks BlockCount) Extent {
	l.checkLoaded()
	if maxBlocks == 0 {
		panic("Mappings must cover at least one block")
	}
	_, got, ok := l.Lookup(offset)
	if !ok || got.Offset > offset {
		length := maxBlocks
		if ok {
			if gap := BlockCount(got.Offset - offset); gap < length {
				length = gap
			}
		}
		return Extent{
			Offset:     offset,
			StartBlock: HoleStartBlock,
			Length:     length,
		}
	}
	got.Trim(offset, maxBlocks)
	return got
}

// CountBlocks returns the number of records with allocated backing
// store and the total number of blocks they cover. Records with a
// delayed placement are not counted.
func (l *List) CountBlocks() (int, BlockCount) {
	l.checkLoaded()
	numExtents := 0
	var blocks BlockCount
	for _, e := range l.records {
		if e.IsReal() {
			numExtents++
			blocks += e.Length
		}
	}
	return numExtents, blocks
}

// Extents returns a copy of all records held by the list.
func (l *List) Extents() []Extent {
	l.checkLoaded()
	return append([]Extent(nil), l.records...)
}

// Clone returns a deep copy of the list.
func (l *List) Clone() *List {
	return &List{
		format:       l.format,
		records:      append([]Extent(nil), l.records...),
		diskRecords:  l.diskRecords,
		flatCapacity: l.flatCapacity,
		treeOwner:    l.treeOwner,
		treeNodes:    append([]TreeNode(nil), l.treeNodes...),
		needsLoad:    l.needsLoad,
	}
}
