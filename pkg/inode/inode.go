package inode

import (
	"sync"
	"time"

	"github.com/buildbarn/bb-extentfs/pkg/extent"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Number identifies an inode on a volume.
type Number uint64

// ForkRole denotes one of the up to three forks of an inode.
type ForkRole int

const (
	// ForkData holds the contents of the file.
	ForkData ForkRole = iota
	// ForkAttr holds extended attributes.
	ForkAttr
	// ForkCOW stages copy-on-write allocations until writeback
	// completes. It is held in memory only.
	ForkCOW
)

func (r ForkRole) String() string {
	switch r {
	case ForkData:
		return "data"
	case ForkAttr:
		return "attr"
	case ForkCOW:
		return "cow"
	default:
		return "unknown"
	}
}

// LockClass denotes one of the three locks protecting an inode. An
// operation acquiring multiple classes must do so in the order in
// which they are declared here.
type LockClass int

const (
	// LockIO serializes byte range operations against each other.
	LockIO LockClass = iota
	// LockMapping serializes page cache manipulation.
	LockMapping
	// LockIndex protects the extent lists and size fields.
	LockIndex
)

// Flags holds the persistent attribute flags of an inode that
// influence space management.
type Flags struct {
	// Prealloc is set once space has been preallocated explicitly.
	// It suppresses reclamation of blocks past the end of the file.
	Prealloc bool
	// Append marks an append-only file, which also suppresses
	// reclamation.
	Append bool
	// Realtime directs all allocations to the realtime zone.
	Realtime bool
	// Reflink is set while the file may share blocks with others.
	Reflink bool
}

const (
	// DefaultLiteralAreaBytes is the space inside an inode available
	// to fork storage.
	DefaultLiteralAreaBytes = 336

	cowForkFlatCapacity = 1 << 30
)

// Inode is the in-core representation of a single file. The fields
// below LockIndex in the locking order may only be accessed while
// holding that lock, with the exception of reads performed by
// consistency checks after an operation has completed.
type Inode struct {
	Number  Number
	Regular bool

	UID       uint32
	GID       uint32
	ProjectID uint32

	ioLock      sync.Mutex
	mappingLock sync.Mutex
	indexLock   sync.Mutex

	// SizeBytes is the in-core file size. DiskSizeBytes trails it
	// until writeback completes, so that a crash cannot expose
	// uninitialized blocks within the on-disk size.
	SizeBytes     int64
	DiskSizeBytes int64

	// BlockCount is the number of allocated blocks backing all
	// forks. DelayedBlockCount is the number of reserved blocks
	// whose placement has not been decided yet. ReservedBlockCount
	// is the total reservation held for them, which exceeds
	// DelayedBlockCount by the worst case index growth their
	// conversion may cause.
	BlockCount         extent.BlockCount
	DelayedBlockCount  extent.BlockCount
	ReservedBlockCount extent.BlockCount

	Flags Flags

	// ExtentSizeHintBlocks requests that allocations be performed
	// in aligned multiples of this size. Zero disables the hint.
	ExtentSizeHintBlocks extent.BlockCount

	ChangeTime time.Time
	ModifyTime time.Time

	// EOFBlocksTagged is set while the inode is registered for
	// background reclamation of blocks past the end of the file.
	EOFBlocksTagged bool

	literalAreaBytes    uint32
	attrForkOffsetBytes uint32

	dataFork *extent.List
	attrFork *extent.List
	cowFork  *extent.List
}

// New creates an inode with an empty data fork and no attribute or
// copy-on-write forks.
func New(number Number, regular bool) *Inode {
	ip := &Inode{
		Number:           number,
		Regular:          regular,
		literalAreaBytes: DefaultLiteralAreaBytes,
	}
	ip.dataFork = extent.NewFlatList(ip.ForkFlatCapacity(ForkData))
	return ip
}

// Locker returns the lock of the given class.
func (ip *Inode) Locker(class LockClass) sync.Locker {
	switch class {
	case LockIO:
		return &ip.ioLock
	case LockMapping:
		return &ip.mappingLock
	case LockIndex:
		return &ip.indexLock
	default:
		panic("Unknown lock class")
	}
}

// Fork returns the extent list backing the given fork, or nil if the
// inode does not have that fork.
func (ip *Inode) Fork(role ForkRole) *extent.List {
	switch role {
	case ForkData:
		return ip.dataFork
	case ForkAttr:
		return ip.attrFork
	case ForkCOW:
		return ip.cowFork
	default:
		panic("Unknown fork role")
	}
}

// SetFork attaches an extent list to the given fork, adjusting its
// flat capacity to the space this inode has available for it.
func (ip *Inode) SetFork(role ForkRole, l *extent.List) {
	if l != nil && role != ForkCOW {
		l.SetFlatCapacity(ip.ForkFlatCapacity(role))
	}
	switch role {
	case ForkData:
		ip.dataFork = l
	case ForkAttr:
		ip.attrFork = l
	case ForkCOW:
		ip.cowFork = l
	default:
		panic("Unknown fork role")
	}
}

// ForkAllotmentBytes returns the number of bytes of the inode literal
// area available to the given fork.
func (ip *Inode) ForkAllotmentBytes(role ForkRole) uint32 {
	switch role {
	case ForkData:
		if ip.attrForkOffsetBytes == 0 {
			return ip.literalAreaBytes
		}
		return ip.attrForkOffsetBytes
	case ForkAttr:
		if ip.attrForkOffsetBytes == 0 {
			return 0
		}
		return ip.literalAreaBytes - ip.attrForkOffsetBytes
	case ForkCOW:
		return 0
	default:
		panic("Unknown fork role")
	}
}

// ForkFlatCapacity returns the number of extent records the given
// fork can hold in flat format.
func (ip *Inode) ForkFlatCapacity(role ForkRole) int {
	if role == ForkCOW {
		return cowForkFlatCapacity
	}
	return int(ip.ForkAllotmentBytes(role) / extent.RecordSizeBytes)
}

// ForkMayOverflow returns true if adding the given number of extent
// records to the fork would exceed its current format's capacity, in
// which case the caller must upgrade the fork before proceeding.
func (ip *Inode) ForkMayOverflow(role ForkRole, add int) bool {
	if role == ForkCOW {
		return false
	}
	l := ip.Fork(role)
	if l == nil {
		return false
	}
	return l.CountMayOverflow(add)
}

// UpgradeForkCapacity converts the fork to the next larger storage
// format.
func (ip *Inode) UpgradeForkCapacity(role ForkRole) {
	ip.Fork(role).UpgradeCapacity(uint64(ip.Number))
}

// AddAttrFork splits the inode literal area at the given offset,
// reserving the upper part for extended attribute storage. The data
// fork's capacity shrinks accordingly.
func (ip *Inode) AddAttrFork(offsetBytes uint32) {
	if ip.attrFork != nil {
		panic("Inode already has an attribute fork")
	}
	if offsetBytes == 0 || offsetBytes >= ip.literalAreaBytes {
		panic("Attribute fork offset must lie within the literal area")
	}
	ip.attrForkOffsetBytes = offsetBytes
	ip.attrFork = extent.NewFlatList(ip.ForkFlatCapacity(ForkAttr))
	ip.dataFork.SetFlatCapacity(ip.ForkFlatCapacity(ForkData))
}

// AttrForkOffsetBytes returns the offset at which the literal area is
// split between the data and attribute forks, or zero if the inode
// has no attribute fork.
func (ip *Inode) AttrForkOffsetBytes() uint32 {
	return ip.attrForkOffsetBytes
}

// EnsureCOWFork creates the copy-on-write fork if the inode does not
// have one yet.
func (ip *Inode) EnsureCOWFork() *extent.List {
	if ip.cowFork == nil {
		ip.cowFork = extent.NewFlatList(cowForkFlatCapacity)
	}
	return ip.cowFork
}

// HasCOWData returns true if the copy-on-write fork holds any staged
// extents.
func (ip *Inode) HasCOWData() bool {
	return ip.cowFork != nil && ip.cowFork.NumExtents() > 0
}

// Snapshot captures the mutable state of an inode, so that a failed
// transaction can restore it.
type Snapshot struct {
	sizeBytes           int64
	diskSizeBytes       int64
	blockCount          extent.BlockCount
	delayedBlockCount   extent.BlockCount
	reservedBlockCount  extent.BlockCount
	flags               Flags
	extentSizeHint      extent.BlockCount
	changeTime          time.Time
	modifyTime          time.Time
	eofBlocksTagged     bool
	attrForkOffsetBytes uint32
	dataFork            *extent.List
	attrFork            *extent.List
	cowFork             *extent.List
}

func cloneList(l *extent.List) *extent.List {
	if l == nil {
		return nil
	}
	return l.Clone()
}

// Snapshot captures the current state of the inode.
func (ip *Inode) Snapshot() Snapshot {
	return Snapshot{
		sizeBytes:           ip.SizeBytes,
		diskSizeBytes:       ip.DiskSizeBytes,
		blockCount:          ip.BlockCount,
		delayedBlockCount:   ip.DelayedBlockCount,
		reservedBlockCount:  ip.ReservedBlockCount,
		flags:               ip.Flags,
		extentSizeHint:      ip.ExtentSizeHintBlocks,
		changeTime:          ip.ChangeTime,
		modifyTime:          ip.ModifyTime,
		eofBlocksTagged:     ip.EOFBlocksTagged,
		attrForkOffsetBytes: ip.attrForkOffsetBytes,
		dataFork:            cloneList(ip.dataFork),
		attrFork:            cloneList(ip.attrFork),
		cowFork:             cloneList(ip.cowFork),
	}
}

// Restore resets the inode to a previously captured state.
func (ip *Inode) Restore(s Snapshot) {
	ip.SizeBytes = s.sizeBytes
	ip.DiskSizeBytes = s.diskSizeBytes
	ip.BlockCount = s.blockCount
	ip.DelayedBlockCount = s.delayedBlockCount
	ip.ReservedBlockCount = s.reservedBlockCount
	ip.Flags = s.flags
	ip.ExtentSizeHintBlocks = s.extentSizeHint
	ip.ChangeTime = s.changeTime
	ip.ModifyTime = s.modifyTime
	ip.EOFBlocksTagged = s.eofBlocksTagged
	ip.attrForkOffsetBytes = s.attrForkOffsetBytes
	ip.dataFork = cloneList(s.dataFork)
	ip.attrFork = cloneList(s.attrFork)
	ip.cowFork = cloneList(s.cowFork)
}

// CheckBlockAccounting verifies that the inode's block counters match
// the extent records of its forks. Forks whose records have not been
// loaded are skipped.
func (ip *Inode) CheckBlockAccounting() error {
	var allocated, delayed extent.BlockCount
	for _, role := range []ForkRole{ForkData, ForkAttr, ForkCOW} {
		l := ip.Fork(role)
		if l == nil {
			continue
		}
		if l.NeedsLoad() {
			return nil
		}
		for _, e := range l.Extents() {
			if e.IsReal() {
				allocated += e.Length
			} else if e.IsDelayed() {
				delayed += e.Length
			}
		}
	}
	if allocated != ip.BlockCount {
		return status.Errorf(codes.Internal, "Inode %d has a block count of %d, while its extent records cover %d blocks", ip.Number, ip.BlockCount, allocated)
	}
	if delayed != ip.DelayedBlockCount {
		return status.Errorf(codes.Internal, "Inode %d has a delayed block count of %d, while its extent records reserve %d blocks", ip.Number, ip.DelayedBlockCount, delayed)
	}
	if ip.ReservedBlockCount < ip.DelayedBlockCount {
		return status.Errorf(codes.Internal, "Inode %d holds a reservation of %d blocks, which no longer covers its %d delayed blocks", ip.Number, ip.ReservedBlockCount, ip.DelayedBlockCount)
	}
	return nil
}
