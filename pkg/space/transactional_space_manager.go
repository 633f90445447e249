package space

import (
	"context"
	"math"

	"github.com/buildbarn/bb-extentfs/pkg/allocation"
	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
	"github.com/buildbarn/bb-extentfs/pkg/transaction"
	"github.com/buildbarn/bb-storage/pkg/clock"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// treeGrowthSlackBlocks is the reservation added to every transaction
// for blocks the extent tree may need when records are added or
// split.
const treeGrowthSlackBlocks = 8

type transactionalSpaceManager struct {
	driver     transaction.Driver
	allocator  allocation.Allocator
	pageCache  PageCache
	quota      QuotaTracker
	shared     SharedBlockIndex
	accountant *DelallocAccountant
	volume     *Volume
	clock      clock.Clock
}

// NewTransactionalSpaceManager creates a SpaceManager that performs
// all mutations through transactions obtained from the given driver,
// decomposing unbounded operations into bounded steps.
func NewTransactionalSpaceManager(driver transaction.Driver, allocator allocation.Allocator, pageCache PageCache, quota QuotaTracker, shared SharedBlockIndex, volume *Volume, clk clock.Clock) SpaceManager {
	return &transactionalSpaceManager{
		driver:     driver,
		allocator:  allocator,
		pageCache:  pageCache,
		quota:      quota,
		shared:     shared,
		accountant: NewDelallocAccountant(volume.Geometry, quota),
		volume:     volume,
		clock:      clk,
	}
}

func allocationZone(ip *inode.Inode) allocation.Zone {
	if ip.Flags.Realtime {
		return allocation.ZoneRealtime
	}
	return allocation.ZoneData
}

func ensureForkCapacity(ip *inode.Inode, role inode.ForkRole, add int) {
	if ip.ForkMayOverflow(role, add) {
		ip.UpgradeForkCapacity(role)
	}
}

func (sm *transactionalSpaceManager) lockInode(ip *inode.Inode) *inode.LockSet {
	var ls inode.LockSet
	ls.Lock(inode.LockIO, ip)
	ls.Lock(inode.LockMapping, ip)
	ls.Lock(inode.LockIndex, ip)
	return &ls
}

func (sm *transactionalSpaceManager) touch(ip *inode.Inode) {
	now := sm.clock.Now()
	ip.ChangeTime = now
	ip.ModifyTime = now
}

// extentSizeHint returns the allocation granularity requested for a
// file. Realtime files without an explicit hint fall back to the
// realtime extent size.
func (sm *transactionalSpaceManager) extentSizeHint(ip *inode.Inode) extent.BlockCount {
	if ip.ExtentSizeHintBlocks > 0 {
		return ip.ExtentSizeHintBlocks
	}
	if ip.Flags.Realtime && sm.volume.Geometry.HasBigRealtimeExtents() {
		return sm.volume.Geometry.RealtimeExtentBlocks
	}
	return 0
}

// placementHint returns the physical block after the nearest
// preceding allocation, so that files stay contiguous on disk.
func placementHint(l *extent.List, offset extent.FileOffset) extent.PhysicalBlock {
	if offset == 0 {
		return 0
	}
	if _, prev, ok := l.LookupBefore(offset - 1); ok && prev.IsReal() {
		return prev.StartBlock + extent.PhysicalBlock(prev.Length)
	}
	return 0
}

// place allocates up to maxBlocks for a file, relaxing the alignment
// constraint before giving up.
func (sm *transactionalSpaceManager) place(ctx context.Context, ip *inode.Inode, near extent.PhysicalBlock, maxBlocks, alignment extent.BlockCount) (extent.PhysicalBlock, extent.BlockCount, error) {
	zone := allocationZone(ip)
	req := allocation.Request{
		Zone:      zone,
		Near:      near,
		MinBlocks: 1,
		MaxBlocks: maxBlocks,
		Alignment: alignment,
	}
	for {
		first, count, ok, err := sm.allocator.Allocate(ctx, req)
		if err != nil {
			return 0, 0, err
		}
		if ok {
			return first, count, nil
		}
		if req.Alignment > 1 {
			req.Alignment = 1
			continue
		}
		return 0, 0, status.Errorf(codes.ResourceExhausted, "The %s zone has no room for inode %d", zone, ip.Number)
	}
}

// replaceDelayedRange substitutes a freshly placed extent for the
// corresponding part of a delayed allocation record.
func (sm *transactionalSpaceManager) replaceDelayedRange(ip *inode.Inode, e extent.Extent) {
	l := ip.Fork(inode.ForkData)
	c, got, ok := l.Lookup(e.Offset)
	if !ok || !got.IsDelayed() || got.Offset > e.Offset || got.End() < e.End() {
		panic("Blocks to be placed are not covered by a delayed allocation")
	}
	ensureForkCapacity(ip, inode.ForkData, 1)
	l.Remove(c)
	if got.Offset < e.Offset {
		l.InsertMerging(extent.Extent{
			Offset:     got.Offset,
			StartBlock: extent.DelayedStartBlock,
			Length:     extent.BlockCount(e.Offset - got.Offset),
			State:      extent.StateWritten,
		})
	}
	l.InsertMerging(e)
	if e.End() < got.End() {
		l.InsertMerging(extent.Extent{
			Offset:     e.End(),
			StartBlock: extent.DelayedStartBlock,
			Length:     extent.BlockCount(got.End() - e.End()),
			State:      extent.StateWritten,
		})
	}
}

// writeBack models completion of page cache writeback: all delayed
// allocations below the in-core file size receive a placement, dirty
// pages are flushed, and the on-disk size catches up.
func (sm *transactionalSpaceManager) writeBack(ctx context.Context, ip *inode.Inode) error {
	geo := sm.volume.Geometry
	l := ip.Fork(inode.ForkData)
	if !l.NeedsLoad() && ip.DelayedBlockCount > 0 {
		end := geo.BytesToBlocks(ip.SizeBytes)
		for offset := extent.FileOffset(0); offset < end; {
			m := l.MappingAt(offset, extent.BlockCount(end-offset))
			if !m.IsDelayed() {
				offset = m.End()
				continue
			}
			first, count, err := sm.place(ctx, ip, placementHint(l, m.Offset), m.Length, 1)
			if err != nil {
				return util.StatusWrap(err, "Failed to place delayed allocation during writeback")
			}
			sm.replaceDelayedRange(ip, extent.Extent{
				Offset:     m.Offset,
				StartBlock: first,
				Length:     count,
				State:      extent.StateWritten,
			})
			sm.accountant.ConvertReservation(ip, allocationZone(ip), count)
			ip.BlockCount += count
			offset = m.Offset + extent.FileOffset(count)
		}
	}
	if err := sm.pageCache.FlushRange(ip, 0, math.MaxInt64); err != nil {
		return err
	}
	if ip.DiskSizeBytes < ip.SizeBytes {
		ip.DiskSizeBytes = ip.SizeBytes
	}
	return nil
}

// flushUnmapRange pushes cached data overlapping the given byte range
// out of the page cache, extended to allocation unit and page
// boundaries so that no extent overlapping the range remains dirty.
func (sm *transactionalSpaceManager) flushUnmapRange(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	if err := sm.writeBack(ctx, ip); err != nil {
		return err
	}
	geo := sm.volume.Geometry
	rounding := geo.AllocationUnitBytes(ip.Flags.Realtime)
	if p := int64(geo.PageSizeBytes); p > rounding {
		rounding = p
	}
	start := offsetBytes / rounding * rounding
	end := (offsetBytes + lengthBytes + rounding - 1) / rounding * rounding
	sm.pageCache.TruncateRange(ip, start, end)
	return nil
}

// cancelCOWRange drops staged copy on write allocations overlapping
// [offsetBytes, end of file), freeing their blocks.
func (sm *transactionalSpaceManager) cancelCOWRange(ctx context.Context, ip *inode.Inode, offsetBytes int64) error {
	l := ip.Fork(inode.ForkCOW)
	if l == nil || l.NumExtents() == 0 {
		return nil
	}
	start := sm.volume.Geometry.BytesToBlocksTruncated(offsetBytes)
	tx, err := sm.driver.Begin(ctx, transaction.Reservation{Blocks: treeGrowthSlackBlocks})
	if err != nil {
		return err
	}
	tx.Join(ip)
	zone := allocationZone(ip)
	var freed extent.BlockCount
	c, got, ok := l.Lookup(start)
	for ok {
		del := got
		del.Trim(start, extent.BlockCount(extent.NullFileOffset-start))
		if del.Length > 0 {
			tx.Defer(transaction.UnmapExtent{Inode: ip, Role: inode.ForkCOW, Unmap: del})
			tx.Defer(transaction.FreeBlocks{Zone: zone, First: del.StartBlock, Count: del.Length})
			freed += del.Length
		}
		got, ok = l.Next(&c)
	}
	tx.Log(ip)
	if err := tx.Commit(); err != nil {
		return err
	}
	sm.quota.ReleaseBlocks(ip, zone, freed)
	return nil
}

func (sm *transactionalSpaceManager) AllocateFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	if offsetBytes < 0 || lengthBytes <= 0 {
		return status.Error(codes.InvalidArgument, "Offset must be non-negative and length must be positive")
	}
	if offsetBytes > sm.volume.Geometry.MaxFileSizeBytes-lengthBytes {
		return status.Error(codes.InvalidArgument, "Range extends past the maximum file size")
	}
	ls := sm.lockInode(ip)
	defer ls.UnlockAll()
	return sm.allocateFileSpace(ctx, ip, offsetBytes, lengthBytes)
}

func (sm *transactionalSpaceManager) allocateFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	if err := sm.quota.Attach(ip); err != nil {
		return util.StatusWrap(err, "Failed to attach quota")
	}
	// Wait on direct I/O so that the file size has settled. Cached
	// data can stay: delayed allocations in the range are placed as
	// part of the loop below.
	sm.pageCache.WaitForDirectIO(ip)

	geo := sm.volume.Geometry
	hint := sm.extentSizeHint(ip)
	start := geo.BytesToBlocksTruncated(offsetBytes)
	remaining := extent.BlockCount(geo.BytesToBlocks(offsetBytes+lengthBytes) - start)
	alignment := extent.BlockCount(1)
	if hint > 0 {
		alignment = hint
	}

	for remaining > 0 {
		// Size the reservation to the hint aligned window around
		// the remaining range, capped at the largest single
		// extent to keep it within 32 bits.
		var s, e extent.FileOffset
		if hint > 0 {
			h := extent.FileOffset(hint)
			s = start / h * h
			e = start + extent.FileOffset(remaining)
			if rem := start % h; rem != 0 {
				e += rem
			}
			if rem := e % h; rem != 0 {
				e += h - rem
			}
		} else {
			s, e = 0, extent.FileOffset(remaining)
		}
		resblks := extent.BlockCount(e - s)
		if resblks > extent.MaxExtentLength {
			resblks = extent.MaxExtentLength
		}

		tx, err := sm.driver.Begin(ctx, transaction.Reservation{Blocks: uint32(resblks) + treeGrowthSlackBlocks})
		if err != nil {
			return err
		}
		tx.Join(ip)

		placed, ok, err := sm.allocateExtent(ctx, ip, start, remaining, alignment)
		if err != nil {
			tx.Cancel()
			return err
		}
		if ok {
			// An extent size hint may have widened the allocation
			// beyond the end of the requested range.
			start += extent.FileOffset(placed)
			if placed < remaining {
				remaining -= placed
			} else {
				remaining = 0
			}
		} else if alignment > 1 {
			// Retry the same offset with relaxed alignment, so
			// that progress is only claimed once an extent has
			// actually been placed.
			alignment = 1
		} else {
			tx.Cancel()
			return status.Errorf(codes.ResourceExhausted, "The %s zone has no room for %d blocks for inode %d", allocationZone(ip), remaining, ip.Number)
		}

		ip.Flags.Prealloc = true
		sm.touch(ip)
		tx.Log(ip)
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// allocateExtent makes the block at start and as many blocks after it
// as possible real: by reporting an existing allocation, by placing a
// delayed allocation, or by filling a hole. It returns the number of
// blocks at or after start that are now backed. ok is false if the
// allocator could not place an extent under the given alignment.
func (sm *transactionalSpaceManager) allocateExtent(ctx context.Context, ip *inode.Inode, start extent.FileOffset, maxBlocks, alignment extent.BlockCount) (extent.BlockCount, bool, error) {
	l := ip.Fork(inode.ForkData)
	ensureForkCapacity(ip, inode.ForkData, 1)
	m := l.MappingAt(start, maxBlocks)
	if m.IsReal() {
		return m.Length, true, nil
	}
	target := m
	if alignment > 1 && m.IsHole() {
		target = alignHoleToHint(l, m, alignment, sm.volume.Geometry.MaxFileBlocks())
	}
	n := target.Length
	if n > extent.MaxExtentLength {
		n = extent.MaxExtentLength
	}
	covered := extent.BlockCount(start - target.Offset)
	zone := allocationZone(ip)
	first, count, ok, err := sm.allocator.Allocate(ctx, allocation.Request{
		Zone:      zone,
		Near:      placementHint(l, target.Offset),
		MinBlocks: covered + 1,
		MaxBlocks: n,
		Alignment: alignment,
	})
	if err != nil || !ok {
		return 0, false, err
	}
	placed := extent.Extent{
		Offset:     target.Offset,
		StartBlock: first,
		Length:     count,
		State:      extent.StateUnwritten,
	}
	if m.IsDelayed() {
		sm.replaceDelayedRange(ip, placed)
		sm.accountant.ConvertReservation(ip, zone, count)
	} else {
		if err := sm.quota.ChargeBlocks(ip, zone, count); err != nil {
			sm.allocator.Free(zone, first, count)
			return 0, false, err
		}
		l.InsertMerging(placed)
	}
	ip.BlockCount += count
	return count - covered, true, nil
}

// alignHoleToHint widens a hole mapping to extent size hint
// boundaries, without disturbing the records on either side of the
// hole and without crossing the largest supported file offset.
func alignHoleToHint(l *extent.List, m extent.Extent, hint extent.BlockCount, maxBlocks extent.FileOffset) extent.Extent {
	a := extent.FileOffset(hint)
	lo := m.Offset / a * a
	hi := (m.End() + a - 1) / a * a
	if _, prev, ok := l.LookupBefore(m.Offset); ok && lo < prev.End() {
		lo = prev.End()
	}
	if _, next, ok := l.Lookup(m.End()); ok {
		if hi > next.Offset {
			hi = next.Offset
		}
	} else if hi > maxBlocks {
		hi = maxBlocks
	}
	if extent.BlockCount(hi-lo) > extent.MaxExtentLength {
		return m
	}
	m.Offset = lo
	m.Length = extent.BlockCount(hi - lo)
	return m
}

func (sm *transactionalSpaceManager) FreeFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	if offsetBytes < 0 {
		return status.Error(codes.InvalidArgument, "Offset must be non-negative")
	}
	if lengthBytes <= 0 {
		return nil
	}
	if offsetBytes > sm.volume.Geometry.MaxFileSizeBytes-lengthBytes {
		return status.Error(codes.InvalidArgument, "Range extends past the maximum file size")
	}
	ls := sm.lockInode(ip)
	defer ls.UnlockAll()
	return sm.freeFileSpace(ctx, ip, offsetBytes, lengthBytes)
}

func (sm *transactionalSpaceManager) freeFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	if err := sm.quota.Attach(ip); err != nil {
		return util.StatusWrap(err, "Failed to attach quota")
	}
	sm.pageCache.WaitForDirectIO(ip)
	if err := sm.flushUnmapRange(ctx, ip, offsetBytes, lengthBytes); err != nil {
		return err
	}

	geo := sm.volume.Geometry
	start := geo.BytesToBlocks(offsetBytes)
	end := geo.BytesToBlocksTruncated(offsetBytes + lengthBytes)
	if ip.Flags.Realtime && geo.HasBigRealtimeExtents() {
		// Only whole realtime extents can be freed.
		start = geo.RoundUpToRealtimeExtent(start)
		end = geo.RoundDownToRealtimeExtent(end)
	}
	if start < end {
		sm.accountant.PunchRange(ip, geo.BlocksToBytes(start), geo.BlocksToBytes(end))
		for done := false; !done; {
			var err error
			done, err = sm.unmapExtents(ctx, ip, start, end)
			if err != nil {
				return err
			}
		}
	}

	// Zero any partial blocks at the edges through the cache. This
	// must not grow the file.
	if offsetBytes >= ip.SizeBytes {
		return nil
	}
	endBytes := offsetBytes + lengthBytes
	if endBytes > ip.SizeBytes {
		endBytes = ip.SizeBytes
	}
	if err := sm.pageCache.ZeroRange(ip, offsetBytes, endBytes); err != nil {
		return err
	}
	// If the zeroed range ends at the file size and that is not
	// page aligned, the rest of the page must go out to disk as
	// well, as a memory mapping may have dirtied it.
	pageSize := int64(geo.PageSizeBytes)
	if endBytes >= ip.SizeBytes && endBytes%pageSize != 0 {
		return sm.pageCache.FlushRange(ip, endBytes/pageSize*pageSize, math.MaxInt64)
	}
	return nil
}

// unmapExtents removes up to two extents overlapping [start, end)
// from the data fork in a single transaction, working from the end of
// the range backwards and deferring the freeing of blocks. done is
// true once no extents overlap the range.
func (sm *transactionalSpaceManager) unmapExtents(ctx context.Context, ip *inode.Inode, start, end extent.FileOffset) (bool, error) {
	tx, err := sm.driver.Begin(ctx, transaction.Reservation{Blocks: treeGrowthSlackBlocks})
	if err != nil {
		return false, err
	}
	tx.Join(ip)
	ensureForkCapacity(ip, inode.ForkData, 1)

	l := ip.Fork(inode.ForkData)
	zone := allocationZone(ip)
	done := true
	var freed extent.BlockCount
	unmapped := 0
	c, got, ok := l.LookupBefore(end - 1)
	for ok && got.End() > start {
		if unmapped == 2 {
			done = false
			break
		}
		del := got
		del.Trim(start, extent.BlockCount(end-start))
		if del.Length > 0 {
			if del.IsDelayed() {
				panic("Delayed allocations must be punched before unmapping")
			}
			tx.Defer(transaction.UnmapExtent{Inode: ip, Role: inode.ForkData, Unmap: del})
			tx.Defer(transaction.FreeBlocks{Zone: zone, First: del.StartBlock, Count: del.Length})
			freed += del.Length
			unmapped++
		}
		got, ok = l.Prev(&c)
	}

	sm.touch(ip)
	tx.Log(ip)
	if err := tx.Commit(); err != nil {
		return false, err
	}
	sm.quota.ReleaseBlocks(ip, zone, freed)
	return done, nil
}

func (sm *transactionalSpaceManager) CanReclaimEOFBlocks(ip *inode.Inode) bool {
	if !ip.Regular {
		return false
	}
	if ip.SizeBytes == 0 && sm.pageCache.ResidentPages(ip) == 0 && ip.DelayedBlockCount == 0 {
		return false
	}
	l := ip.Fork(inode.ForkData)
	if l.NeedsLoad() {
		return false
	}
	// Files with persistent preallocation keep their trailing real
	// extents; only delayed allocations may go.
	if (ip.Flags.Prealloc || ip.Flags.Append) && ip.DelayedBlockCount == 0 {
		return false
	}
	geo := sm.volume.Geometry
	end := geo.BytesToBlocks(ip.SizeBytes)
	if ip.Flags.Realtime && geo.HasBigRealtimeExtents() {
		end = geo.RoundUpToRealtimeExtent(end)
	}
	if geo.MaxFileBlocks() <= end {
		return false
	}
	if ip.DelayedBlockCount > 0 {
		return true
	}
	_, _, ok := l.Lookup(end)
	return ok
}

func (sm *transactionalSpaceManager) ReclaimEOFBlocks(ctx context.Context, ip *inode.Inode) error {
	var ls inode.LockSet
	ls.Lock(inode.LockIO, ip)
	ls.Lock(inode.LockIndex, ip)
	defer ls.UnlockAll()
	return sm.reclaimEOFBlocks(ctx, ip)
}

func (sm *transactionalSpaceManager) reclaimEOFBlocks(ctx context.Context, ip *inode.Inode) error {
	if err := sm.quota.Attach(ip); err != nil {
		return util.StatusWrap(err, "Failed to attach quota")
	}
	// Wait on direct I/O so that the file size has settled.
	sm.pageCache.WaitForDirectIO(ip)

	geo := sm.volume.Geometry
	if ip.Flags.Prealloc || ip.Flags.Append {
		if ip.DelayedBlockCount > 0 {
			blockSize := int64(geo.BlockSizeBytes)
			eof := (ip.SizeBytes + blockSize - 1) / blockSize * blockSize
			sm.accountant.PunchRange(ip, eof, math.MaxInt64)
		}
		ip.EOFBlocksTagged = false
		return nil
	}

	tx, err := sm.driver.Begin(ctx, transaction.Reservation{Blocks: treeGrowthSlackBlocks})
	if err != nil {
		return err
	}
	tx.Join(ip)
	// Trim the extent list to the in-core size. The on-disk size is
	// left alone: moving it before the truncation point is durable
	// would let a crash resurrect the file full of holes.
	if err := sm.truncateExtents(tx, ip, ip.SizeBytes); err != nil {
		tx.Cancel()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	ip.EOFBlocksTagged = false
	return nil
}

// truncateExtents removes all data fork extents at or above the block
// containing newSizeBytes, in bounded batches separated by rolls of
// the given transaction.
func (sm *transactionalSpaceManager) truncateExtents(tx transaction.Transaction, ip *inode.Inode, newSizeBytes int64) error {
	geo := sm.volume.Geometry
	first := geo.BytesToBlocks(newSizeBytes)
	if ip.DelayedBlockCount > 0 {
		sm.accountant.PunchRange(ip, geo.BlocksToBytes(first), math.MaxInt64)
	}

	l := ip.Fork(inode.ForkData)
	zone := allocationZone(ip)
	for {
		ensureForkCapacity(ip, inode.ForkData, 1)
		var freed extent.BlockCount
		batch := 0
		c, got, ok := l.Last()
		for ; ok && got.End() > first && batch < 2; got, ok = l.Prev(&c) {
			del := got
			del.Trim(first, extent.BlockCount(extent.NullFileOffset-first))
			tx.Defer(transaction.UnmapExtent{Inode: ip, Role: inode.ForkData, Unmap: del})
			tx.Defer(transaction.FreeBlocks{Zone: zone, First: del.StartBlock, Count: del.Length})
			freed += del.Length
			batch++
		}
		if batch == 0 {
			return nil
		}
		if err := tx.FinishDeferred(); err != nil {
			return err
		}
		sm.quota.ReleaseBlocks(ip, zone, freed)
	}
}

func (sm *transactionalSpaceManager) ReserveDelayedSpace(ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	if offsetBytes < 0 || lengthBytes <= 0 {
		return status.Error(codes.InvalidArgument, "Offset must be non-negative and length must be positive")
	}
	if offsetBytes > sm.volume.Geometry.MaxFileSizeBytes-lengthBytes {
		return status.Error(codes.InvalidArgument, "Range extends past the maximum file size")
	}
	var ls inode.LockSet
	ls.Lock(inode.LockIO, ip)
	ls.Lock(inode.LockIndex, ip)
	defer ls.UnlockAll()

	if err := sm.quota.Attach(ip); err != nil {
		return util.StatusWrap(err, "Failed to attach quota")
	}
	if err := sm.accountant.ReserveRange(ip, offsetBytes, lengthBytes); err != nil {
		return err
	}
	if offsetBytes+lengthBytes > ip.SizeBytes {
		ip.EOFBlocksTagged = true
	}
	return nil
}

func (sm *transactionalSpaceManager) PunchDelayedRange(ip *inode.Inode, startBytes, endBytes int64) error {
	if startBytes < 0 || endBytes < startBytes {
		return status.Error(codes.InvalidArgument, "Start must be non-negative and must not exceed the end")
	}
	var ls inode.LockSet
	ls.Lock(inode.LockIO, ip)
	ls.Lock(inode.LockIndex, ip)
	defer ls.UnlockAll()

	sm.accountant.PunchRange(ip, startBytes, endBytes)
	return nil
}

func (sm *transactionalSpaceManager) CountForkBlocks(ip *inode.Inode, role inode.ForkRole) (int, extent.BlockCount, error) {
	var ls inode.LockSet
	ls.Lock(inode.LockIndex, ip)
	defer ls.UnlockAll()

	l := ip.Fork(role)
	if l == nil {
		return 0, 0, nil
	}
	if l.NeedsLoad() {
		return 0, 0, status.Errorf(codes.FailedPrecondition, "Extent records of inode %d have not been loaded", ip.Number)
	}
	var blocks extent.BlockCount
	switch l.Format() {
	case extent.FormatInline:
		return 0, 0, nil
	case extent.FormatTree:
		blocks += extent.BlockCount(len(l.TreeNodes()))
	}
	extents, leafBlocks := l.CountBlocks()
	return extents, blocks + leafBlocks, nil
}
