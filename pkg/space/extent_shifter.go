package space

import (
	"context"

	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
	"github.com/buildbarn/bb-extentfs/pkg/transaction"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// prepareShift trims speculative preallocation, flushes and drops all
// cached data from just before the shift origin to the end of the
// file, and removes staged copy on write allocations in that range.
// The block just before the origin is covered as well, so that a
// racing writeback completion cannot merge with the first shifted
// extent.
func (sm *transactionalSpaceManager) prepareShift(ctx context.Context, ip *inode.Inode, offsetBytes int64) error {
	if sm.CanReclaimEOFBlocks(ip) {
		if err := sm.reclaimEOFBlocks(ctx, ip); err != nil {
			return err
		}
	}
	blockSize := int64(sm.volume.Geometry.BlockSizeBytes)
	off := offsetBytes / blockSize * blockSize
	if off > 0 {
		off -= blockSize
	}
	if err := sm.flushUnmapRange(ctx, ip, off, ip.SizeBytes-off); err != nil {
		return err
	}
	if ip.HasCOWData() {
		return sm.cancelCOWRange(ctx, ip, off)
	}
	return nil
}

func (sm *transactionalSpaceManager) CollapseFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	ls := sm.lockInode(ip)
	defer ls.UnlockAll()

	geo := sm.volume.Geometry
	unit := geo.AllocationUnitBytes(ip.Flags.Realtime)
	if offsetBytes < 0 || lengthBytes <= 0 || offsetBytes%unit != 0 || lengthBytes%unit != 0 {
		return status.Errorf(codes.InvalidArgument, "Offset and length must be positive multiples of the %d byte allocation unit", unit)
	}
	if offsetBytes > geo.MaxFileSizeBytes-lengthBytes {
		return status.Error(codes.InvalidArgument, "Range extends past the maximum file size")
	}
	if offsetBytes+lengthBytes >= ip.SizeBytes {
		// Collapsing a range that reaches the end of the file is
		// just a truncation.
		return status.Error(codes.InvalidArgument, "Range must end before the end of the file")
	}
	return sm.collapseFileSpace(ctx, ip, offsetBytes, lengthBytes)
}

func (sm *transactionalSpaceManager) collapseFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	if err := sm.freeFileSpace(ctx, ip, offsetBytes, lengthBytes); err != nil {
		return util.StatusWrap(err, "Failed to punch the range to collapse")
	}
	if err := sm.prepareShift(ctx, ip, offsetBytes); err != nil {
		return err
	}

	geo := sm.volume.Geometry
	next := geo.BytesToBlocksTruncated(offsetBytes + lengthBytes)
	shift := geo.BytesToBlocksTruncated(lengthBytes)

	tx, err := sm.driver.Begin(ctx, transaction.Reservation{})
	if err != nil {
		return err
	}
	tx.Join(ip)

	for {
		done, err := sm.collapseOneExtent(ip, &next, shift)
		if err != nil {
			tx.Cancel()
			return err
		}
		if done {
			break
		}
		if err := tx.FinishDeferred(); err != nil {
			tx.Cancel()
			return err
		}
	}

	ip.SizeBytes -= lengthBytes
	if ip.DiskSizeBytes > ip.SizeBytes {
		ip.DiskSizeBytes = ip.SizeBytes
	}
	sm.touch(ip)
	tx.Log(ip)
	return tx.Commit()
}

// collapseOneExtent shifts the extent at *next down by shift blocks,
// merging it into its predecessor when the two become contiguous.
func (sm *transactionalSpaceManager) collapseOneExtent(ip *inode.Inode, next *extent.FileOffset, shift extent.FileOffset) (bool, error) {
	l := ip.Fork(inode.ForkData)
	c, got, ok := l.Lookup(*next)
	if !ok {
		return true, nil
	}
	if got.IsDelayed() {
		return false, status.Errorf(codes.Internal, "Extent at block %d of inode %d still has a delayed placement after writeback", got.Offset, ip.Number)
	}

	pc := c
	if prev, hasPrev := l.Prev(&pc); hasPrev {
		if prev.End()+shift > got.Offset {
			return false, status.Errorf(codes.Internal, "Shifting the extent at block %d of inode %d would overlap its predecessor", got.Offset, ip.Number)
		}
	} else if got.Offset < shift {
		return false, status.Error(codes.InvalidArgument, "Extents cannot shift below the start of the file")
	}

	shifted := got
	shifted.Offset = got.Offset - shift
	l.Remove(c)
	l.InsertMerging(shifted)

	if _, nxt, ok := l.Lookup(got.End()); ok {
		*next = nxt.Offset
		return false, nil
	}
	return true, nil
}

func (sm *transactionalSpaceManager) InsertFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	ls := sm.lockInode(ip)
	defer ls.UnlockAll()

	geo := sm.volume.Geometry
	unit := geo.AllocationUnitBytes(ip.Flags.Realtime)
	if offsetBytes < 0 || lengthBytes <= 0 || offsetBytes%unit != 0 || lengthBytes%unit != 0 {
		return status.Errorf(codes.InvalidArgument, "Offset and length must be positive multiples of the %d byte allocation unit", unit)
	}
	if geo.MaxFileSizeBytes-ip.SizeBytes < lengthBytes {
		return status.Error(codes.InvalidArgument, "Inserting would grow the file past the maximum file size")
	}
	if offsetBytes >= ip.SizeBytes {
		return status.Error(codes.InvalidArgument, "Offset must lie before the end of the file")
	}
	return sm.insertFileSpace(ctx, ip, offsetBytes, lengthBytes)
}

func (sm *transactionalSpaceManager) insertFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	geo := sm.volume.Geometry
	stop := geo.BytesToBlocksTruncated(offsetBytes)
	shift := geo.BytesToBlocksTruncated(lengthBytes)
	if sm.driver.IsShutDown() {
		return status.Errorf(codes.Internal, "Volume %s has shut down", sm.volume.UUID)
	}
	if err := sm.canInsertExtents(ip, stop, shift); err != nil {
		return err
	}

	// Grow the file first, so that an interrupted shift cannot leave
	// extents past the end of the file where their data would be
	// inaccessible.
	ip.SizeBytes += lengthBytes
	ip.DiskSizeBytes = ip.SizeBytes
	sm.touch(ip)

	if err := sm.prepareShift(ctx, ip, offsetBytes); err != nil {
		return err
	}

	tx, err := sm.driver.Begin(ctx, transaction.Reservation{Blocks: treeGrowthSlackBlocks})
	if err != nil {
		return err
	}
	tx.Join(ip)
	ensureForkCapacity(ip, inode.ForkData, 1)

	if err := sm.splitExtent(ip, stop); err != nil {
		tx.Cancel()
		return err
	}
	next := extent.NullFileOffset
	for {
		if err := tx.FinishDeferred(); err != nil {
			tx.Cancel()
			return err
		}
		done, err := sm.insertOneExtent(ip, &next, shift, stop)
		if err != nil {
			tx.Cancel()
			return err
		}
		if done {
			break
		}
	}
	tx.Log(ip)
	return tx.Commit()
}

// canInsertExtents rejects shifts that would push the rightmost
// extent past the largest representable file offset.
func (sm *transactionalSpaceManager) canInsertExtents(ip *inode.Inode, stop, shift extent.FileOffset) error {
	l := ip.Fork(inode.ForkData)
	_, last, ok := l.Last()
	if !ok {
		return nil
	}
	if last.End() > stop && last.End()+shift > sm.volume.Geometry.MaxFileBlocks() {
		return status.Error(codes.InvalidArgument, "Shifting would move an extent past the largest supported file offset")
	}
	return nil
}

// splitExtent splits the record containing the given offset in two,
// so that a shift can start exactly there.
func (sm *transactionalSpaceManager) splitExtent(ip *inode.Inode, stop extent.FileOffset) error {
	l := ip.Fork(inode.ForkData)
	c, got, ok := l.Lookup(stop)
	if !ok || got.Offset >= stop {
		return nil
	}
	if got.IsDelayed() {
		return status.Errorf(codes.Internal, "Extent at block %d of inode %d still has a delayed placement after writeback", got.Offset, ip.Number)
	}
	right := got
	right.Trim(stop, extent.BlockCount(got.End()-stop))
	left := got
	left.Length = extent.BlockCount(stop - got.Offset)
	l.Update(c, left)
	l.Insert(right)
	return nil
}

// insertOneExtent shifts one extent up by shift blocks, walking from
// the last extent down to the first one ending above stop.
func (sm *transactionalSpaceManager) insertOneExtent(ip *inode.Inode, next *extent.FileOffset, shift, stop extent.FileOffset) (bool, error) {
	l := ip.Fork(inode.ForkData)
	var c extent.Cursor
	var got extent.Extent
	var ok bool
	if *next == extent.NullFileOffset {
		c, got, ok = l.Last()
		if !ok || stop > got.Offset {
			return true, nil
		}
	} else {
		c, got, ok = l.Lookup(*next)
		if !ok {
			return true, nil
		}
	}
	if got.IsDelayed() {
		return false, status.Errorf(codes.Internal, "Extent at block %d of inode %d still has a delayed placement after writeback", got.Offset, ip.Number)
	}
	if stop >= got.End() {
		return false, status.Errorf(codes.Internal, "Extent walk of inode %d moved before the insertion point", ip.Number)
	}

	shifted := got
	shifted.Offset = got.Offset + shift
	nc := c
	if nxt, hasNext := l.Next(&nc); hasNext && shifted.End() > nxt.Offset {
		return false, status.Errorf(codes.Internal, "Shifting the extent at block %d of inode %d would overlap its successor", got.Offset, ip.Number)
	}
	l.Update(c, shifted)

	prev, ok := l.Prev(&c)
	if !ok || stop >= prev.End() {
		return true, nil
	}
	*next = prev.Offset
	return false, nil
}
