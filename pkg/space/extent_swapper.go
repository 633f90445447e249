package space

import (
	"context"
	"math"

	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
	"github.com/buildbarn/bb-extentfs/pkg/transaction"
	"github.com/buildbarn/bb-storage/pkg/util"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ownerChangeBudget is the number of tree nodes restamped with their
// new owner per log window.
const ownerChangeBudget = 16

func (sm *transactionalSpaceManager) SwapExtents(ctx context.Context, ip, tmp *inode.Inode, req SwapRequest) error {
	if ip == tmp {
		return status.Error(codes.InvalidArgument, "A file cannot exchange extents with itself")
	}
	var ls inode.LockSet
	ls.Lock(inode.LockIO, ip, tmp)
	ls.Lock(inode.LockMapping, ip, tmp)
	defer ls.UnlockAll()

	if !ip.Regular || !tmp.Regular {
		return status.Error(codes.InvalidArgument, "Extent exchanges require two regular files")
	}
	if ip.Flags.Realtime != tmp.Flags.Realtime {
		return status.Error(codes.InvalidArgument, "Extent exchanges cannot mix realtime and data zone files")
	}
	if err := sm.quota.Attach(ip); err != nil {
		return util.StatusWrap(err, "Failed to attach quota")
	}
	if err := sm.quota.Attach(tmp); err != nil {
		return util.StatusWrap(err, "Failed to attach quota")
	}
	if err := sm.flushForSwap(ctx, ip); err != nil {
		return util.StatusWrapf(err, "Failed to flush inode %d", ip.Number)
	}
	if err := sm.flushForSwap(ctx, tmp); err != nil {
		return util.StatusWrapf(err, "Failed to flush inode %d", tmp.Number)
	}
	if tmp.HasCOWData() {
		if err := sm.cancelCOWRange(ctx, tmp, 0); err != nil {
			return util.StatusWrapf(err, "Failed to cancel staged copy on write allocations of inode %d", tmp.Number)
		}
	}

	var reservation transaction.Reservation
	if sm.volume.Features.ReverseMapping {
		// Moving mappings one at a time can repeatedly split and
		// rejoin index blocks. Freed blocks flow back into the
		// reservation so that it is not exhausted prematurely.
		reservation.Blocks = uint32(2 * (ip.Fork(inode.ForkData).NumDiskExtents() + tmp.Fork(inode.ForkData).NumDiskExtents()))
		reservation.RefillFromFreed = true
	}
	tx, err := sm.driver.Begin(ctx, reservation)
	if err != nil {
		return err
	}
	ls.Lock(inode.LockIndex, ip, tmp)
	tx.Join(ip)
	tx.Join(tmp)

	if req.OffsetBytes != 0 || req.LengthBytes != ip.DiskSizeBytes || req.LengthBytes != tmp.DiskSizeBytes {
		tx.Cancel()
		return status.Error(codes.InvalidArgument, "Only whole file exchanges are supported")
	}
	if err := sm.checkSwapFormats(ip, tmp); err != nil {
		tx.Cancel()
		return err
	}
	if !ip.ChangeTime.Equal(req.ExpectedChangeTime) || !ip.ModifyTime.Equal(req.ExpectedModifyTime) {
		tx.Cancel()
		return status.Errorf(codes.Aborted, "Inode %d has been modified since the request was prepared", ip.Number)
	}

	ipBlocksBefore := ip.BlockCount
	if sm.volume.Features.ReverseMapping {
		if err := sm.rmapSwap(tx, ip, tmp); err != nil {
			tx.Cancel()
			return err
		}
	} else {
		if err := sm.forkSwap(ip, tmp); err != nil {
			tx.Cancel()
			return err
		}
	}

	if ip.Flags.Reflink != tmp.Flags.Reflink {
		ip.Flags.Reflink, tmp.Flags.Reflink = tmp.Flags.Reflink, ip.Flags.Reflink
	}
	if sm.volume.Features.Reflink {
		ipCOW := ip.Fork(inode.ForkCOW)
		tmpCOW := tmp.Fork(inode.ForkCOW)
		ip.SetFork(inode.ForkCOW, tmpCOW)
		tmp.SetFork(inode.ForkCOW, ipCOW)
	}

	tx.Log(ip)
	tx.Log(tmp)

	// Index nodes still carry the number of their previous owner.
	// They must be restamped before anything else reuses the log,
	// so that recovery attributes them correctly.
	if sm.volume.Features.OwnedTreeNodes {
		if err := sm.changeTreeOwners(tx, ip, tmp); err != nil {
			tx.Cancel()
			return err
		}
	}

	if sm.volume.Features.SyncDurability {
		tx.SetSynchronous()
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	if !sm.quota.SameOwnership(ip, tmp) {
		if err := sm.rebalanceSwapCharges(ip, tmp, ipBlocksBefore); err != nil {
			return err
		}
	}
	return nil
}

// flushForSwap pushes all of a file's cached state to disk and
// verifies that nothing keeps pages resident in memory.
func (sm *transactionalSpaceManager) flushForSwap(ctx context.Context, ip *inode.Inode) error {
	if err := sm.writeBack(ctx, ip); err != nil {
		return err
	}
	sm.pageCache.TruncateRange(ip, 0, math.MaxInt64)
	if sm.pageCache.ResidentPages(ip) > 0 {
		return status.Errorf(codes.InvalidArgument, "Inode %d still has pages resident in the page cache", ip.Number)
	}
	return nil
}

// checkSwapFormats verifies that both data forks can be carried by
// the opposite inode after a wholesale fork swap.
func (sm *transactionalSpaceManager) checkSwapFormats(ip, tmp *inode.Inode) error {
	if sm.quota.Enforcing() && !sm.quota.SameOwnership(ip, tmp) {
		return status.Error(codes.InvalidArgument, "Files must have the same owner while quota is enforced")
	}
	ipFork := ip.Fork(inode.ForkData)
	tmpFork := tmp.Fork(inode.ForkData)
	if ipFork.Format() == extent.FormatInline || tmpFork.Format() == extent.FormatInline {
		return status.Error(codes.InvalidArgument, "Inline files cannot exchange extents")
	}
	if ipFork.NumDiskExtents() < tmpFork.NumDiskExtents() {
		return status.Error(codes.InvalidArgument, "The donor file holds more extents than the target file")
	}
	if sm.volume.Features.ReverseMapping {
		// The mappings move one by one, which works for any
		// combination of formats.
		return nil
	}
	if ipFork.Format() == extent.FormatFlat && tmpFork.Format() == extent.FormatTree {
		if ip.Fork(inode.ForkAttr) != nil && tmpFork.TreeRootSizeBytes() > ip.AttrForkOffsetBytes() {
			return status.Errorf(codes.InvalidArgument, "The index root of inode %d does not fit before the attribute fork of inode %d", tmp.Number, ip.Number)
		}
		if tmpFork.NumDiskExtents() <= ip.ForkFlatCapacity(inode.ForkData) {
			return status.Errorf(codes.InvalidArgument, "The extents of inode %d would fit inode %d without an index tree", tmp.Number, ip.Number)
		}
	}
	if tmpFork.Format() == extent.FormatFlat && ipFork.Format() == extent.FormatTree {
		if tmp.Fork(inode.ForkAttr) != nil && ipFork.TreeRootSizeBytes() > tmp.AttrForkOffsetBytes() {
			return status.Errorf(codes.InvalidArgument, "The index root of inode %d does not fit before the attribute fork of inode %d", ip.Number, tmp.Number)
		}
		if ipFork.NumDiskExtents() <= tmp.ForkFlatCapacity(inode.ForkData) {
			return status.Errorf(codes.InvalidArgument, "The extents of inode %d would fit inode %d without an index tree", ip.Number, tmp.Number)
		}
	}
	return nil
}

func attrLeafBlocks(ip *inode.Inode) extent.BlockCount {
	l := ip.Fork(inode.ForkAttr)
	if l == nil || l.Format() == extent.FormatInline || l.NumDiskExtents() == 0 {
		return 0
	}
	_, blocks := l.CountBlocks()
	return blocks
}

// forkSwap exchanges the data forks of both inodes wholesale.
func (sm *transactionalSpaceManager) forkSwap(ip, tmp *inode.Inode) error {
	if tmp.DelayedBlockCount > 0 {
		return status.Errorf(codes.Internal, "Donor inode %d still has delayed allocations after flushing", tmp.Number)
	}

	// Blocks referenced from the attribute forks stay in place and
	// must not move between the inodes' block counts.
	ipAttrBlocks := attrLeafBlocks(ip)
	tmpAttrBlocks := attrLeafBlocks(tmp)

	ipFork := ip.Fork(inode.ForkData)
	tmpFork := tmp.Fork(inode.ForkData)
	ip.SetFork(inode.ForkData, tmpFork)
	tmp.SetFork(inode.ForkData, ipFork)

	ipBlocks := ip.BlockCount
	ip.BlockCount = tmp.BlockCount - tmpAttrBlocks + ipAttrBlocks
	tmp.BlockCount = ipBlocks - ipAttrBlocks + tmpAttrBlocks

	// Speculative preallocation beyond the end of the file may
	// still be delayed. Those records moved along with the fork,
	// and their reservation must follow.
	if ip.DelayedBlockCount > 0 {
		if err := sm.quota.ReserveDelayed(tmp, ip.ReservedBlockCount); err != nil {
			return err
		}
		sm.quota.UnreserveDelayed(ip, ip.ReservedBlockCount)
		tmp.DelayedBlockCount = ip.DelayedBlockCount
		tmp.ReservedBlockCount = ip.ReservedBlockCount
		ip.DelayedBlockCount = 0
		ip.ReservedBlockCount = 0
	}
	return nil
}

// rmapSwap exchanges mappings one extent at a time, so that a reverse
// mapping index can be updated alongside every move.
func (sm *transactionalSpaceManager) rmapSwap(tx transaction.Transaction, ip, tmp *inode.Inode) error {
	geo := sm.volume.Geometry
	end := geo.BytesToBlocks(ip.SizeBytes)
	ipFork := ip.Fork(inode.ForkData)
	tmpFork := tmp.Fork(inode.ForkData)
	for offset := extent.FileOffset(0); offset < end; {
		tirec := tmpFork.MappingAt(offset, extent.BlockCount(end-offset))
		if tirec.IsDelayed() {
			return status.Errorf(codes.Internal, "Donor inode %d still has delayed allocations after flushing", tmp.Number)
		}
		ilen := tirec.Length
		for tirec.Length > 0 {
			irec := ipFork.MappingAt(tirec.Offset, tirec.Length)
			if irec.IsDelayed() {
				return status.Errorf(codes.Internal, "Inode %d still has delayed allocations after flushing", ip.Number)
			}
			// The piece moved per step is the overlap of one
			// extent of either file.
			rlen := irec.Length
			uirec := tirec
			uirec.Length = rlen

			if uirec.IsReal() {
				ensureForkCapacity(ip, inode.ForkData, 1)
				tx.Defer(transaction.UnmapExtent{Inode: tmp, Role: inode.ForkData, Unmap: uirec})
			}
			if irec.IsReal() {
				ensureForkCapacity(tmp, inode.ForkData, 1)
				tx.Defer(transaction.UnmapExtent{Inode: ip, Role: inode.ForkData, Unmap: irec})
			}
			if uirec.IsReal() {
				tx.Defer(transaction.MapExtent{Inode: ip, Role: inode.ForkData, Map: uirec})
			}
			if irec.IsReal() {
				tx.Defer(transaction.MapExtent{Inode: tmp, Role: inode.ForkData, Map: irec})
			}
			if err := tx.FinishDeferred(); err != nil {
				return err
			}

			tirec.Offset += extent.FileOffset(rlen)
			if tirec.IsReal() {
				tirec.StartBlock += extent.PhysicalBlock(rlen)
			}
			tirec.Length -= rlen
		}
		offset += extent.FileOffset(ilen)
	}
	return nil
}

// changeTreeOwners restamps the nodes of any tree backed data fork
// with its new owner, rolling the transaction between bounded passes.
func (sm *transactionalSpaceManager) changeTreeOwners(tx transaction.Transaction, ip, tmp *inode.Inode) error {
	for _, pair := range []struct{ owner, other *inode.Inode }{{ip, tmp}, {tmp, ip}} {
		l := pair.owner.Fork(inode.ForkData)
		if l.Format() != extent.FormatTree {
			continue
		}
		for l.ChangeTreeOwner(uint64(pair.owner.Number), ownerChangeBudget) == extent.OwnerScanRetry {
			if err := tx.Roll(); err != nil {
				return err
			}
			// Keep both inodes dirty in the new log window.
			tx.Join(pair.owner)
			tx.Join(pair.other)
			tx.Log(pair.owner)
			tx.Log(pair.other)
		}
	}
	return nil
}

// rebalanceSwapCharges moves quota charges between differently owned
// files after an exchange, matching the number of blocks that changed
// hands. Exchanges between differently owned files only happen while
// quota is not enforced, so the charges cannot fail.
func (sm *transactionalSpaceManager) rebalanceSwapCharges(ip, tmp *inode.Inode, ipBlocksBefore extent.BlockCount) error {
	zone := allocationZone(ip)
	if after := ip.BlockCount; after > ipBlocksBefore {
		delta := after - ipBlocksBefore
		sm.quota.ReleaseBlocks(tmp, zone, delta)
		return sm.quota.ChargeBlocks(ip, zone, delta)
	} else if after < ipBlocksBefore {
		delta := ipBlocksBefore - after
		sm.quota.ReleaseBlocks(ip, zone, delta)
		return sm.quota.ChargeBlocks(tmp, zone, delta)
	}
	return nil
}
