package space

import (
	"github.com/buildbarn/bb-extentfs/pkg/allocation"
	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
)

// DelallocAccountant manages delayed allocations: extent records that
// reserve space without having a placement yet. Reservations cover
// the blocks themselves plus the worst case index growth their later
// conversion may cause, and are carried by the inode's counters and
// the quota tracker in unison. Delayed records only exist in memory,
// so none of the operations below require a transaction.
type DelallocAccountant struct {
	geometry extent.Geometry
	quota    QuotaTracker
}

// NewDelallocAccountant creates an accountant for delayed allocations
// backed by the given quota tracker.
func NewDelallocAccountant(geometry extent.Geometry, quota QuotaTracker) *DelallocAccountant {
	return &DelallocAccountant{
		geometry: geometry,
		quota:    quota,
	}
}

func (da *DelallocAccountant) reserve(ip *inode.Inode, count extent.BlockCount) error {
	newDelayed := ip.DelayedBlockCount + count
	newReserved := newDelayed + extent.WorstIndexBlocks(newDelayed)
	if err := da.quota.ReserveDelayed(ip, newReserved-ip.ReservedBlockCount); err != nil {
		return err
	}
	ip.DelayedBlockCount = newDelayed
	ip.ReservedBlockCount = newReserved
	return nil
}

func (da *DelallocAccountant) discard(ip *inode.Inode, count extent.BlockCount) {
	if count > ip.DelayedBlockCount {
		panic("Attempted to discard more delayed blocks than the inode has")
	}
	newDelayed := ip.DelayedBlockCount - count
	newReserved := newDelayed + extent.WorstIndexBlocks(newDelayed)
	da.quota.UnreserveDelayed(ip, ip.ReservedBlockCount-newReserved)
	ip.DelayedBlockCount = newDelayed
	ip.ReservedBlockCount = newReserved
}

// ConvertReservation accounts for delayed blocks having been placed.
// The caller has already replaced the delayed records by real ones
// covering count blocks in the given zone. The part of the
// reservation that the placement did not consume is returned to the
// quota tracker.
func (da *DelallocAccountant) ConvertReservation(ip *inode.Inode, zone allocation.Zone, count extent.BlockCount) {
	if count > ip.DelayedBlockCount {
		panic("Attempted to convert more delayed blocks than the inode has")
	}
	newDelayed := ip.DelayedBlockCount - count
	newReserved := newDelayed + extent.WorstIndexBlocks(newDelayed)
	da.quota.ConvertDelayedToAllocated(ip, zone, count)
	da.quota.UnreserveDelayed(ip, ip.ReservedBlockCount-count-newReserved)
	ip.DelayedBlockCount = newDelayed
	ip.ReservedBlockCount = newReserved
}

// ReserveRange reserves delayed allocations for every hole in the
// data fork overlapping the given byte range, the way a buffered
// write does before any placement decision is made. Reservations
// made before a failure are kept, so that the caller may punch them
// out again.
func (da *DelallocAccountant) ReserveRange(ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	start := da.geometry.BytesToBlocksTruncated(offsetBytes)
	end := da.geometry.BytesToBlocks(offsetBytes + lengthBytes)
	l := ip.Fork(inode.ForkData)
	for start < end {
		m := l.MappingAt(start, extent.BlockCount(end-start))
		if m.IsHole() {
			n := m.Length
			if n > extent.MaxExtentLength {
				n = extent.MaxExtentLength
			}
			if err := da.reserve(ip, n); err != nil {
				return err
			}
			if l.Format() == extent.FormatInline {
				ip.UpgradeForkCapacity(inode.ForkData)
			}
			l.InsertMerging(extent.Extent{
				Offset:     m.Offset,
				StartBlock: extent.DelayedStartBlock,
				Length:     n,
				State:      extent.StateWritten,
			})
			start = m.Offset + extent.FileOffset(n)
		} else {
			start = m.End()
		}
	}
	return nil
}

// PunchRange removes delayed allocations overlapping the given byte
// range from the data fork. Blocks at the edges of the range are
// punched in their entirety. Real extents are left alone.
func (da *DelallocAccountant) PunchRange(ip *inode.Inode, startBytes, endBytes int64) {
	start := da.geometry.BytesToBlocksTruncated(startBytes)
	end := da.geometry.BytesToBlocks(endBytes)
	if end == 0 {
		return
	}
	l := ip.Fork(inode.ForkData)

	c, got, ok := l.LookupBefore(end - 1)
	if !ok {
		return
	}
	for got.End() > start {
		del := got
		del.Trim(start, extent.BlockCount(end-start))

		// A deletion moves the cursor forward. Step back over
		// records that are real or that lie outside the range.
		if del.Length == 0 || !del.IsDelayed() {
			if got, ok = l.Prev(&c); !ok {
				break
			}
			continue
		}

		da.deleteDelayed(ip, l, &c, got, del)
		if got, ok = l.Get(c); !ok {
			break
		}
	}
}

// deleteDelayed carves the delayed range del out of the record got
// that the cursor addresses, releasing its reservation. The cursor is
// left such that the enclosing backwards walk can continue.
func (da *DelallocAccountant) deleteDelayed(ip *inode.Inode, l *extent.List, c *extent.Cursor, got, del extent.Extent) {
	switch {
	case del.Offset == got.Offset && del.Length == got.Length:
		l.Remove(*c)
		l.Prev(c)
	case del.Offset == got.Offset:
		got.Offset = del.End()
		got.Length -= del.Length
		l.Update(*c, got)
	case del.End() == got.End():
		got.Length -= del.Length
		l.Update(*c, got)
	default:
		left := got
		left.Length = extent.BlockCount(del.Offset - got.Offset)
		right := got
		right.Offset = del.End()
		right.Length = extent.BlockCount(got.End() - del.End())
		l.Update(*c, left)
		*c = l.Insert(right)
	}
	da.discard(ip, del.Length)
}
