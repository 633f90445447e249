package transaction

import (
	"github.com/buildbarn/bb-extentfs/pkg/allocation"
	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Intent is a single deferred modification queued on a transaction.
// Intents are executed in the order in which they were deferred.
type Intent interface {
	apply(t *inMemoryTransaction) error
}

// UnmapExtent removes the described extent from a fork. The extent
// must correspond exactly to a mapped subrange of a single record;
// partial overlap causes the surrounding record to be split. The
// blocks themselves are not freed, allowing them to be remapped into
// another fork.
type UnmapExtent struct {
	Inode *inode.Inode
	Role  inode.ForkRole
	Unmap extent.Extent
}

func (i UnmapExtent) apply(t *inMemoryTransaction) error {
	if !i.Unmap.IsReal() {
		panic("Unmap intents must describe allocated extents")
	}
	ip := i.Inode
	l := ip.Fork(i.Role)
	if l == nil {
		return status.Errorf(codes.Internal, "Inode %d does not have the fork from which blocks are to be unmapped", ip.Number)
	}
	c, got, ok := l.Lookup(i.Unmap.Offset)
	if !ok || got.Offset > i.Unmap.Offset || got.End() < i.Unmap.End() {
		return status.Errorf(codes.Internal, "Inode %d does not map blocks %d to %d of its fork", ip.Number, i.Unmap.Offset, i.Unmap.End())
	}
	check := got
	check.Trim(i.Unmap.Offset, i.Unmap.Length)
	if check != i.Unmap {
		return status.Errorf(codes.Internal, "Extent records of inode %d do not match the blocks to be unmapped", ip.Number)
	}

	left := extent.Extent{
		Offset:     got.Offset,
		StartBlock: got.StartBlock,
		Length:     extent.BlockCount(i.Unmap.Offset - got.Offset),
		State:      got.State,
	}
	right := extent.Extent{
		Offset:     i.Unmap.End(),
		StartBlock: got.StartBlock + extent.PhysicalBlock(i.Unmap.End()-got.Offset),
		Length:     extent.BlockCount(got.End() - i.Unmap.End()),
		State:      got.State,
	}
	switch {
	case left.Length == 0 && right.Length == 0:
		l.Remove(c)
	case left.Length == 0:
		l.Update(c, right)
	case right.Length == 0:
		l.Update(c, left)
	default:
		l.Update(c, left)
		l.Insert(right)
	}
	ip.BlockCount -= i.Unmap.Length
	return nil
}

// MapExtent adds the described extent to a fork, merging it with
// adjacent compatible records. The target range must be a hole.
type MapExtent struct {
	Inode *inode.Inode
	Role  inode.ForkRole
	Map   extent.Extent
}

func (i MapExtent) apply(t *inMemoryTransaction) error {
	if !i.Map.IsReal() {
		panic("Map intents must describe allocated extents")
	}
	ip := i.Inode
	l := ip.Fork(i.Role)
	if l == nil {
		return status.Errorf(codes.Internal, "Inode %d does not have the fork into which blocks are to be mapped", ip.Number)
	}
	m := l.MappingAt(i.Map.Offset, i.Map.Length)
	if !m.IsHole() || m.Length < i.Map.Length {
		return status.Errorf(codes.Internal, "Inode %d already maps blocks %d to %d of its fork", ip.Number, i.Map.Offset, i.Map.End())
	}
	l.InsertMerging(i.Map)
	ip.BlockCount += i.Map.Length
	return nil
}

// FreeBlocks returns a range of physical blocks to its allocation
// zone. When the transaction's reservation is set up to refill from
// freed blocks, the freed space is credited back to it.
type FreeBlocks struct {
	Zone  allocation.Zone
	First extent.PhysicalBlock
	Count extent.BlockCount
}

func (i FreeBlocks) apply(t *inMemoryTransaction) error {
	t.driver.freer.Free(i.Zone, i.First, i.Count)
	if t.reservation.RefillFromFreed {
		t.driver.adjustReservedBlocks(int64(i.Count))
		t.extraBlocks += uint64(i.Count)
	}
	return nil
}
