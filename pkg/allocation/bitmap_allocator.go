package allocation

import (
	"context"
	"sync"

	"github.com/buildbarn/bb-extentfs/pkg/extent"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type bitmapZone struct {
	words  []uint64
	blocks extent.BlockCount
	free   extent.BlockCount
}

func (z *bitmapZone) isFree(b extent.PhysicalBlock) bool {
	return z.words[b/64]&(1<<(b%64)) == 0
}

func (z *bitmapZone) setState(first extent.PhysicalBlock, count extent.BlockCount, allocated bool) {
	for b := first; b < first+extent.PhysicalBlock(count); b++ {
		if allocated {
			z.words[b/64] |= 1 << (b % 64)
		} else {
			z.words[b/64] &^= 1 << (b % 64)
		}
	}
}

// BitmapAllocator tracks the blocks of each zone in a bitmap and
// performs first fit allocation, scanning forward from the locality
// hint and wrapping around once.
type BitmapAllocator struct {
	lock  sync.Mutex
	zones [2]bitmapZone
}

var _ Allocator = (*BitmapAllocator)(nil)

// NewBitmapAllocator creates an allocator managing a data zone and a
// realtime zone of the given sizes. A volume without a realtime
// device uses a realtime zone of size zero.
func NewBitmapAllocator(dataBlocks, realtimeBlocks extent.BlockCount) *BitmapAllocator {
	a := &BitmapAllocator{}
	a.zones[ZoneData] = newBitmapZone(dataBlocks)
	a.zones[ZoneRealtime] = newBitmapZone(realtimeBlocks)
	return a
}

func newBitmapZone(blocks extent.BlockCount) bitmapZone {
	return bitmapZone{
		words:  make([]uint64, (blocks+63)/64),
		blocks: blocks,
		free:   blocks,
	}
}

func (a *BitmapAllocator) zone(zone Zone) *bitmapZone {
	if zone != ZoneData && zone != ZoneRealtime {
		panic("Unknown allocation zone")
	}
	return &a.zones[zone]
}

func roundUpBlock(b extent.PhysicalBlock, align extent.BlockCount) extent.PhysicalBlock {
	n := extent.PhysicalBlock(align)
	return (b + n - 1) / n * n
}

func (z *bitmapZone) scan(from, to extent.PhysicalBlock, request *Request, align extent.BlockCount) (extent.PhysicalBlock, extent.BlockCount, bool) {
	pos := roundUpBlock(from, align)
	for pos+extent.PhysicalBlock(request.MinBlocks) <= to {
		run := extent.BlockCount(0)
		for run < request.MaxBlocks &&
			pos+extent.PhysicalBlock(run) < extent.PhysicalBlock(z.blocks) &&
			z.isFree(pos+extent.PhysicalBlock(run)) {
			run++
		}
		if run >= request.MinBlocks {
			return pos, run, true
		}
		pos = roundUpBlock(pos+extent.PhysicalBlock(run)+1, align)
	}
	return 0, 0, false
}

// Allocate performs a first fit scan for a free range satisfying the
// request.
func (a *BitmapAllocator) Allocate(ctx context.Context, request Request) (extent.PhysicalBlock, extent.BlockCount, bool, error) {
	if request.MinBlocks < 1 || request.MaxBlocks < request.MinBlocks {
		panic("Allocation request sizes must satisfy 1 <= MinBlocks <= MaxBlocks")
	}
	align := request.Alignment
	if align < 1 {
		align = 1
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	z := a.zone(request.Zone)
	if z.free == 0 {
		return 0, 0, false, status.Errorf(codes.ResourceExhausted, "The %s zone is out of space", request.Zone)
	}

	near := request.Near
	if near >= extent.PhysicalBlock(z.blocks) {
		near = 0
	}
	end := extent.PhysicalBlock(z.blocks)
	first, count, ok := z.scan(near, end, &request, align)
	if !ok {
		first, count, ok = z.scan(0, near, &request, align)
	}
	if !ok {
		return 0, 0, false, nil
	}
	z.setState(first, count, true)
	z.free -= count
	return first, count, true, nil
}

// Free returns a range of blocks to its zone. Freeing blocks that
// are not currently allocated indicates unbalanced accounting
// elsewhere, which is treated as fatal.
func (a *BitmapAllocator) Free(zone Zone, first extent.PhysicalBlock, count extent.BlockCount) {
	a.lock.Lock()
	defer a.lock.Unlock()

	z := a.zone(zone)
	if extent.BlockCount(first)+count > z.blocks {
		panic("Attempted to free blocks outside the zone")
	}
	for b := first; b < first+extent.PhysicalBlock(count); b++ {
		if z.isFree(b) {
			panic("Attempted to free blocks that are not allocated")
		}
	}
	z.setState(first, count, false)
	z.free += count
}

// MarkAllocated removes a range of blocks from the free pool without
// going through placement, for ranges whose location is predetermined
// such as volume metadata.
func (a *BitmapAllocator) MarkAllocated(zone Zone, first extent.PhysicalBlock, count extent.BlockCount) {
	a.lock.Lock()
	defer a.lock.Unlock()

	z := a.zone(zone)
	if extent.BlockCount(first)+count > z.blocks {
		panic("Attempted to allocate blocks outside the zone")
	}
	for b := first; b < first+extent.PhysicalBlock(count); b++ {
		if !z.isFree(b) {
			panic("Attempted to allocate blocks that are already allocated")
		}
	}
	z.setState(first, count, true)
	z.free -= count
}

// FreeBlocks returns the number of unallocated blocks in a zone.
func (a *BitmapAllocator) FreeBlocks(zone Zone) extent.BlockCount {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.zone(zone).free
}
