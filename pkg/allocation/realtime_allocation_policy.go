package allocation

import (
	"context"

	"github.com/buildbarn/bb-extentfs/pkg/extent"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type realtimeAllocationPolicy struct {
	base Allocator
	unit extent.BlockCount
}

// NewRealtimeAllocationPolicy creates a decorator for Allocator that
// applies the placement rules of the realtime zone. Realtime
// allocations are sized and aligned to whole realtime extents.
// Requests that cannot be placed are retried in progressively less
// constrained forms: first without the extent size hint's enlarged
// alignment, then without the locality hint. Only when the least
// constrained form fails is the zone declared out of space.
//
// Requests for the data zone pass through unchanged.
func NewRealtimeAllocationPolicy(base Allocator, geometry extent.Geometry) Allocator {
	return &realtimeAllocationPolicy{
		base: base,
		unit: geometry.AllocationUnitBlocks(true),
	}
}

func roundUpCount(c, unit extent.BlockCount) extent.BlockCount {
	return (c + unit - 1) / unit * unit
}

func (a *realtimeAllocationPolicy) Allocate(ctx context.Context, request Request) (extent.PhysicalBlock, extent.BlockCount, bool, error) {
	if request.Zone != ZoneRealtime {
		return a.base.Allocate(ctx, request)
	}

	request.MinBlocks = roundUpCount(request.MinBlocks, a.unit)
	request.MaxBlocks = roundUpCount(request.MaxBlocks, a.unit)
	if request.Alignment < a.unit {
		request.Alignment = a.unit
	}

	for {
		first, count, ok, err := a.base.Allocate(ctx, request)
		if err != nil {
			return 0, 0, false, err
		}
		if ok {
			// Trailing blocks that do not fill a whole
			// realtime extent cannot be handed out.
			if tail := count % a.unit; tail > 0 {
				count -= tail
				a.base.Free(ZoneRealtime, first+extent.PhysicalBlock(count), tail)
			}
			return first, count, true, nil
		}
		if request.Alignment > a.unit || request.MinBlocks > a.unit {
			request.Alignment = a.unit
			request.MinBlocks = a.unit
		} else if request.Near != 0 {
			request.Near = 0
		} else {
			return 0, 0, false, status.Error(codes.ResourceExhausted, "The realtime zone has no allocatable extents left")
		}
	}
}

func (a *realtimeAllocationPolicy) Free(zone Zone, first extent.PhysicalBlock, count extent.BlockCount) {
	a.base.Free(zone, first, count)
}
