package allocation

import (
	"context"

	"github.com/buildbarn/bb-extentfs/pkg/extent"
)

// Zone denotes one of the pools of physical blocks on a volume.
type Zone int

const (
	// ZoneData is the general purpose pool.
	ZoneData Zone = iota
	// ZoneRealtime is a separate pool with a fixed allocation
	// granularity, intended for files with predictable bandwidth
	// requirements.
	ZoneRealtime
)

func (z Zone) String() string {
	switch z {
	case ZoneData:
		return "data"
	case ZoneRealtime:
		return "realtime"
	default:
		return "unknown"
	}
}

// Request describes a desired allocation of physical blocks.
type Request struct {
	// Zone from which the blocks must come.
	Zone Zone
	// Near is a locality hint. Allocators prefer blocks at or after
	// this address, wrapping around when needed.
	Near extent.PhysicalBlock
	// MinBlocks is the smallest acceptable allocation. If no
	// contiguous range of at least this size can be found, the
	// allocation fails.
	MinBlocks extent.BlockCount
	// MaxBlocks is the size the allocator should attempt to return.
	MaxBlocks extent.BlockCount
	// Alignment constrains the first block of the allocation to a
	// multiple of this value. Zero and one are equivalent.
	Alignment extent.BlockCount
}

// Allocator hands out and reclaims ranges of physical blocks.
//
// Allocate returns the placed range and true on success. If the zone
// still has free space, but no placement satisfying the request's
// constraints exists, it returns false without an error; the caller
// may then retry with relaxed constraints. Exhaustion of the zone is
// reported as an error.
type Allocator interface {
	Allocate(ctx context.Context, request Request) (extent.PhysicalBlock, extent.BlockCount, bool, error)
	Free(zone Zone, first extent.PhysicalBlock, count extent.BlockCount)
}
