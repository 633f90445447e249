package allocation

import (
	"context"
	"sync"

	"github.com/buildbarn/bb-extentfs/pkg/extent"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	allocatorPrometheusMetrics sync.Once

	allocatorAllocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "allocation",
			Name:      "allocator_allocations_total",
			Help:      "Number of allocation attempts, partitioned by zone and outcome.",
		},
		[]string{"zone", "outcome"})
	allocatorAllocatedBlocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "allocation",
			Name:      "allocator_allocated_blocks_total",
			Help:      "Number of blocks handed out, partitioned by zone.",
		},
		[]string{"zone"})
	allocatorFreedBlocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "buildbarn",
			Subsystem: "allocation",
			Name:      "allocator_freed_blocks_total",
			Help:      "Number of blocks returned, partitioned by zone.",
		},
		[]string{"zone"})
)

type metricsAllocator struct {
	base Allocator
}

// NewMetricsAllocator creates a decorator for Allocator that exposes
// Prometheus metrics on the number of allocations performed and
// blocks handed out.
func NewMetricsAllocator(base Allocator) Allocator {
	allocatorPrometheusMetrics.Do(func() {
		prometheus.MustRegister(allocatorAllocationsTotal)
		prometheus.MustRegister(allocatorAllocatedBlocksTotal)
		prometheus.MustRegister(allocatorFreedBlocksTotal)
	})

	return &metricsAllocator{
		base: base,
	}
}

func (a *metricsAllocator) Allocate(ctx context.Context, request Request) (extent.PhysicalBlock, extent.BlockCount, bool, error) {
	first, count, ok, err := a.base.Allocate(ctx, request)
	zone := request.Zone.String()
	switch {
	case err != nil:
		allocatorAllocationsTotal.WithLabelValues(zone, "failure").Inc()
	case !ok:
		allocatorAllocationsTotal.WithLabelValues(zone, "unplaced").Inc()
	default:
		allocatorAllocationsTotal.WithLabelValues(zone, "success").Inc()
		allocatorAllocatedBlocksTotal.WithLabelValues(zone).Add(float64(count))
	}
	return first, count, ok, err
}

func (a *metricsAllocator) Free(zone Zone, first extent.PhysicalBlock, count extent.BlockCount) {
	a.base.Free(zone, first, count)
	allocatorFreedBlocksTotal.WithLabelValues(zone.String()).Add(float64(count))
}
