package space

import (
	"context"
	"sync"
	"time"

	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
	"github.com/buildbarn/bb-storage/pkg/clock"
	"github.com/buildbarn/bb-storage/pkg/util"
	"github.com/prometheus/client_golang/prometheus"

	"google.golang.org/grpc/status"
)

var (
	spaceManagerOperationsPrometheusMetrics sync.Once

	spaceManagerOperationsDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "buildbarn",
			Subsystem: "space",
			Name:      "space_manager_operations_duration_seconds",
			Help:      "Amount of time spent per space management operation, in seconds.",
			Buckets:   util.DecimalExponentialBuckets(-3, 6, 2),
		},
		[]string{"operation", "status_code"})
)

// operationHistogram holds references to Prometheus metrics for a
// single space management operation that can never fail.
type operationHistogram struct {
	ok prometheus.Observer
}

func newOperationHistogram(operation string) operationHistogram {
	return operationHistogram{
		ok: spaceManagerOperationsDurationSeconds.WithLabelValues(operation, "OK"),
	}
}

func (m *operationHistogram) observe(timeStart, timeStop time.Time) {
	m.ok.Observe(timeStop.Sub(timeStart).Seconds())
}

// operationHistogramWithCode holds references to Prometheus metrics
// for a single space management operation that can fail with a gRPC
// status.
type operationHistogramWithCode struct {
	ok      prometheus.Observer
	failure prometheus.ObserverVec
}

func newOperationHistogramWithCode(operation string) operationHistogramWithCode {
	return operationHistogramWithCode{
		ok:      spaceManagerOperationsDurationSeconds.WithLabelValues(operation, "OK"),
		failure: spaceManagerOperationsDurationSeconds.MustCurryWith(map[string]string{"operation": operation}),
	}
}

func (m *operationHistogramWithCode) observe(err error, timeStart, timeStop time.Time) {
	d := timeStop.Sub(timeStart).Seconds()
	if err == nil {
		m.ok.Observe(d)
	} else {
		m.failure.WithLabelValues(status.Code(err).String()).Observe(d)
	}
}

var (
	// Already populate the HistogramVec with entries for all
	// operations.
	operationHistogramAllocateFileSpace   = newOperationHistogramWithCode("AllocateFileSpace")
	operationHistogramFreeFileSpace       = newOperationHistogramWithCode("FreeFileSpace")
	operationHistogramCollapseFileSpace   = newOperationHistogramWithCode("CollapseFileSpace")
	operationHistogramInsertFileSpace     = newOperationHistogramWithCode("InsertFileSpace")
	operationHistogramCanReclaimEOFBlocks = newOperationHistogram("CanReclaimEOFBlocks")
	operationHistogramReclaimEOFBlocks    = newOperationHistogramWithCode("ReclaimEOFBlocks")
	operationHistogramReserveDelayedSpace = newOperationHistogramWithCode("ReserveDelayedSpace")
	operationHistogramPunchDelayedRange   = newOperationHistogramWithCode("PunchDelayedRange")
	operationHistogramSwapExtents         = newOperationHistogramWithCode("SwapExtents")
	operationHistogramReportMappings      = newOperationHistogramWithCode("ReportMappings")
	operationHistogramCountForkBlocks     = newOperationHistogramWithCode("CountForkBlocks")
)

type metricsSpaceManager struct {
	base  SpaceManager
	clock clock.Clock
}

// NewMetricsSpaceManager creates a decorator for SpaceManager that
// exposes Prometheus metrics on the duration and status code of every
// operation invoked.
func NewMetricsSpaceManager(base SpaceManager, clock clock.Clock) SpaceManager {
	spaceManagerOperationsPrometheusMetrics.Do(func() {
		prometheus.MustRegister(spaceManagerOperationsDurationSeconds)
	})

	return &metricsSpaceManager{
		base:  base,
		clock: clock,
	}
}

func (sm *metricsSpaceManager) AllocateFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	timeStart := sm.clock.Now()
	err := sm.base.AllocateFileSpace(ctx, ip, offsetBytes, lengthBytes)
	operationHistogramAllocateFileSpace.observe(err, timeStart, sm.clock.Now())
	return err
}

func (sm *metricsSpaceManager) FreeFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	timeStart := sm.clock.Now()
	err := sm.base.FreeFileSpace(ctx, ip, offsetBytes, lengthBytes)
	operationHistogramFreeFileSpace.observe(err, timeStart, sm.clock.Now())
	return err
}

func (sm *metricsSpaceManager) CollapseFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	timeStart := sm.clock.Now()
	err := sm.base.CollapseFileSpace(ctx, ip, offsetBytes, lengthBytes)
	operationHistogramCollapseFileSpace.observe(err, timeStart, sm.clock.Now())
	return err
}

func (sm *metricsSpaceManager) InsertFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	timeStart := sm.clock.Now()
	err := sm.base.InsertFileSpace(ctx, ip, offsetBytes, lengthBytes)
	operationHistogramInsertFileSpace.observe(err, timeStart, sm.clock.Now())
	return err
}

func (sm *metricsSpaceManager) CanReclaimEOFBlocks(ip *inode.Inode) bool {
	timeStart := sm.clock.Now()
	canReclaim := sm.base.CanReclaimEOFBlocks(ip)
	operationHistogramCanReclaimEOFBlocks.observe(timeStart, sm.clock.Now())
	return canReclaim
}

func (sm *metricsSpaceManager) ReclaimEOFBlocks(ctx context.Context, ip *inode.Inode) error {
	timeStart := sm.clock.Now()
	err := sm.base.ReclaimEOFBlocks(ctx, ip)
	operationHistogramReclaimEOFBlocks.observe(err, timeStart, sm.clock.Now())
	return err
}

func (sm *metricsSpaceManager) ReserveDelayedSpace(ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	timeStart := sm.clock.Now()
	err := sm.base.ReserveDelayedSpace(ip, offsetBytes, lengthBytes)
	operationHistogramReserveDelayedSpace.observe(err, timeStart, sm.clock.Now())
	return err
}

func (sm *metricsSpaceManager) PunchDelayedRange(ip *inode.Inode, startBytes, endBytes int64) error {
	timeStart := sm.clock.Now()
	err := sm.base.PunchDelayedRange(ip, startBytes, endBytes)
	operationHistogramPunchDelayedRange.observe(err, timeStart, sm.clock.Now())
	return err
}

func (sm *metricsSpaceManager) SwapExtents(ctx context.Context, ip, tmp *inode.Inode, request SwapRequest) error {
	timeStart := sm.clock.Now()
	err := sm.base.SwapExtents(ctx, ip, tmp, request)
	operationHistogramSwapExtents.observe(err, timeStart, sm.clock.Now())
	return err
}

func (sm *metricsSpaceManager) ReportMappings(ctx context.Context, ip *inode.Inode, query MappingQuery) ([]MappingRecord, error) {
	timeStart := sm.clock.Now()
	records, err := sm.base.ReportMappings(ctx, ip, query)
	operationHistogramReportMappings.observe(err, timeStart, sm.clock.Now())
	return records, err
}

func (sm *metricsSpaceManager) CountForkBlocks(ip *inode.Inode, role inode.ForkRole) (int, extent.BlockCount, error) {
	timeStart := sm.clock.Now()
	extents, blocks, err := sm.base.CountForkBlocks(ip, role)
	operationHistogramCountForkBlocks.observe(err, timeStart, sm.clock.Now())
	return extents, blocks, err
}
