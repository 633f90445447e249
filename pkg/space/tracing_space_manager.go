package space

import (
	"context"

	"github.com/buildbarn/bb-extentfs/pkg/inode"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracingSpaceManager struct {
	SpaceManager
	tracer trace.Tracer
}

// NewTracingSpaceManager is a decorator for SpaceManager that creates
// an OpenTelemetry trace span for every operation that may block on
// writeback or allocation. The cheap lockless and in-memory operations
// are passed through unchanged.
func NewTracingSpaceManager(spaceManager SpaceManager, tracerProvider trace.TracerProvider) SpaceManager {
	return &tracingSpaceManager{
		SpaceManager: spaceManager,
		tracer:       tracerProvider.Tracer("github.com/buildbarn/bb-extentfs/pkg/space"),
	}
}

func (sm *tracingSpaceManager) AllocateFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	ctxWithTracing, span := sm.tracer.Start(ctx, "SpaceManager.AllocateFileSpace", trace.WithAttributes(
		attribute.Int64("inode", int64(ip.Number)),
		attribute.Int64("offset_bytes", offsetBytes),
		attribute.Int64("length_bytes", lengthBytes),
	))
	defer span.End()

	return sm.SpaceManager.AllocateFileSpace(ctxWithTracing, ip, offsetBytes, lengthBytes)
}

func (sm *tracingSpaceManager) FreeFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	ctxWithTracing, span := sm.tracer.Start(ctx, "SpaceManager.FreeFileSpace", trace.WithAttributes(
		attribute.Int64("inode", int64(ip.Number)),
		attribute.Int64("offset_bytes", offsetBytes),
		attribute.Int64("length_bytes", lengthBytes),
	))
	defer span.End()

	return sm.SpaceManager.FreeFileSpace(ctxWithTracing, ip, offsetBytes, lengthBytes)
}

func (sm *tracingSpaceManager) CollapseFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	ctxWithTracing, span := sm.tracer.Start(ctx, "SpaceManager.CollapseFileSpace", trace.WithAttributes(
		attribute.Int64("inode", int64(ip.Number)),
		attribute.Int64("offset_bytes", offsetBytes),
		attribute.Int64("length_bytes", lengthBytes),
	))
	defer span.End()

	return sm.SpaceManager.CollapseFileSpace(ctxWithTracing, ip, offsetBytes, lengthBytes)
}

func (sm *tracingSpaceManager) InsertFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error {
	ctxWithTracing, span := sm.tracer.Start(ctx, "SpaceManager.InsertFileSpace", trace.WithAttributes(
		attribute.Int64("inode", int64(ip.Number)),
		attribute.Int64("offset_bytes", offsetBytes),
		attribute.Int64("length_bytes", lengthBytes),
	))
	defer span.End()

	return sm.SpaceManager.InsertFileSpace(ctxWithTracing, ip, offsetBytes, lengthBytes)
}

func (sm *tracingSpaceManager) ReclaimEOFBlocks(ctx context.Context, ip *inode.Inode) error {
	ctxWithTracing, span := sm.tracer.Start(ctx, "SpaceManager.ReclaimEOFBlocks", trace.WithAttributes(
		attribute.Int64("inode", int64(ip.Number)),
	))
	defer span.End()

	return sm.SpaceManager.ReclaimEOFBlocks(ctxWithTracing, ip)
}

func (sm *tracingSpaceManager) SwapExtents(ctx context.Context, ip, tmp *inode.Inode, request SwapRequest) error {
	ctxWithTracing, span := sm.tracer.Start(ctx, "SpaceManager.SwapExtents", trace.WithAttributes(
		attribute.Int64("inode", int64(ip.Number)),
		attribute.Int64("donor_inode", int64(tmp.Number)),
		attribute.Int64("offset_bytes", request.OffsetBytes),
		attribute.Int64("length_bytes", request.LengthBytes),
	))
	defer span.End()

	return sm.SpaceManager.SwapExtents(ctxWithTracing, ip, tmp, request)
}

func (sm *tracingSpaceManager) ReportMappings(ctx context.Context, ip *inode.Inode, query MappingQuery) ([]MappingRecord, error) {
	ctxWithTracing, span := sm.tracer.Start(ctx, "SpaceManager.ReportMappings", trace.WithAttributes(
		attribute.Int64("inode", int64(ip.Number)),
		attribute.String("fork", query.Fork.String()),
		attribute.Int64("offset_bytes", query.OffsetBytes),
		attribute.Int64("length_bytes", query.LengthBytes),
		attribute.Int("max_records", query.MaxRecords),
	))
	defer span.End()

	return sm.SpaceManager.ReportMappings(ctxWithTracing, ip, query)
}
