package space_test

import (
	"context"
	"testing"

	"github.com/buildbarn/bb-extentfs/internal/mock"
	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
	"github.com/buildbarn/bb-extentfs/pkg/space"
	"github.com/buildbarn/bb-storage/pkg/testutil"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/mock/gomock"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestTracingSpaceManager(t *testing.T) {
	ctrl, ctx := gomock.WithContext(context.Background(), t)

	baseSpaceManager := mock.NewMockSpaceManager(ctrl)
	tracerProvider := mock.NewMockTracerProvider(ctrl)
	tracer := mock.NewMockTracer(ctrl)
	tracerProvider.EXPECT().Tracer("github.com/buildbarn/bb-extentfs/pkg/space").Return(tracer)
	spaceManager := space.NewTracingSpaceManager(baseSpaceManager, tracerProvider)

	t.Run("AllocateFileSpace", func(t *testing.T) {
		// Calls that block on allocation run under a span. Errors
		// pass through unchanged.
		ip := inode.New(5, true)
		ctxWithTracing := mock.NewMockContext(ctrl)
		span := mock.NewMockSpan(ctrl)
		tracer.EXPECT().Start(ctx, "SpaceManager.AllocateFileSpace", trace.WithAttributes(
			attribute.Int64("inode", 5),
			attribute.Int64("offset_bytes", 4096),
			attribute.Int64("length_bytes", 8192),
		)).Return(ctxWithTracing, span)
		baseSpaceManager.EXPECT().AllocateFileSpace(ctxWithTracing, ip, int64(4096), int64(8192)).
			Return(status.Error(codes.ResourceExhausted, "The data zone is out of space"))
		span.EXPECT().End()

		testutil.RequireEqualStatus(
			t,
			status.Error(codes.ResourceExhausted, "The data zone is out of space"),
			spaceManager.AllocateFileSpace(ctx, ip, 4096, 8192))
	})

	t.Run("SwapExtents", func(t *testing.T) {
		ip := inode.New(5, true)
		tmp := inode.New(6, true)
		request := space.SwapRequest{LengthBytes: 16384}
		ctxWithTracing := mock.NewMockContext(ctrl)
		span := mock.NewMockSpan(ctrl)
		tracer.EXPECT().Start(ctx, "SpaceManager.SwapExtents", trace.WithAttributes(
			attribute.Int64("inode", 5),
			attribute.Int64("donor_inode", 6),
			attribute.Int64("offset_bytes", 0),
			attribute.Int64("length_bytes", 16384),
		)).Return(ctxWithTracing, span)
		baseSpaceManager.EXPECT().SwapExtents(ctxWithTracing, ip, tmp, request).Return(nil)
		span.EXPECT().End()

		require.NoError(t, spaceManager.SwapExtents(ctx, ip, tmp, request))
	})

	t.Run("ReportMappings", func(t *testing.T) {
		ip := inode.New(5, true)
		query := space.MappingQuery{
			Fork:        inode.ForkData,
			OffsetBytes: 4096,
			LengthBytes: -1,
			MaxRecords:  32,
		}
		ctxWithTracing := mock.NewMockContext(ctrl)
		span := mock.NewMockSpan(ctrl)
		tracer.EXPECT().Start(ctx, "SpaceManager.ReportMappings", trace.WithAttributes(
			attribute.Int64("inode", 5),
			attribute.String("fork", "data"),
			attribute.Int64("offset_bytes", 4096),
			attribute.Int64("length_bytes", -1),
			attribute.Int("max_records", 32),
		)).Return(ctxWithTracing, span)
		baseSpaceManager.EXPECT().ReportMappings(ctxWithTracing, ip, query).Return([]space.MappingRecord{
			{OffsetBlocks: 1, LengthBlocks: 2, Physical: 100, Last: true},
		}, nil)
		span.EXPECT().End()

		records, err := spaceManager.ReportMappings(ctx, ip, query)
		require.NoError(t, err)
		require.Equal(t, []space.MappingRecord{
			{OffsetBlocks: 1, LengthBlocks: 2, Physical: 100, Last: true},
		}, records)
	})

	t.Run("CanReclaimEOFBlocks", func(t *testing.T) {
		// Lockless in-memory operations are not worth a span.
		ip := inode.New(5, true)
		baseSpaceManager.EXPECT().CanReclaimEOFBlocks(ip).Return(true)

		require.True(t, spaceManager.CanReclaimEOFBlocks(ip))
	})

	t.Run("CountForkBlocks", func(t *testing.T) {
		ip := inode.New(5, true)
		baseSpaceManager.EXPECT().CountForkBlocks(ip, inode.ForkData).Return(3, extent.BlockCount(20), nil)

		extents, blocks, err := spaceManager.CountForkBlocks(ip, inode.ForkData)
		require.NoError(t, err)
		require.Equal(t, 3, extents)
		require.Equal(t, extent.BlockCount(20), blocks)
	})
}
