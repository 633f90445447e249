package space_test

import (
	"context"
	"testing"

	"github.com/buildbarn/bb-extentfs/pkg/allocation"
	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
	"github.com/buildbarn/bb-extentfs/pkg/space"
	"github.com/buildbarn/bb-storage/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestReportMappingsArgumentValidation(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{}, false)

	t.Run("NoRecordsRequested", func(t *testing.T) {
		ip := inode.New(1, true)
		_, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork: inode.ForkData,
		})
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "At least one record must be requested"),
			err)
	})

	t.Run("NegativeOffset", func(t *testing.T) {
		ip := inode.New(1, true)
		_, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkData,
			OffsetBytes: -1,
			MaxRecords:  1,
		})
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Offset must be non-negative"),
			err)
	})

	t.Run("NegativeLength", func(t *testing.T) {
		ip := inode.New(1, true)
		_, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkData,
			LengthBytes: -2,
			MaxRecords:  1,
		})
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Length must be -1, zero or positive"),
			err)
	})

	t.Run("UnknownFork", func(t *testing.T) {
		ip := inode.New(1, true)
		_, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:       inode.ForkRole(42),
			MaxRecords: 1,
		})
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Unknown fork"),
			err)
	})

	t.Run("NotLoaded", func(t *testing.T) {
		ip := inode.New(17, true)
		ip.Fork(inode.ForkData).MarkUnloaded()
		_, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkData,
			LengthBytes: -1,
			MaxRecords:  10,
		})
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.FailedPrecondition, "Extent records of inode 17 have not been loaded"),
			err)
	})
}

func TestReportMappingsDegenerateQueries(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{}, false)

	t.Run("ZeroLength", func(t *testing.T) {
		ip := inode.New(1, true)
		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:       inode.ForkData,
			MaxRecords: 10,
		})
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("OffsetPastEndOfFile", func(t *testing.T) {
		ip := inode.New(1, true)
		ip.SizeBytes = 4096
		ip.DiskSizeBytes = 4096
		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkData,
			OffsetBytes: 8192,
			LengthBytes: -1,
			MaxRecords:  10,
		})
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("InlineFork", func(t *testing.T) {
		ip := inode.New(1, true)
		ip.SetFork(inode.ForkData, extent.NewInlineList(0))
		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkData,
			LengthBytes: -1,
			MaxRecords:  10,
		})
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("MissingAttrFork", func(t *testing.T) {
		ip := inode.New(1, true)
		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkAttr,
			LengthBytes: -1,
			MaxRecords:  10,
		})
		require.NoError(t, err)
		require.Empty(t, records)
	})

	t.Run("MissingCOWFork", func(t *testing.T) {
		ip := inode.New(1, true)
		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkCOW,
			LengthBytes: -1,
			MaxRecords:  10,
		})
		require.NoError(t, err)
		require.Empty(t, records)
	})
}

func TestReportMappingsWalksHoles(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
	ip := inode.New(1, true)
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 2, StartBlock: 100, Length: 2})
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 6, StartBlock: 200, Length: 1})
	ip.SizeBytes = 8 * 4096
	ip.DiskSizeBytes = 8 * 4096

	t.Run("WholeFile", func(t *testing.T) {
		// The final extent record carries the last marker. The hole
		// up to the end of the file is still reported after it.
		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkData,
			LengthBytes: -1,
			MaxRecords:  100,
		})
		require.NoError(t, err)
		require.Equal(t, []space.MappingRecord{
			{OffsetBlocks: 0, LengthBlocks: 2, Physical: extent.HoleStartBlock},
			{OffsetBlocks: 2, LengthBlocks: 2, Physical: 100},
			{OffsetBlocks: 4, LengthBlocks: 2, Physical: extent.HoleStartBlock},
			{OffsetBlocks: 6, LengthBlocks: 1, Physical: 200, Last: true},
			{OffsetBlocks: 7, LengthBlocks: 1, Physical: extent.HoleStartBlock},
		}, records)
	})

	t.Run("OffsetInsideExtent", func(t *testing.T) {
		// Reporting starts in the middle of the first extent, which
		// is clipped to the queried range.
		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkData,
			OffsetBytes: 3 * 4096,
			LengthBytes: -1,
			MaxRecords:  100,
		})
		require.NoError(t, err)
		require.Equal(t, []space.MappingRecord{
			{OffsetBlocks: 3, LengthBlocks: 1, Physical: 101},
			{OffsetBlocks: 4, LengthBlocks: 2, Physical: extent.HoleStartBlock},
			{OffsetBlocks: 6, LengthBlocks: 1, Physical: 200, Last: true},
			{OffsetBlocks: 7, LengthBlocks: 1, Physical: extent.HoleStartBlock},
		}, records)
	})

	t.Run("TruncatedByMaxRecords", func(t *testing.T) {
		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkData,
			LengthBytes: -1,
			MaxRecords:  2,
		})
		require.NoError(t, err)
		require.Equal(t, []space.MappingRecord{
			{OffsetBlocks: 0, LengthBlocks: 2, Physical: extent.HoleStartBlock},
			{OffsetBlocks: 2, LengthBlocks: 2, Physical: 100},
		}, records)
	})

	t.Run("OmitHoles", func(t *testing.T) {
		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkData,
			LengthBytes: -1,
			MaxRecords:  100,
			OmitHoles:   true,
		})
		require.NoError(t, err)
		require.Equal(t, []space.MappingRecord{
			{OffsetBlocks: 2, LengthBlocks: 2, Physical: 100},
			{OffsetBlocks: 6, LengthBlocks: 1, Physical: 200, Last: true},
		}, records)
	})
}

func TestReportMappingsPreallocatedRanges(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
	ip := inode.New(1, true)
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 2, State: extent.StateUnwritten})
	ip.SizeBytes = 12288
	ip.DiskSizeBytes = 12288

	records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
		Fork:                inode.ForkData,
		LengthBytes:         -1,
		MaxRecords:          100,
		IncludePreallocated: true,
	})
	require.NoError(t, err)
	require.Equal(t, []space.MappingRecord{
		{OffsetBlocks: 0, LengthBlocks: 2, Physical: 100, Preallocated: true, Last: true},
		{OffsetBlocks: 2, LengthBlocks: 1, Physical: extent.HoleStartBlock},
	}, records)

	// Without opting in, unwritten ranges look like ordinary ones.
	records, err = env.manager.ReportMappings(ctx, ip, space.MappingQuery{
		Fork:        inode.ForkData,
		LengthBytes: -1,
		MaxRecords:  100,
	})
	require.NoError(t, err)
	require.Equal(t, []space.MappingRecord{
		{OffsetBlocks: 0, LengthBlocks: 2, Physical: 100, Last: true},
		{OffsetBlocks: 2, LengthBlocks: 1, Physical: extent.HoleStartBlock},
	}, records)
}

func TestReportMappingsSplitsAroundSharedBlocks(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{Reflink: true}, false)
	ip := inode.New(1, true)
	ip.Flags.Reflink = true
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 4})
	ip.SizeBytes = 16384
	ip.DiskSizeBytes = 16384
	env.shared.MarkShared(101, 2)

	records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
		Fork:        inode.ForkData,
		LengthBytes: -1,
		MaxRecords:  100,
	})
	require.NoError(t, err)
	require.Equal(t, []space.MappingRecord{
		{OffsetBlocks: 0, LengthBlocks: 1, Physical: 100},
		{OffsetBlocks: 1, LengthBlocks: 2, Physical: 101, Shared: true},
		{OffsetBlocks: 3, LengthBlocks: 1, Physical: 103},
	}, records)
}

func TestReportMappingsDelayedAllocations(t *testing.T) {
	ctx := context.Background()

	t.Run("IncludeDelayed", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		ip.SizeBytes = 12288
		require.NoError(t, env.manager.ReserveDelayedSpace(ip, 0, 12288))

		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:           inode.ForkData,
			LengthBytes:    -1,
			MaxRecords:     100,
			IncludeDelayed: true,
		})
		require.NoError(t, err)
		require.Equal(t, []space.MappingRecord{
			{OffsetBlocks: 0, LengthBlocks: 3, Physical: extent.DelayedStartBlock, Delayed: true},
		}, records)

		// The report must not have forced the reservation to settle.
		require.Equal(t, extent.BlockCount(3), ip.DelayedBlockCount)
		require.Equal(t, int64(0), ip.DiskSizeBytes)
	})

	t.Run("WriteBackFirst", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		ip.SizeBytes = 12288
		require.NoError(t, env.manager.ReserveDelayedSpace(ip, 0, 12288))

		// Reporting real placements settles delayed allocations, so
		// that the addresses in the report are meaningful.
		records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
			Fork:        inode.ForkData,
			LengthBytes: -1,
			MaxRecords:  100,
		})
		require.NoError(t, err)
		require.Equal(t, []space.MappingRecord{
			{OffsetBlocks: 0, LengthBlocks: 3, Physical: 0},
		}, records)
		require.Equal(t, extent.BlockCount(0), ip.DelayedBlockCount)
		require.Equal(t, int64(12288), ip.DiskSizeBytes)
		require.NoError(t, ip.CheckBlockAccounting())
	})
}

func TestReportMappingsFileWithoutRecords(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
	ip := inode.New(1, true)
	ip.SizeBytes = 8192
	ip.DiskSizeBytes = 8192

	// Delayed allocation queries see a sparse file as a single hole.
	records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
		Fork:           inode.ForkData,
		LengthBytes:    -1,
		MaxRecords:     100,
		IncludeDelayed: true,
	})
	require.NoError(t, err)
	require.Equal(t, []space.MappingRecord{
		{OffsetBlocks: 0, LengthBlocks: 2, Physical: extent.HoleStartBlock},
	}, records)

	records, err = env.manager.ReportMappings(ctx, ip, space.MappingQuery{
		Fork:        inode.ForkData,
		LengthBytes: -1,
		MaxRecords:  100,
	})
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestReportMappingsAttrFork(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
	ip := inode.New(1, true)
	ip.AddAttrFork(160)
	seedExtent(t, env, ip, inode.ForkAttr, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 400, Length: 2})

	// Attribute forks are not bounded by the file size and get no
	// trailing hole.
	records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
		Fork:        inode.ForkAttr,
		LengthBytes: -1,
		MaxRecords:  100,
	})
	require.NoError(t, err)
	require.Equal(t, []space.MappingRecord{
		{OffsetBlocks: 0, LengthBlocks: 2, Physical: 400, Last: true},
	}, records)
}

func TestReportMappingsCOWFork(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{Reflink: true}, false)
	ip := inode.New(1, true)
	ip.EnsureCOWFork()
	seedExtent(t, env, ip, inode.ForkCOW, allocation.ZoneData, extent.Extent{Offset: 2, StartBlock: 500, Length: 2})
	ip.SizeBytes = 20480
	ip.DiskSizeBytes = 20480

	records, err := env.manager.ReportMappings(ctx, ip, space.MappingQuery{
		Fork:        inode.ForkCOW,
		LengthBytes: -1,
		MaxRecords:  100,
	})
	require.NoError(t, err)
	require.Equal(t, []space.MappingRecord{
		{OffsetBlocks: 0, LengthBlocks: 2, Physical: extent.HoleStartBlock},
		{OffsetBlocks: 2, LengthBlocks: 2, Physical: 500, Last: true},
		{OffsetBlocks: 4, LengthBlocks: 1, Physical: extent.HoleStartBlock},
	}, records)
}
