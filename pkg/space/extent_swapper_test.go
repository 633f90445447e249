package space_test

import (
	"context"
	"testing"
	"time"

	"github.com/buildbarn/bb-extentfs/pkg/allocation"
	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
	"github.com/buildbarn/bb-extentfs/pkg/space"
	"github.com/buildbarn/bb-storage/pkg/testutil"
	"github.com/stretchr/testify/require"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// wholeFileSwapRequest builds a request for exchanging all extents of
// a file whose timestamps match the test clock's fixed time.
func wholeFileSwapRequest(lengthBytes int64) space.SwapRequest {
	return space.SwapRequest{
		LengthBytes:        lengthBytes,
		ExpectedChangeTime: time.Unix(500, 0),
		ExpectedModifyTime: time.Unix(500, 0),
	}
}

func markSwapPrepared(ip *inode.Inode) {
	ip.ChangeTime = time.Unix(500, 0)
	ip.ModifyTime = time.Unix(500, 0)
}

func TestSwapExtentsArgumentValidation(t *testing.T) {
	ctx := context.Background()

	t.Run("SelfExchange", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "A file cannot exchange extents with itself"),
			env.manager.SwapExtents(ctx, ip, ip, wholeFileSwapRequest(0)))
	})

	t.Run("NotRegular", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		tmp := inode.New(2, false)
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Extent exchanges require two regular files"),
			env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(0)))
	})

	t.Run("MixedZones", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		tmp := inode.New(2, true)
		tmp.Flags.Realtime = true
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Extent exchanges cannot mix realtime and data zone files"),
			env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(0)))
	})

	t.Run("PartialRange", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		tmp := inode.New(2, true)
		request := wholeFileSwapRequest(0)
		request.OffsetBytes = 4096
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Only whole file exchanges are supported"),
			env.manager.SwapExtents(ctx, ip, tmp, request))
	})

	t.Run("LengthMismatch", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		ip.SizeBytes = 8192
		ip.DiskSizeBytes = 8192
		tmp := inode.New(2, true)
		tmp.SizeBytes = 4096
		tmp.DiskSizeBytes = 4096
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Only whole file exchanges are supported"),
			env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(8192)))
	})

	t.Run("InlineFile", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		ip.SetFork(inode.ForkData, extent.NewInlineList(0))
		tmp := inode.New(2, true)
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Inline files cannot exchange extents"),
			env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(0)))
	})

	t.Run("DonorHoldsMoreExtents", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 1})
		ip.SizeBytes = 12288
		ip.DiskSizeBytes = 12288
		tmp := inode.New(2, true)
		seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 110, Length: 1})
		seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 2, StartBlock: 112, Length: 1})
		tmp.SizeBytes = 12288
		tmp.DiskSizeBytes = 12288
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "The donor file holds more extents than the target file"),
			env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(12288)))
	})

	t.Run("ModifiedSincePrepared", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		ip.ChangeTime = time.Unix(600, 0)
		ip.ModifyTime = time.Unix(600, 0)
		tmp := inode.New(2, true)
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.Aborted, "Inode 1 has been modified since the request was prepared"),
			env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(0)))
	})

	t.Run("PinnedPages", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		tmp := inode.New(2, true)
		env.pageCache.PinRange(ip, 0, 4096)
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Failed to flush inode 1: Inode 1 still has pages resident in the page cache"),
			env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(0)))
	})

	t.Run("EnforcedQuotaOwnershipMismatch", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, true)
		ip := inode.New(1, true)
		ip.UID = 1000
		markSwapPrepared(ip)
		tmp := inode.New(2, true)
		tmp.UID = 2000
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "Files must have the same owner while quota is enforced"),
			env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(0)))
	})
}

func TestSwapExtentsFormatFit(t *testing.T) {
	ctx := context.Background()

	t.Run("TreeWouldFitFlat", func(t *testing.T) {
		// The donor's tree holds so few extents that they would fit
		// the target's literal area, which the on-disk format does
		// not permit after a wholesale fork swap.
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 1})
		seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 2, StartBlock: 102, Length: 1})
		seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 4, StartBlock: 104, Length: 1})
		ip.SizeBytes = 12288
		ip.DiskSizeBytes = 12288
		tmp := inode.New(2, true)
		seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 110, Length: 1})
		seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 2, StartBlock: 112, Length: 1})
		tmp.UpgradeForkCapacity(inode.ForkData)
		tmp.SizeBytes = 12288
		tmp.DiskSizeBytes = 12288
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "The extents of inode 2 would fit inode 1 without an index tree"),
			env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(12288)))
	})

	t.Run("TreeRootDoesNotFitBeforeAttrFork", func(t *testing.T) {
		env := newSpaceManagerTestEnvironment(t, space.Features{}, false)
		ip := inode.New(1, true)
		ip.AddAttrFork(8)
		tmp := inode.New(2, true)
		tmp.UpgradeForkCapacity(inode.ForkData)
		testutil.RequireEqualStatus(
			t,
			status.Error(codes.InvalidArgument, "The index root of inode 2 does not fit before the attribute fork of inode 1"),
			env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(0)))
	})
}

func TestSwapExtentsForkSwap(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{SyncDurability: true}, false)

	ip := inode.New(1, true)
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 4})
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 6, StartBlock: 200, Length: 2})
	ip.SizeBytes = 8 * 4096
	ip.DiskSizeBytes = 8 * 4096
	markSwapPrepared(ip)

	tmp := inode.New(2, true)
	seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 300, Length: 8})
	tmp.SizeBytes = 8 * 4096
	tmp.DiskSizeBytes = 8 * 4096

	require.NoError(t, env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(8*4096)))

	// The fragmented layout and the contiguous one traded places.
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 300, Length: 8},
	}, ip.Fork(inode.ForkData).Extents())
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 100, Length: 4},
		{Offset: 6, StartBlock: 200, Length: 2},
	}, tmp.Fork(inode.ForkData).Extents())
	require.Equal(t, extent.BlockCount(8), ip.BlockCount)
	require.Equal(t, extent.BlockCount(6), tmp.BlockCount)
	require.NoError(t, ip.CheckBlockAccounting())
	require.NoError(t, tmp.CheckBlockAccounting())

	// The volume requires synchronous durability, so the exchange
	// must have committed synchronously.
	require.Equal(t, uint64(1), env.driver.SynchronousCommits())
}

func TestSwapExtentsReverseMapping(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{ReverseMapping: true}, false)

	ip := inode.New(1, true)
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 2})
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 3, StartBlock: 200, Length: 1})
	ip.SizeBytes = 4 * 4096
	ip.DiskSizeBytes = 4 * 4096
	markSwapPrepared(ip)

	tmp := inode.New(2, true)
	seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 1, StartBlock: 300, Length: 2})
	tmp.SizeBytes = 4 * 4096
	tmp.DiskSizeBytes = 4 * 4096

	// Mappings move piecewise, including the holes between them.
	require.NoError(t, env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(4*4096)))
	require.Equal(t, []extent.Extent{
		{Offset: 1, StartBlock: 300, Length: 2},
	}, ip.Fork(inode.ForkData).Extents())
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 100, Length: 2},
		{Offset: 3, StartBlock: 200, Length: 1},
	}, tmp.Fork(inode.ForkData).Extents())
	require.Equal(t, extent.BlockCount(2), ip.BlockCount)
	require.Equal(t, extent.BlockCount(3), tmp.BlockCount)

	// No blocks were allocated or freed along the way.
	require.Equal(t, extent.BlockCount(1019), env.allocator.FreeBlocks(allocation.ZoneData))
	require.NoError(t, ip.CheckBlockAccounting())
	require.NoError(t, tmp.CheckBlockAccounting())
}

func TestSwapExtentsChangesTreeOwners(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{OwnedTreeNodes: true}, false)

	ip := inode.New(1, true)
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 2})
	ip.UpgradeForkCapacity(inode.ForkData)
	ip.SizeBytes = 8192
	ip.DiskSizeBytes = 8192
	markSwapPrepared(ip)

	tmp := inode.New(2, true)
	seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 200, Length: 1})
	tmp.UpgradeForkCapacity(inode.ForkData)
	tmp.SizeBytes = 8192
	tmp.DiskSizeBytes = 8192

	require.NoError(t, env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(8192)))
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 200, Length: 1},
	}, ip.Fork(inode.ForkData).Extents())
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 100, Length: 2},
	}, tmp.Fork(inode.ForkData).Extents())

	// The index nodes that moved along with the forks must carry
	// their new owner.
	ipNodes := ip.Fork(inode.ForkData).TreeNodes()
	require.Len(t, ipNodes, 1)
	require.Equal(t, uint64(1), ipNodes[0].Owner)
	tmpNodes := tmp.Fork(inode.ForkData).TreeNodes()
	require.Len(t, tmpNodes, 1)
	require.Equal(t, uint64(2), tmpNodes[0].Owner)
}

func TestSwapExtentsMovesReflinkState(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{Reflink: true}, false)

	ip := inode.New(1, true)
	ip.Flags.Reflink = true
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 2})
	ip.EnsureCOWFork()
	seedExtent(t, env, ip, inode.ForkCOW, allocation.ZoneData, extent.Extent{Offset: 5, StartBlock: 500, Length: 1})
	ip.SizeBytes = 8192
	ip.DiskSizeBytes = 8192
	markSwapPrepared(ip)

	tmp := inode.New(2, true)
	seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 300, Length: 2})
	tmp.SizeBytes = 8192
	tmp.DiskSizeBytes = 8192

	// The reflink flag and the staged copy on write extents follow
	// the data they belong to.
	require.NoError(t, env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(8192)))
	require.False(t, ip.Flags.Reflink)
	require.True(t, tmp.Flags.Reflink)
	require.False(t, ip.HasCOWData())
	require.True(t, tmp.HasCOWData())
	require.Equal(t, []extent.Extent{
		{Offset: 5, StartBlock: 500, Length: 1},
	}, tmp.Fork(inode.ForkCOW).Extents())
	require.Equal(t, extent.BlockCount(2), ip.BlockCount)
	require.Equal(t, extent.BlockCount(3), tmp.BlockCount)
	require.NoError(t, ip.CheckBlockAccounting())
	require.NoError(t, tmp.CheckBlockAccounting())
}

func TestSwapExtentsCancelsDonorCOWAllocations(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{Reflink: true}, false)

	ip := inode.New(1, true)
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 1})
	ip.SizeBytes = 4096
	ip.DiskSizeBytes = 4096
	markSwapPrepared(ip)

	tmp := inode.New(2, true)
	seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 300, Length: 1})
	tmp.EnsureCOWFork()
	seedExtent(t, env, tmp, inode.ForkCOW, allocation.ZoneData, extent.Extent{Offset: 2, StartBlock: 600, Length: 2})
	tmp.SizeBytes = 4096
	tmp.DiskSizeBytes = 4096

	// Copy on write staging of the donor is discarded before the
	// exchange, releasing its blocks.
	require.NoError(t, env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(4096)))
	require.False(t, ip.HasCOWData())
	require.False(t, tmp.HasCOWData())
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 300, Length: 1},
	}, ip.Fork(inode.ForkData).Extents())
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 100, Length: 1},
	}, tmp.Fork(inode.ForkData).Extents())
	require.Equal(t, extent.BlockCount(1022), env.allocator.FreeBlocks(allocation.ZoneData))
	require.Equal(t, extent.BlockCount(2), env.quota.UsedBlocks(0, allocation.ZoneData))
	require.NoError(t, ip.CheckBlockAccounting())
	require.NoError(t, tmp.CheckBlockAccounting())
}

func TestSwapExtentsMovesDelayedReservation(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{}, false)

	ip := inode.New(1, true)
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 1})
	ip.SizeBytes = 4096
	ip.DiskSizeBytes = 4096
	require.NoError(t, env.manager.ReserveDelayedSpace(ip, 4096, 2*4096))
	markSwapPrepared(ip)

	tmp := inode.New(2, true)
	seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 300, Length: 1})
	tmp.SizeBytes = 4096
	tmp.DiskSizeBytes = 4096

	// Speculative delayed allocation past the end of the file moves
	// along with the fork, together with its reservation.
	require.NoError(t, env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(4096)))
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 300, Length: 1},
	}, ip.Fork(inode.ForkData).Extents())
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 100, Length: 1},
		{Offset: 1, StartBlock: extent.DelayedStartBlock, Length: 2},
	}, tmp.Fork(inode.ForkData).Extents())
	require.Equal(t, extent.BlockCount(0), ip.DelayedBlockCount)
	require.Equal(t, extent.BlockCount(0), ip.ReservedBlockCount)
	require.Equal(t, extent.BlockCount(2), tmp.DelayedBlockCount)
	require.Equal(t, extent.BlockCount(3), tmp.ReservedBlockCount)
	require.Equal(t, extent.BlockCount(3), env.quota.ReservedBlocks(0))
	require.NoError(t, ip.CheckBlockAccounting())
	require.NoError(t, tmp.CheckBlockAccounting())
}

func TestSwapExtentsDonorWithDelayedAllocations(t *testing.T) {
	ctx := context.Background()
	env := newSpaceManagerTestEnvironment(t, space.Features{}, false)

	ip := inode.New(1, true)
	seedExtent(t, env, ip, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 100, Length: 1})
	ip.SizeBytes = 4096
	ip.DiskSizeBytes = 4096
	markSwapPrepared(ip)

	tmp := inode.New(2, true)
	seedExtent(t, env, tmp, inode.ForkData, allocation.ZoneData, extent.Extent{Offset: 0, StartBlock: 300, Length: 1})
	tmp.SizeBytes = 4096
	tmp.DiskSizeBytes = 4096
	require.NoError(t, env.manager.ReserveDelayedSpace(tmp, 4096, 4096))

	// Delayed allocation past the end of the donor survives the
	// flush; the exchange must back out without changing anything.
	testutil.RequireEqualStatus(
		t,
		status.Error(codes.Internal, "Donor inode 2 still has delayed allocations after flushing"),
		env.manager.SwapExtents(ctx, ip, tmp, wholeFileSwapRequest(4096)))
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 100, Length: 1},
	}, ip.Fork(inode.ForkData).Extents())
	require.Equal(t, []extent.Extent{
		{Offset: 0, StartBlock: 300, Length: 1},
		{Offset: 1, StartBlock: extent.DelayedStartBlock, Length: 1},
	}, tmp.Fork(inode.ForkData).Extents())
	require.Equal(t, extent.BlockCount(1), tmp.DelayedBlockCount)
	require.NoError(t, ip.CheckBlockAccounting())
	require.NoError(t, tmp.CheckBlockAccounting())
}
