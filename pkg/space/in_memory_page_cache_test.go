package space_test

import (
	"math"
	"testing"

	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
	"github.com/buildbarn/bb-extentfs/pkg/space"
	"github.com/stretchr/testify/require"
)

func newTestPageCache() *space.InMemoryPageCache {
	return space.NewInMemoryPageCache(extent.Geometry{
		BlockSizeBytes:   4096,
		PageSizeBytes:    4096,
		MaxFileSizeBytes: 1 << 30,
	})
}

func TestInMemoryPageCacheResidency(t *testing.T) {
	pc := newTestPageCache()
	ip := inode.New(7, true)

	require.Equal(t, 0, pc.ResidentPages(ip))

	// Partial pages at the edges of a range count as resident.
	pc.MakeResident(ip, 100, 5000)
	require.Equal(t, 2, pc.ResidentPages(ip))

	// Overlapping ranges do not count pages twice.
	pc.MakeResident(ip, 4096, 8192)
	require.Equal(t, 2, pc.ResidentPages(ip))

	pc.TruncateRange(ip, 0, 4096)
	require.Equal(t, 1, pc.ResidentPages(ip))

	pc.TruncateRange(ip, 0, math.MaxInt64)
	require.Equal(t, 0, pc.ResidentPages(ip))
}

func TestInMemoryPageCachePinnedPagesSurviveTruncation(t *testing.T) {
	pc := newTestPageCache()
	ip := inode.New(7, true)

	pc.PinRange(ip, 0, 4096)
	pc.MakeResident(ip, 4096, 12288)
	require.Equal(t, 3, pc.ResidentPages(ip))

	// Making a pinned page resident again must not unpin it.
	pc.MakeResident(ip, 0, 4096)
	pc.TruncateRange(ip, 0, math.MaxInt64)
	require.Equal(t, 1, pc.ResidentPages(ip))
}

func TestInMemoryPageCacheZeroRangePopulates(t *testing.T) {
	pc := newTestPageCache()
	ip := inode.New(7, true)

	require.NoError(t, pc.ZeroRange(ip, 8191, 8193))
	require.Equal(t, 2, pc.ResidentPages(ip))
}

func TestInMemoryPageCacheTracksFilesIndependently(t *testing.T) {
	pc := newTestPageCache()
	a := inode.New(1, true)
	b := inode.New(2, true)

	pc.MakeResident(a, 0, 8192)
	pc.MakeResident(b, 0, 4096)
	require.Equal(t, 2, pc.ResidentPages(a))
	require.Equal(t, 1, pc.ResidentPages(b))

	pc.TruncateRange(a, 0, math.MaxInt64)
	require.Equal(t, 0, pc.ResidentPages(a))
	require.Equal(t, 1, pc.ResidentPages(b))
}
