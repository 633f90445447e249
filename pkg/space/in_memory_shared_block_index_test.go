package space_test

import (
	"testing"

	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/space"
	"github.com/stretchr/testify/require"
)

func TestInMemorySharedBlockIndexTrimAroundShared(t *testing.T) {
	sbi := space.NewInMemorySharedBlockIndex()
	sbi.MarkShared(10, 15)

	// A run of unshared blocks ends where the shared range begins.
	run, isShared := sbi.TrimAroundShared(5, 20)
	require.Equal(t, extent.BlockCount(5), run)
	require.False(t, isShared)

	// A query starting inside the shared range covers all of it.
	run, isShared = sbi.TrimAroundShared(10, 15)
	require.Equal(t, extent.BlockCount(15), run)
	require.True(t, isShared)

	sbi.MarkUnshared(20, 5)

	run, isShared = sbi.TrimAroundShared(18, 6)
	require.Equal(t, extent.BlockCount(2), run)
	require.True(t, isShared)

	run, isShared = sbi.TrimAroundShared(20, 4)
	require.Equal(t, extent.BlockCount(4), run)
	require.False(t, isShared)
}

func TestInMemorySharedBlockIndexEmptyRangePanics(t *testing.T) {
	sbi := space.NewInMemorySharedBlockIndex()
	require.Panics(t, func() { sbi.TrimAroundShared(0, 0) })
}
