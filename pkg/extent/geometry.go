package extent

// Geometry describes the block layout of a volume. All space
// management operations convert byte ranges to block ranges according
// to these parameters.
type Geometry struct {
	// BlockSizeBytes is the size of a single volume block.
	BlockSizeBytes uint32
	// PageSizeBytes is the granularity at which the page cache
	// tracks file contents. At least as large as a block on most
	// configurations, but the two are independent.
	PageSizeBytes uint32
	// RealtimeExtentBlocks is the allocation granularity of the
	// realtime zone. A value greater than one causes deallocations
	// on realtime files to be rounded to multiples of it.
	RealtimeExtentBlocks BlockCount
	// MaxFileSizeBytes is the largest byte offset a file may reach.
	MaxFileSizeBytes int64
}

// BytesToBlocks converts a byte count to blocks, rounding upwards.
func (g Geometry) BytesToBlocks(n int64) FileOffset {
	return FileOffset((uint64(n) + uint64(g.BlockSizeBytes) - 1) / uint64(g.BlockSizeBytes))
}

// BytesToBlocksTruncated converts a byte count to blocks, rounding
// downwards.
func (g Geometry) BytesToBlocksTruncated(n int64) FileOffset {
	return FileOffset(uint64(n) / uint64(g.BlockSizeBytes))
}

// BlocksToBytes converts a block count to bytes.
func (g Geometry) BlocksToBytes(n FileOffset) int64 {
	return int64(n) * int64(g.BlockSizeBytes)
}

// MaxFileBlocks returns the largest file offset in blocks.
func (g Geometry) MaxFileBlocks() FileOffset {
	return g.BytesToBlocks(g.MaxFileSizeBytes)
}

// HasBigRealtimeExtents returns true if the realtime zone allocates
// space in units of more than one block.
func (g Geometry) HasBigRealtimeExtents() bool {
	return g.RealtimeExtentBlocks > 1
}

// AllocationUnitBlocks returns the allocation granularity of the zone
// backing a file, in blocks.
func (g Geometry) AllocationUnitBlocks(realtime bool) BlockCount {
	if realtime && g.HasBigRealtimeExtents() {
		return g.RealtimeExtentBlocks
	}
	return 1
}

// AllocationUnitBytes returns the allocation granularity of the zone
// backing a file, in bytes.
func (g Geometry) AllocationUnitBytes(realtime bool) int64 {
	return int64(g.AllocationUnitBlocks(realtime)) * int64(g.BlockSizeBytes)
}

// RoundUpToRealtimeExtent rounds a block offset upwards to a multiple
// of the realtime allocation granularity.
func (g Geometry) RoundUpToRealtimeExtent(o FileOffset) FileOffset {
	n := FileOffset(g.RealtimeExtentBlocks)
	return (o + n - 1) / n * n
}

// RoundDownToRealtimeExtent rounds a block offset downwards to a
// multiple of the realtime allocation granularity.
func (g Geometry) RoundDownToRealtimeExtent(o FileOffset) FileOffset {
	n := FileOffset(g.RealtimeExtentBlocks)
	return o / n * n
}
