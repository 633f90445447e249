package space

import (
	"github.com/buildbarn/bb-extentfs/pkg/extent"
)

// SharedBlockIndex determines which physical blocks are referenced by
// more than one file. On volumes supporting reflink, mapping reports
// use it to split extents on sharing boundaries.
type SharedBlockIndex interface {
	// TrimAroundShared returns the length of the longest prefix of
	// the given physical range whose blocks all have the same
	// sharing state, together with that state. Callers repeatedly
	// invoke it to decompose a range into uniformly shared and
	// unshared pieces.
	TrimAroundShared(first extent.PhysicalBlock, count extent.BlockCount) (extent.BlockCount, bool)
}
