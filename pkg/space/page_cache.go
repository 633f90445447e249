package space

import (
	"github.com/buildbarn/bb-extentfs/pkg/inode"
)

// PageCache is the view space management has of cached file
// contents. Operations that reshuffle the mapping between file
// offsets and physical blocks must push cached data out beforehand,
// as the cache would otherwise write it back to the wrong place.
type PageCache interface {
	// FlushRange writes dirty pages overlapping the given byte
	// range back to their backing blocks.
	FlushRange(ip *inode.Inode, startBytes, endBytes int64) error
	// TruncateRange removes pages overlapping the given byte range
	// from the cache. Pages that are pinned, for example by memory
	// mappings, remain resident.
	TruncateRange(ip *inode.Inode, startBytes, endBytes int64)
	// ZeroRange overwrites the given byte range with zeroes through
	// the cache, skipping any holes. It must not grow the file.
	ZeroRange(ip *inode.Inode, startBytes, endBytes int64) error
	// WaitForDirectIO blocks until writes that bypass the cache
	// have completed, so that the file size has settled.
	WaitForDirectIO(ip *inode.Inode)
	// ResidentPages returns the number of cached pages of the file.
	ResidentPages(ip *inode.Inode) int
}
