package space

import (
	"sync"

	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
)

// InMemoryPageCache tracks page residency without holding any data.
// Tests and the exerciser use it to simulate the interactions between
// space management and cached file contents.
type InMemoryPageCache struct {
	pageSizeBytes int64

	lock  sync.Mutex
	files map[inode.Number]map[int64]bool
}

var _ PageCache = (*InMemoryPageCache)(nil)

// NewInMemoryPageCache creates a page cache that tracks residency at
// the page granularity of the given geometry.
func NewInMemoryPageCache(geometry extent.Geometry) *InMemoryPageCache {
	return &InMemoryPageCache{
		pageSizeBytes: int64(geometry.PageSizeBytes),
		files:         map[inode.Number]map[int64]bool{},
	}
}

func (pc *InMemoryPageCache) pageRange(startBytes, endBytes int64) (int64, int64) {
	last := endBytes / pc.pageSizeBytes
	if endBytes%pc.pageSizeBytes != 0 {
		last++
	}
	return startBytes / pc.pageSizeBytes, last
}

func (pc *InMemoryPageCache) populate(ip *inode.Inode, startBytes, endBytes int64, pinned bool) {
	first, last := pc.pageRange(startBytes, endBytes)
	pc.lock.Lock()
	defer pc.lock.Unlock()
	pages, ok := pc.files[ip.Number]
	if !ok {
		pages = map[int64]bool{}
		pc.files[ip.Number] = pages
	}
	for p := first; p < last; p++ {
		pages[p] = pages[p] || pinned
	}
}

// MakeResident adds the pages overlapping the given byte range to the
// cache.
func (pc *InMemoryPageCache) MakeResident(ip *inode.Inode, startBytes, endBytes int64) {
	pc.populate(ip, startBytes, endBytes, false)
}

// PinRange adds the pages overlapping the given byte range to the
// cache and protects them against truncation, the way a memory
// mapping would.
func (pc *InMemoryPageCache) PinRange(ip *inode.Inode, startBytes, endBytes int64) {
	pc.populate(ip, startBytes, endBytes, true)
}

// FlushRange writes dirty pages back. As this cache holds no data,
// this only serves as a point of interposition for tests.
func (pc *InMemoryPageCache) FlushRange(ip *inode.Inode, startBytes, endBytes int64) error {
	return nil
}

// TruncateRange removes all unpinned pages overlapping the given byte
// range from the cache. The range may span the entire file.
func (pc *InMemoryPageCache) TruncateRange(ip *inode.Inode, startBytes, endBytes int64) {
	first, last := pc.pageRange(startBytes, endBytes)
	pc.lock.Lock()
	defer pc.lock.Unlock()
	pages := pc.files[ip.Number]
	for p, pinned := range pages {
		if p >= first && p < last && !pinned {
			delete(pages, p)
		}
	}
}

// ZeroRange writes zeroes through the cache, which for this
// implementation merely makes the touched pages resident.
func (pc *InMemoryPageCache) ZeroRange(ip *inode.Inode, startBytes, endBytes int64) error {
	pc.populate(ip, startBytes, endBytes, false)
	return nil
}

// WaitForDirectIO returns immediately, as this cache has no notion of
// writes that bypass it.
func (pc *InMemoryPageCache) WaitForDirectIO(ip *inode.Inode) {
}

// ResidentPages returns the number of cached pages of a file.
func (pc *InMemoryPageCache) ResidentPages(ip *inode.Inode) int {
	pc.lock.Lock()
	defer pc.lock.Unlock()
	return len(pc.files[ip.Number])
}
