package space

import (
	"sync"

	"github.com/buildbarn/bb-extentfs/pkg/extent"
)

// InMemorySharedBlockIndex tracks shared physical blocks as a plain
// set. A real volume would consult its reference count structures.
type InMemorySharedBlockIndex struct {
	lock   sync.Mutex
	shared map[extent.PhysicalBlock]bool
}

var _ SharedBlockIndex = (*InMemorySharedBlockIndex)(nil)

// NewInMemorySharedBlockIndex creates a shared block index that holds
// all state in memory, with no blocks initially shared.
func NewInMemorySharedBlockIndex() *InMemorySharedBlockIndex {
	return &InMemorySharedBlockIndex{
		shared: map[extent.PhysicalBlock]bool{},
	}
}

// MarkShared records that a range of physical blocks is referenced by
// multiple files.
func (sbi *InMemorySharedBlockIndex) MarkShared(first extent.PhysicalBlock, count extent.BlockCount) {
	sbi.lock.Lock()
	defer sbi.lock.Unlock()
	for i := extent.BlockCount(0); i < count; i++ {
		sbi.shared[first+extent.PhysicalBlock(i)] = true
	}
}

// MarkUnshared records that a range of physical blocks is once again
// referenced by a single file.
func (sbi *InMemorySharedBlockIndex) MarkUnshared(first extent.PhysicalBlock, count extent.BlockCount) {
	sbi.lock.Lock()
	defer sbi.lock.Unlock()
	for i := extent.BlockCount(0); i < count; i++ {
		delete(sbi.shared, first+extent.PhysicalBlock(i))
	}
}

func (sbi *InMemorySharedBlockIndex) TrimAroundShared(first extent.PhysicalBlock, count extent.BlockCount) (extent.BlockCount, bool) {
	if count < 1 {
		panic("Attempted to trim an empty physical range")
	}
	sbi.lock.Lock()
	defer sbi.lock.Unlock()
	isShared := sbi.shared[first]
	run := extent.BlockCount(1)
	for run < count && sbi.shared[first+extent.PhysicalBlock(run)] == isShared {
		run++
	}
	return run, isShared
}
