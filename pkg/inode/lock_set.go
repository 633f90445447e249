package inode

import (
	"sort"
)

type heldLock struct {
	ip    *Inode
	class LockClass
}

// LockSet tracks the inode locks held by a single operation. Locks of
// a given class are always acquired in increasing inode number order,
// so that operations covering the same pair of inodes cannot
// deadlock. Classes themselves must be acquired in declaration order.
type LockSet struct {
	held []heldLock
}

// Lock acquires the given lock class on all provided inodes.
func (ls *LockSet) Lock(class LockClass, inodes ...*Inode) {
	sorted := append([]*Inode(nil), inodes...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Number < sorted[j].Number
	})
	for i, ip := range sorted {
		if i > 0 && sorted[i-1] == ip {
			panic("Attempted to lock the same inode twice")
		}
		ip.Locker(class).Lock()
		ls.held = append(ls.held, heldLock{ip: ip, class: class})
	}
}

// Unlock releases the given lock class on one inode, regardless of
// acquisition order.
func (ls *LockSet) Unlock(class LockClass, ip *Inode) {
	for i := len(ls.held) - 1; i >= 0; i-- {
		if ls.held[i].ip == ip && ls.held[i].class == class {
			ip.Locker(class).Unlock()
			ls.held = append(ls.held[:i], ls.held[i+1:]...)
			return
		}
	}
	panic("Attempted to unlock a lock that is not held")
}

// UnlockAll releases every held lock in reverse acquisition order.
func (ls *LockSet) UnlockAll() {
	for i := len(ls.held) - 1; i >= 0; i-- {
		h := ls.held[i]
		h.ip.Locker(h.class).Unlock()
	}
	ls.held = ls.held[:0]
}
