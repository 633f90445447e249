package space

import (
	"github.com/buildbarn/bb-extentfs/pkg/allocation"
	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
)

// QuotaTracker accounts block usage against per user limits. Delayed
// reservations are tracked separately from allocated blocks, so that
// buffered writes cannot overcommit and later fail during writeback.
type QuotaTracker interface {
	// Attach loads the quota bookkeeping structures for the file's
	// owner. Must be called before any charging takes place.
	Attach(ip *inode.Inode) error
	// Enforcing returns true if limits are being applied.
	Enforcing() bool
	// SameOwnership returns true if both files charge their blocks
	// to the same user, group and project.
	SameOwnership(a, b *inode.Inode) bool

	// ReserveDelayed charges a delayed allocation reservation.
	ReserveDelayed(ip *inode.Inode, count extent.BlockCount) error
	// UnreserveDelayed returns a delayed allocation reservation.
	UnreserveDelayed(ip *inode.Inode, count extent.BlockCount)
	// ConvertDelayedToAllocated moves previously reserved blocks to
	// the allocated pool, once writeback has decided placement.
	ConvertDelayedToAllocated(ip *inode.Inode, zone allocation.Zone, count extent.BlockCount)

	// ChargeBlocks charges allocated blocks.
	ChargeBlocks(ip *inode.Inode, zone allocation.Zone, count extent.BlockCount) error
	// ReleaseBlocks returns allocated blocks.
	ReleaseBlocks(ip *inode.Inode, zone allocation.Zone, count extent.BlockCount)
}
