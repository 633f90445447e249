package space

import (
	"sync"

	"github.com/buildbarn/bb-extentfs/pkg/allocation"
	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type quotaPool struct {
	used     extent.BlockCount
	reserved extent.BlockCount
	limit    extent.BlockCount
	limited  bool
}

type quotaKey struct {
	uid  uint32
	zone allocation.Zone
}

// InMemoryQuotaTracker accounts block usage per user. Delayed
// reservations are held in the data zone pool until conversion, which
// charges the zone the blocks were placed in.
type InMemoryQuotaTracker struct {
	enforcing bool

	lock  sync.Mutex
	pools map[quotaKey]*quotaPool
}

var _ QuotaTracker = (*InMemoryQuotaTracker)(nil)

// NewInMemoryQuotaTracker creates a quota tracker holding all state
// in memory. When not enforcing, usage is still accounted, but
// limits are ignored.
func NewInMemoryQuotaTracker(enforcing bool) *InMemoryQuotaTracker {
	return &InMemoryQuotaTracker{
		enforcing: enforcing,
		pools:     map[quotaKey]*quotaPool{},
	}
}

func (qt *InMemoryQuotaTracker) pool(uid uint32, zone allocation.Zone) *quotaPool {
	key := quotaKey{uid: uid, zone: zone}
	p, ok := qt.pools[key]
	if !ok {
		p = &quotaPool{}
		qt.pools[key] = p
	}
	return p
}

// SetBlockLimit installs a block limit for one user and zone.
func (qt *InMemoryQuotaTracker) SetBlockLimit(uid uint32, zone allocation.Zone, limit extent.BlockCount) {
	qt.lock.Lock()
	defer qt.lock.Unlock()
	p := qt.pool(uid, zone)
	p.limit = limit
	p.limited = true
}

// UsedBlocks returns the number of blocks currently charged to a
// user, not counting delayed reservations.
func (qt *InMemoryQuotaTracker) UsedBlocks(uid uint32, zone allocation.Zone) extent.BlockCount {
	qt.lock.Lock()
	defer qt.lock.Unlock()
	return qt.pool(uid, zone).used
}

// ReservedBlocks returns the number of blocks held by delayed
// reservations of a user.
func (qt *InMemoryQuotaTracker) ReservedBlocks(uid uint32) extent.BlockCount {
	qt.lock.Lock()
	defer qt.lock.Unlock()
	return qt.pool(uid, allocation.ZoneData).reserved
}

func (qt *InMemoryQuotaTracker) Attach(ip *inode.Inode) error {
	return nil
}

func (qt *InMemoryQuotaTracker) Enforcing() bool {
	return qt.enforcing
}

func (qt *InMemoryQuotaTracker) SameOwnership(a, b *inode.Inode) bool {
	return a.UID == b.UID && a.GID == b.GID && a.ProjectID == b.ProjectID
}

func (qt *InMemoryQuotaTracker) charge(ip *inode.Inode, zone allocation.Zone, count extent.BlockCount, reserve bool) error {
	qt.lock.Lock()
	defer qt.lock.Unlock()
	p := qt.pool(ip.UID, zone)
	if qt.enforcing && p.limited && p.used+p.reserved+count > p.limit {
		return status.Errorf(codes.ResourceExhausted, "Block quota of user %d in the %s zone exceeded", ip.UID, zone)
	}
	if reserve {
		p.reserved += count
	} else {
		p.used += count
	}
	return nil
}

func (qt *InMemoryQuotaTracker) ReserveDelayed(ip *inode.Inode, count extent.BlockCount) error {
	return qt.charge(ip, allocation.ZoneData, count, true)
}

func (qt *InMemoryQuotaTracker) UnreserveDelayed(ip *inode.Inode, count extent.BlockCount) {
	qt.lock.Lock()
	defer qt.lock.Unlock()
	p := qt.pool(ip.UID, allocation.ZoneData)
	if p.reserved < count {
		panic("Attempted to unreserve more blocks than are reserved")
	}
	p.reserved -= count
}

func (qt *InMemoryQuotaTracker) ConvertDelayedToAllocated(ip *inode.Inode, zone allocation.Zone, count extent.BlockCount) {
	qt.lock.Lock()
	defer qt.lock.Unlock()
	reservedPool := qt.pool(ip.UID, allocation.ZoneData)
	if reservedPool.reserved < count {
		panic("Attempted to convert more blocks than are reserved")
	}
	reservedPool.reserved -= count
	qt.pool(ip.UID, zone).used += count
}

func (qt *InMemoryQuotaTracker) ChargeBlocks(ip *inode.Inode, zone allocation.Zone, count extent.BlockCount) error {
	return qt.charge(ip, zone, count, false)
}

func (qt *InMemoryQuotaTracker) ReleaseBlocks(ip *inode.Inode, zone allocation.Zone, count extent.BlockCount) {
	qt.lock.Lock()
	defer qt.lock.Unlock()
	p := qt.pool(ip.UID, zone)
	if p.used < count {
		panic("Attempted to release more blocks than are charged")
	}
	p.used -= count
}
