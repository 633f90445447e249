package transaction

import (
	"context"

	"github.com/buildbarn/bb-extentfs/pkg/allocation"
	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
)

// Reservation declares upfront how much space a transaction may
// consume. Reserving at the start is what allows multi-step
// operations to fail cleanly instead of running out of space halfway
// through.
type Reservation struct {
	// Blocks is the number of blocks the transaction may allocate,
	// including slack for growing tree backed extent lists.
	Blocks uint32
	// RefillFromFreed makes blocks freed by the transaction
	// available to the transaction itself again. Operations that
	// move blocks between files rather than releasing them depend
	// on this to keep long chains of steps within budget.
	RefillFromFreed bool
}

// BlockFreer returns blocks to an allocation zone. It is implemented
// by Allocator, so that freed blocks immediately become available for
// reuse.
type BlockFreer interface {
	Free(zone allocation.Zone, first extent.PhysicalBlock, count extent.BlockCount)
}

// Transaction is a unit of space management work that either takes
// effect entirely or not at all. Long running operations may Roll a
// transaction, which makes the changes so far durable and continues
// under the same reservation; cancellation then only undoes the
// portion after the last roll.
//
// Transactions are not safe for concurrent use. The caller must hold
// LockIndex on every inode it joins.
type Transaction interface {
	// Join makes the inode's state part of the transaction, so that
	// cancellation restores it.
	Join(ip *inode.Inode)
	// Log records that the inode has been modified. The inode must
	// have been joined.
	Log(ip *inode.Inode)
	// Defer queues an intent for execution by FinishDeferred or
	// Commit.
	Defer(intent Intent)
	// FinishDeferred executes all queued intents and rolls the
	// transaction.
	FinishDeferred() error
	// Roll makes the changes performed so far durable, while
	// keeping the transaction and its reservation open.
	Roll() error
	// Commit executes any remaining intents and completes the
	// transaction.
	Commit() error
	// Cancel undoes all changes since the last roll and completes
	// the transaction.
	Cancel()
	// SetSynchronous requests that Commit only returns once the
	// changes have been flushed to stable storage.
	SetSynchronous()
}

// Driver hands out transactions backed by some form of durable
// storage.
type Driver interface {
	Begin(ctx context.Context, reservation Reservation) (Transaction, error)
	// IsShutDown returns true if the driver has failed permanently
	// and no further transactions can be started.
	IsShutDown() bool
}
