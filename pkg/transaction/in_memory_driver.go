package transaction

import (
	"context"
	"sync"

	"github.com/buildbarn/bb-extentfs/pkg/inode"
	"github.com/buildbarn/bb-storage/pkg/util"
)

// InMemoryDriver implements Transactions directly against in-core
// state. Durability boundaries (rolls, synchronous commits) are
// tracked, but have no effect beyond bounding what Cancel undoes.
type InMemoryDriver struct {
	freer       BlockFreer
	errorLogger util.ErrorLogger

	lock               sync.Mutex
	shutdownErr        error
	reservedBlocks     uint64
	synchronousCommits uint64
}

// NewInMemoryDriver creates a transaction driver that operates on
// in-core state only. Freed blocks are handed to the provided
// BlockFreer. The error that caused a shutdown is reported through
// the provided ErrorLogger.
func NewInMemoryDriver(freer BlockFreer, errorLogger util.ErrorLogger) *InMemoryDriver {
	return &InMemoryDriver{
		freer:       freer,
		errorLogger: errorLogger,
	}
}

// ForceShutdown poisons the driver, causing all future calls to Begin
// to fail. The first error wins; later calls are ignored.
func (d *InMemoryDriver) ForceShutdown(err error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.shutdownErr == nil {
		d.shutdownErr = err
		d.errorLogger.Log(err)
	}
}

// IsShutDown returns true if the driver has failed permanently.
func (d *InMemoryDriver) IsShutDown() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.shutdownErr != nil
}

// ReservedBlocks returns the number of blocks currently reserved by
// transactions in progress.
func (d *InMemoryDriver) ReservedBlocks() uint64 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.reservedBlocks
}

// SynchronousCommits returns the number of commits that requested a
// flush to stable storage.
func (d *InMemoryDriver) SynchronousCommits() uint64 {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.synchronousCommits
}

func (d *InMemoryDriver) adjustReservedBlocks(delta int64) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.reservedBlocks = uint64(int64(d.reservedBlocks) + delta)
}

func (d *InMemoryDriver) currentShutdownError() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.shutdownErr
}

// Begin starts a new transaction.
func (d *InMemoryDriver) Begin(ctx context.Context, reservation Reservation) (Transaction, error) {
	if err := d.currentShutdownError(); err != nil {
		return nil, util.StatusWrap(err, "Volume has shut down")
	}
	d.adjustReservedBlocks(int64(reservation.Blocks))
	return &inMemoryTransaction{
		driver:      d,
		reservation: reservation,
		joined:      map[*inode.Inode]inode.Snapshot{},
	}, nil
}

type inMemoryTransaction struct {
	driver      *InMemoryDriver
	reservation Reservation
	extraBlocks uint64
	joined      map[*inode.Inode]inode.Snapshot
	pending     []Intent
	synchronous bool
	done        bool
}

func (t *inMemoryTransaction) checkRunning() {
	if t.done {
		panic("Transaction has already completed")
	}
}

func (t *inMemoryTransaction) Join(ip *inode.Inode) {
	t.checkRunning()
	if _, ok := t.joined[ip]; !ok {
		t.joined[ip] = ip.Snapshot()
	}
}

func (t *inMemoryTransaction) Log(ip *inode.Inode) {
	t.checkRunning()
	if _, ok := t.joined[ip]; !ok {
		panic("Inode has not been joined to this transaction")
	}
}

func (t *inMemoryTransaction) Defer(intent Intent) {
	t.checkRunning()
	t.pending = append(t.pending, intent)
}

func (t *inMemoryTransaction) applyPending() error {
	for len(t.pending) > 0 {
		intent := t.pending[0]
		t.pending = t.pending[1:]
		if err := intent.apply(t); err != nil {
			return err
		}
	}
	return nil
}

func (t *inMemoryTransaction) FinishDeferred() error {
	t.checkRunning()
	if err := t.applyPending(); err != nil {
		return err
	}
	return t.Roll()
}

func (t *inMemoryTransaction) Roll() error {
	t.checkRunning()
	if err := t.driver.currentShutdownError(); err != nil {
		return util.StatusWrap(err, "Volume has shut down")
	}
	// The changes so far are now durable. Refresh the snapshots, so
	// that cancellation only undoes what follows.
	for ip := range t.joined {
		t.joined[ip] = ip.Snapshot()
	}
	return nil
}

func (t *inMemoryTransaction) release() {
	t.driver.adjustReservedBlocks(-int64(uint64(t.reservation.Blocks) + t.extraBlocks))
	t.done = true
}

func (t *inMemoryTransaction) Commit() error {
	t.checkRunning()
	if err := t.applyPending(); err != nil {
		t.Cancel()
		return err
	}
	if err := t.driver.currentShutdownError(); err != nil {
		t.Cancel()
		return util.StatusWrap(err, "Volume has shut down")
	}
	if t.synchronous {
		t.driver.lock.Lock()
		t.driver.synchronousCommits++
		t.driver.lock.Unlock()
	}
	t.release()
	return nil
}

func (t *inMemoryTransaction) Cancel() {
	t.checkRunning()
	for ip, s := range t.joined {
		ip.Restore(s)
	}
	t.release()
}

func (t *inMemoryTransaction) SetSynchronous() {
	t.checkRunning()
	t.synchronous = true
}
