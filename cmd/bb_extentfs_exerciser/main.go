package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/buildbarn/bb-extentfs/pkg/allocation"
	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"
	"github.com/buildbarn/bb-extentfs/pkg/space"
	"github.com/buildbarn/bb-extentfs/pkg/transaction"
	"github.com/buildbarn/bb-storage/pkg/clock"
	"github.com/buildbarn/bb-storage/pkg/random"
	"github.com/buildbarn/bb-storage/pkg/util"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// This tool hammers an in-memory volume with a randomized space
// management workload. Every operation is followed by consistency
// checks on the file it touched, and at the end of the run all files
// are released, after which the allocator, the quota tracker and the
// transaction driver must be back in their pristine state. It exists
// to catch accounting leaks and invariant violations that unit tests
// with hand-picked operands would miss.

func main() {
	var (
		workers              = pflag.Int("workers", 4, "Number of concurrent workers, each operating on its own set of files")
		filesPerWorker       = pflag.Int("files-per-worker", 8, "Number of files owned by each worker")
		operations           = pflag.Int("operations", 10000, "Number of operations performed by each worker")
		maxFileBlocks        = pflag.Uint64("max-file-blocks", 512, "Bound on the file offsets the workload touches, in blocks")
		dataZoneBlocks       = pflag.Uint64("data-zone-blocks", 1<<16, "Size of the data zone, in blocks")
		realtimeZoneBlocks   = pflag.Uint64("realtime-zone-blocks", 1<<14, "Size of the realtime zone, in blocks")
		blockSizeBytes       = pflag.Uint32("block-size-bytes", 4096, "Size of a volume block")
		pageSizeBytes        = pflag.Uint32("page-size-bytes", 4096, "Size of a page cache page")
		realtimeExtentBlocks = pflag.Uint64("realtime-extent-blocks", 4, "Allocation granularity of the realtime zone, in blocks")
		quotaBlockLimit      = pflag.Uint64("quota-block-limit", 0, "Enforced per-zone block quota for the files' owner, zero to disable enforcement")
		reverseMapping       = pflag.Bool("reverse-mapping", false, "Exchange extents through the reverse mapping algorithm")
		ownedTreeNodes       = pflag.Bool("owned-tree-nodes", false, "Stamp tree nodes with their owning inode")
		syncDurability       = pflag.Bool("sync-durability", false, "Commit every transaction synchronously")
		metricsListenAddress = pflag.String("metrics-listen-address", "", "Address to serve Prometheus metrics on while the workload runs, empty to disable")
	)
	pflag.Parse()
	if *workers < 1 || *filesPerWorker < 1 || *operations < 1 || *maxFileBlocks < 1 {
		log.Fatal("Workers, files, operations and file size must all be positive")
	}

	geometry := extent.Geometry{
		BlockSizeBytes:       *blockSizeBytes,
		PageSizeBytes:        *pageSizeBytes,
		RealtimeExtentBlocks: extent.BlockCount(*realtimeExtentBlocks),
		MaxFileSizeBytes:     1 << 40,
	}
	bitmapAllocator := allocation.NewBitmapAllocator(
		extent.BlockCount(*dataZoneBlocks),
		extent.BlockCount(*realtimeZoneBlocks))
	var allocator allocation.Allocator = allocation.NewMetricsAllocator(bitmapAllocator)
	allocator = allocation.NewRealtimeAllocationPolicy(allocator, geometry)

	quotaTracker := space.NewInMemoryQuotaTracker(*quotaBlockLimit > 0)
	if *quotaBlockLimit > 0 {
		quotaTracker.SetBlockLimit(0, allocation.ZoneData, extent.BlockCount(*quotaBlockLimit))
		quotaTracker.SetBlockLimit(0, allocation.ZoneRealtime, extent.BlockCount(*quotaBlockLimit))
	}
	driver := transaction.NewInMemoryDriver(allocator, util.DefaultErrorLogger)
	pageCache := space.NewInMemoryPageCache(geometry)
	volume := &space.Volume{
		UUID:     uuid.New(),
		Geometry: geometry,
		Features: space.Features{
			ReverseMapping: *reverseMapping,
			OwnedTreeNodes: *ownedTreeNodes,
			SyncDurability: *syncDurability,
		},
	}
	spaceManager := space.NewMetricsSpaceManager(
		space.NewTransactionalSpaceManager(
			driver,
			allocator,
			pageCache,
			quotaTracker,
			space.NewInMemorySharedBlockIndex(),
			volume,
			clock.SystemClock),
		clock.SystemClock)

	if *metricsListenAddress != "" {
		router := http.NewServeMux()
		router.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Fatal("Failed to serve metrics: ", http.ListenAndServe(*metricsListenAddress, router))
		}()
	}

	group, ctx := errgroup.WithContext(context.Background())
	exerciserWorkers := make([]*exerciserWorker, 0, *workers)
	for i := 0; i < *workers; i++ {
		w := &exerciserWorker{
			generator:     random.NewFastSingleThreadedGenerator(),
			manager:       spaceManager,
			geometry:      geometry,
			pageCache:     pageCache,
			maxFileBlocks: *maxFileBlocks,
		}
		for f := 0; f < *filesPerWorker; f++ {
			ip := inode.New(inode.Number(i*(*filesPerWorker)+f+1), true)
			switch f % 4 {
			case 1:
				ip.ExtentSizeHintBlocks = 8
			case 2:
				if *realtimeZoneBlocks > 0 {
					ip.Flags.Realtime = true
				}
			}
			w.files = append(w.files, ip)
		}
		exerciserWorkers = append(exerciserWorkers, w)
		operationCount := *operations
		group.Go(func() error {
			return w.run(ctx, operationCount)
		})
	}
	if err := group.Wait(); err != nil {
		log.Fatal("Workload failed: ", err)
	}

	// With every file released, nothing may linger anywhere.
	if blocks := bitmapAllocator.FreeBlocks(allocation.ZoneData); blocks != extent.BlockCount(*dataZoneBlocks) {
		log.Fatalf("Data zone leaked blocks: %d of %d free after release", blocks, *dataZoneBlocks)
	}
	if blocks := bitmapAllocator.FreeBlocks(allocation.ZoneRealtime); blocks != extent.BlockCount(*realtimeZoneBlocks) {
		log.Fatalf("Realtime zone leaked blocks: %d of %d free after release", blocks, *realtimeZoneBlocks)
	}
	if blocks := driver.ReservedBlocks(); blocks != 0 {
		log.Fatalf("Transaction driver still holds a reservation of %d blocks", blocks)
	}
	for _, zone := range []allocation.Zone{allocation.ZoneData, allocation.ZoneRealtime} {
		if blocks := quotaTracker.UsedBlocks(0, zone); blocks != 0 {
			log.Fatalf("Quota tracker still charges %d blocks in the %s zone", blocks, zone)
		}
	}
	if blocks := quotaTracker.ReservedBlocks(0); blocks != 0 {
		log.Fatalf("Quota tracker still reserves %d blocks", blocks)
	}

	var performed, rejected uint64
	for _, w := range exerciserWorkers {
		performed += w.operationsPerformed
		rejected += w.operationsRejected
	}
	fmt.Printf("Performed %d operations, %d rejected with an expected error\n", performed, rejected)
	fmt.Printf("Synchronous commits: %d\n", driver.SynchronousCommits())
}

type exerciserWorker struct {
	generator     random.SingleThreadedGenerator
	manager       space.SpaceManager
	geometry      extent.Geometry
	pageCache     *space.InMemoryPageCache
	maxFileBlocks uint64
	files         []*inode.Inode

	operationsPerformed uint64
	operationsRejected  uint64
}

// tolerate absorbs the errors a randomized workload is expected to
// run into, so that only genuine engine failures abort the run.
func (w *exerciserWorker) tolerate(err error) error {
	switch status.Code(err) {
	case codes.OK:
		w.operationsPerformed++
		return nil
	case codes.InvalidArgument, codes.ResourceExhausted, codes.Aborted:
		w.operationsRejected++
		return nil
	default:
		return err
	}
}

func (w *exerciserWorker) pick(n uint64) uint64 {
	return w.generator.Uint64() % n
}

// randomRange draws a byte range within the workload's file size
// bound. Offsets and lengths are usually block aligned, with
// occasional sub-block jitter to reach the partial block paths.
func (w *exerciserWorker) randomRange() (int64, int64) {
	blockSize := uint64(w.geometry.BlockSizeBytes)
	offset := w.pick(w.maxFileBlocks) * blockSize
	length := (1 + w.pick(64)) * blockSize
	if w.pick(4) == 0 {
		offset += w.pick(blockSize)
		length += w.pick(blockSize)
	}
	return int64(offset), int64(length)
}

// alignedRange draws a byte range that is a multiple of the file's
// allocation unit, as the range shifting operations demand.
func (w *exerciserWorker) alignedRange(ip *inode.Inode) (int64, int64) {
	unit := uint64(w.geometry.AllocationUnitBytes(ip.Flags.Realtime))
	return int64(w.pick(w.maxFileBlocks/8+1) * unit), int64((1 + w.pick(4)) * unit)
}

func (w *exerciserWorker) run(ctx context.Context, operations int) error {
	for i := 0; i < operations; i++ {
		ip := w.files[w.pick(uint64(len(w.files)))]
		var err error
		switch op := w.pick(100); {
		case op < 30:
			err = w.write(ip)
		case op < 45:
			offset, length := w.randomRange()
			err = w.tolerate(w.manager.AllocateFileSpace(ctx, ip, offset, length))
		case op < 60:
			offset, length := w.randomRange()
			err = w.tolerate(w.manager.FreeFileSpace(ctx, ip, offset, length))
		case op < 67:
			offset, length := w.alignedRange(ip)
			err = w.tolerate(w.manager.CollapseFileSpace(ctx, ip, offset, length))
		case op < 74:
			offset, length := w.alignedRange(ip)
			err = w.tolerate(w.manager.InsertFileSpace(ctx, ip, offset, length))
		case op < 80:
			if w.manager.CanReclaimEOFBlocks(ip) {
				err = w.tolerate(w.manager.ReclaimEOFBlocks(ctx, ip))
			}
		case op < 87:
			err = w.swapFiles(ctx, ip, w.files[w.pick(uint64(len(w.files)))])
		case op < 94:
			err = w.report(ctx, ip)
		case op < 97:
			offset, length := w.randomRange()
			err = w.tolerate(w.manager.PunchDelayedRange(ip, offset, offset+length))
		default:
			_, _, countErr := w.manager.CountForkBlocks(ip, inode.ForkData)
			err = w.tolerate(countErr)
		}
		if err != nil {
			return err
		}
		if err := w.checkFile(ip); err != nil {
			return err
		}
	}
	return w.releaseAllFiles(ctx)
}

// write emulates a buffered write: space is reserved with a delayed
// placement, the file grows and the written pages become resident.
func (w *exerciserWorker) write(ip *inode.Inode) error {
	offset, length := w.randomRange()
	if err := w.tolerate(w.manager.ReserveDelayedSpace(ip, offset, length)); err != nil {
		return err
	}
	if end := offset + length; end > ip.SizeBytes {
		ip.SizeBytes = end
	}
	w.pageCache.MakeResident(ip, offset, offset+length)
	return nil
}

// swapFiles grows both files to a common size, settles delayed
// allocations so that the on-disk sizes match, and exchanges their
// extents. Delayed blocks past the end of the donor are punched out,
// matching what a defragmenter does before handing over a file.
func (w *exerciserWorker) swapFiles(ctx context.Context, ip, tmp *inode.Inode) error {
	if ip == tmp || ip.Flags.Realtime != tmp.Flags.Realtime {
		return nil
	}
	target := ip.SizeBytes
	if tmp.SizeBytes > target {
		target = tmp.SizeBytes
	}
	if target == 0 {
		return nil
	}
	target = w.geometry.BlocksToBytes(w.geometry.BytesToBlocks(target))
	for _, f := range []*inode.Inode{ip, tmp} {
		f.SizeBytes = target
		if _, err := w.manager.ReportMappings(ctx, f, space.MappingQuery{
			Fork:        inode.ForkData,
			LengthBytes: -1,
			MaxRecords:  1 << 30,
		}); err != nil {
			return w.tolerate(err)
		}
	}
	if err := w.manager.PunchDelayedRange(tmp, target, w.geometry.MaxFileSizeBytes); err != nil {
		return w.tolerate(err)
	}
	return w.tolerate(w.manager.SwapExtents(ctx, ip, tmp, space.SwapRequest{
		LengthBytes:        target,
		ExpectedChangeTime: ip.ChangeTime,
		ExpectedModifyTime: ip.ModifyTime,
	}))
}

func (w *exerciserWorker) report(ctx context.Context, ip *inode.Inode) error {
	offset, _ := w.randomRange()
	query := space.MappingQuery{
		Fork:                inode.ForkData,
		OffsetBytes:         offset,
		LengthBytes:         -1,
		MaxRecords:          1 + int(w.pick(32)),
		IncludeDelayed:      w.pick(2) == 0,
		IncludePreallocated: w.pick(2) == 0,
		OmitHoles:           w.pick(2) == 0,
	}
	records, err := w.manager.ReportMappings(ctx, ip, query)
	if err != nil {
		return w.tolerate(err)
	}
	w.operationsPerformed++
	return verifyMappingRecords(ip, query, records)
}

// verifyMappingRecords checks the structural guarantees of a mapping
// report: no empty records, ascending disjoint ranges, and no gaps
// when the query asked for a complete picture.
func verifyMappingRecords(ip *inode.Inode, query space.MappingQuery, records []space.MappingRecord) error {
	for i, r := range records {
		if r.LengthBlocks < 1 {
			return status.Errorf(codes.Internal, "Mapping report of inode %d contains an empty record at index %d", ip.Number, i)
		}
		if i > 0 {
			prevEnd := records[i-1].OffsetBlocks + extent.FileOffset(records[i-1].LengthBlocks)
			if r.OffsetBlocks < prevEnd {
				return status.Errorf(codes.Internal, "Mapping report of inode %d has overlapping records at index %d", ip.Number, i)
			}
			if query.IncludeDelayed && !query.OmitHoles && r.OffsetBlocks != prevEnd {
				return status.Errorf(codes.Internal, "Mapping report of inode %d has a gap before index %d", ip.Number, i)
			}
		}
	}
	return nil
}

func (w *exerciserWorker) checkFile(ip *inode.Inode) error {
	if ip.DiskSizeBytes > ip.SizeBytes {
		return status.Errorf(codes.Internal, "Inode %d has an on-disk size of %d bytes beyond its size of %d bytes", ip.Number, ip.DiskSizeBytes, ip.SizeBytes)
	}
	return ip.CheckBlockAccounting()
}

// releaseAllFiles returns every block and reservation held by the
// worker's files and checks that the files end up empty. Delayed
// allocations are punched first: settling them instead could require
// placement in a zone the workload has filled up.
func (w *exerciserWorker) releaseAllFiles(ctx context.Context) error {
	for _, ip := range w.files {
		if err := w.manager.PunchDelayedRange(ip, 0, w.geometry.MaxFileSizeBytes); err != nil {
			return util.StatusWrapf(err, "Failed to punch delayed allocations of inode %d", ip.Number)
		}
		if err := w.manager.FreeFileSpace(ctx, ip, 0, w.geometry.MaxFileSizeBytes); err != nil {
			return util.StatusWrapf(err, "Failed to release inode %d", ip.Number)
		}
		if ip.BlockCount != 0 || ip.DelayedBlockCount != 0 || ip.ReservedBlockCount != 0 {
			return status.Errorf(codes.Internal, "Inode %d still holds blocks after release: %d allocated, %d delayed, %d reserved", ip.Number, ip.BlockCount, ip.DelayedBlockCount, ip.ReservedBlockCount)
		}
		if err := w.checkFile(ip); err != nil {
			return err
		}
	}
	return nil
}
