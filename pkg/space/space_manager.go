package space

import (
	"context"
	"time"

	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"

	"github.com/google/uuid"
)

// Features describes the optional on-disk capabilities of a volume.
type Features struct {
	// ReverseMapping indicates that the volume maintains an index
	// from physical blocks back to their owners. Extent exchanges
	// must then move mappings one by one, so that the index can be
	// updated alongside.
	ReverseMapping bool
	// Reflink indicates that files may share physical blocks.
	Reflink bool
	// OwnedTreeNodes indicates that tree backed extent lists stamp
	// each node with the owning inode, requiring a rewrite pass
	// when a tree changes hands.
	OwnedTreeNodes bool
	// SyncDurability requests that modifying operations only return
	// once their changes have been flushed to stable storage.
	SyncDurability bool
}

// Volume bundles the identity and layout of a single volume.
type Volume struct {
	UUID     uuid.UUID
	Geometry extent.Geometry
	Features Features
}

// SwapRequest describes an extent exchange between a file and a
// donor file. Only whole file exchanges are supported, and the caller
// must prove freshness of its knowledge of the target file by
// providing the timestamps it observed.
type SwapRequest struct {
	OffsetBytes int64
	LengthBytes int64

	ExpectedChangeTime time.Time
	ExpectedModifyTime time.Time
}

// MappingQuery selects which part of a file's mappings to report.
type MappingQuery struct {
	// Fork to report mappings of.
	Fork inode.ForkRole
	// OffsetBytes is the position at which reporting starts.
	OffsetBytes int64
	// LengthBytes bounds the range to report. A value of -1 selects
	// everything up to the applicable maximum for the fork.
	LengthBytes int64
	// MaxRecords bounds the number of records returned.
	MaxRecords int

	// IncludeDelayed reports ranges with a delayed placement
	// instead of skipping them. It also suppresses the writeback
	// pass that otherwise precedes reporting.
	IncludeDelayed bool
	// IncludePreallocated marks unwritten ranges in the output.
	IncludePreallocated bool
	// OmitHoles drops ranges without backing store from the output.
	OmitHoles bool
}

// MappingRecord is one reported range of a file.
type MappingRecord struct {
	OffsetBlocks extent.FileOffset
	LengthBlocks extent.BlockCount
	// Physical is the first backing block of the range, or one of
	// the sentinel addresses for holes and delayed allocations.
	Physical extent.PhysicalBlock

	// Shared marks ranges whose blocks are also mapped by other
	// files.
	Shared bool
	// Preallocated marks unwritten ranges. Only set when the query
	// asks for it.
	Preallocated bool
	// Delayed marks ranges with a delayed placement.
	Delayed bool
	// Last marks the final record of the fork.
	Last bool
}

// SpaceManager implements the space management operations of a
// volume: explicit preallocation, deallocation, range shifting,
// extent exchange, and mapping reports.
//
// Byte ranges are converted to block ranges internally. Operations
// acquire the necessary inode locks themselves; callers must not hold
// any.
type SpaceManager interface {
	// AllocateFileSpace preallocates blocks backing the given byte
	// range, without changing the file size. Already mapped parts
	// are left alone.
	AllocateFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error
	// FreeFileSpace removes the blocks fully covered by the given
	// byte range and zeroes any partial blocks at its edges. The
	// file size does not change.
	FreeFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error
	// CollapseFileSpace removes the given byte range and moves all
	// data after it forward, shrinking the file. Offset and length
	// must be multiples of the file's allocation unit.
	CollapseFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error
	// InsertFileSpace creates a hole of the given size at the given
	// position by moving all data at and after it outward, growing
	// the file. Offset and length must be multiples of the file's
	// allocation unit.
	InsertFileSpace(ctx context.Context, ip *inode.Inode, offsetBytes, lengthBytes int64) error

	// CanReclaimEOFBlocks returns true if the file may have
	// reclaimable speculative preallocations past its end. It may
	// be called without holding any locks, so the answer is only a
	// hint.
	CanReclaimEOFBlocks(ip *inode.Inode) bool
	// ReclaimEOFBlocks removes blocks speculatively preallocated
	// past the end of the file.
	ReclaimEOFBlocks(ctx context.Context, ip *inode.Inode) error

	// ReserveDelayedSpace reserves space for a buffered write to
	// the given byte range, without deciding placement. Already
	// mapped parts are left alone.
	ReserveDelayedSpace(ip *inode.Inode, offsetBytes, lengthBytes int64) error
	// PunchDelayedRange removes reservations with a delayed
	// placement in the given byte range. Partially covered blocks
	// at the edges are punched in their entirety.
	PunchDelayedRange(ip *inode.Inode, startBytes, endBytes int64) error

	// SwapExtents exchanges the extents of two files, for use by
	// online defragmentation.
	SwapExtents(ctx context.Context, ip, tmp *inode.Inode, request SwapRequest) error

	// ReportMappings returns the mappings of a fork.
	ReportMappings(ctx context.Context, ip *inode.Inode, query MappingQuery) ([]MappingRecord, error)
	// CountForkBlocks returns the number of extents with decided
	// placement in a fork and the number of blocks they and the
	// fork's tree nodes occupy.
	CountForkBlocks(ip *inode.Inode, role inode.ForkRole) (int, extent.BlockCount, error)
}
