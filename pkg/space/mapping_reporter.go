package space

import (
	"context"

	"github.com/buildbarn/bb-extentfs/pkg/extent"
	"github.com/buildbarn/bb-extentfs/pkg/inode"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (sm *transactionalSpaceManager) ReportMappings(ctx context.Context, ip *inode.Inode, q MappingQuery) ([]MappingRecord, error) {
	if q.MaxRecords < 1 {
		return nil, status.Error(codes.InvalidArgument, "At least one record must be requested")
	}
	if q.OffsetBytes < 0 {
		return nil, status.Error(codes.InvalidArgument, "Offset must be non-negative")
	}

	var ls inode.LockSet
	ls.Lock(inode.LockIO, ip)
	ls.Lock(inode.LockIndex, ip)
	defer ls.UnlockAll()

	geo := sm.volume.Geometry
	var maxLenBytes int64
	switch q.Fork {
	case inode.ForkAttr:
		if ip.Fork(inode.ForkAttr) == nil {
			return nil, nil
		}
		maxLenBytes = 1 << 32
	case inode.ForkCOW:
		if ip.Fork(inode.ForkCOW) == nil {
			return nil, nil
		}
		if sm.extentSizeHint(ip) > 0 {
			maxLenBytes = geo.MaxFileSizeBytes
		} else {
			maxLenBytes = ip.SizeBytes
		}
	case inode.ForkData:
		// Unless delayed allocations were asked for, settle them
		// first, so that the report is a point in time snapshot.
		// Speculative preallocation past the end of the file may
		// remain delayed even then.
		if !q.IncludeDelayed && (ip.DelayedBlockCount > 0 || ip.SizeBytes > ip.DiskSizeBytes) {
			if err := sm.writeBack(ctx, ip); err != nil {
				return nil, err
			}
		}
		if sm.extentSizeHint(ip) > 0 || ip.Flags.Prealloc || ip.Flags.Append {
			maxLenBytes = geo.MaxFileSizeBytes
		} else {
			maxLenBytes = ip.SizeBytes
		}
	default:
		return nil, status.Error(codes.InvalidArgument, "Unknown fork")
	}

	l := ip.Fork(q.Fork)
	if l.NeedsLoad() {
		return nil, status.Errorf(codes.FailedPrecondition, "Extent records of inode %d have not been loaded", ip.Number)
	}
	if l.Format() == extent.FormatInline {
		return nil, nil
	}

	lengthBytes := q.LengthBytes
	switch {
	case lengthBytes == -1:
		lengthBytes = geo.BlocksToBytes(geo.BytesToBlocks(maxLenBytes)) - q.OffsetBytes
		if lengthBytes <= 0 {
			return nil, nil
		}
	case lengthBytes == 0:
		return nil, nil
	case lengthBytes < 0:
		return nil, status.Error(codes.InvalidArgument, "Length must be -1, zero or positive")
	}

	first := geo.BytesToBlocksTruncated(q.OffsetBytes)
	end := geo.BytesToBlocks(q.OffsetBytes + lengthBytes)
	length := extent.BlockCount(end - first)

	var records []MappingRecord
	reportedEnd := first
	full := func() bool {
		return len(records) >= q.MaxRecords || reportedEnd >= end
	}
	reportHole := func(from, to extent.FileOffset) {
		if q.OmitHoles || to <= from {
			return
		}
		records = append(records, MappingRecord{
			OffsetBlocks: from,
			LengthBlocks: extent.BlockCount(to - from),
			Physical:     extent.HoleStartBlock,
		})
	}

	bno := first
	c, got, ok := l.Lookup(first)
	if !ok {
		// No records at or after the offset. For compatibility,
		// delayed allocation queries still see the file as one
		// hole.
		if q.IncludeDelayed {
			reportHole(bno, geo.BytesToBlocks(ip.SizeBytes))
		}
		return records, nil
	}

	for !full() {
		got.Trim(first, length)

		if got.Offset > bno {
			reportHole(bno, got.Offset)
			if full() {
				break
			}
		}
		bno = got.End()

		// Report each shared and unshared part of the record
		// separately.
		for rec := got; rec.Length > 0 && !full(); {
			piece := rec
			shared := false
			if ip.Flags.Reflink && piece.IsWritten() {
				run, isShared := sm.shared.TrimAroundShared(piece.StartBlock, piece.Length)
				if run < piece.Length {
					piece.Length = run
				}
				shared = isShared
			}

			if piece.IsDelayed() {
				if q.IncludeDelayed {
					records = append(records, MappingRecord{
						OffsetBlocks: piece.Offset,
						LengthBlocks: piece.Length,
						Physical:     extent.DelayedStartBlock,
						Delayed:      true,
					})
					reportedEnd = piece.End()
				}
			} else {
				records = append(records, MappingRecord{
					OffsetBlocks: piece.Offset,
					LengthBlocks: piece.Length,
					Physical:     piece.StartBlock,
					Shared:       shared,
					Preallocated: piece.State == extent.StateUnwritten && q.IncludePreallocated,
				})
				reportedEnd = piece.End()
			}

			rec.Offset += extent.FileOffset(piece.Length)
			if rec.IsReal() {
				rec.StartBlock += extent.PhysicalBlock(piece.Length)
			}
			rec.Length -= piece.Length
		}
		if full() {
			break
		}

		got, ok = l.Next(&c)
		if !ok {
			if len(records) > 0 {
				records[len(records)-1].Last = true
			}
			if q.Fork != inode.ForkAttr {
				reportHole(bno, geo.BytesToBlocks(ip.SizeBytes))
			}
			break
		}
		if got.Offset >= end {
			break
		}
	}
	return records, nil
}
