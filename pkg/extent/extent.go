package extent

type (
	// FileOffset is a position within a file, measured in volume
	// blocks.
	FileOffset uint64
	// BlockCount is a number of volume blocks.
	BlockCount uint64
	// PhysicalBlock is an absolute block address within one of the
	// volume's allocation zones, or one of the sentinel values
	// below.
	PhysicalBlock uint64
)

const (
	// HoleStartBlock is the physical address sentinel of a range
	// that has no backing store.
	HoleStartBlock PhysicalBlock = ^PhysicalBlock(0)
	// DelayedStartBlock is the physical address sentinel of a range
	// for which space has been reserved, but whose placement is
	// deferred until writeback.
	DelayedStartBlock PhysicalBlock = ^PhysicalBlock(0) - 1

	// NullFileOffset indicates the absence of a file offset.
	NullFileOffset FileOffset = ^FileOffset(0)

	// MaxExtentLength is the largest number of blocks a single
	// extent record can describe.
	MaxExtentLength BlockCount = 1<<21 - 1
)

// State denotes whether the blocks backing an extent contain valid
// data. Unwritten extents have space assigned to them, but must be
// read back as zeroes until they are overwritten.
type State int

const (
	StateWritten State = iota
	StateUnwritten
)

// Extent describes a contiguous range of a file and where its data
// lives. Ranges without backing store use the sentinel physical
// addresses above.
type Extent struct {
	Offset     FileOffset
	StartBlock PhysicalBlock
	Length     BlockCount
	State      State
}

// End returns the first file offset past the extent.
func (e Extent) End() FileOffset {
	return e.Offset + FileOffset(e.Length)
}

// IsHole returns true if the extent has no backing store.
func (e Extent) IsHole() bool {
	return e.StartBlock == HoleStartBlock
}

// IsDelayed returns true if the extent has reserved space whose
// placement has not been decided yet.
func (e Extent) IsDelayed() bool {
	return e.StartBlock == DelayedStartBlock
}

// IsReal returns true if the extent is backed by allocated blocks.
func (e Extent) IsReal() bool {
	return !e.IsHole() && !e.IsDelayed()
}

// IsWritten returns true if the extent is backed by allocated blocks
// that contain valid data.
func (e Extent) IsWritten() bool {
	return e.IsReal() && e.State == StateWritten
}

// Trim clips the extent to the file range [offset, offset+length).
// If the extent lies entirely outside the range, its length becomes
// zero. Trimming the front of a real extent advances the physical
// address by the same distance, so that the mapping remains valid.
func (e *Extent) Trim(offset FileOffset, length BlockCount) {
	end := offset + FileOffset(length)
	if e.End() <= offset || e.Offset >= end {
		e.Length = 0
		return
	}

	if e.Offset < offset {
		distance := offset - e.Offset
		if e.IsReal() {
			e.StartBlock += PhysicalBlock(distance)
		}
		e.Offset += distance
		e.Length -= BlockCount(distance)
	}

	if end < e.End() {
		e.Length = BlockCount(end - e.Offset)
	}
}
