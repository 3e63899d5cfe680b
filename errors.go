package shcc

import "errors"

// Sentinel errors returned by the decoders. All are terminal to the decode
// call that produced them; callers never see partial results alongside one
// of these.
var (
	// ErrTruncated is returned when the input buffer is shorter than a
	// structure requires.
	ErrTruncated = errors.New("shcc: truncated input")

	// ErrBadMagic is returned when a container or string-table constant,
	// or a block header, footer, or marker byte, has an unexpected value.
	ErrBadMagic = errors.New("shcc: bad magic")

	// ErrSizeMismatch is returned when decompression output length differs
	// from the declared expectation, or a stored chunk's sizes disagree.
	ErrSizeMismatch = errors.New("shcc: size mismatch")

	// ErrChunkType is returned when a chunk header declares an unknown type.
	ErrChunkType = errors.New("shcc: unknown chunk type")

	// ErrLabelBounds is returned when a label's offset+size exceeds its
	// chunk's length.
	ErrLabelBounds = errors.New("shcc: label out of bounds")

	// ErrVarintTerm is returned when the terminal byte of a dynamic-width
	// integer exceeds its 4-bit capacity.
	ErrVarintTerm = errors.New("shcc: invalid varint terminal byte")

	// ErrHashMismatch is returned when a container's content checksum does
	// not match the manifest-declared hash. It is a distinct condition from
	// parse errors so callers can choose to retry or overwrite.
	ErrHashMismatch = errors.New("shcc: hash mismatch")
)
