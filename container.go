package shcc

import "fmt"

// Magic is the leading byte sequence of an uncompressed container. Payloads
// that do not start with it required an outer decompression pass before
// container decoding.
var Magic = []byte("SHCC")

const (
	containerPrefixLen  = 8
	containerTrailerLen = 15
)

// Container is the decoded two-part wrapper format. H is the mandatory
// primary region. B is the optional secondary region; it is nil when the
// container carries none or when its decode failed (absence is by design in
// some containers). BRaw is the still-compressed payload of the B chunk with
// the chunk header stripped and the fixed trailing region excluded; it
// exists only to feed [Checksum] and is never decompressed.
type Container struct {
	H    []byte
	B    []byte
	BRaw []byte
}

// Decode decodes a full container buffer. The first 8 bytes are an
// unstructured prefix; the mandatory H chunk follows, then at most one
// optional B chunk.
func Decode(bin []byte, d Decompressor) (*Container, error) {
	if len(bin) < containerPrefixLen {
		return nil, fmt.Errorf("container: %w", ErrTruncated)
	}

	h, i, err := decodeChunk(bin, containerPrefixLen, d)
	if err != nil {
		return nil, fmt.Errorf("container H chunk: %w", err)
	}

	c := &Container{H: h}

	if i < len(bin) {
		bStart := i
		if b, _, err := decodeChunk(bin, i, d); err == nil {
			c.B = b
			lo, hi := bStart+chunkHeaderLen, len(bin)-containerTrailerLen
			if lo < len(bin) && lo <= hi {
				c.BRaw = bin[lo:hi]
			}
		}
	}

	return c, nil
}
