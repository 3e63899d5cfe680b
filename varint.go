package shcc

import "fmt"

// DecodeDynU32 decodes the dynamic-width unsigned integer encoding used to
// prefix dictionary-compressed label payloads: little-endian 7-bit groups
// with a 0x80 continuation bit, at most 4 regular groups followed by one
// terminal byte carrying the top 4 bits. It returns the value and the offset
// of the first byte after the encoding.
func DecodeDynU32(bin []byte, off int) (uint32, int, error) {
	var value uint32
	i := off
	for shift := uint(0); shift < 28; shift += 7 {
		if i >= len(bin) {
			return 0, 0, fmt.Errorf("dynamic u32 at %d: %w", off, ErrTruncated)
		}
		b := bin[i]
		i++
		value |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return value, i, nil
		}
	}
	if i >= len(bin) {
		return 0, 0, fmt.Errorf("dynamic u32 terminal at %d: %w", off, ErrTruncated)
	}
	b := bin[i]
	i++
	if b > 0x0F {
		return 0, 0, fmt.Errorf("dynamic u32 terminal byte 0x%02X: %w", b, ErrVarintTerm)
	}
	value |= uint32(b) << 28
	return value, i, nil
}

// AppendDynU32 appends the dynamic-width encoding of v to dst and returns
// the extended slice. It is the inverse of [DecodeDynU32].
func AppendDynU32(dst []byte, v uint32) []byte {
	for range 4 {
		if v < 0x80 {
			return append(dst, byte(v))
		}
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	// Remaining top nibble goes into the terminal byte.
	return append(dst, byte(v))
}
