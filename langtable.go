package shcc

import (
	"encoding/binary"
	"fmt"
)

// String-table layout constants. The three magic words follow the leading
// 16-byte hash field.
const (
	tableMagic1 = 0x14
	tableMagic2 = 0x2B
	tableMagic3 = 0x01
)

// labelCompressed marks a label whose raw bytes are a varint-prefixed,
// dictionary-compressed payload.
const labelCompressed = 0x200

// DecodeStringTable decodes the localized-string container into a flat
// mapping from path+name to text.
//
// bin is the H region of a string-table container. Labels with the
// compressed flag are decompressed with a context seeded by the table's
// shared dictionary; the context is acquired once, used for every such
// label, and released before returning on every path. Any per-label failure
// is fatal to the whole decode.
func DecodeStringTable(bin []byte, d DictDecompressor) (map[string]string, error) {
	// Skip the leading hash field.
	i := 16
	if i > len(bin) {
		return nil, fmt.Errorf("string table: %w", ErrTruncated)
	}

	var magic [3]uint32
	for n := range magic {
		v, next, err := readU32(bin, i)
		if err != nil {
			return nil, err
		}
		magic[n], i = v, next
	}
	if magic[0] != tableMagic1 || magic[1] != tableMagic2 || magic[2] != tableMagic3 {
		return nil, fmt.Errorf("string table magic %#x/%#x/%#x: %w", magic[0], magic[1], magic[2], ErrBadMagic)
	}

	// Suffix strings are unused after parse; skip them.
	numSuffixes, i, err := readU32(bin, i)
	if err != nil {
		return nil, err
	}
	for range numSuffixes {
		if _, i, err = readBlob(bin, i); err != nil {
			return nil, err
		}
	}

	dict, i, err := readBlob(bin, i)
	if err != nil {
		return nil, err
	}

	numPaths, i, err := readU32(bin, i)
	if err != nil {
		return nil, err
	}

	dctx, err := d.OpenDict(dict)
	if err != nil {
		return nil, fmt.Errorf("string table dictionary: %w", err)
	}
	defer dctx.Close()

	entries := make(map[string]string)

	for range numPaths {
		var pathBytes, chunk []byte
		if pathBytes, i, err = readBlob(bin, i); err != nil {
			return nil, err
		}
		path := decodeText(pathBytes)

		if chunk, i, err = readBlob(bin, i); err != nil {
			return nil, err
		}

		var numLabels uint32
		if numLabels, i, err = readU32(bin, i); err != nil {
			return nil, err
		}

		for range numLabels {
			var nameBytes []byte
			if nameBytes, i, err = readBlob(bin, i); err != nil {
				return nil, err
			}
			name := decodeText(nameBytes)

			var offset uint32
			if offset, i, err = readU32(bin, i); err != nil {
				return nil, err
			}
			var size, flags uint16
			if size, i, err = readU16(bin, i); err != nil {
				return nil, err
			}
			if flags, i, err = readU16(bin, i); err != nil {
				return nil, err
			}

			end := int(offset) + int(size)
			if end > len(chunk) {
				return nil, fmt.Errorf("label %s%s [%d:%d] in %d-byte chunk: %w", path, name, offset, end, len(chunk), ErrLabelBounds)
			}
			raw := chunk[offset:end]

			if flags&labelCompressed != 0 {
				expectedLen, payloadOff, err := DecodeDynU32(raw, 0)
				if err != nil {
					return nil, fmt.Errorf("label %s%s length prefix: %w", path, name, err)
				}
				raw, err = dctx.Decompress(raw[payloadOff:], int(expectedLen))
				if err != nil {
					return nil, fmt.Errorf("label %s%s: %w", path, name, err)
				}
			}

			entries[path+name] = decodeText(raw)
		}
	}

	return entries, nil
}

// readU32 reads a little-endian u32 at off, returning the value and the
// offset after it.
func readU32(bin []byte, off int) (uint32, int, error) {
	if off+4 > len(bin) {
		return 0, 0, fmt.Errorf("u32 at %d: %w", off, ErrTruncated)
	}
	return binary.LittleEndian.Uint32(bin[off:]), off + 4, nil
}

// readU16 reads a little-endian u16 at off.
func readU16(bin []byte, off int) (uint16, int, error) {
	if off+2 > len(bin) {
		return 0, 0, fmt.Errorf("u16 at %d: %w", off, ErrTruncated)
	}
	return binary.LittleEndian.Uint16(bin[off:]), off + 2, nil
}

// readBlob reads a u32-length-prefixed byte string at off. The returned
// slice aliases bin.
func readBlob(bin []byte, off int) ([]byte, int, error) {
	n, i, err := readU32(bin, off)
	if err != nil {
		return nil, 0, err
	}
	if i+int(n) > len(bin) {
		return nil, 0, fmt.Errorf("blob at %d: %w", off, ErrTruncated)
	}
	return bin[i : i+int(n) : i+int(n)], i + int(n), nil
}
