package shcc

import (
	"encoding/binary"
	"fmt"
)

// Chunk type values. Stored chunks carry their payload verbatim; compressed
// chunks carry a sequence of backend-compressed blocks.
const (
	chunkStored     = 0
	chunkCompressed = 2
)

const chunkHeaderLen = 9

// decodeChunk decodes one typed, length-prefixed chunk starting at off and
// returns the decompressed payload together with the offset of the first
// byte after the chunk.
func decodeChunk(bin []byte, off int, d Decompressor) ([]byte, int, error) {
	if off+chunkHeaderLen > len(bin) {
		return nil, 0, fmt.Errorf("chunk header at %d: %w", off, ErrTruncated)
	}

	chunkType := bin[off]
	decompressedSize := int(binary.LittleEndian.Uint32(bin[off+1:]))
	compressedSize := int(binary.LittleEndian.Uint32(bin[off+5:]))
	i := off + chunkHeaderLen

	switch chunkType {
	case chunkStored:
		if compressedSize != decompressedSize {
			return nil, 0, fmt.Errorf("stored chunk sizes %d != %d: %w", compressedSize, decompressedSize, ErrSizeMismatch)
		}
		if i+compressedSize > len(bin) {
			return nil, 0, fmt.Errorf("stored chunk payload: %w", ErrTruncated)
		}
		payload := make([]byte, decompressedSize)
		copy(payload, bin[i:i+decompressedSize])
		return payload, i + decompressedSize, nil
	case chunkCompressed:
		return decodeBlocks(bin, i, decompressedSize, d)
	default:
		return nil, 0, fmt.Errorf("chunk type %d: %w", chunkType, ErrChunkType)
	}
}

// decodeBlocks decodes the block sequence of a compressed chunk until
// decompressedSize bytes have been produced. Each block is an 8-byte
// bit-packed size header, a fixed marker byte, and the compressed bytes.
func decodeBlocks(bin []byte, off, decompressedSize int, d Decompressor) ([]byte, int, error) {
	decompressed := make([]byte, 0, decompressedSize)
	i := off

	for len(decompressed) < decompressedSize {
		if i+8 > len(bin) {
			return nil, 0, fmt.Errorf("block header at %d: %w", i, ErrTruncated)
		}
		header := bin[i : i+8]
		i += 8

		if header[0] != 0x80 {
			return nil, 0, fmt.Errorf("block header byte 0x%02X: %w", header[0], ErrBadMagic)
		}
		if header[7]&0x0F != 0x01 {
			return nil, 0, fmt.Errorf("block footer nibble 0x%02X: %w", header[7]&0x0F, ErrBadMagic)
		}

		// Sizes are 24-bit fields packed into two big-endian words.
		hi := binary.BigEndian.Uint32(header[0:4])
		lo := binary.BigEndian.Uint32(header[4:8])
		blockCompressed := int(hi >> 2 & 0xFFFFFF)
		blockDecompressed := int(lo >> 5 & 0xFFFFFF)

		if i >= len(bin) || bin[i] != 0x8C {
			return nil, 0, fmt.Errorf("block marker at %d: %w", i, ErrBadMagic)
		}
		if i+blockCompressed > len(bin) {
			return nil, 0, fmt.Errorf("block payload at %d: %w", i, ErrTruncated)
		}

		block, err := d.Decompress(bin[i:i+blockCompressed], blockDecompressed)
		if err != nil {
			return nil, 0, fmt.Errorf("block at %d: %w", i, err)
		}
		decompressed = append(decompressed, block...)
		i += blockCompressed
	}

	return decompressed, i, nil
}
