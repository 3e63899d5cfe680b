package shcc

import (
	"encoding/binary"
	"fmt"
)

// fakeFixed is a deterministic stand-in for the fixed-output decompression
// backend. It maps compressed payloads to fixed outputs and enforces the
// exact-length contract the way a real backend does.
type fakeFixed struct {
	outputs map[string][]byte
	calls   int
}

func newFakeFixed() *fakeFixed {
	return &fakeFixed{outputs: make(map[string][]byte)}
}

func (f *fakeFixed) add(compressed, decompressed []byte) {
	f.outputs[string(compressed)] = decompressed
}

func (f *fakeFixed) Decompress(compressed []byte, expectedLen int) ([]byte, error) {
	f.calls++
	out, ok := f.outputs[string(compressed)]
	if !ok {
		return nil, fmt.Errorf("fake backend: unknown payload %x", compressed)
	}
	if len(out) != expectedLen {
		return nil, fmt.Errorf("fake backend: %d bytes, expected %d: %w", len(out), expectedLen, ErrSizeMismatch)
	}
	return out, nil
}

// fakeDict is the dictionary-decompression counterpart. It tracks context
// lifecycle so tests can assert release on every exit path.
type fakeDict struct {
	outputs map[string][]byte
	opened  int
	closed  int
	dict    []byte
}

func newFakeDict() *fakeDict {
	return &fakeDict{outputs: make(map[string][]byte)}
}

func (f *fakeDict) add(compressed, decompressed []byte) {
	f.outputs[string(compressed)] = decompressed
}

func (f *fakeDict) OpenDict(dict []byte) (DictContext, error) {
	f.opened++
	f.dict = dict
	return &fakeDictCtx{parent: f}, nil
}

type fakeDictCtx struct {
	parent *fakeDict
}

func (c *fakeDictCtx) Decompress(compressed []byte, expectedLen int) ([]byte, error) {
	out, ok := c.parent.outputs[string(compressed)]
	if !ok {
		return nil, fmt.Errorf("fake dict backend: unknown payload %x", compressed)
	}
	if len(out) != expectedLen {
		return nil, fmt.Errorf("fake dict backend: %d bytes, expected %d: %w", len(out), expectedLen, ErrSizeMismatch)
	}
	return out, nil
}

func (c *fakeDictCtx) Close() error {
	c.parent.closed++
	return nil
}

// --- fixture builders ---

func appendU32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

func appendU16(dst []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(dst, v)
}

func appendBlob(dst, b []byte) []byte {
	dst = appendU32(dst, uint32(len(b)))
	return append(dst, b...)
}

// storedChunk builds a type-0 chunk whose payload is carried verbatim.
func storedChunk(payload []byte) []byte {
	chunk := []byte{chunkStored}
	chunk = appendU32(chunk, uint32(len(payload)))
	chunk = appendU32(chunk, uint32(len(payload)))
	return append(chunk, payload...)
}

// blockHeader packs compressed and decompressed sizes into the 8-byte
// bit-packed block header. Sizes must stay below 1<<22 so the fixed 0x80
// leading byte is preserved.
func blockHeader(compressedLen, decompressedLen int) []byte {
	hi := 0x80<<24 | uint32(compressedLen)<<2
	lo := uint32(decompressedLen)<<5 | 0x01
	var h []byte
	h = binary.BigEndian.AppendUint32(h, hi)
	return binary.BigEndian.AppendUint32(h, lo)
}

// block builds one compressed block. The compressed region registered with
// the backend includes the leading 0x8C marker byte.
func block(f *fakeFixed, decompressed []byte, filler byte) []byte {
	compressed := append([]byte{0x8C}, fillerBytes(filler, len(decompressed)/2+1)...)
	f.add(compressed, decompressed)
	b := blockHeader(len(compressed), len(decompressed))
	return append(b, compressed...)
}

// compressedChunk builds a type-2 chunk from pre-built blocks.
func compressedChunk(decompressedSize int, blocks ...[]byte) []byte {
	chunk := []byte{chunkCompressed}
	chunk = appendU32(chunk, uint32(decompressedSize))
	var payload []byte
	for _, b := range blocks {
		payload = append(payload, b...)
	}
	chunk = appendU32(chunk, uint32(len(payload)))
	return append(chunk, payload...)
}

// container wraps chunks in the 8-byte unstructured prefix.
func container(chunks ...[]byte) []byte {
	bin := append([]byte(nil), "SHCC\x1F\x00\x00\x00"...)
	for _, c := range chunks {
		bin = append(bin, c...)
	}
	return bin
}

func fillerBytes(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
