package shcc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChunkStored(t *testing.T) {
	payload := []byte("the quick brown fox")
	bin := append([]byte{0xDE, 0xAD}, storedChunk(payload)...)

	got, next, err := decodeChunk(bin, 2, newFakeFixed())
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, 2+chunkHeaderLen+len(payload), next, "cursor advances by header plus payload")
}

func TestDecodeChunkStoredCopies(t *testing.T) {
	bin := storedChunk([]byte{1, 2, 3})
	got, _, err := decodeChunk(bin, 0, newFakeFixed())
	require.NoError(t, err)

	bin[chunkHeaderLen] = 0xFF
	assert.Equal(t, []byte{1, 2, 3}, got, "payload must not alias the input buffer")
}

func TestDecodeChunkStoredSizeMismatch(t *testing.T) {
	chunk := []byte{chunkStored}
	chunk = appendU32(chunk, 4)
	chunk = appendU32(chunk, 5)
	chunk = append(chunk, []byte("12345")...)

	_, _, err := decodeChunk(chunk, 0, newFakeFixed())
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecodeChunkUnknownType(t *testing.T) {
	chunk := []byte{7}
	chunk = appendU32(chunk, 0)
	chunk = appendU32(chunk, 0)

	_, _, err := decodeChunk(chunk, 0, newFakeFixed())
	assert.ErrorIs(t, err, ErrChunkType)
}

func TestDecodeChunkTruncatedHeader(t *testing.T) {
	_, _, err := decodeChunk([]byte{0, 1, 2}, 0, newFakeFixed())
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeChunkCompressed(t *testing.T) {
	f := newFakeFixed()
	first := bytes.Repeat([]byte("abc"), 10)
	second := bytes.Repeat([]byte("xyz"), 5)
	chunk := compressedChunk(len(first)+len(second),
		block(f, first, 0x01),
		block(f, second, 0x02),
	)

	got, next, err := decodeChunk(chunk, 0, f)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte(nil), first...), second...), got)
	assert.Equal(t, len(chunk), next)
	assert.Equal(t, 2, f.calls)
}

func TestDecodeChunkBlockHeaderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(chunk []byte)
	}{
		{"header byte 0", func(c []byte) { c[chunkHeaderLen] = 0x81 }},
		{"footer nibble", func(c []byte) { c[chunkHeaderLen+7] &^= 0x01 }},
		{"block marker", func(c []byte) { c[chunkHeaderLen+8] = 0x8D }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeFixed()
			chunk := compressedChunk(4, block(f, []byte("data"), 0x03))
			tt.mutate(chunk)
			_, _, err := decodeChunk(chunk, 0, f)
			assert.ErrorIs(t, err, ErrBadMagic)
		})
	}
}

func TestDecodeChunkBlockTruncated(t *testing.T) {
	f := newFakeFixed()
	chunk := compressedChunk(4, block(f, []byte("data"), 0x04))

	_, _, err := decodeChunk(chunk[:chunkHeaderLen+5], 0, f)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeChunkBackendErrorPropagates(t *testing.T) {
	// Backend has no mapping for this payload, so decompression fails.
	chunk := compressedChunk(4, block(newFakeFixed(), []byte("data"), 0x05))

	_, _, err := decodeChunk(chunk, 0, newFakeFixed())
	assert.Error(t, err)
}
