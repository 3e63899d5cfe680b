// Package zstd provides a decompression backend for the shcc decoders built
// on github.com/klauspost/compress. It implements both shcc.Decompressor and
// shcc.DictDecompressor.
package zstd

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/ashenfall/shcc"
)

// dictMagic is the frame-format dictionary header. Dictionaries without it
// are treated as raw content dictionaries.
var dictMagic = []byte{0x37, 0xA4, 0x30, 0xEC}

// Backend decompresses zstd payloads with known output sizes. The zero
// value is ready to use; decoders are pooled and reused across calls.
type Backend struct {
	maxMemory uint64
	pool      sync.Pool
}

// Option configures a Backend.
type Option func(*Backend)

// WithMaxDecoderMemory caps the memory a single decoder may allocate.
// Set to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(b *Backend) {
		b.maxMemory = limit
	}
}

// New creates a Backend.
func New(opts ...Option) *Backend {
	b := &Backend{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Decompress decompresses a frame and fails unless the output is exactly
// expectedLen bytes.
func (b *Backend) Decompress(compressed []byte, expectedLen int) ([]byte, error) {
	dec, err := b.get()
	if err != nil {
		return nil, err
	}
	defer b.put(dec)

	out, err := dec.DecodeAll(compressed, make([]byte, 0, expectedLen))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	if len(out) != expectedLen {
		return nil, fmt.Errorf("zstd: decompressed %d bytes, expected %d: %w", len(out), expectedLen, shcc.ErrSizeMismatch)
	}
	return out, nil
}

// DecompressCapped decompresses a frame whose exact output size is unknown,
// failing only when the output exceeds maxLen bytes.
func (b *Backend) DecompressCapped(compressed []byte, maxLen int) ([]byte, error) {
	dec, err := b.get()
	if err != nil {
		return nil, err
	}
	defer b.put(dec)

	out, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	if len(out) > maxLen {
		return nil, fmt.Errorf("zstd: decompressed %d bytes, cap %d: %w", len(out), maxLen, shcc.ErrSizeMismatch)
	}
	return out, nil
}

// OpenDict creates a decompression context seeded with dict. The context
// holds a dedicated decoder; Close releases it.
func (b *Backend) OpenDict(dict []byte) (shcc.DictContext, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if b.maxMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(b.maxMemory))
	}
	if bytes.HasPrefix(dict, dictMagic) {
		opts = append(opts, zstd.WithDecoderDicts(dict))
	} else {
		opts = append(opts, zstd.WithDecoderDictRaw(0, dict))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("zstd: open dictionary: %w", err)
	}
	return &dictContext{dec: dec}, nil
}

// get returns a pooled decoder, creating one on first use.
func (b *Backend) get() (*zstd.Decoder, error) {
	if dec, ok := b.pool.Get().(*zstd.Decoder); ok {
		return dec, nil
	}
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if b.maxMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(b.maxMemory))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return dec, nil
}

func (b *Backend) put(dec *zstd.Decoder) {
	b.pool.Put(dec)
}

// dictContext is a dictionary-seeded decompression context.
type dictContext struct {
	dec *zstd.Decoder
}

// Decompress decompresses a dictionary-compressed frame with the same
// exact-length contract as Backend.Decompress.
func (c *dictContext) Decompress(compressed []byte, expectedLen int) ([]byte, error) {
	out, err := c.dec.DecodeAll(compressed, make([]byte, 0, expectedLen))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	if len(out) != expectedLen {
		return nil, fmt.Errorf("zstd: decompressed %d bytes, expected %d: %w", len(out), expectedLen, shcc.ErrSizeMismatch)
	}
	return out, nil
}

// Close releases the context's decoder.
func (c *dictContext) Close() error {
	c.dec.Close()
	return nil
}
