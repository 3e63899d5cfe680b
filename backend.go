package shcc

// Decompressor decompresses a payload whose decompressed size is known in
// advance. Implementations must fail when they cannot produce exactly
// expectedLen bytes; the decoders rely on that contract and never re-check
// lengths themselves.
type Decompressor interface {
	Decompress(compressed []byte, expectedLen int) ([]byte, error)
}

// DictDecompressor provides dictionary-seeded decompression. A string-table
// decode acquires one DictContext for the table's shared dictionary, uses it
// for every compressed label, and releases it when done.
type DictDecompressor interface {
	OpenDict(dict []byte) (DictContext, error)
}

// DictContext is a decompression context bound to a dictionary. It carries
// the same exact-length contract as [Decompressor]. Close releases backend
// resources and must be called on every exit path.
type DictContext interface {
	Decompress(compressed []byte, expectedLen int) ([]byte, error)
	Close() error
}
