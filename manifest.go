package shcc

import (
	"encoding/binary"
	"strings"
	"unicode/utf8"
)

// manifestHeaderLen is the size of the unparsed manifest header, skipped
// unconditionally.
const manifestHeaderLen = 20

// manifestEntryTrailerLen covers the 16-byte content hash plus the 4-byte
// unknown field that follow each entry's path.
const manifestEntryTrailerLen = 20

// Manifest scans a binary file manifest into path-to-hash associations.
//
// Entries are grouped, each group prefixed by a little-endian count; groups
// repeat until the buffer is exhausted. The format has no end marker, so a
// truncated entry is the normal termination signal rather than an error.
//
// Scanning is resumable: lookups advance an internal cursor only as far as
// needed, so repeated lookups amortize previous work. The cursor is owned
// exclusively by this instance and is never rewound; a Manifest must not be
// shared across concurrent scans.
type Manifest struct {
	bin       []byte
	i         int
	remaining uint32
	paths     []string
	hashes    map[string][]byte
	unknowns  map[string][]byte
}

// NewManifest creates a Manifest over the raw H-region bytes of a manifest
// container. The buffer is retained and must not be modified afterwards.
func NewManifest(bin []byte) *Manifest {
	return &Manifest{
		bin:      bin,
		i:        manifestHeaderLen,
		hashes:   make(map[string][]byte),
		unknowns: make(map[string][]byte),
	}
}

// scan advances the cursor, recording every entry it passes. When stopAt is
// non-empty, scanning halts as soon as an entry with that path has been read
// and its hash is returned; the cursor stays put so a later scan resumes
// where this one stopped.
func (m *Manifest) scan(stopAt string) ([]byte, bool) {
	for m.i < len(m.bin) {
		for m.remaining == 0 {
			if m.i+4 > len(m.bin) {
				return nil, false
			}
			m.remaining = binary.LittleEndian.Uint32(m.bin[m.i:])
			m.i += 4
		}
		m.remaining--

		if m.i+4 > len(m.bin) {
			return nil, false
		}
		pathLen := int(binary.LittleEndian.Uint32(m.bin[m.i:]))
		m.i += 4

		if m.i+pathLen+manifestEntryTrailerLen > len(m.bin) {
			return nil, false
		}
		path := decodeText(m.bin[m.i : m.i+pathLen])
		m.i += pathLen

		hash := m.bin[m.i : m.i+ChecksumSize : m.i+ChecksumSize]
		unknown := m.bin[m.i+ChecksumSize : m.i+manifestEntryTrailerLen : m.i+manifestEntryTrailerLen]
		m.i += manifestEntryTrailerLen

		// Later entries for a repeated path overwrite earlier ones.
		m.paths = append(m.paths, path)
		m.hashes[path] = hash
		m.unknowns[path] = unknown

		if stopAt != "" && path == stopAt {
			return hash, true
		}
	}
	return nil, false
}

// GetHash returns the declared content hash for path. Already-scanned
// entries are answered from the mapping; otherwise the scan resumes forward
// until the path is found or the buffer ends.
//
// The returned slice aliases the manifest buffer and must be treated as
// immutable.
func (m *Manifest) GetHash(path string) ([]byte, bool) {
	if hash, ok := m.hashes[path]; ok {
		return hash, true
	}
	return m.scan(path)
}

// Unknown returns the entry's 4-byte trailing field, whose meaning is not
// known. Like GetHash it scans forward on a miss.
func (m *Manifest) Unknown(path string) ([]byte, bool) {
	if _, ok := m.hashes[path]; !ok {
		if _, ok := m.scan(path); !ok {
			return nil, false
		}
	}
	unknown, ok := m.unknowns[path]
	return unknown, ok
}

// Paths scans the remainder of the manifest and returns every path in scan
// order. Paths are not guaranteed unique.
func (m *Manifest) Paths() []string {
	m.scan("")
	return m.paths
}

// Len returns the number of entries scanned so far.
func (m *Manifest) Len() int {
	return len(m.paths)
}

// decodeText permissively decodes bytes as UTF-8, replacing invalid
// sequences rather than failing.
func decodeText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
