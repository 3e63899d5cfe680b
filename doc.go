// Package shcc decodes the SHCC asset delivery format: a compressed
// container wrapper, a binary file manifest, and a dictionary-compressed
// localized-string table, as served by the game's CDN.
//
// A container holds one mandatory "H" region and at most one optional "B"
// region, each wrapped in a typed, length-prefixed chunk. H regions carry
// either a manifest (a grouped listing of asset paths and content hashes)
// or a string table (offset-addressed labels over shared text chunks, with
// optional per-label dictionary compression).
//
// Decoding a container:
//
//	c, err := shcc.Decode(raw, backend)
//	if err != nil {
//	    return err
//	}
//	m := shcc.NewManifest(c.H)
//	hash, ok := m.GetHash("/Languages.bin")
//
// Decoding a string table:
//
//	strings, err := shcc.DecodeStringTable(c.H, backend)
//
// The compression backends are injected as capabilities ([Decompressor] and
// [DictDecompressor]); the decoding logic has no compile-time dependency on
// any specific codec. The zstd subpackage provides a backend built on
// github.com/klauspost/compress.
//
// All decode operations are single-pass, read-only transformations of an
// input buffer. Failures are terminal to the current call; no partial
// results are returned. The one deliberate exception is the optional B
// chunk, whose absence or decode failure does not fail container decoding.
package shcc
