package shcc

import (
	"bytes"
	"crypto/md5" //nolint:gosec // format-mandated content checksum, not used for security
	"fmt"
)

// checksumMagic seeds every container checksum.
var checksumMagic = []byte("SHCC\x1F\x00\x00\x00")

// ChecksumSize is the length in bytes of a container checksum and of every
// manifest-declared content hash.
const ChecksumSize = md5.Size

// Checksum computes the content checksum of a decoded container: the fixed
// magic sequence, the H region from offset 16 onward (excluding H's own
// leading hash field), and the raw compressed B region when present.
//
// The result is compared against manifest-declared hashes to confirm that
// freshly fetched content is current. Callers skip the comparison when the
// response itself needed an outer decompression pass before container
// decoding; that asymmetry is inherited from the source protocol.
func Checksum(c *Container) []byte {
	h := md5.New() //nolint:gosec // format-mandated, not security-sensitive
	h.Write(checksumMagic)
	if len(c.H) > 16 {
		h.Write(c.H[16:])
	}
	if c.BRaw != nil {
		h.Write(c.BRaw)
	}
	return h.Sum(nil)
}

// VerifyChecksum compares the container's computed checksum against a
// manifest-declared hash and returns ErrHashMismatch when they differ.
func VerifyChecksum(c *Container, want []byte) error {
	got := Checksum(c)
	if !bytes.Equal(got, want) {
		return fmt.Errorf("checksum %x != declared %x: %w", got, want, ErrHashMismatch)
	}
	return nil
}
