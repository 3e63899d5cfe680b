package cdn

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// PlaceholderToken is the hash token sent when no manifest hash is known,
// typically for the primary manifest itself.
const PlaceholderToken = "---------------------w"

// b64m is standard unpadded base64; the protocol additionally swaps '/' for
// '-' to keep tokens path-safe.
var b64m = base64.StdEncoding.WithPadding(base64.NoPadding)

// EncodeHashToken encodes a content hash into the URL-safe token form the
// CDN expects.
func EncodeHashToken(hash []byte) string {
	return strings.ReplaceAll(b64m.EncodeToString(hash), "/", "-")
}

// DecodeHashToken decodes a CDN hash token back into raw hash bytes.
func DecodeHashToken(token string) ([]byte, error) {
	hash, err := b64m.DecodeString(strings.ReplaceAll(token, "-", "/"))
	if err != nil {
		return nil, fmt.Errorf("cdn: decode hash token %q: %w", token, err)
	}
	return hash, nil
}
