package cdn

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashTokenRoundTrip(t *testing.T) {
	hashes := [][]byte{
		bytes.Repeat([]byte{0x00}, 16),
		bytes.Repeat([]byte{0xFF}, 16),
		{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF, 0xFE, 0xDC, 0xBA, 0x98},
	}
	for _, hash := range hashes {
		token := EncodeHashToken(hash)
		assert.NotContains(t, token, "/", "tokens must be path-safe")
		assert.NotContains(t, token, "=", "tokens are unpadded")

		got, err := DecodeHashToken(token)
		require.NoError(t, err)
		assert.Equal(t, hash, got)
	}
}

func TestHashTokenSlashSubstitution(t *testing.T) {
	// 0xFF repeated encodes to base64 full of '/' characters, which the
	// token form replaces with '-'.
	token := EncodeHashToken(bytes.Repeat([]byte{0xFF}, 16))
	assert.Contains(t, token, "-")
}

func TestDecodeHashTokenInvalid(t *testing.T) {
	_, err := DecodeHashToken("!!! not base64 !!!")
	assert.Error(t, err)
}

func TestPlaceholderTokenDecodes(t *testing.T) {
	got, err := DecodeHashToken(PlaceholderToken)
	require.NoError(t, err)
	assert.Len(t, got, 16)
}

func TestRequestPath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		fileType byte
		token    string
		suffix   string
		want     string
	}{
		{"manifest", "/H.Cache.bin", TypeManifest, PlaceholderToken, "", "/0/H.Cache.bin!E_---------------------w"},
		{"bin with suffix", "/Languages.bin", TypeBin, "abc", "_en", "/0_en/Languages.bin!2C_abc"},
		{"missing leading slash", "H.Cache.bin", TypeManifest, "tok", "", "/0/H.Cache.bin!E_tok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, requestPath(tt.path, tt.fileType, tt.token, tt.suffix))
		})
	}
}
