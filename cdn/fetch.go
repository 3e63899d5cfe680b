package cdn

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ashenfall/shcc"
	"github.com/ashenfall/shcc/store"
)

// outerSizeFactor bounds the output of an outer decompression pass relative
// to the compressed input. Inherited from the source protocol, which has no
// declared size for the outer layer.
const outerSizeFactor = 10

// FetchFile downloads an asset, decodes its container, and writes the H and
// B regions into the layout.
//
// When hash is non-nil the request carries its token and the decoded
// container's checksum is verified against it, returning
// shcc.ErrHashMismatch on disagreement. Verification is skipped when the
// response needed an outer decompression pass before container decoding;
// the declared hash only covers the normal delivery path.
//
// Concurrent calls for the same path and suffix are deduplicated.
func (c *Client) FetchFile(ctx context.Context, layout *store.Layout, path string, fileType byte, hash []byte, suffix string) error {
	_, err, _ := c.group.Do(suffix+path, func() (any, error) {
		return nil, c.fetchFile(ctx, layout, path, fileType, hash, suffix)
	})
	return err
}

func (c *Client) fetchFile(ctx context.Context, layout *store.Layout, path string, fileType byte, hash []byte, suffix string) error {
	token := ""
	if hash != nil {
		token = EncodeHashToken(hash)
	}

	bin, err := c.Fetch(ctx, path, fileType, token, suffix)
	if err != nil {
		return err
	}

	outerCompressed := !bytes.HasPrefix(bin, shcc.Magic)
	if outerCompressed {
		if c.outer == nil {
			return fmt.Errorf("cdn: %s arrived compressed and no outer decompressor is configured", path)
		}
		bin, err = c.outer.DecompressCapped(bin, len(bin)*outerSizeFactor)
		if err != nil {
			return fmt.Errorf("cdn: outer pass for %s: %w", path, err)
		}
		c.log().Debug("outer decompression pass", "path", path, "bytes", len(bin))
	}

	container, err := shcc.Decode(bin, c.dec)
	if err != nil {
		return fmt.Errorf("cdn: decode %s: %w", path, err)
	}

	if err := layout.WriteContainer(path, suffix, container); err != nil {
		return err
	}

	if hash != nil && !outerCompressed {
		if err := shcc.VerifyChecksum(container, hash); err != nil {
			return fmt.Errorf("cdn: %s: %w", path, err)
		}
	}
	return nil
}

// SyncFile ensures the asset named by path is present and current in the
// layout, consulting the manifest for its declared hash. Assets already on
// disk with a matching leading hash are not re-fetched.
func (c *Client) SyncFile(ctx context.Context, layout *store.Layout, m *shcc.Manifest, path string, fileType byte, suffix string) error {
	hash, ok := m.GetHash(path)
	if !ok {
		return fmt.Errorf("cdn: %s not in manifest", path)
	}
	if layout.HasCurrent(path, suffix, hash) {
		c.log().Debug("already current", "path", path, "suffix", suffix)
		return nil
	}
	return c.FetchFile(ctx, layout, path, fileType, hash, suffix)
}
