// Package cdn retrieves assets from the game's content delivery network and
// decodes them into the local store.
//
// Requests are addressed by asset path, a request type, and a hash token
// derived from the manifest-declared content hash. The client tries the
// content CDN first and falls back to the origin endpoints, including a
// cache-busting origin URL, before giving up.
package cdn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	nethttp "net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ashenfall/shcc"
)

// Request types understood by the CDN. Manifests and binary payloads are
// addressed differently.
const (
	TypeManifest byte = 0xE
	TypeBin      byte = 0x2C
)

// Default endpoints.
const (
	DefaultContentURL = "https://content.soulframe.com"
	DefaultOriginURL  = "https://origin.soulframe.com"
)

const defaultTimeout = 30 * time.Second

// ErrAllEndpoints is returned when every candidate URL failed for a fetch.
var ErrAllEndpoints = errors.New("cdn: all endpoints failed")

// CappedDecompressor decompresses a payload whose exact output size is
// unknown, bounded by an estimate. Fetch responses occasionally arrive with
// an extra outer compression pass; decoding those requires a size guess
// rather than the exact-length contract of shcc.Decompressor.
type CappedDecompressor interface {
	DecompressCapped(compressed []byte, maxLen int) ([]byte, error)
}

// Client downloads assets from the CDN.
//
// Concurrent fetches of the same asset are deduplicated, so a Client is
// safe for use by multiple goroutines.
type Client struct {
	hc         *nethttp.Client
	contentURL string
	originURL  string
	dec        shcc.Decompressor
	outer      CappedDecompressor
	logger     *slog.Logger
	group      singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *nethttp.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithContentURL overrides the content CDN endpoint.
func WithContentURL(url string) Option {
	return func(c *Client) {
		c.contentURL = url
	}
}

// WithOriginURL overrides the origin endpoint used for fallbacks.
func WithOriginURL(url string) Option {
	return func(c *Client) {
		c.originURL = url
	}
}

// WithOuterDecompressor sets the decompressor used when a response itself
// arrives compressed, before container decoding.
func WithOuterDecompressor(d CappedDecompressor) Option {
	return func(c *Client) {
		c.outer = d
	}
}

// WithLogger sets the logger for fetch activity.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client that decodes fetched containers with d. When d
// also implements [CappedDecompressor] it is used for outer decompression
// passes unless WithOuterDecompressor overrides it.
func NewClient(d shcc.Decompressor, opts ...Option) *Client {
	c := &Client{
		contentURL: DefaultContentURL,
		originURL:  DefaultOriginURL,
		dec:        d,
	}
	if capped, ok := d.(CappedDecompressor); ok {
		c.outer = capped
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc == nil {
		c.hc = &nethttp.Client{Timeout: defaultTimeout}
	}
	return c
}

func (c *Client) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// requestPath builds the CDN request path for an asset.
func requestPath(path string, fileType byte, token, suffix string) string {
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return fmt.Sprintf("/0%s%s!%X_%s", suffix, path, fileType, token)
}

// candidates returns the ordered URL fallback list for a request path: the
// content CDN, the origin, a cache-busting origin URL, and the plain origin
// prefix.
func (c *Client) candidates(reqPath string) []string {
	return []string{
		c.contentURL + reqPath,
		c.originURL + reqPath,
		fmt.Sprintf("%s/origin/%08X%s", c.originURL, rand.Uint32(), reqPath),
		c.originURL + "/origin/0" + reqPath,
	}
}

// Fetch downloads the raw bytes of an asset, trying each candidate URL in
// order. It returns ErrAllEndpoints when none succeeds.
func (c *Client) Fetch(ctx context.Context, path string, fileType byte, token, suffix string) ([]byte, error) {
	if token == "" {
		token = PlaceholderToken
	}
	reqPath := requestPath(path, fileType, token, suffix)

	for _, url := range c.candidates(reqPath) {
		bin, err := c.fetchURL(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.log().Warn("download failed", "url", url, "error", err)
			continue
		}
		c.log().Info("downloaded", "url", url, "bytes", len(bin))
		return bin, nil
	}
	return nil, fmt.Errorf("%w for %s", ErrAllEndpoints, path)
}

func (c *Client) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
