// Package store maps CDN asset paths onto the local filesystem and holds
// decoded container regions on disk.
//
// A fetched container is split into sibling files next to the asset path:
// the decoded H region in "<path>_H" and, when present, the decoded B region
// in "<path>_B". The leading 16 bytes of an H file are the content hash the
// container declared for itself, which makes presence checks against a
// manifest a cheap header read.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ashenfall/shcc"
)

const (
	downloadDir = "downloaded-data"
	extractDir  = "extracted-data"

	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
)

// Layout resolves asset paths under a working directory.
type Layout struct {
	root     string
	dirPerm  os.FileMode
	filePerm os.FileMode
	logger   *slog.Logger
}

// Option configures a Layout.
type Option func(*Layout)

// WithDirPerm sets the permissions used for created directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(l *Layout) {
		l.dirPerm = mode
	}
}

// WithFilePerm sets the permissions used for written files.
func WithFilePerm(mode os.FileMode) Option {
	return func(l *Layout) {
		l.filePerm = mode
	}
}

// WithLogger sets the logger for layout operations.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Layout) {
		l.logger = logger
	}
}

// New creates a Layout rooted at dir.
func New(dir string, opts ...Option) (*Layout, error) {
	if dir == "" {
		return nil, errors.New("store: root dir is empty")
	}
	l := &Layout{
		root:     dir,
		dirPerm:  defaultDirPerm,
		filePerm: defaultFilePerm,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

func (l *Layout) log() *slog.Logger {
	if l.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}

// DownloadPath returns the local file for a downloaded asset. Asset paths
// start with a slash; suffix distinguishes per-locale variants of the same
// path (e.g. "_en").
func (l *Layout) DownloadPath(path, suffix string) string {
	return filepath.Join(l.root, downloadDir, filepath.FromSlash("0"+suffix+path))
}

// ExtractPath returns the local file for an extracted asset.
func (l *Layout) ExtractPath(path, suffix string) string {
	return filepath.Join(l.root, extractDir, filepath.FromSlash("0"+suffix+path))
}

// HPath returns the file holding the decoded H region of an asset.
func (l *Layout) HPath(path, suffix string) string {
	return l.DownloadPath(path, suffix) + "_H"
}

// BPath returns the file holding the decoded B region of an asset.
func (l *Layout) BPath(path, suffix string) string {
	return l.DownloadPath(path, suffix) + "_B"
}

// WriteContainer writes a decoded container's regions to the asset's H and
// B files, creating parent directories as needed.
func (l *Layout) WriteContainer(path, suffix string, c *shcc.Container) error {
	hPath := l.HPath(path, suffix)
	if err := os.MkdirAll(filepath.Dir(hPath), l.dirPerm); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.WriteFile(hPath, c.H, l.filePerm); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	l.log().Debug("wrote H region", "path", path, "suffix", suffix, "bytes", len(c.H))
	if c.B != nil {
		if err := os.WriteFile(l.BPath(path, suffix), c.B, l.filePerm); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		l.log().Debug("wrote B region", "path", path, "suffix", suffix, "bytes", len(c.B))
	}
	return nil
}

// ReadH reads the decoded H region of an asset.
func (l *Layout) ReadH(path, suffix string) ([]byte, error) {
	bin, err := os.ReadFile(l.HPath(path, suffix))
	if err != nil {
		return nil, fmt.Errorf("store: %s not on disk: %w", path, err)
	}
	return bin, nil
}

// HasH reports whether the asset's H region exists on disk.
func (l *Layout) HasH(path, suffix string) bool {
	_, err := os.Stat(l.HPath(path, suffix))
	return err == nil
}

// HasCurrent reports whether the asset's H region exists on disk and its
// leading hash field equals the given manifest-declared hash.
func (l *Layout) HasCurrent(path, suffix string, hash []byte) bool {
	f, err := os.Open(l.HPath(path, suffix))
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, shcc.ChecksumSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	return bytes.Equal(header, hash)
}

// OpenManifest reads an asset's H region from disk and wraps it in a
// manifest store.
func (l *Layout) OpenManifest(path string) (*shcc.Manifest, error) {
	bin, err := l.ReadH(path, "")
	if err != nil {
		return nil, err
	}
	return shcc.NewManifest(bin), nil
}

// WriteExtracted atomically writes data to the asset's extract path using a
// temp file and rename, creating parent directories as needed.
func (l *Layout) WriteExtracted(path string, data []byte) error {
	dest := l.ExtractPath(path, "")
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, l.dirPerm); err != nil {
		return fmt.Errorf("store: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".shcc-")
	if err != nil {
		return fmt.Errorf("store: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("store: writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, l.filePerm); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("store: renaming to %s: %w", dest, err)
	}
	success = true
	return nil
}

// ReadExtracted reads a previously extracted asset.
func (l *Layout) ReadExtracted(path string) ([]byte, error) {
	bin, err := os.ReadFile(l.ExtractPath(path, ""))
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return bin, nil
}
