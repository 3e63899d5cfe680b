// Command shcc downloads localized game assets from the CDN and extracts
// their string tables to JSON.
//
// Usage:
//
//	shcc download [--locales en,fr] [--root dir]
//	shcc extract  [--locales en,fr] [--root dir]
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ashenfall/shcc/cdn"
	"github.com/ashenfall/shcc/locale"
	"github.com/ashenfall/shcc/store"
	"github.com/ashenfall/shcc/zstd"
)

// Well-known asset paths.
const (
	primaryManifestPath = "/H.Cache.bin"
	localeManifestFmt   = "/B.Cache.Windows_%s.bin"
)

type config struct {
	root    string
	locales []string
	verbose bool
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "shcc:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: shcc <download|extract> [flags]")
	}
	command, args := args[0], args[1:]

	flags := pflag.NewFlagSet(command, pflag.ContinueOnError)
	var cfg config
	var locales string
	flags.StringVar(&cfg.root, "root", ".", "working directory for downloaded and extracted data")
	flags.StringVar(&locales, "locales", strings.Join(locale.Default, ","), "comma-separated locales")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging")
	if err := flags.Parse(args); err != nil {
		return err
	}
	for _, loc := range strings.Split(locales, ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			cfg.locales = append(cfg.locales, loc)
		}
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	layout, err := store.New(cfg.root, store.WithLogger(logger))
	if err != nil {
		return err
	}
	backend := zstd.New()

	switch command {
	case "download":
		client := cdn.NewClient(backend, cdn.WithLogger(logger))
		return runDownload(ctx, logger, client, layout, cfg.locales)
	case "extract":
		return runExtract(logger, layout, backend, cfg.locales)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// runDownload fetches the primary manifest, then for each locale the
// localized manifest and its Languages.bin.
func runDownload(ctx context.Context, logger *slog.Logger, client *cdn.Client, layout *store.Layout, locales []string) error {
	logger.Info("downloading primary manifest", "path", primaryManifestPath)
	if err := client.FetchFile(ctx, layout, primaryManifestPath, cdn.TypeManifest, nil, ""); err != nil {
		return fmt.Errorf("primary manifest: %w", err)
	}

	primary, err := layout.OpenManifest(primaryManifestPath)
	if err != nil {
		return err
	}
	logger.Info("primary manifest loaded", "files", len(primary.Paths()))

	for _, loc := range locales {
		log := logger.With("locale", loc)

		manifestPath := fmt.Sprintf(localeManifestFmt, loc)
		if err := client.SyncFile(ctx, layout, primary, manifestPath, cdn.TypeManifest, ""); err != nil {
			log.Warn("localized manifest unavailable", "error", err)
		}
		if !layout.HasH(manifestPath, "") {
			log.Warn("no localized manifest on disk, skipping")
			continue
		}

		localized, err := layout.OpenManifest(manifestPath)
		if err != nil {
			log.Warn("cannot load localized manifest", "error", err)
			continue
		}
		if err := client.SyncFile(ctx, layout, localized, locale.LanguagesPath, cdn.TypeBin, "_"+loc); err != nil {
			log.Warn("Languages.bin failed", "error", err)
			continue
		}
		log.Info("Languages.bin ready")

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	logger.Info("download complete")
	return nil
}

// runExtract converts every present locale's Languages.bin to JSON and
// writes the Languages.json alias.
func runExtract(logger *slog.Logger, layout *store.Layout, backend *zstd.Backend, locales []string) error {
	ex := locale.NewExtractor(layout, backend, locale.WithLogger(logger))

	present := ex.Present(locales)
	if len(present) == 0 {
		return fmt.Errorf("no downloaded Languages.bin found; run download first")
	}
	logger.Info("extracting locales", "count", len(present), "locales", strings.Join(present, ","))

	extracted := make([]string, 0, len(present))
	for _, loc := range present {
		if _, err := ex.Extract(loc); err != nil {
			return err
		}
		extracted = append(extracted, loc)
	}

	return ex.WriteAlias(extracted)
}
