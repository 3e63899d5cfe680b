// Package locale turns downloaded Languages.bin string tables into
// per-locale JSON files.
package locale

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ashenfall/shcc"
	"github.com/ashenfall/shcc/store"
)

// LanguagesPath is the asset path of the localized-string container. Each
// locale's variant lives under the "_<locale>" suffix.
const LanguagesPath = "/Languages.bin"

// Default is the locale list used when the caller supplies none.
var Default = []string{"en", "fr", "de", "es", "it", "pt", "ru", "pl", "tr", "ja", "ko", "zh"}

// Extractor decodes downloaded string tables and writes deterministic JSON.
type Extractor struct {
	layout *store.Layout
	dec    shcc.DictDecompressor
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger for extraction activity.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor reading from layout and decompressing
// with d.
func NewExtractor(layout *store.Layout, d shcc.DictDecompressor, opts ...Option) *Extractor {
	e := &Extractor{layout: layout, dec: d}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) log() *slog.Logger {
	if e.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.logger
}

// Present filters locales down to those whose Languages.bin is on disk.
func (e *Extractor) Present(locales []string) []string {
	present := make([]string, 0, len(locales))
	for _, loc := range locales {
		if e.layout.HasH(LanguagesPath, "_"+loc) {
			present = append(present, loc)
		}
	}
	return present
}

// Extract decodes one locale's string table and writes it to
// /Languages/<locale>.json under the extract root. It returns the number of
// strings written.
func (e *Extractor) Extract(locale string) (int, error) {
	bin, err := e.layout.ReadH(LanguagesPath, "_"+locale)
	if err != nil {
		return 0, err
	}

	entries, err := shcc.DecodeStringTable(bin, e.dec)
	if err != nil {
		return 0, fmt.Errorf("locale %s: %w", locale, err)
	}

	data, err := marshalOrdered(entries)
	if err != nil {
		return 0, fmt.Errorf("locale %s: %w", locale, err)
	}

	if err := e.layout.WriteExtracted(outputPath(locale), data); err != nil {
		return 0, err
	}
	e.log().Info("extracted locale", "locale", locale, "strings", len(entries))
	return len(entries), nil
}

// WriteAlias copies one extracted locale to the unsuffixed Languages.json
// name. English is preferred; otherwise the first extracted locale is used.
func (e *Extractor) WriteAlias(extracted []string) error {
	if len(extracted) == 0 {
		return nil
	}
	source := extracted[0]
	for _, loc := range extracted {
		if loc == "en" {
			source = loc
			break
		}
	}
	data, err := e.layout.ReadExtracted(outputPath(source))
	if err != nil {
		return err
	}
	e.log().Info("alias written", "source", source)
	return e.layout.WriteExtracted("/Languages/Languages.json", data)
}

func outputPath(locale string) string {
	return "/Languages/" + locale + ".json"
}

// marshalOrdered renders the string map as a JSON object whose members are
// sorted by key and led by an "__order" array of those keys. Downstream
// consumers rely on this byte-for-byte determinism.
func marshalOrdered(entries map[string]string) ([]byte, error) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString("{\n")

	writeMember := func(key string, value any, last bool) error {
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.MarshalIndent(value, "  ", "  ")
		if err != nil {
			return err
		}
		buf.WriteString("  ")
		buf.Write(k)
		buf.WriteString(": ")
		buf.Write(v)
		if !last {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
		return nil
	}

	if err := writeMember("__order", keys, len(keys) == 0); err != nil {
		return nil, err
	}
	for n, k := range keys {
		if err := writeMember(k, entries[k], n == len(keys)-1); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
