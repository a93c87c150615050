// Package aggregate turns folders of Markdown documents into JSON arrays of
// their front-matter, one array per collection.
package aggregate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/frontmatter"
	"github.com/olimci/bijou/pkg/minify"
	"github.com/olimci/bijou/pkg/utils/fileutils"
)

var ErrAggregate = errors.New("aggregation failed")

const source = "aggregate"

// Collection is a named folder under the content directory and the file its
// array is written to.
type Collection struct {
	Name    string
	Output  string
	OrderBy string
}

// DefaultCollections are the two folders the site is built from.
func DefaultCollections() []Collection {
	return []Collection{
		{Name: "products", Output: "products.json"},
		{Name: "gallery", Output: "gallery.json"},
	}
}

// Result describes one written collection.
type Result struct {
	Collection string
	Path       string
	Items      int
	Changed    bool
}

type Aggregator struct {
	ContentDir  string
	OutputDir   string
	Collections []Collection
	// BodyKey, when set, stores the rendered Markdown body under that key.
	BodyKey string
	Minify  bool
	Events  events.Handler

	fsys fs.FS
}

// New configures an Aggregator from a resolved config.
func New(cfg *config.Config, handler events.Handler) *Aggregator {
	cols := make([]Collection, 0, len(cfg.Content.Collections))
	for _, c := range cfg.Content.Collections {
		cols = append(cols, Collection{Name: c.Name, Output: c.Output, OrderBy: c.OrderBy})
	}

	return &Aggregator{
		ContentDir:  cfg.ContentDir(),
		OutputDir:   cfg.OutputDir(),
		Collections: cols,
		BodyKey:     cfg.Content.BodyKey,
		Minify:      cfg.Content.Minify,
		Events:      handler,
	}
}

// WithFS reads collections from fsys instead of ContentDir.
func (a *Aggregator) WithFS(fsys fs.FS) *Aggregator {
	a.fsys = fsys
	return a
}

// Aggregate collects and writes every collection. Nothing is written unless
// every collection was read and encoded successfully.
func (a *Aggregator) Aggregate(ctx context.Context) ([]Result, error) {
	fsys := a.fsys
	if fsys == nil {
		fsys = os.DirFS(a.ContentDir)
	}

	cols := a.Collections
	if len(cols) == 0 {
		cols = DefaultCollections()
	}

	m := minify.New(a.Minify)

	type encoded struct {
		col   Collection
		path  string
		data  []byte
		items int
	}
	pending := make([]encoded, 0, len(cols))

	for _, col := range cols {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAggregate, err)
		}

		items, err := a.collect(fsys, col)
		if err != nil {
			a.emit(events.Error, col.Name, "failed to collect", err)
			return nil, fmt.Errorf("%w: %s: %w", ErrAggregate, col.Name, err)
		}
		a.emit(events.Info, "", fmt.Sprintf("found %d files in '%s'", len(items), col.Name), nil)

		out := col.Output
		if out == "" {
			out = col.Name + ".json"
		}
		path := filepath.Join(a.OutputDir, out)

		data, err := Encode(items)
		if err == nil {
			data, err = m.Bytes(path, data)
		}
		if err != nil {
			a.emit(events.Error, col.Name, "failed to encode", err)
			return nil, fmt.Errorf("%w: %s: %w", ErrAggregate, col.Name, err)
		}

		pending = append(pending, encoded{col: col, path: path, data: data, items: len(items)})
	}

	results := make([]Result, 0, len(pending))
	for _, p := range pending {
		changed, err := fileutils.WriteIfChanged(p.path, p.data)
		if err != nil {
			a.emit(events.Error, p.path, "failed to write", err)
			return results, fmt.Errorf("%w: %s: %w", ErrAggregate, p.col.Name, err)
		}
		a.emit(events.Info, "", fmt.Sprintf("aggregated %s to %s", p.col.Name, p.path), nil)

		results = append(results, Result{
			Collection: p.col.Name,
			Path:       p.path,
			Items:      p.items,
			Changed:    changed,
		})
	}

	a.emit(events.Info, "", "aggregation finished", nil)
	return results, nil
}

// Encode renders items as an indented JSON array with a trailing newline.
// An empty collection encodes as [].
func Encode(items []frontmatter.Metadata) ([]byte, error) {
	if items == nil {
		items = []frontmatter.Metadata{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Aggregator) emit(level events.Level, src, msg string, err error) {
	if src == "" {
		src = source
	}
	events.Emit(a.Events, level, src, msg, err)
}
