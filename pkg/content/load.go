package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/events"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Paths locates the four content sources of a page.
type Paths struct {
	Settings string
	Home     string
	Products string
	Gallery  string
}

func DefaultPaths() Paths {
	return PathsFromConfig(config.DefaultConfig())
}

func PathsFromConfig(cfg *config.Config) Paths {
	return Paths{
		Settings: cfg.Sources.Settings,
		Home:     cfg.Sources.Home,
		Products: cfg.Sources.Products,
		Gallery:  cfg.Sources.Gallery,
	}
}

// Load fetches all four sources concurrently. It never fails: a source that
// cannot be fetched or parsed is reported as a warning and left empty, so
// the others still render.
func Load(ctx context.Context, src Source, paths Paths, handler events.Handler) Bundle {
	b := Bundle{
		Settings: Document{},
		Home:     Document{},
		Products: Collection{},
		Gallery:  Collection{},
	}

	// errors are reported, not returned, so one failure never cancels the
	// sibling fetches
	var g errgroup.Group

	g.Go(func() error {
		if doc, ok := fetch(ctx, src, paths.Settings, handler, ParseDocument); ok {
			b.Settings = doc
		}
		return nil
	})
	g.Go(func() error {
		if doc, ok := fetch(ctx, src, paths.Home, handler, ParseDocument); ok {
			b.Home = doc
		}
		return nil
	})
	g.Go(func() error {
		if col, ok := fetch(ctx, src, paths.Products, handler, ParseCollection); ok {
			b.Products = col
		}
		return nil
	})
	g.Go(func() error {
		if col, ok := fetch(ctx, src, paths.Gallery, handler, ParseCollection); ok {
			b.Gallery = col
		}
		return nil
	})

	_ = g.Wait()
	return b
}

func fetch[T any](ctx context.Context, src Source, path string, handler events.Handler, parse func(io.Reader) (T, error)) (T, bool) {
	var zero T

	r, err := src.Open(ctx, path)
	if err != nil {
		events.Emit(handler, events.Warn, path, "failed to fetch, using defaults", err)
		return zero, false
	}
	defer r.Close()

	v, err := parse(r)
	if err != nil {
		events.Emit(handler, events.Warn, path, "failed to parse, using defaults", err)
		return zero, false
	}

	events.Emit(handler, events.Debug, path, "loaded", nil)
	return v, true
}

// ParseDocument decodes a YAML document. An empty document is valid.
func ParseDocument(r io.Reader) (Document, error) {
	doc := Document{}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// ParseCollection decodes a JSON array of items.
func ParseCollection(r io.Reader) (Collection, error) {
	var col Collection

	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&col); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	if col == nil {
		col = Collection{}
	}
	return col, nil
}
