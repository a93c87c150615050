package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/olimci/bijou/pkg/aggregate"
	"github.com/olimci/bijou/pkg/build"
	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/populate"
)

// Builder re-aggregates the collections and reloads the page template and
// content bundle that the server renders from.
type Builder struct {
	config *config.Config
	source content.Source

	mu     sync.RWMutex
	page   *populate.Document
	bundle content.Bundle
	built  bool
}

type BuildResult struct {
	Duration time.Duration
	Error    error
	Reason   string
	Paths    []string
	Number   int
	Events   []events.Event
}

// NewBuilder reads content from the local site root, so edits show up even
// when the config points at a deployed URL.
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{
		config: cfg,
		source: content.NewFSSource(cfg.Site.Root),
	}
}

func (b *Builder) Build(ctx context.Context) BuildResult {
	start := time.Now()
	collector := events.NewCollector(nil)

	err := b.build(ctx, collector)

	return BuildResult{
		Duration: time.Since(start),
		Error:    err,
		Events:   collector.Events(),
	}
}

func (b *Builder) build(ctx context.Context, handler events.Handler) error {
	if _, err := aggregate.New(b.config, handler).Aggregate(ctx); err != nil {
		return err
	}

	page, err := populate.ParseFile(b.config.PagePath())
	if err != nil {
		return fmt.Errorf("%w: %w", build.ErrNoTemplate, err)
	}

	bundle := content.Load(ctx, b.source, content.PathsFromConfig(b.config), handler)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.page, b.bundle, b.built = page, bundle, true
	return nil
}

// Snapshot returns the last good template and bundle. The template must be
// cloned before rendering.
func (b *Builder) Snapshot() (*populate.Document, content.Bundle, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.page, b.bundle, b.built
}

func (b *Builder) Config() *config.Config {
	return b.config
}
