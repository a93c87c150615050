package build

import (
	"context"
	"runtime"
	"time"

	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/events"
)

func defaultOptions() *Options {
	return &Options{
		context:    context.Background(),
		maxWorkers: runtime.NumCPU(),
		now:        time.Now,
	}
}

type Options struct {
	context    context.Context
	maxWorkers int
	events     events.Handler
	failOnWarn bool
	source     content.Source
	now        func() time.Time
}

func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewOptions returns the defaults with opts applied, for callers of Run.
func NewOptions(opts ...Option) *Options {
	return defaultOptions().Apply(opts...)
}

type Option func(*Options)

func WithContext(ctx context.Context) Option {
	return func(o *Options) {
		o.context = ctx
	}
}

func WithMaxWorkers(n int) Option {
	return func(o *Options) {
		o.maxWorkers = n
	}
}

// WithEvents streams build events to h as they happen.
func WithEvents(h events.Handler) Option {
	return func(o *Options) {
		o.events = h
	}
}

// WithFailOnWarn fails the build when any warning was reported.
func WithFailOnWarn() Option {
	return func(o *Options) {
		o.failOnWarn = true
	}
}

// WithSource loads page content from src instead of the configured source.
func WithSource(src content.Source) Option {
	return func(o *Options) {
		o.source = src
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.now = now
	}
}
