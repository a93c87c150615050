package build

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/utils/set"
	"golang.org/x/sync/errgroup"
)

var (
	ErrDuplicateStep        = errors.New("duplicate step")
	ErrSelfDependency       = errors.New("self dependency")
	ErrUnresolvedDependency = errors.New("unresolved dependency")
	ErrCircularDependency   = errors.New("circular dependency")
	ErrTaskError            = errors.New("task error")
	ErrBuildFailed          = errors.New("build failed")
)

// Build aggregates the content and renders the page in every configured
// language.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*Report, error) {
	o := defaultOptions().Apply(opts...)
	o.context = ctx

	steps := []Step{StepAggregate(), StepTemplate(), StepStatic(), StepLoad()}
	steps = append(steps, StepRender(cfg)...)

	return Run(steps, cfg, o)
}

// Run executes a DAG of steps, starting each as soon as its dependencies
// finish.
func Run(steps []Step, cfg *config.Config, options *Options) (*Report, error) {
	collector := events.NewCollector(options.events)
	state := NewState()
	report := &Report{state: state, events: collector}

	d, err := newDAG(steps)
	if err != nil {
		return report, err
	}

	var ready []string
	for _, step := range steps {
		if d.deg[step.ID] == 0 {
			ready = append(ready, step.ID)
		}
	}
	if len(steps) > 0 && len(ready) == 0 {
		return report, ErrCircularDependency
	}

	ctx := options.context
	if ctx == nil {
		ctx = context.Background()
	}
	g, ctx := errgroup.WithContext(ctx)

	// a limit on the group itself would deadlock workers that schedule their
	// dependants, so only step bodies hold a slot
	var slots chan struct{}
	if options.maxWorkers > 0 {
		slots = make(chan struct{}, options.maxWorkers)
	}

	var (
		mu       sync.Mutex
		done     int
		schedule func(id string)
	)

	schedule = func(id string) {
		step := d.m[id]
		g.Go(func() error {
			if slots != nil {
				select {
				case slots <- struct{}{}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			select {
			case <-ctx.Done():
				if slots != nil {
					<-slots
				}
				return ctx.Err()
			default:
			}

			sc := StepContext{
				Ctx:     ctx,
				Config:  cfg,
				State:   state,
				Options: options,
				StepID:  step.ID,
				events:  collector,
			}

			err := step.Func(&sc)
			if slots != nil {
				<-slots
			}
			if err != nil {
				return fmt.Errorf("%w (%s): %w", ErrTaskError, step.ID, err)
			}

			var next []string
			mu.Lock()
			done++
			for _, dep := range d.adj[step.ID] {
				d.deg[dep]--
				if d.deg[dep] == 0 {
					next = append(next, dep)
				}
			}
			mu.Unlock()

			for _, id := range next {
				schedule(id)
			}
			return nil
		})
	}

	for _, id := range ready {
		schedule(id)
	}

	if err := g.Wait(); err != nil {
		events.Emit(collector, events.Error, "build", "build failed", err)
		return report, fmt.Errorf("%w: %w", ErrBuildFailed, err)
	}

	if done != len(steps) {
		var stuck []string
		for id, deg := range d.deg {
			if deg != 0 {
				stuck = append(stuck, id)
			}
		}
		return report, fmt.Errorf("%w: %v", ErrCircularDependency, stuck)
	}

	failLevel := events.Error
	if options.failOnWarn {
		failLevel = events.Warn
	}
	if collector.HasLevel(failLevel) {
		return report, fmt.Errorf("%w: %s", ErrBuildFailed, collector.Summary())
	}

	return report, nil
}

// newDAG constructs a DAG from a slice of steps.
func newDAG(steps []Step) (*dag, error) {
	d := &dag{
		m:   make(map[string]Step),
		adj: make(map[string][]string),
		deg: make(map[string]int),
	}

	for _, step := range steps {
		if _, ex := d.m[step.ID]; ex {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateStep, step.ID)
		}
		d.m[step.ID] = step
		d.deg[step.ID] = 0
	}

	for _, step := range steps {
		seen := set.New[string]()
		for _, dep := range step.Deps {
			if step.ID == dep {
				return nil, fmt.Errorf("%w: %s", ErrSelfDependency, step.ID)
			}
			if _, ex := d.m[dep]; !ex {
				return nil, fmt.Errorf("%w: %s", ErrUnresolvedDependency, dep)
			}
			if !seen.HasAdd(dep) {
				d.deg[step.ID]++
				d.adj[dep] = append(d.adj[dep], step.ID)
			}
		}
	}

	return d, nil
}

// dag is an internal struct representing a directed acyclic graph
type dag struct {
	m   map[string]Step
	adj map[string][]string
	deg map[string]int
}
