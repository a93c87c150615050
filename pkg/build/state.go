package build

import (
	"slices"
	"sync"

	"github.com/olimci/bijou/pkg/aggregate"
	"github.com/olimci/bijou/pkg/content"
	"github.com/olimci/bijou/pkg/events"
	"github.com/olimci/bijou/pkg/populate"
)

// K is a typed key into the build State.
type K[T any] string

const (
	AggregateK = K[[]aggregate.Result]("aggregate")
	TemplateK  = K[*populate.Document]("template")
	BundleK    = K[content.Bundle]("bundle")
	OutputsK   = K[[]string]("outputs")
)

// State is shared between the steps of one build.
type State struct {
	mu sync.RWMutex
	m  map[string]any
}

func NewState() *State {
	return &State{m: make(map[string]any)}
}

func Set[T any](s *State, k K[T], v T) {
	s.mu.Lock()
	s.m[string(k)] = v
	s.mu.Unlock()
}

// Get returns the value under k, or the zero value when unset.
func Get[T any](s *State, k K[T]) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[string(k)].(T)
	return v, ok
}

// Append adds values to a slice-valued key.
func Append[T any](s *State, k K[[]T], values ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, _ := s.m[string(k)].([]T)
	s.m[string(k)] = append(cur, values...)
}

// Report describes a finished, or failed, build.
type Report struct {
	state  *State
	events *events.Collector
}

func (r *Report) State() *State {
	return r.state
}

func (r *Report) Events() []events.Event {
	return r.events.Events()
}

func (r *Report) Summary() *events.Summary {
	return r.events.Summary()
}

// Outputs lists the written pages and static files in path order.
func (r *Report) Outputs() []string {
	out, _ := Get(r.state, OutputsK)
	out = slices.Clone(out)
	slices.Sort(out)
	return out
}

func (r *Report) Aggregated() []aggregate.Result {
	res, _ := Get(r.state, AggregateK)
	return res
}
