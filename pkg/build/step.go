package build

import (
	"context"
	"fmt"

	"github.com/olimci/bijou/pkg/config"
	"github.com/olimci/bijou/pkg/events"
)

type StepContext struct {
	Ctx     context.Context
	Config  *config.Config
	State   *State
	Options *Options
	StepID  string // The ID of the step, for event attribution

	events events.Handler
}

// Handle forwards events from library code, attributing unsourced ones to
// the step.
func (sc *StepContext) Handle(e events.Event) {
	if e.Source == "" {
		e.Source = sc.StepID
	}
	events.Emit(sc.events, e.Level, e.Source, e.Message, e.Error)
}

func (sc *StepContext) report(level events.Level, source, message string, err error) {
	sc.Handle(events.Event{Level: level, Source: source, Message: message, Error: err})
}

// Debug reports a debug-level event. For verbose troubleshooting info.
func (sc *StepContext) Debug(source, message string) {
	sc.report(events.Debug, source, message, nil)
}

func (sc *StepContext) Debugf(source, format string, args ...any) {
	sc.Debug(source, fmt.Sprintf(format, args...))
}

// Info reports general progress.
func (sc *StepContext) Info(source, message string) {
	sc.report(events.Info, source, message, nil)
}

func (sc *StepContext) Infof(source, format string, args ...any) {
	sc.Info(source, fmt.Sprintf(format, args...))
}

// Warn reports something that went wrong without stopping the build.
func (sc *StepContext) Warn(source, message string, err error) {
	sc.report(events.Warn, source, message, err)
}

// Error reports a failure and returns it as an error for the step to return.
func (sc *StepContext) Error(source, message string, err error) error {
	sc.report(events.Error, source, message, err)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", source, message, err)
	}
	return fmt.Errorf("%s: %s", source, message)
}

type Step struct {
	ID   string
	Deps []string
	Func func(*StepContext) error
}

func StepFunc(id string, fn func(*StepContext) error, deps ...string) Step {
	if deps == nil {
		deps = []string{}
	}

	return Step{
		ID:   id,
		Deps: deps,
		Func: fn,
	}
}
