package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/olimci/bijou/pkg/events"
)

type outputStyle int

const (
	outputPlain outputStyle = iota
	outputRich
)

// logPrinter writes events as single lines, colored when out is a terminal.
// It satisfies events.Handler.
type logPrinter struct {
	style outputStyle
	out   io.Writer
	min   events.Level
	mu    sync.Mutex

	levelStyles map[events.Level]lipgloss.Style
	sourceStyle lipgloss.Style
}

func newLogPrinter(style outputStyle, out io.Writer, min events.Level) *logPrinter {
	p := &logPrinter{
		style: style,
		out:   out,
		min:   min,
	}

	if style != outputRich || !isTerminal(out) {
		return p
	}

	p.levelStyles = map[events.Level]lipgloss.Style{
		events.Debug: lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086")), // muted
		events.Info:  lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")), // blue
		events.Warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")), // yellow
		events.Error: lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")), // red
	}
	p.sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4"))
	return p
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *logPrinter) Handle(e events.Event) {
	if e.Level < p.min {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	line := formatLogPlain(e)
	if levelStyle, ok := p.levelStyles[e.Level]; ok {
		line = formatLogRich(e, levelStyle.Render(e.Level.String()), p.sourceStyle)
	}

	fmt.Fprintln(p.out, line)
}

func formatLogPlain(e events.Event) string {
	var b strings.Builder

	b.WriteString(e.Level.String())
	b.WriteString(": ")

	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}

	b.WriteString(e.Message)
	if e.Error != nil {
		b.WriteString(": ")
		b.WriteString(e.Error.Error())
	}

	return b.String()
}

func formatLogRich(e events.Event, levelToken string, sourceStyle lipgloss.Style) string {
	var b strings.Builder

	b.WriteString(levelToken)
	b.WriteString(": ")

	if e.Source != "" {
		b.WriteString(sourceStyle.Render(e.Source))
		b.WriteString(": ")
	}

	b.WriteString(e.Message)
	if e.Error != nil {
		b.WriteString(": ")
		b.WriteString(e.Error.Error())
	}

	return b.String()
}

// eventLevel maps the logger threshold onto event levels so library events
// obey --log-level.
func eventLevel(l log.Level) events.Level {
	switch {
	case l <= log.DebugLevel:
		return events.Debug
	case l <= log.InfoLevel:
		return events.Info
	case l <= log.WarnLevel:
		return events.Warn
	default:
		return events.Error
	}
}

// stdoutPrinter is the printer used by one-shot commands.
func stdoutPrinter() *logPrinter {
	return newLogPrinter(outputRich, os.Stdout, eventLevel(log.GetLevel()))
}
