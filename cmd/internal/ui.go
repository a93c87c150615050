package internal

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/olimci/bijou/pkg/events"
)

// UI reports dev server activity, either through a bubbletea program or as
// plain log lines. It satisfies events.Handler.
type UI struct {
	interactive bool

	mu      sync.Mutex
	program *tea.Program
}

func NewUI(interactive bool) *UI {
	return &UI{
		interactive: interactive,
	}
}

func (ui *UI) IsInteractive() bool {
	return ui.interactive
}

// NewProgram creates the interactive program; messages sent before it runs
// wait for it.
func (ui *UI) NewProgram(baseURL string, buildRequests chan<- BuildRequest) *tea.Program {
	p := tea.NewProgram(newModel(baseURL, buildRequests))

	ui.mu.Lock()
	ui.program = p
	ui.mu.Unlock()

	return p
}

// Detach falls back to plain logging once the program has exited.
func (ui *UI) Detach() {
	ui.mu.Lock()
	ui.program = nil
	ui.mu.Unlock()
}

func (ui *UI) send(msg tea.Msg) bool {
	ui.mu.Lock()
	p := ui.program
	ui.mu.Unlock()

	if !ui.interactive || p == nil {
		return false
	}
	p.Send(msg)
	return true
}

func (ui *UI) Handle(e events.Event) {
	if e.Level == events.Debug && log.GetLevel() > log.DebugLevel {
		return
	}
	if ui.send(logMsg(formatEvent(e))) {
		return
	}
	logEvent(e)
}

func (ui *UI) LogEvent(message string) {
	if !ui.send(logMsg(message)) {
		log.Print(message)
	}
}

func (ui *UI) BuildStarted(msg BuildStartedMsg) {
	if !ui.send(msg) {
		log.Debugf("build #%d start (%s)", msg.Number, msg.Reason)
	}
}

func (ui *UI) BuildFinished(result BuildResult) {
	if !ui.send(buildResultMsg(result)) {
		logBuildResult(result)
	}
}

func logEvent(e events.Event) {
	keyvals := []any{}
	if e.Source != "" {
		keyvals = append(keyvals, "source", e.Source)
	}
	if e.Error != nil {
		keyvals = append(keyvals, "err", e.Error)
	}

	switch e.Level {
	case events.Debug:
		log.Debug(e.Message, keyvals...)
	case events.Info:
		log.Info(e.Message, keyvals...)
	case events.Warn:
		log.Warn(e.Message, keyvals...)
	default:
		log.Error(e.Message, keyvals...)
	}
}

func logBuildResult(result BuildResult) {
	for _, e := range result.Events {
		if e.Level >= events.Warn {
			logEvent(e)
		}
	}

	if result.Error != nil {
		log.Errorf("build #%d failed in %s (%s): %v", result.Number, result.Duration.Truncate(time.Millisecond), result.Reason, result.Error)
	} else if summary := summarizeEvents(result.Events); summary != "" {
		log.Infof("build #%d in %s (%s) [%s]", result.Number, result.Duration.Truncate(time.Millisecond), result.Reason, summary)
	} else {
		log.Infof("build #%d in %s (%s)", result.Number, result.Duration.Truncate(time.Millisecond), result.Reason)
	}
	if len(result.Paths) > 0 {
		log.Infof("changes: %s", strings.Join(result.Paths, ", "))
	}
}

// levelPrefix returns a fixed-width display prefix for each level.
func levelPrefix(level events.Level) string {
	switch level {
	case events.Debug:
		return "DBG "
	case events.Info:
		return "INFO"
	case events.Warn:
		return "WARN"
	case events.Error:
		return "ERR "
	default:
		return "    "
	}
}

func formatEvent(e events.Event) string {
	line := levelPrefix(e.Level) + " "
	if e.Source != "" {
		line += e.Source + ": "
	}
	line += e.Message
	if e.Error != nil {
		line += ": " + e.Error.Error()
	}
	return line
}

func summarizeEvents(list []events.Event) string {
	c := events.NewCollector(nil)
	for _, e := range list {
		c.Handle(e)
	}
	return c.Summary().String()
}

type logMsg string

type buildResultMsg BuildResult

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f9e2af"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
)

type model struct {
	baseURL       string
	buildRequests chan<- BuildRequest
	maxLines      int
	spinner       spinner.Model

	buildCount  int
	building    bool
	lastReason  string
	lastDur     time.Duration
	lastErr     string
	lastChanged []string

	logs []string
}

func newModel(baseURL string, buildRequests chan<- BuildRequest) *model {
	return &model{
		baseURL:       baseURL,
		buildRequests: buildRequests,
		maxLines:      14,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(titleStyle),
		),
	}
}

func (m *model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch x := msg.(type) {
	case tea.KeyMsg:
		switch x.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			select {
			case m.buildRequests <- BuildRequest{Reason: "manual rebuild"}:
				m.appendLog("queued rebuild: manual")
			default:
				m.appendLog("rebuild skipped: request queue full")
			}
		case "c":
			m.logs = nil
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(x)
		return m, cmd

	case logMsg:
		m.appendLog(string(x))
		return m, nil

	case BuildStartedMsg:
		m.building = true
		m.lastReason = x.Reason
		m.buildCount = x.Number
		return m, nil

	case buildResultMsg:
		m.building = false
		m.buildCount = x.Number
		m.lastReason = x.Reason
		m.lastDur = x.Duration
		m.lastChanged = x.Paths

		for _, e := range x.Events {
			if e.Level >= events.Warn {
				m.appendLog(formatEvent(e))
			}
		}

		if x.Error != nil {
			m.lastErr = x.Error.Error()
			m.appendLog(fmt.Sprintf("ERR  build #%d in %s: %v", x.Number, x.Duration.Truncate(time.Millisecond), x.Error))
		} else {
			m.lastErr = ""
			m.appendLog(fmt.Sprintf("OK   build #%d in %s", x.Number, x.Duration.Truncate(time.Millisecond)))
		}
		return m, nil
	}

	return m, nil
}

func (m *model) View() string {
	var status string
	switch {
	case m.building:
		status = m.spinner.View() + " building"
	case m.lastErr != "":
		status = errStyle.Render("error")
	default:
		status = okStyle.Render("ready")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  %s\n", titleStyle.Render("bijou dev"), status, m.baseURL)

	switch {
	case m.buildCount == 0:
		b.WriteString("last build: (none yet)\n")
	case m.lastErr != "":
		fmt.Fprintf(&b, "last build: ERR #%d in %s  reason: %s\n", m.buildCount, m.lastDur.Truncate(time.Millisecond), m.lastReason)
	default:
		fmt.Fprintf(&b, "last build: OK #%d in %s  reason: %s\n", m.buildCount, m.lastDur.Truncate(time.Millisecond), m.lastReason)
	}

	if len(m.lastChanged) > 0 {
		b.WriteString("changes:   " + strings.Join(m.lastChanged, ", ") + "\n")
	} else {
		b.WriteString("changes:   (none)\n")
	}

	b.WriteString("\n")
	for _, line := range m.logs {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render("\nkeys: r rebuild   c clear   q quit") + "\n")
	return b.String()
}

func (m *model) appendLog(s string) {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return
	}
	m.logs = append(m.logs, s)
	if len(m.logs) > m.maxLines {
		m.logs = m.logs[len(m.logs)-m.maxLines:]
	}
}
