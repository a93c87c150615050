package events

import "fmt"

type Level uint8

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "event"
	}
}

// Event is a progress or failure report emitted by a library package.
type Event struct {
	Level   Level
	Source  string // file path, URL, or step id
	Message string
	Error   error
}

func (e Event) String() string {
	msg := e.Message
	if e.Source != "" {
		msg = e.Source + ": " + msg
	}
	if e.Error != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Level, msg, e.Error)
	}
	return fmt.Sprintf("[%s] %s", e.Level, msg)
}

type Handler interface {
	Handle(event Event)
}

// Emit sends an event to h, tolerating a nil handler.
func Emit(h Handler, level Level, source, message string, err error) {
	if h == nil {
		return
	}
	h.Handle(Event{Level: level, Source: source, Message: message, Error: err})
}
