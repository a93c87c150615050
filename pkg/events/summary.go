package events

import (
	"fmt"
	"strings"
)

type Summary struct {
	WarnCount  int
	ErrorCount int

	Errors []Event

	Full []Event
}

// String gives a one-line count, e.g. "2 warning(s), 1 error(s)", or "" when
// nothing noteworthy happened.
func (s Summary) String() string {
	var parts []string
	if s.ErrorCount > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", s.ErrorCount))
	}
	if s.WarnCount > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", s.WarnCount))
	}
	return strings.Join(parts, ", ")
}
