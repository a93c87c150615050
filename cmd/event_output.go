package cmd

import (
	"fmt"

	"github.com/olimci/bijou/pkg/events"
)

type eventCounts struct {
	Debug int
	Info  int
	Warn  int
	Error int
}

func countEvents(eventsList []events.Event) eventCounts {
	var counts eventCounts
	for _, event := range eventsList {
		switch event.Level {
		case events.Debug:
			counts.Debug++
		case events.Info:
			counts.Info++
		case events.Warn:
			counts.Warn++
		case events.Error:
			counts.Error++
		}
	}
	return counts
}

func formatSummary(summary *events.Summary) []string {
	if summary == nil || len(summary.Full) == 0 {
		return nil
	}

	counts := countEvents(summary.Full)

	lines := []string{
		fmt.Sprintf(
			"summary: %d events (debug %d, info %d, warn %d, error %d)",
			len(summary.Full),
			counts.Debug,
			counts.Info,
			counts.Warn,
			counts.Error,
		),
	}

	if summary.ErrorCount > 0 {
		lines = append(lines, fmt.Sprintf("errors (%d):", summary.ErrorCount))
		for _, event := range summary.Errors {
			lines = append(lines, "- "+event.String())
		}
	}

	return lines
}

// hasProblems reports whether the summary is worth printing after a run.
func hasProblems(summary *events.Summary) bool {
	return summary != nil && (summary.WarnCount > 0 || summary.ErrorCount > 0)
}
