// Package report renders the summary of a bot pass.
package report

import (
	"io"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/spiffcs/broombot/internal/broom"
)

// Format represents the output format
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// Formatter defines the interface for output formatters
type Formatter interface {
	Format(res *broom.PassResult, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	default:
		return &TableFormatter{}
	}
}

// Summary holds the counts shown at the end of a pass.
type Summary struct {
	Scanned    int `json:"scanned"`
	Stale      int `json:"stale"`
	Warned     int `json:"warned"`
	Reset      int `json:"reset"`
	Candidates int `json:"candidates"`
	Abandoned  int `json:"abandoned"`
	WorkItems  int `json:"workItems"`
	// FailedWorkItems counts keyword matches whose work item could not be
	// created.
	FailedWorkItems int `json:"failedWorkItems"`

	// Idle ages of stale PRs with at least one thread, in days.
	MedianIdleDays float64 `json:"medianIdleDays"`
	MaxIdleDays    float64 `json:"maxIdleDays"`
}

// Summarize computes the summary of res relative to its start time.
func Summarize(res *broom.PassResult) Summary {
	s := Summary{
		Scanned:    res.Scanned,
		Stale:      len(res.Stale),
		Candidates: len(res.Escalation.Candidates),
	}

	for _, esc := range res.Escalation.Actions {
		switch esc.Action {
		case broom.ActionWarn:
			s.Warned++
		case broom.ActionReset:
			s.Reset++
		}
	}
	s.Abandoned = len(res.Abandoned)

	for _, trig := range res.Triggers {
		if trig.WorkItem != nil {
			s.WorkItems++
		} else {
			s.FailedWorkItems++
		}
	}

	var idle stats.Float64Data
	for _, st := range res.Stale {
		if st.LastActivity.IsZero() {
			continue
		}
		idle = append(idle, idleDays(res.StartedAt, st.LastActivity))
	}
	if len(idle) > 0 {
		s.MedianIdleDays, _ = stats.Median(idle)
		s.MaxIdleDays, _ = stats.Max(idle)
	}

	return s
}

func idleDays(now, last time.Time) float64 {
	return now.Sub(last).Hours() / 24
}
