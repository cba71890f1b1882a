package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/spiffcs/broombot/internal/broom"
	"github.com/spiffcs/broombot/internal/constants"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct{}

var (
	warnColor    = color.New(color.FgYellow)
	resetColor   = color.New(color.FgCyan)
	abandonColor = color.New(color.FgRed, color.Bold)
	okColor      = color.New(color.FgGreen)
	dimColor     = color.New(color.Faint)
)

// Column widths
const (
	colAction   = 8
	colPR       = 30
	colReviewer = 16
	colIdle     = 6
	colWarnings = 8
)

func colorAction(a broom.Action) string {
	label := string(a)
	switch a {
	case broom.ActionWarn:
		return warnColor.Sprint(label)
	case broom.ActionReset:
		return resetColor.Sprint(label)
	case broom.ActionAbandon:
		return abandonColor.Sprint(label)
	}
	return label
}

// Format outputs the escalations, work items and summary of a pass.
func (f *TableFormatter) Format(res *broom.PassResult, w io.Writer) error {
	if res.Scanned == 0 {
		fmt.Fprintln(w, "No active pull requests found.")
		return nil
	}

	if len(res.Escalation.Actions) == 0 {
		fmt.Fprintln(w, okColor.Sprint("No stale pull requests."))
	} else {
		f.formatEscalations(res, w)
	}

	if len(res.Triggers) > 0 {
		fmt.Fprintln(w)
		f.formatTriggers(res, w)
	}

	fmt.Fprintln(w)
	printSummary(res, w)
	return nil
}

func (f *TableFormatter) formatEscalations(res *broom.PassResult, w io.Writer) {
	fmt.Fprintf(w, "%-*s  %-*s  %-*s  %-*s  %-*s  %s\n",
		colAction, "Action",
		colPR, "Pull Request",
		constants.TitleColumnWidth, "Title",
		colReviewer, "Reviewer",
		colIdle, "Idle",
		"Warnings")
	fmt.Fprintln(w, strings.Repeat("-", colAction+colPR+constants.TitleColumnWidth+colReviewer+colIdle+colWarnings+10))

	for _, esc := range res.Escalation.Actions {
		pr := esc.PR
		key := truncate(pr.Key(), colPR)
		title := truncate(pr.Title, constants.TitleColumnWidth)
		reviewer := truncate(pr.FirstReviewer(), colReviewer)

		// Warnings after this pass.
		warnings := esc.PriorWarnings + 1
		if esc.Action == broom.ActionReset {
			warnings = 1
		}

		fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n",
			padRight(colorAction(esc.Action), colAction),
			padRight(hyperlink(key, pr.HTMLURL), colPR),
			padRight(title, constants.TitleColumnWidth),
			padRight(reviewer, colReviewer),
			padRight(formatIdle(res.StartedAt, esc.LastActivity), colIdle),
			strconv.Itoa(warnings),
		)
	}
}

func (f *TableFormatter) formatTriggers(res *broom.PassResult, w io.Writer) {
	fmt.Fprintln(w, "Work items:")
	for _, trig := range res.Triggers {
		title := truncate(trig.Title, constants.TitleColumnWidth)
		if trig.WorkItem == nil {
			fmt.Fprintf(w, "  %s  %s  %s\n", abandonColor.Sprint("failed"), trig.PR.Key(), title)
			continue
		}
		link := hyperlink(trig.WorkItem.ID, trig.WorkItem.URL)
		fmt.Fprintf(w, "  %s  %s  %s  %s\n", okColor.Sprint("created"), link, trig.PR.Key(), title)
	}
}

func printSummary(res *broom.PassResult, w io.Writer) {
	s := Summarize(res)

	fmt.Fprintf(w, "Scanned %d pull requests, %d stale", s.Scanned, s.Stale)
	if s.Stale > 0 && s.MaxIdleDays > 0 {
		fmt.Fprint(w, dimColor.Sprintf(" (median idle %.1fd, max %.1fd)", s.MedianIdleDays, s.MaxIdleDays))
	}
	fmt.Fprintln(w)

	var parts []string
	if s.Warned > 0 {
		parts = append(parts, warnColor.Sprintf("%d warned", s.Warned))
	}
	if s.Reset > 0 {
		parts = append(parts, resetColor.Sprintf("%d reset", s.Reset))
	}
	if s.Candidates > 0 {
		parts = append(parts, abandonColor.Sprintf("%d abandoned", s.Abandoned))
	}
	if s.WorkItems > 0 {
		parts = append(parts, okColor.Sprintf("%d work items", s.WorkItems))
	}
	if len(parts) > 0 {
		fmt.Fprintln(w, strings.Join(parts, ", "))
	}

	if res.AbandonError != "" {
		fmt.Fprintln(w, abandonColor.Sprint("Abandonment failed: ")+res.AbandonError)
	}
	if s.FailedWorkItems > 0 {
		fmt.Fprintln(w, warnColor.Sprintf("%d work items could not be created", s.FailedWorkItems))
	}
}
