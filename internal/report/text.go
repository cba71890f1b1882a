package report

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// ansiRegex matches SGR color codes and OSC 8 hyperlink sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m|\x1b\]8;;[^\x1b]*\x1b\\`)

// linksEnabled reports whether stdout renders OSC 8 hyperlinks.
var linksEnabled = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// hyperlink wraps text in an OSC 8 link when stdout is a terminal.
func hyperlink(text, url string) string {
	if url == "" || !linksEnabled() {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

func stripAnsi(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// displayWidth returns the visible width of s in terminal columns.
func displayWidth(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

// truncate shortens plain text to maxWidth columns, ending in "...".
func truncate(s string, maxWidth int) string {
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// padRight pads s with spaces to width visible columns.
func padRight(s string, width int) string {
	if w := displayWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}

// formatIdle renders an idle duration compactly: "5h", "3d", "2w", "3mo".
// A zero last activity means the PR never had a thread.
func formatIdle(now, last time.Time) string {
	if last.IsZero() {
		return "never"
	}
	d := now.Sub(last)
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	switch {
	case days < 14:
		return fmt.Sprintf("%dd", days)
	case days < 60:
		return fmt.Sprintf("%dw", days/7)
	default:
		return fmt.Sprintf("%dmo", days/30)
	}
}
