// Package duration provides parsing for human-readable duration strings.
package duration

import (
	"fmt"
	"strings"
	"time"
)

const day = 24 * time.Hour

// Parse parses human-readable durations like "36h", "7d", "2w", "1mo".
// Plain Go durations such as "90m" or "1h30m" are accepted as well.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("duration must be positive: %s", s)
		}
		return d, nil
	}

	var n int
	var unit string
	if _, err := fmt.Sscanf(s, "%d%s", &n, &unit); err != nil {
		return 0, fmt.Errorf("invalid duration format: %s (use e.g., 12h, 7d, 2w, 1mo)", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("duration must be positive: %s", s)
	}

	switch unit {
	case "d", "day", "days":
		return time.Duration(n) * day, nil
	case "w", "wk", "wks", "week", "weeks":
		return time.Duration(n) * 7 * day, nil
	case "mo", "month", "months":
		return time.Duration(n) * 30 * day, nil
	case "y", "yr", "yrs", "year", "years":
		return time.Duration(n) * 365 * day, nil
	default:
		return 0, fmt.Errorf("unknown duration unit: %s", unit)
	}
}

// Format renders d using the largest whole day-based unit, falling back to
// time.Duration's own formatting.
func Format(d time.Duration) string {
	switch {
	case d >= 7*day && d%(7*day) == 0:
		return fmt.Sprintf("%dw", d/(7*day))
	case d >= day && d%day == 0:
		return fmt.Sprintf("%dd", d/day)
	default:
		return d.String()
	}
}
