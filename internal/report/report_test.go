package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/broombot/internal/broom"
	"github.com/spiffcs/broombot/internal/model"
)

var start = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func init() {
	color.NoColor = true
	linksEnabled = func() bool { return false }
}

func pr(n int, title string) model.PullRequest {
	return model.PullRequest{
		Repo:      model.Repository{Owner: "acme", Name: "api"},
		Number:    n,
		Title:     title,
		Author:    "alice",
		Reviewers: []string{"carol"},
		HTMLURL:   "https://github.com/acme/api/pull/1",
	}
}

func sampleResult() *broom.PassResult {
	daysAgo := func(d int) time.Time { return start.Add(-time.Duration(d) * 24 * time.Hour) }
	return &broom.PassResult{
		StartedAt: start,
		Scanned:   5,
		Stale: []model.StaleResult{
			{PR: pr(1, "Add cache"), LastActivity: daysAgo(8)},
			{PR: pr(2, "Fix login"), LastActivity: daysAgo(10)},
			{PR: pr(3, "Drop v1 API"), LastActivity: daysAgo(30)},
			{PR: pr(4, "Empty")},
		},
		Escalation: broom.EscalationReport{
			Actions: []broom.Escalation{
				{PR: pr(1, "Add cache"), Action: broom.ActionWarn, LastActivity: daysAgo(8)},
				{PR: pr(2, "Fix login"), Action: broom.ActionReset, PriorWarnings: 2, LastActivity: daysAgo(10)},
				{PR: pr(3, "Drop v1 API"), Action: broom.ActionAbandon, PriorWarnings: 3, LastActivity: daysAgo(30)},
				{PR: pr(4, "Empty"), Action: broom.ActionWarn},
			},
			Candidates: []model.PullRequest{pr(3, "Drop v1 API")},
		},
		Abandoned: []model.PullRequest{pr(3, "Drop v1 API")},
		Triggers: []broom.Trigger{
			{PR: pr(1, "Add cache"), Keyword: "BUG", Title: "BUG: cache misses", WorkItem: &model.WorkItem{ID: "42", URL: "https://dev.azure.com/x/42"}},
			{PR: pr(2, "Fix login"), Keyword: "TODO", Title: "TODO: docs"},
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResult())

	want := Summary{
		Scanned:         5,
		Stale:           4,
		Warned:          2,
		Reset:           1,
		Candidates:      1,
		Abandoned:       1,
		WorkItems:       1,
		FailedWorkItems: 1,
		MedianIdleDays:  10,
		MaxIdleDays:     30,
	}
	if s != want {
		t.Errorf("Summarize() = %+v, want %+v", s, want)
	}
}

func TestSummarizeAbandonFailure(t *testing.T) {
	res := sampleResult()
	res.Abandoned = nil
	res.AbandonError = "abandonment failed: acme/api#3: boom"

	s := Summarize(res)
	if s.Abandoned != 0 {
		t.Errorf("Abandoned = %d, want 0 when abandonment failed", s.Abandoned)
	}
	if s.Candidates != 1 {
		t.Errorf("Candidates = %d, want 1", s.Candidates)
	}
}

func TestSummarizeCountsOnlyAbandonedPRs(t *testing.T) {
	// escalation stopped before abandonment ran
	res := sampleResult()
	res.Abandoned = nil

	s := Summarize(res)
	if s.Abandoned != 0 {
		t.Errorf("Abandoned = %d, want 0 when nothing was abandoned", s.Abandoned)
	}
	if s.Candidates != 1 {
		t.Errorf("Candidates = %d, want 1", s.Candidates)
	}
}

func TestSummarizeNoActivity(t *testing.T) {
	res := &broom.PassResult{StartedAt: start, Scanned: 1, Stale: []model.StaleResult{{PR: pr(1, "x")}}}
	s := Summarize(res)
	if s.MedianIdleDays != 0 || s.MaxIdleDays != 0 {
		t.Errorf("idle stats = %v/%v, want zero without activity", s.MedianIdleDays, s.MaxIdleDays)
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(sampleResult(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Action", "acme/api#1", "Add cache", "carol",
		"8d", "4w", "never",
		"created", "42", "failed", "TODO: docs",
		"Scanned 5 pull requests, 4 stale",
		"2 warned, 1 reset, 1 abandoned, 1 work items",
		"1 work items could not be created",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTableFormatterEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&broom.PassResult{}, &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if got := buf.String(); got != "No active pull requests found.\n" {
		t.Errorf("output = %q", got)
	}
}

func TestTableFormatterAbandonError(t *testing.T) {
	res := sampleResult()
	res.AbandonError = "abandonment failed: acme/api#3: boom"

	var buf bytes.Buffer
	_ = (&TableFormatter{}).Format(res, &buf)
	if !strings.Contains(buf.String(), "Abandonment failed: abandonment failed: acme/api#3: boom") {
		t.Errorf("output missing abandon error:\n%s", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFormatter(FormatJSON).Format(sampleResult(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var out JSONOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Summary.Stale != 4 {
		t.Errorf("summary.stale = %d, want 4", out.Summary.Stale)
	}
	if len(out.Result.Escalation.Actions) != 4 {
		t.Errorf("actions = %d, want 4", len(out.Result.Escalation.Actions))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"日本語のタイトル", 8, "日本..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.width); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.expected)
		}
	}
}

func TestFormatIdle(t *testing.T) {
	tests := []struct {
		ago      time.Duration
		expected string
	}{
		{5 * time.Hour, "5h"},
		{3 * 24 * time.Hour, "3d"},
		{13 * 24 * time.Hour, "13d"},
		{21 * 24 * time.Hour, "3w"},
		{90 * 24 * time.Hour, "3mo"},
	}
	for _, tt := range tests {
		if got := formatIdle(start, start.Add(-tt.ago)); got != tt.expected {
			t.Errorf("formatIdle(%s) = %q, want %q", tt.ago, got, tt.expected)
		}
	}
	if got := formatIdle(start, time.Time{}); got != "never" {
		t.Errorf("formatIdle(zero) = %q, want never", got)
	}
}

func TestHyperlink(t *testing.T) {
	linksEnabled = func() bool { return true }
	defer func() { linksEnabled = func() bool { return false } }()

	got := hyperlink("#1", "https://example.com")
	if got != "\033]8;;https://example.com\033\\#1\033]8;;\033\\" {
		t.Errorf("hyperlink() = %q", got)
	}
	if w := displayWidth(got); w != 2 {
		t.Errorf("displayWidth(hyperlink) = %d, want 2", w)
	}
	if hyperlink("#1", "") != "#1" {
		t.Error("hyperlink with empty URL should return text")
	}
}
