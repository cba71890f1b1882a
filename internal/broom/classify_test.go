package broom

import (
	"context"
	"testing"
	"time"

	"github.com/spiffcs/broombot/internal/model"
)

func TestClassify(t *testing.T) {
	cutoff := testNow.Add(-7 * 24 * time.Hour)
	isBot := testPolicy().IsBot

	tests := []struct {
		name      string
		threads   []model.Thread
		wantStale bool
		wantBot   bool
	}{
		{
			name:      "no threads is stale and not bot",
			threads:   nil,
			wantStale: true,
			wantBot:   false,
		},
		{
			name: "latest thread at cutoff is active",
			threads: []model.Thread{
				makeThread("1", cutoff, comment("alice", "lgtm")),
			},
			wantStale: false,
		},
		{
			name: "latest thread after cutoff is active",
			threads: []model.Thread{
				makeThread("1", cutoff.Add(-48*time.Hour), comment("alice", "old")),
				makeThread("2", cutoff.Add(time.Hour), comment("bob", "new")),
			},
			wantStale: false,
		},
		{
			name: "old human comment is stale and not bot",
			threads: []model.Thread{
				makeThread("1", cutoff.Add(-time.Minute), comment("alice", "ping")),
			},
			wantStale: true,
			wantBot:   false,
		},
		{
			name: "old bot comment is stale and bot",
			threads: []model.Thread{
				makeThread("1", cutoff.Add(-72*time.Hour), comment("alice", "ping")),
				makeThread("2", cutoff.Add(-time.Hour), comment("alice", "hi"), comment(testBot, "stale")),
			},
			wantStale: true,
			wantBot:   true,
		},
		{
			name: "flag follows latest thread not latest comment overall",
			threads: []model.Thread{
				makeThread("1", cutoff.Add(-time.Hour), comment(testBot, "stale")),
				makeThread("2", cutoff.Add(-72*time.Hour), comment("alice", "older")),
			},
			wantStale: true,
			wantBot:   true,
		},
		{
			name: "latest thread without comments is not bot",
			threads: []model.Thread{
				makeThread("1", cutoff.Add(-time.Hour)),
			},
			wantStale: true,
			wantBot:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := makePR(1)
			got := Classify([]model.PullRequest{pr}, map[string][]model.Thread{pr.Key(): tt.threads}, cutoff, isBot)

			if !tt.wantStale {
				if len(got) != 0 {
					t.Fatalf("Classify() returned %d stale PRs, want 0", len(got))
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("Classify() returned %d stale PRs, want 1", len(got))
			}
			if got[0].LastCommentByBot != tt.wantBot {
				t.Errorf("LastCommentByBot = %v, want %v", got[0].LastCommentByBot, tt.wantBot)
			}
		})
	}
}

func TestClassifyKeepsOrderAndDropsActive(t *testing.T) {
	cutoff := testNow.Add(-7 * 24 * time.Hour)
	prs := []model.PullRequest{makePR(1), makePR(2), makePR(3)}
	threads := map[string][]model.Thread{
		prs[1].Key(): {makeThread("a", cutoff.Add(time.Hour), comment("alice", "fresh"))},
		prs[2].Key(): {makeThread("b", cutoff.Add(-time.Hour), comment("alice", "old"))},
	}

	got := Classify(prs, threads, cutoff, testPolicy().IsBot)
	if len(got) != 2 {
		t.Fatalf("Classify() returned %d stale PRs, want 2", len(got))
	}
	if got[0].PR.Number != 1 || got[1].PR.Number != 3 {
		t.Errorf("Classify() numbers = %d,%d, want 1,3", got[0].PR.Number, got[1].PR.Number)
	}
	if !got[0].LastActivity.IsZero() {
		t.Errorf("PR without threads should have zero LastActivity, got %v", got[0].LastActivity)
	}
	if !got[1].LastActivity.Equal(cutoff.Add(-time.Hour)) {
		t.Errorf("LastActivity = %v, want %v", got[1].LastActivity, cutoff.Add(-time.Hour))
	}
}

func TestLatestThreadTieKeepsFirst(t *testing.T) {
	ts := []model.Thread{
		makeThread("first", testNow),
		makeThread("second", testNow),
	}
	got, ok := latestThread(ts)
	if !ok {
		t.Fatal("latestThread() returned !ok")
	}
	if got.ID != "first" {
		t.Errorf("latestThread() = %q, want %q", got.ID, "first")
	}
}

func TestFindStaleUsesCutoff(t *testing.T) {
	pr := makePR(7)
	host := newFakeHost(pr)
	host.threads[pr.Key()] = []model.Thread{
		makeThread("1", testNow.Add(-8*24*time.Hour), comment(testBot, "stale")),
	}

	e := NewEngine(host, nil, testPolicy(), WithClock(func() time.Time { return testNow }))
	got, err := e.FindStale(context.Background(), host.prs)
	if err != nil {
		t.Fatalf("FindStale() error = %v", err)
	}
	if len(got) != 1 || !got[0].LastCommentByBot {
		t.Fatalf("FindStale() = %+v, want one bot-flagged result", got)
	}
}
