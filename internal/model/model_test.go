package model

import "testing"

func TestPullRequestKey(t *testing.T) {
	pr := PullRequest{Repo: Repository{Owner: "acme", Name: "api"}, Number: 12}
	if got := pr.Key(); got != "acme/api#12" {
		t.Errorf("Key() = %q, want %q", got, "acme/api#12")
	}
}

func TestFirstReviewer(t *testing.T) {
	tests := []struct {
		name string
		pr   PullRequest
		want string
	}{
		{"first of several", PullRequest{Author: "alice", Reviewers: []string{"carol", "dave"}}, "carol"},
		{"falls back to author", PullRequest{Author: "alice"}, "alice"},
		{"nobody", PullRequest{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pr.FirstReviewer(); got != tt.want {
				t.Errorf("FirstReviewer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestThreadLatest(t *testing.T) {
	if _, ok := (Thread{}).Latest(); ok {
		t.Error("Latest() on empty thread should report false")
	}

	th := Thread{Comments: []Comment{{ID: 1}, {ID: 2}}}
	c, ok := th.Latest()
	if !ok || c.ID != 2 {
		t.Errorf("Latest() = %+v, %v; want comment 2", c, ok)
	}
}
