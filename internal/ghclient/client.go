// Package ghclient implements the bot's hosting service on GitHub.
package ghclient

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	gh "github.com/google/go-github/v57/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/spiffcs/broombot/internal/constants"
	"github.com/spiffcs/broombot/internal/log"
)

// Options selects the repositories a Client sweeps.
type Options struct {
	// Owner is the user or organization that owns the repositories.
	Owner string
	// Repos restricts the sweep to these repository names. When empty all
	// non-archived repositories of the organization are swept.
	Repos []string
	// Exclude reports whether an owner/name repository should be skipped.
	Exclude func(fullName string) bool
}

// Client wraps the GitHub REST and GraphQL clients
type Client struct {
	rest *gh.Client
	gql  *githubv4.Client
	opts Options
}

// ResolveToken returns token if set, then GITHUB_TOKEN, then the token the
// gh CLI has stored for github.com.
func ResolveToken(token string) (string, error) {
	if token != "" {
		return token, nil
	}
	if token = os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	if token, source := auth.TokenForHost("github.com"); token != "" {
		log.Debug("using gh CLI token", "source", source)
		return token, nil
	}
	return "", fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable or run 'gh auth login'")
}

// NewClient creates a GitHub client authenticated with token.
func NewClient(ctx context.Context, token string, opts Options) (*Client, error) {
	token, err := ResolveToken(token)
	if err != nil {
		return nil, err
	}

	waiter, err := github_ratelimit.NewRateLimitWaiter(nil,
		github_ratelimit.WithSingleSleepLimit(constants.SecondaryRateLimitMaxSleep, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	// oauth2 builds its transport on top of the client stored in ctx.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: waiter})
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Transport = &rateLimitTransport{
		base:  httpClient.Transport,
		state: globalRateLimitState,
	}

	return newClient(gh.NewClient(httpClient), githubv4.NewClient(httpClient), opts), nil
}

func newClient(rest *gh.Client, gql *githubv4.Client, opts Options) *Client {
	if opts.Exclude == nil {
		opts.Exclude = func(string) bool { return false }
	}
	return &Client{rest: rest, gql: gql, opts: opts}
}

// AuthenticatedUser returns the authenticated user's login
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.rest.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	return user.GetLogin(), nil
}

// RateLimits fetches the current GitHub API rate limit status.
func (c *Client) RateLimits(ctx context.Context) (*gh.RateLimits, error) {
	limits, _, err := c.rest.RateLimit.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limits: %w", err)
	}
	return limits, nil
}

// REST returns the underlying go-github client.
func (c *Client) REST() *gh.Client {
	return c.rest
}
