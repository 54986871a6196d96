// Package github pulls markdown learning material out of GitHub
// repositories registered as content sources.
package github

import (
	"context"
	"os"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate limit handling.
type Client struct {
	*github.Client
}

// NewClient creates a GitHub client. Both primary and secondary rate limits
// are waited out automatically. When GITHUB_TOKEN is set the client
// authenticates with it for the higher request quota; unauthenticated
// access works for light use.
func NewClient(ctx context.Context) (*Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	return &Client{Client: ghClient}, nil
}
