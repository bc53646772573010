// Package provider wraps the GitHub REST API behind the narrow contract the
// rest of the server needs: list repositories for a user, fetch one
// repository's metadata, and search public repositories.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"dirhub.app/server/core/config"
)

// RepoSummary is the provider-side view of a repository, keyed by the
// stable id GitHub assigns (the workspace external reference).
type RepoSummary struct {
	ExternalRef string  `json:"external_ref"`
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Owner       string  `json:"owner"`
	Description *string `json:"description,omitempty"`
	URL         *string `json:"url,omitempty"`
	Language    *string `json:"language,omitempty"`
	Stars       int     `json:"stars"`
	Private     bool    `json:"private"`
}

// SearchQuery narrows a public-repository search. Text and Tag are both
// optional; pages are 1-based.
type SearchQuery struct {
	Text    string
	Tag     string
	Page    int32
	PerPage int32
}

type SearchResult struct {
	Total   int
	Repos   []RepoSummary
	HasNext bool
}

// Client is what the core depends on: a callback surface that returns data
// or fails. Callers own retries beyond the single rate-limit retry below.
type Client interface {
	ListOwnRepos(ctx context.Context) ([]RepoSummary, error)
	GetRepo(ctx context.Context, owner, name string) (*RepoSummary, error)
	// SearchPublicRepos queries GitHub's repository search, restricted to
	// public repositories with a minimum star count.
	SearchPublicRepos(ctx context.Context, query SearchQuery) (*SearchResult, error)
}

type githubClient struct {
	gh     *github.Client
	logger *slog.Logger
}

func NewClient(cfg config.GitHubConfig, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := oauth2.NewClient(context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))

	gh := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configuring github base url: %w", err)
		}
	}

	return &githubClient{gh: gh, logger: logger}, nil
}

func (c *githubClient) ListOwnRepos(ctx context.Context) ([]RepoSummary, error) {
	var repos []*github.Repository
	err := c.withRateLimitRetry(ctx, func(ctx context.Context) error {
		var err error
		repos, _, err = c.gh.Repositories.ListByAuthenticatedUser(ctx,
			&github.RepositoryListByAuthenticatedUserOptions{
				Sort:        "updated",
				ListOptions: github.ListOptions{PerPage: 100},
			})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	summaries := make([]RepoSummary, 0, len(repos))
	for _, r := range repos {
		summaries = append(summaries, toSummary(r))
	}
	return summaries, nil
}

func (c *githubClient) GetRepo(ctx context.Context, owner, name string) (*RepoSummary, error) {
	var repo *github.Repository
	err := c.withRateLimitRetry(ctx, func(ctx context.Context) error {
		var err error
		repo, _, err = c.gh.Repositories.Get(ctx, owner, name)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching repository %s/%s: %w", owner, name, err)
	}

	summary := toSummary(repo)
	return &summary, nil
}

func (c *githubClient) SearchPublicRepos(ctx context.Context, query SearchQuery) (*SearchResult, error) {
	terms := []string{"is:public", "stars:>50"}
	if query.Text != "" {
		terms = append(terms, query.Text)
	}
	if query.Tag != "" {
		terms = append(terms, "topic:"+query.Tag)
	}

	var (
		result *github.RepositoriesSearchResult
		resp   *github.Response
	)
	err := c.withRateLimitRetry(ctx, func(ctx context.Context) error {
		var err error
		result, resp, err = c.gh.Search.Repositories(ctx, strings.Join(terms, " "),
			&github.SearchOptions{
				Sort: "updated",
				ListOptions: github.ListOptions{
					Page:    int(query.Page),
					PerPage: int(query.PerPage),
				},
			})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("searching repositories: %w", err)
	}

	repos := make([]RepoSummary, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, toSummary(r))
	}
	return &SearchResult{
		Total:   result.GetTotal(),
		Repos:   repos,
		HasNext: resp.NextPage != 0,
	}, nil
}

// withRateLimitRetry runs fn, retrying exactly once after the delay GitHub
// specifies for rate-limit responses. Any further failure surfaces to the
// caller, who owns subsequent retries.
func (c *githubClient) withRateLimitRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	delay, ok := rateLimitDelay(err)
	if !ok {
		return err
	}

	c.logger.WarnContext(ctx, "github rate limited, retrying once", "delay", delay)
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn(ctx)
}

func rateLimitDelay(err error) (time.Duration, bool) {
	switch e := err.(type) {
	case *github.RateLimitError:
		return time.Until(e.Rate.Reset.Time), true
	case *github.AbuseRateLimitError:
		if e.RetryAfter != nil {
			return *e.RetryAfter, true
		}
		return time.Second, true
	}
	return 0, false
}

func toSummary(r *github.Repository) RepoSummary {
	summary := RepoSummary{
		ExternalRef: strconv.FormatInt(r.GetID(), 10),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Stars:       r.GetStargazersCount(),
		Private:     r.GetPrivate(),
	}
	if owner := r.GetOwner(); owner != nil {
		summary.Owner = owner.GetLogin()
	}
	if r.Description != nil {
		summary.Description = r.Description
	}
	if r.HTMLURL != nil {
		summary.URL = r.HTMLURL
	}
	if r.Language != nil {
		summary.Language = r.Language
	}
	return summary
}
