package onboarding

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v68/github"
)

// GitHubTracker files issues in one GitHub repository.
type GitHubTracker struct {
	client *github.Client
	owner  string
	repo   string
}

var _ Tracker = (*GitHubTracker)(nil)

// NewGitHubTracker creates a tracker authenticated with a token. A nil
// httpClient uses the default client.
func NewGitHubTracker(httpClient *http.Client, token, owner, repo string) *GitHubTracker {
	client := github.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubTracker{client: client, owner: owner, repo: repo}
}

// ListIssues returns the open and closed issues carrying label.
func (t *GitHubTracker) ListIssues(ctx context.Context, label string) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	if label != "" {
		opts.Labels = []string{label}
	}

	var out []Issue
	for {
		issues, resp, err := t.client.Issues.ListByRepo(ctx, t.owner, t.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues of %s/%s: %w", t.owner, t.repo, err)
		}
		for _, i := range issues {
			if i.IsPullRequest() {
				continue
			}
			out = append(out, fromGitHub(i))
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opts.Page = resp.NextPage
	}
}

// FindIssue returns the issue titled title, or nil.
func (t *GitHubTracker) FindIssue(ctx context.Context, label, title string) (*Issue, error) {
	issues, err := t.ListIssues(ctx, label)
	if err != nil {
		return nil, err
	}
	for i := range issues {
		if issues[i].Title == title {
			return &issues[i], nil
		}
	}
	return nil, nil
}

// CreateIssue opens a new issue.
func (t *GitHubTracker) CreateIssue(ctx context.Context, req IssueRequest) (*Issue, error) {
	issue, _, err := t.client.Issues.Create(ctx, t.owner, t.repo, toGitHub(req))
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	created := fromGitHub(issue)
	return &created, nil
}

// UpdateIssue edits an issue.
func (t *GitHubTracker) UpdateIssue(ctx context.Context, number int, req IssueRequest) error {
	if _, _, err := t.client.Issues.Edit(ctx, t.owner, t.repo, number, toGitHub(req)); err != nil {
		return fmt.Errorf("failed to edit issue #%d: %w", number, err)
	}
	return nil
}

// AddComment comments on an issue.
func (t *GitHubTracker) AddComment(ctx context.Context, number int, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}
	if _, _, err := t.client.Issues.CreateComment(ctx, t.owner, t.repo, number, comment); err != nil {
		return fmt.Errorf("failed to comment on issue #%d: %w", number, err)
	}
	return nil
}

func toGitHub(req IssueRequest) *github.IssueRequest {
	out := &github.IssueRequest{}
	if req.Title != "" {
		out.Title = github.Ptr(req.Title)
	}
	if req.Body != "" {
		out.Body = github.Ptr(req.Body)
	}
	if req.State != "" {
		out.State = github.Ptr(req.State)
	}
	if len(req.Labels) > 0 {
		labels := append([]string(nil), req.Labels...)
		out.Labels = &labels
	}
	if req.Assignee != "" {
		out.Assignee = github.Ptr(req.Assignee)
	}
	return out
}

func fromGitHub(i *github.Issue) Issue {
	return Issue{
		Number: i.GetNumber(),
		Title:  i.GetTitle(),
		Body:   i.GetBody(),
		State:  i.GetState(),
	}
}
