package onboarding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

type fakeTracker struct {
	issues   []Issue
	created  []IssueRequest
	updated  map[int]IssueRequest
	comments map[int][]string
}

func newFakeTracker(issues ...Issue) *fakeTracker {
	return &fakeTracker{issues: issues, updated: map[int]IssueRequest{}, comments: map[int][]string{}}
}

func (f *fakeTracker) ListIssues(context.Context, string) ([]Issue, error) {
	return f.issues, nil
}

func (f *fakeTracker) FindIssue(_ context.Context, _, title string) (*Issue, error) {
	for i := range f.issues {
		if f.issues[i].Title == title {
			return &f.issues[i], nil
		}
	}
	return nil, nil
}

func (f *fakeTracker) CreateIssue(_ context.Context, req IssueRequest) (*Issue, error) {
	f.created = append(f.created, req)
	return &Issue{Number: 100 + len(f.created), Title: req.Title, Body: req.Body, State: StateOpen}, nil
}

func (f *fakeTracker) UpdateIssue(_ context.Context, number int, req IssueRequest) error {
	f.updated[number] = req
	return nil
}

func (f *fakeTracker) AddComment(_ context.Context, number int, body string) error {
	f.comments[number] = append(f.comments[number], body)
	return nil
}

type fakeStore struct {
	applicants []*types.Applicant
	taken      map[string]bool
}

func (s *fakeStore) ListApplicants(_ context.Context, f types.ApplicantFilter) ([]*types.Applicant, error) {
	var out []*types.Applicant
	for _, a := range s.applicants {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *fakeStore) UsernameTaken(_ context.Context, username string) (bool, error) {
	return s.taken[username], nil
}

func newHire() *types.Applicant {
	start := time.Date(2026, 4, 6, 0, 0, 0, 0, time.UTC)
	return &types.Applicant{
		Name:      "Ada Lovelace",
		Email:     "ada@example.com",
		Phone:     "+1 415-555-2671",
		GitHub:    "@ada",
		Location:  "Oakland, CA",
		Status:    status.Onboarding,
		StartDate: &start,
	}
}

func testConfig() Config {
	return Config{Assignee: "hr-bot", Groups: []string{"all", "engineering"}}
}

func TestSync_CreatesIssue(t *testing.T) {
	tracker := newFakeTracker()
	svc := New(tracker, &fakeStore{}, testConfig(), nil)

	require.NoError(t, svc.Sync(context.Background(), newHire()))

	require.Len(t, tracker.created, 1)
	req := tracker.created[0]
	assert.Equal(t, "Onboarding: Ada Lovelace", req.Title)
	assert.Equal(t, []string{"hiring"}, req.Labels)
	assert.Equal(t, "hr-bot", req.Assignee)
	assert.Contains(t, req.Body, "- [ ] Add to users.toml")
	assert.Contains(t, req.Body, "Start Date: Monday, April 6, 2026")
	assert.Contains(t, req.Body, "[users.ada]")
	assert.Contains(t, req.Body, "username = 'ada'")
	assert.Contains(t, req.Body, "recovery_phone = '+14155552671'")
	assert.Contains(t, req.Body, "github = 'ada'")
	assert.Contains(t, req.Body, "    'engineering',\n")
}

func TestSync_TakenUsername(t *testing.T) {
	tracker := newFakeTracker()
	svc := New(tracker, &fakeStore{taken: map[string]bool{"ada": true}}, testConfig(), nil)

	require.NoError(t, svc.Sync(context.Background(), newHire()))

	require.Len(t, tracker.created, 1)
	assert.Contains(t, tracker.created[0].Body, "username = 'ada.lovelace'")
	assert.Contains(t, tracker.created[0].Body, "[users.ada-lovelace]")
}

func TestSync_NoStartDateDoesNothing(t *testing.T) {
	tracker := newFakeTracker()
	a := newHire()
	a.StartDate = nil

	require.NoError(t, New(tracker, &fakeStore{}, testConfig(), nil).Sync(context.Background(), a))
	assert.Empty(t, tracker.created)
}

func TestSync_ReopensClosedIssue(t *testing.T) {
	tracker := newFakeTracker(Issue{Number: 7, Title: "Onboarding: Ada Lovelace", State: StateClosed, Body: "- [x] done"})

	require.NoError(t, New(tracker, &fakeStore{}, testConfig(), nil).Sync(context.Background(), newHire()))

	assert.Empty(t, tracker.created)
	require.Contains(t, tracker.updated, 7)
	assert.Equal(t, StateOpen, tracker.updated[7].State)
}

func TestSync_KeepsTickedIssue(t *testing.T) {
	tracker := newFakeTracker(Issue{Number: 7, Title: "Onboarding: Ada Lovelace", State: StateOpen, Body: "- [x] Add to users.toml"})

	require.NoError(t, New(tracker, &fakeStore{}, testConfig(), nil).Sync(context.Background(), newHire()))

	assert.Empty(t, tracker.updated)
	assert.Empty(t, tracker.created)
}

func TestSync_RewritesUntouchedIssue(t *testing.T) {
	tracker := newFakeTracker(Issue{Number: 7, Title: "Onboarding: Ada Lovelace", State: StateOpen, Body: "- [ ] Add to users.toml"})

	require.NoError(t, New(tracker, &fakeStore{}, testConfig(), nil).Sync(context.Background(), newHire()))

	require.Contains(t, tracker.updated, 7)
	assert.Contains(t, tracker.updated[7].Body, "Start Date:")
}

func TestSync_ClosesIssueWhenNoLongerOnboarding(t *testing.T) {
	tracker := newFakeTracker(Issue{Number: 7, Title: "Onboarding: Ada Lovelace", State: StateOpen})
	a := newHire()
	a.Status = status.Declined
	a.RawStatus = "Declined offer"

	require.NoError(t, New(tracker, &fakeStore{}, testConfig(), nil).Sync(context.Background(), a))

	require.Len(t, tracker.comments[7], 1)
	assert.Contains(t, tracker.comments[7][0], "`Declined`")
	assert.Contains(t, tracker.comments[7][0], "> Declined offer")
	assert.Equal(t, StateClosed, tracker.updated[7].State)
}

func TestSyncAll_SkipsUnrelatedApplicants(t *testing.T) {
	tracker := newFakeTracker(Issue{Number: 7, Title: "Onboarding: Alan Turing", State: StateOpen})
	alan := &types.Applicant{Name: "Alan Turing", Email: "alan@example.com", Status: status.Hired}
	triage := &types.Applicant{Name: "Grace Hopper", Email: "grace@example.com", Status: status.NeedsToBeTriaged}
	store := &fakeStore{applicants: []*types.Applicant{newHire(), alan, triage}}

	require.NoError(t, New(tracker, store, testConfig(), nil).SyncAll(context.Background()))

	require.Len(t, tracker.created, 1)
	assert.Equal(t, "Onboarding: Ada Lovelace", tracker.created[0].Title)
	assert.Equal(t, StateClosed, tracker.updated[7].State)
	assert.Len(t, tracker.comments, 1)
}

func TestGitHubTracker_ListAndCreate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/configs/issues", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		assert.Equal(t, "hiring", r.URL.Query().Get("labels"))
		_, _ = w.Write([]byte(`[
			{"number": 1, "title": "Onboarding: Ada Lovelace", "state": "open", "body": "- [ ] a"},
			{"number": 2, "title": "A pull request", "state": "open", "pull_request": {"url": "x"}}
		]`))
	})
	mux.HandleFunc("POST /repos/acme/configs/issues", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Onboarding: Alan Turing", req["title"])
		assert.Equal(t, []any{"hiring"}, req["labels"])
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"number": 3, "title": "Onboarding: Alan Turing", "state": "open"}`))
	})
	mux.HandleFunc("POST /repos/acme/configs/issues/1/comments", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tracker := NewGitHubTracker(nil, "token", "acme", "configs")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	tracker.client.BaseURL = base

	ctx := context.Background()
	issues, err := tracker.ListIssues(ctx, "hiring")
	require.NoError(t, err)
	assert.Equal(t, []Issue{{Number: 1, Title: "Onboarding: Ada Lovelace", Body: "- [ ] a", State: "open"}}, issues)

	found, err := tracker.FindIssue(ctx, "hiring", "Onboarding: Ada Lovelace")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 1, found.Number)

	created, err := tracker.CreateIssue(ctx, IssueRequest{Title: "Onboarding: Alan Turing", Labels: []string{"hiring"}})
	require.NoError(t, err)
	assert.Equal(t, 3, created.Number)

	require.NoError(t, tracker.AddComment(ctx, 1, "closing"))
}

func TestToGitHub_OmitsEmptyFields(t *testing.T) {
	req := toGitHub(IssueRequest{State: StateClosed})
	assert.Nil(t, req.Title)
	assert.Nil(t, req.Body)
	assert.Equal(t, github.Ptr(StateClosed), req.State)
}
