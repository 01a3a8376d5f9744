package envelope

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-agent/internal/apperr"
	"github.com/jonathan/hiring-agent/internal/status"
	"github.com/jonathan/hiring-agent/internal/types"
)

type fakeProvider struct {
	mu        sync.Mutex
	creates   []Request
	envelopes map[string]*Envelope
	forms     map[string][]FormField
	templates []Template
	nextID    int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		envelopes: make(map[string]*Envelope),
		forms:     make(map[string][]FormField),
		templates: []Template{
			{ID: "tpl-offer", Name: "Offer Letter"},
			{ID: "tpl-agreements", Name: "Employee Agreements"},
		},
	}
}

func (p *fakeProvider) CreateEnvelope(_ context.Context, req Request) (*Envelope, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.creates = append(p.creates, req)
	p.nextID++
	created := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	env := &Envelope{ID: fmt.Sprintf("env-%d", p.nextID), Status: req.Status, CreatedAt: &created}
	p.envelopes[env.ID] = env
	return env, nil
}

func (p *fakeProvider) GetEnvelope(_ context.Context, id string) (*Envelope, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	env, ok := p.envelopes[id]
	if !ok {
		return nil, &apperr.NotFoundError{Kind: "envelope", Key: id}
	}
	c := *env
	return &c, nil
}

func (p *fakeProvider) GetDocument(_ context.Context, _, documentID string) ([]byte, error) {
	return []byte("%PDF " + documentID), nil
}

func (p *fakeProvider) GetFormData(_ context.Context, envelopeID string) ([]FormField, error) {
	return p.forms[envelopeID], nil
}

func (p *fakeProvider) ListTemplates(context.Context) ([]Template, error) {
	return p.templates, nil
}

func (p *fakeProvider) complete(id string, docs ...Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	done := time.Date(2026, 3, 4, 18, 0, 0, 0, time.UTC)
	env := p.envelopes[id]
	env.Status = types.EnvelopeStatusCompleted
	env.CompletedAt = &done
	env.Documents = docs
}

type fakeFiler struct {
	folders  []string
	uploaded []string
	failOn   string
}

func (f *fakeFiler) EnsureFolder(_ context.Context, driveName, folderName string) (string, error) {
	f.folders = append(f.folders, driveName+"/"+folderName)
	return "folder-" + folderName, nil
}

func (f *fakeFiler) Upload(_ context.Context, _, name, mimeType string, data []byte) error {
	if f.failOn != "" && strings.Contains(name, f.failOn) {
		return errors.New("drive unavailable")
	}
	if mimeType != pdfMime || len(data) == 0 {
		return errors.New("bad upload")
	}
	f.uploaded = append(f.uploaded, name)
	return nil
}

type fakeStore struct {
	applicants map[string]*types.Applicant
	employee   *types.Employee
	upserts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{applicants: make(map[string]*types.Applicant)}
}

func (s *fakeStore) GetApplicant(_ context.Context, email, sheetID string) (*types.Applicant, error) {
	a := &types.Applicant{Email: email, SheetID: sheetID}
	return s.applicants[a.Key()].Clone(), nil
}

func (s *fakeStore) UpsertApplicant(_ context.Context, a *types.Applicant) error {
	s.upserts++
	s.applicants[a.Key()] = a.Clone()
	return nil
}

func (s *fakeStore) GetEmployeeByRecoveryEmail(_ context.Context, email string) (*types.Employee, error) {
	if s.employee == nil || s.employee.RecoveryEmail != email {
		return nil, nil
	}
	return s.employee, nil
}

func (s *fakeStore) UpdateEmployee(_ context.Context, e *types.Employee) error {
	s.employee = e
	return nil
}

type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) StatusChanged(_ context.Context, a *types.Applicant) error {
	n.events = append(n.events, "status:"+a.Status.String())
	return nil
}

func (n *recordingNotifier) OfferStatusChanged(_ context.Context, a *types.Applicant) error {
	n.events = append(n.events, "offer:"+a.Offer.Status)
	return nil
}

func (n *recordingNotifier) AgreementsStatusChanged(_ context.Context, a *types.Applicant) error {
	n.events = append(n.events, "agreements:"+a.Agreements.Status)
	return nil
}

func (n *recordingNotifier) StartDateChanged(context.Context, *types.Applicant) error {
	n.events = append(n.events, "start_date")
	return nil
}

type fakeChecker struct {
	requested []string
	failures  int
}

func (c *fakeChecker) Request(_ context.Context, a *types.Applicant) error {
	if c.failures > 0 {
		c.failures--
		return errors.New("checkr 503")
	}
	c.requested = append(c.requested, a.Email)
	a.CriminalBackgroundCheckStatus = "invitation_sent"
	return nil
}

type harness struct {
	provider *fakeProvider
	filer    *fakeFiler
	store    *fakeStore
	notifier *recordingNotifier
	checks   *fakeChecker
	orch     *Orchestrator
}

func newHarness() *harness {
	h := &harness{
		provider: newFakeProvider(),
		filer:    &fakeFiler{},
		store:    newFakeStore(),
		notifier: &recordingNotifier{},
		checks:   &fakeChecker{},
	}
	h.orch = NewOrchestrator(Deps{
		Provider: h.provider,
		Filer:    h.filer,
		Store:    h.store,
		Notifier: h.notifier,
		Checks:   h.checks,
	}, testConfig(), nil)
	return h
}

func testConfig() Config {
	return Config{
		Company:            "Acme",
		Officer:            Signer{Name: "Grace Hopper", Email: "ceo@example.com"},
		HR:                 Signer{Name: "People Ops", Email: "hr@example.com"},
		OfferTemplate:      "Offer Letter",
		AgreementsTemplate: "Employee Agreements",
		DriveName:          "Hiring",
	}
}

func givingOffer() *types.Applicant {
	return &types.Applicant{
		Name:    "Ada Lovelace",
		Email:   "ada@example.com",
		SheetID: "sheet-1",
		Status:  status.GivingOffer,
	}
}

func TestSync_CreatesOfferEnvelopeOnce(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := givingOffer()
	require.NoError(t, h.store.UpsertApplicant(ctx, a))

	require.NoError(t, h.orch.Sync(ctx, a, KindOffer))

	require.Len(t, h.provider.creates, 1)
	req := h.provider.creates[0]
	assert.Equal(t, "tpl-offer", req.TemplateID)
	assert.Equal(t, "Acme Offer Letter", req.EmailSubject)
	assert.Equal(t, types.EnvelopeStatusSent, req.Status)
	assert.Equal(t, "env-1", a.Offer.ID)
	assert.Equal(t, types.EnvelopeStatusSent, a.Offer.Status)
	assert.Equal(t, []string{"offer:sent"}, h.notifier.events)

	stored, err := h.store.GetApplicant(ctx, a.Email, a.SheetID)
	require.NoError(t, err)
	assert.Equal(t, "env-1", stored.Offer.ID)

	// A second pass over the same applicant polls instead of sending again.
	require.NoError(t, h.orch.Sync(ctx, a, KindOffer))
	assert.Len(t, h.provider.creates, 1)
	assert.Len(t, h.notifier.events, 1)
}

func TestSync_StaleApplicantDoesNotResend(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := givingOffer()

	sent := a.Clone()
	sent.Offer = types.Envelope{ID: "env-other", Status: types.EnvelopeStatusSent}
	require.NoError(t, h.store.UpsertApplicant(ctx, sent))

	require.NoError(t, h.orch.Sync(ctx, a, KindOffer))

	assert.Empty(t, h.provider.creates)
	assert.Equal(t, "env-other", a.Offer.ID)
}

func TestSync_IgnoresApplicantsBeforeOffer(t *testing.T) {
	h := newHarness()
	a := givingOffer()
	a.Status = status.Interviewing

	require.NoError(t, h.orch.Sync(context.Background(), a, KindOffer))
	assert.Empty(t, h.provider.creates)
}

func TestSync_OnboardingWithoutEnvelopeIsLeftAlone(t *testing.T) {
	h := newHarness()
	a := givingOffer()
	a.Status = status.Onboarding

	require.NoError(t, h.orch.Sync(context.Background(), a, KindAgreements))
	assert.Empty(t, h.provider.creates)
}

func TestSync_MissingTemplateIsConfigurationError(t *testing.T) {
	h := newHarness()
	h.provider.templates = nil
	a := givingOffer()

	err := h.orch.Sync(context.Background(), a, KindOffer)

	var cfgErr *apperr.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, h.provider.creates)
	assert.Empty(t, a.Offer.ID)
}

func TestSync_CompletedOfferFilesDocumentsAndOnboards(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := givingOffer()
	require.NoError(t, h.store.UpsertApplicant(ctx, a))
	require.NoError(t, h.orch.Sync(ctx, a, KindOffer))

	h.provider.complete(a.Offer.ID,
		Document{ID: "1", Name: "Offer Letter - Acme"},
		Document{ID: "certificate", Name: "Summary"},
	)
	h.provider.forms[a.Offer.ID] = []FormField{
		{Name: FieldStreet, Value: "12 Analytical Way"},
		{Name: FieldCity, Value: "Oakland"},
		{Name: FieldState, Value: "California"},
		{Name: FieldPostalCode, Value: "94607"},
		{Name: FieldCountry, Value: "USA"},
		{Name: FieldStartDate, Value: "04/01/2026"},
	}
	h.store.employee = &types.Employee{Username: "ada", RecoveryEmail: a.Email}

	require.NoError(t, h.orch.Sync(ctx, a, KindOffer))

	assert.Equal(t, status.Onboarding, a.Status)
	assert.True(t, a.Offer.Completed())
	require.NotNil(t, a.Offer.CompletedAt)
	assert.Equal(t, []string{"Hiring/Ada Lovelace"}, h.filer.folders)
	assert.Equal(t, []string{
		"Ada Lovelace - Offer.pdf",
		"Ada Lovelace - Offer - DocuSign Summary.pdf",
	}, h.filer.uploaded)
	assert.Equal(t, []string{a.Email}, h.checks.requested)

	require.NotNil(t, a.StartDate)
	assert.Equal(t, "2026-04-01", a.StartDate.Format("2006-01-02"))
	assert.Equal(t, "CA", h.store.employee.State)
	assert.Equal(t, "12 Analytical Way", h.store.employee.Street)
	require.NotNil(t, h.store.employee.StartDate)

	stored, err := h.store.GetApplicant(ctx, a.Email, a.SheetID)
	require.NoError(t, err)
	assert.Equal(t, status.Onboarding, stored.Status)
	assert.True(t, stored.Offer.Completed())

	assert.Equal(t, []string{
		"offer:sent",
		"status:Onboarding",
		"start_date",
		"offer:completed",
	}, h.notifier.events)

	// Polling the completed envelope again changes nothing.
	require.NoError(t, h.orch.Sync(ctx, a, KindOffer))
	assert.Len(t, h.filer.uploaded, 2)
	assert.Len(t, h.checks.requested, 1)
	assert.Len(t, h.notifier.events, 4)
	assert.Equal(t, status.Onboarding, a.Status)
}

func TestSync_AgreementsUseTheirOwnNames(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := givingOffer()
	require.NoError(t, h.orch.Sync(ctx, a, KindAgreements))
	require.Len(t, h.provider.creates, 1)
	assert.Equal(t, "tpl-agreements", h.provider.creates[0].TemplateID)

	h.provider.complete(a.Agreements.ID,
		Document{ID: "1", Name: "Employee_Proprietary_Information", PDF: []byte("%PDF")},
		Document{ID: "2", Name: "Employee Mediation Agreement"},
		Document{ID: "certificate", Name: "Summary"},
	)

	require.NoError(t, h.orch.Sync(ctx, a, KindAgreements))

	assert.Equal(t, []string{
		"Ada Lovelace - PIIA.pdf",
		"Ada Lovelace - Mediation Agreement.pdf",
		"Ada Lovelace - Employee Agreements - DocuSign Summary.pdf",
	}, h.filer.uploaded)
	// Only the offer moves the applicant to onboarding.
	assert.Equal(t, status.GivingOffer, a.Status)
	assert.Empty(t, h.checks.requested)
}

func TestSync_FailedFilingIsRetriedNextPass(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := givingOffer()
	require.NoError(t, h.orch.Sync(ctx, a, KindAgreements))

	h.provider.complete(a.Agreements.ID,
		Document{ID: "1", Name: "Employee Proprietary Information"},
		Document{ID: "2", Name: "Employee Mediation Agreement"},
	)
	h.filer.failOn = "PIIA"

	err := h.orch.Sync(ctx, a, KindAgreements)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PIIA")
	// The other document is still filed.
	assert.Equal(t, []string{"Ada Lovelace - Mediation Agreement.pdf"}, h.filer.uploaded)
	assert.Equal(t, types.EnvelopeStatusSent, a.Agreements.Status)
	assert.Nil(t, a.Agreements.CompletedAt)

	h.filer.failOn = ""
	require.NoError(t, h.orch.Sync(ctx, a, KindAgreements))
	assert.True(t, a.Agreements.Completed())
	assert.Contains(t, h.filer.uploaded, "Ada Lovelace - PIIA.pdf")
}

func TestSync_FailedBackgroundCheckStillCompletesOffer(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := givingOffer()
	require.NoError(t, h.store.UpsertApplicant(ctx, a))
	require.NoError(t, h.orch.Sync(ctx, a, KindOffer))

	h.provider.complete(a.Offer.ID, Document{ID: "1", Name: "Offer Letter"})
	h.provider.forms[a.Offer.ID] = []FormField{{Name: FieldStartDate, Value: "04/01/2026"}}
	h.checks.failures = 1

	err := h.orch.Sync(ctx, a, KindOffer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "background check")
	// Documents and the start date do not wait on the background check.
	assert.Equal(t, []string{"Ada Lovelace - Offer.pdf"}, h.filer.uploaded)
	require.NotNil(t, a.StartDate)

	stored, err := h.store.GetApplicant(ctx, a.Email, a.SheetID)
	require.NoError(t, err)
	assert.Equal(t, status.Onboarding, stored.Status)
	assert.False(t, stored.Offer.Completed())
	assert.Nil(t, stored.Offer.CompletedAt)
	require.NotNil(t, stored.StartDate)

	// The next pass starts from what was stored and requests the check again.
	require.NoError(t, h.orch.Sync(ctx, stored, KindOffer))
	assert.Equal(t, []string{a.Email}, h.checks.requested)
	assert.True(t, stored.Offer.Completed())
	assert.Equal(t, "invitation_sent", stored.CriminalBackgroundCheckStatus)

	stored, err = h.store.GetApplicant(ctx, a.Email, a.SheetID)
	require.NoError(t, err)
	assert.True(t, stored.Offer.Completed())
	assert.Equal(t, []string{
		"offer:sent",
		"status:Onboarding",
		"start_date",
		"offer:completed",
	}, h.notifier.events)
}

func TestSync_OnboardingSavedBeforeCompletionWork(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := givingOffer()
	require.NoError(t, h.store.UpsertApplicant(ctx, a))
	require.NoError(t, h.orch.Sync(ctx, a, KindOffer))
	h.provider.complete(a.Offer.ID)
	h.provider.forms[a.Offer.ID] = []FormField{{Name: FieldStartDate, Value: "soon"}}

	require.Error(t, h.orch.Sync(ctx, a, KindOffer))

	stored, err := h.store.GetApplicant(ctx, a.Email, a.SheetID)
	require.NoError(t, err)
	assert.Equal(t, status.Onboarding, stored.Status)
	assert.Equal(t, types.EnvelopeStatusSent, stored.Offer.Status)
}

func TestSync_BadStartDateAbandonsUpdate(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := givingOffer()
	require.NoError(t, h.orch.Sync(ctx, a, KindOffer))
	h.provider.complete(a.Offer.ID)
	h.provider.forms[a.Offer.ID] = []FormField{{Name: FieldStartDate, Value: "next monday"}}
	upserts := h.store.upserts

	err := h.orch.Sync(ctx, a, KindOffer)

	var dataErr *apperr.DataIntegrityError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, "start date", dataErr.Field)
	assert.Nil(t, a.StartDate)
	// Only the onboarding status was saved before the form was read.
	assert.Equal(t, upserts+1, h.store.upserts)
}

func TestApply_StatusChangeNotifiesOnce(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	a := givingOffer()
	a.Offer = types.Envelope{ID: "env-9", Status: types.EnvelopeStatusSent}

	env := &Envelope{ID: "env-9", Status: types.EnvelopeStatusDelivered}
	require.NoError(t, h.orch.Apply(ctx, a, KindOffer, env))
	require.NoError(t, h.orch.Apply(ctx, a, KindOffer, env))

	assert.Equal(t, types.EnvelopeStatusDelivered, a.Offer.Status)
	assert.Equal(t, []string{"offer:delivered"}, h.notifier.events)
}

func TestSeedEmployee_KeepsAddressOnFile(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	e := &types.Employee{Street: "1 Existing St", City: "Reno", State: "NV"}

	changed := seedEmployee(e, OfferForm{Street: "12 Analytical Way", City: "Oakland", State: "CA", StartDate: &start})

	assert.True(t, changed)
	assert.Equal(t, "1 Existing St", e.Street)
	assert.Equal(t, "NV", e.State)
	require.NotNil(t, e.StartDate)
	assert.True(t, e.StartDate.Equal(start))

	assert.False(t, seedEmployee(e, OfferForm{Street: "elsewhere", StartDate: &start}))
}

func TestParseOfferForm_StartDateInLocation(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	form, err := ParseOfferForm([]FormField{
		{Name: FieldStartDate, Value: " 04/01/2026 "},
		{Name: FieldState, Value: "new york"},
		{Name: "Unrelated", Value: "x"},
	}, loc)

	require.NoError(t, err)
	require.NotNil(t, form.StartDate)
	assert.Equal(t, time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC), form.StartDate.UTC())
	assert.Equal(t, "NY", form.State)
}

func TestStateAbbreviation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"California", "CA"},
		{"  district of columbia ", "DC"},
		{"WA", "WA"},
		{"Ontario", "Ontario"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StateAbbreviation(tt.in), tt.in)
	}
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		kind Kind
		doc  string
		want string
	}{
		{KindOffer, "Offer Letter - Acme", "Ada - Offer.pdf"},
		{KindOffer, "Summary", "Ada - Offer - DocuSign Summary.pdf"},
		{KindAgreements, "Summary", "Ada - Employee Agreements - DocuSign Summary.pdf"},
		{KindAgreements, "Employee_Mediation", "Ada - Mediation Agreement.pdf"},
		{KindAgreements, "Employee Proprietary Information", "Ada - PIIA.pdf"},
		{KindAgreements, "Handbook", "Ada - Handbook.pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DocumentName(tt.kind, "Ada", tt.doc), tt.doc)
	}
}

func TestRecipients_RoutingOrder(t *testing.T) {
	cfg := testConfig()
	a := givingOffer()

	offer := cfg.Recipients(KindOffer, a)
	require.Len(t, offer, 3)
	assert.Equal(t, []string{"CEO", "Applicant", "HR"}, roles(offer))
	assert.Equal(t, []int{1, 2, 3}, orders(offer))
	assert.Equal(t, "ada@example.com", offer[1].Email)
	assert.Contains(t, offer[0].EmailBody, "Giving offer")

	agreements := cfg.Recipients(KindAgreements, a)
	assert.Equal(t, []string{"CEO", "Applicant", "CEO (2)", "HR"}, roles(agreements))
	assert.Equal(t, []int{1, 2, 3, 4}, orders(agreements))
	assert.Equal(t, "ceo@example.com", agreements[2].Email)
	assert.Equal(t, "Acme Employee Agreements Signed", agreements[3].EmailSubject)
}

func roles(rs []Recipient) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.RoleName
	}
	return out
}

func orders(rs []Recipient) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.RoutingOrder
	}
	return out
}
