package status_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/hiring-agent/internal/status"
)

func TestParse_RoundTrip(t *testing.T) {
	for _, s := range status.All {
		got, err := status.Parse(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := status.Parse("Pondering")
	assert.Error(t, err)
}

func TestFromRaw(t *testing.T) {
	tests := []struct {
		raw  string
		want status.Status
	}{
		{"", status.NeedsToBeTriaged},
		{"Next steps: schedule call", status.NextSteps},
		{"Declined: did not do materials", status.Declined},
		{"deferred until spring", status.Deferred},
		{"Giving offer", status.GivingOffer},
		{"  Onboarding", status.Onboarding},
		{"Consultant", status.Contractor},
		{"something else entirely", status.NeedsToBeTriaged},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, status.FromRaw(tt.raw))
		})
	}
}

func TestDerive_InterviewingAfterTwoInterviews(t *testing.T) {
	today := time.Date(2021, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, status.Interviewing, status.Derive(status.NextSteps, 2, nil, today))
	assert.Equal(t, status.Interviewing, status.Derive(status.NeedsToBeTriaged, 3, nil, today))
	assert.Equal(t, status.NextSteps, status.Derive(status.NextSteps, 1, nil, today))
	assert.Equal(t, status.Declined, status.Derive(status.Declined, 5, nil, today))
}

func TestDerive_HiredOnStartDate(t *testing.T) {
	today := time.Date(2021, 3, 10, 12, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	sameDay := time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC)
	tomorrow := today.AddDate(0, 0, 1)

	assert.Equal(t, status.Hired, status.Derive(status.Onboarding, 0, &yesterday, today))
	assert.Equal(t, status.Hired, status.Derive(status.GivingOffer, 0, &sameDay, today))
	assert.Equal(t, status.Onboarding, status.Derive(status.Onboarding, 0, &tomorrow, today))
	assert.Equal(t, status.Onboarding, status.Derive(status.Onboarding, 0, nil, today))
	assert.Equal(t, status.Interviewing, status.Derive(status.Interviewing, 0, &yesterday, today))
}

func TestDerive_Idempotent(t *testing.T) {
	today := time.Date(2021, 3, 10, 12, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -3)

	for _, s := range status.All {
		once := status.Derive(s, 2, &start, today)
		assert.Equal(t, once, status.Derive(once, 2, &start, today), s.String())
	}
}

func TestGate_OnboardingNeverRegresses(t *testing.T) {
	assert.Equal(t, status.Onboarding, status.Gate(status.Onboarding, status.GivingOffer))
	assert.Equal(t, status.Declined, status.Gate(status.Onboarding, status.Declined))
	assert.Equal(t, status.GivingOffer, status.Gate(status.Interviewing, status.GivingOffer))
}

func TestTransition_Changed(t *testing.T) {
	assert.True(t, status.Transition{From: status.NextSteps, To: status.Interviewing}.Changed())
	assert.False(t, status.Transition{From: status.Hired, To: status.Hired}.Changed())
}

func TestMarshalText(t *testing.T) {
	b, err := status.GivingOffer.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Giving offer", string(b))

	var s status.Status
	require.NoError(t, s.UnmarshalText([]byte("hired")))
	assert.Equal(t, status.Hired, s)
}
