package reconcile

import (
	"slices"
	"strings"

	"github.com/jonathan/hiring-agent/internal/types"
)

// evaluationCounters maps the prefix of a review's evaluation to the counter
// it increments. An evaluation can match a score and a rationale.
var evaluationCounters = []struct {
	prefix  string
	counter func(s *types.Scoring) *int
}{
	{"emphatic yes:", func(s *types.Scoring) *int { return &s.EnthusiasticYes }},
	{"yes:", func(s *types.Scoring) *int { return &s.Yes }},
	{"pass:", func(s *types.Scoring) *int { return &s.Pass }},
	{"no:", func(s *types.Scoring) *int { return &s.No }},
	{"n/a:", func(s *types.Scoring) *int { return &s.NotApplicable }},
	{"insufficient experience", func(s *types.Scoring) *int { return &s.InsufficientExperience }},
	{"inapplicable experience", func(s *types.Scoring) *int { return &s.InapplicableExperience }},
	{"job function not yet needed", func(s *types.Scoring) *int { return &s.JobFunctionYetNeeded }},
	{"underwhelming materials", func(s *types.Scoring) *int { return &s.UnderwhelmingMaterials }},
}

// ApplyReviews re-derives the scoring counters of a from its linked
// reviews and returns the ids of the reviews that are now consumed.
//
// Once the applicant is Onboarding or Hired the counters are zeroed so
// future colleagues cannot see how they were scored, and every review is
// consumed. Before that, reviews stay linked so the counters can be
// re-derived on the next pass. With no reviews the counters are left alone.
func ApplyReviews(a *types.Applicant, reviews []types.Review) []string {
	if a.Status.ZeroesScores() {
		a.Scoring = types.Scoring{}
		consumed := make([]string, 0, len(reviews))
		for _, r := range reviews {
			applyReviewValues(a, r)
			consumed = append(consumed, r.ID)
		}
		return consumed
	}

	if len(reviews) == 0 {
		return nil
	}

	var s types.Scoring
	completed := slices.Clone(a.ScorersCompleted)
	for _, r := range reviews {
		applyReviewValues(a, r)

		s.Evaluations++
		eval := strings.ToLower(strings.TrimSpace(r.Evaluation))
		for _, c := range evaluationCounters {
			if strings.HasPrefix(eval, c.prefix) {
				*c.counter(&s)++
			}
		}

		if r.Reviewer != "" && !slices.Contains(completed, r.Reviewer) {
			completed = append(completed, r.Reviewer)
		}
	}

	a.Scoring = s
	a.ScorersCompleted = completed
	a.Scorers = withoutCompleted(a.Scorers, completed)
	return nil
}

func applyReviewValues(a *types.Applicant, r types.Review) {
	if a.ValueReflected == "" && r.ValueReflected != "" {
		a.ValueReflected = strings.ToLower(r.ValueReflected)
	}
	if a.ValueViolated == "" && r.ValueViolated != "" {
		a.ValueViolated = strings.ToLower(r.ValueViolated)
	}
	if len(a.ValuesInTension) == 0 && len(r.ValuesInTension) > 0 {
		vals := make([]string, len(r.ValuesInTension))
		for i, v := range r.ValuesInTension {
			vals[i] = strings.ToLower(v)
		}
		slices.Sort(vals)
		a.ValuesInTension = vals
	}
}
