package segment

import (
	"regexp"
	"strings"
	"sync"

	"github.com/jonathan/hiring-agent/internal/types"
)

// Labels of the segments extracted from candidate materials.
const (
	LabelWorkSamples            = "work_samples"
	LabelWritingSamples         = "writing_samples"
	LabelAnalysisSamples        = "analysis_samples"
	LabelPresentationSamples    = "presentation_samples"
	LabelExploratorySamples     = "exploratory_samples"
	LabelTechnicallyChallenging = "question_technically_challenging"
	LabelProudOf                = "question_proud_of"
	LabelHappiest               = "question_happiest"
	LabelUnhappiest             = "question_unhappiest"
	LabelValueReflected         = "question_value_reflected"
	LabelValueViolated          = "question_value_violated"
	LabelValuesInTension        = "question_values_in_tension"
	LabelWhyUs                  = "question_why_us"
)

// wild matches any run of characters, newlines included. Answers are
// exported from PDFs that rewrap lines, drop characters and insert page
// headers, so prompts are matched as literal fragments joined by wild.
const wild = `(?s:.*?)`

func re(fragments ...string) *regexp.Regexp {
	return regexp.MustCompile(strings.Join(fragments, wild))
}

func lit(s string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(s))
}

// MaterialsFields returns the sample and questionnaire fields of the
// candidate materials form for the named company, in extraction order.
func MaterialsFields(company string) []Field {
	c := regexp.QuoteMeta(company)

	questions := []struct {
		label string
		start *regexp.Regexp
	}{
		{LabelTechnicallyChallenging, re(`W`, `at work`, `ave you found mos`, `challenging`, `caree`, `wh`, `\?`)},
		{LabelProudOf, re(`W`, `at work`, `ave you done that you`, `particularl`, `proud o`, `and why\?`)},
		{LabelHappiest, re(`W`, `en have you been happiest in your professiona`, `caree`, `and why\?`)},
		{LabelUnhappiest, re(`W`, `en have you been unhappiest in your professiona`, `caree`, `and why\?`)},
		{LabelValueReflected, re(`F`, `r one of `+c, `s values`, `describe an example of ho`, `it wa`, `reflected`, `particula`, `body`, `you`, `work\.`)},
		{LabelValueViolated, re(`F`, `r one of `+c, `s values`, `describe an example of ho`, `it wa`, `violated`, `you`, `organization o`, `work\.`)},
		{LabelValuesInTension, re(`F`, `r a pair of `+c, `s values`, `describe a time in whic`, `the tw`, `values`, `tensio`, `for`, `your`, `and how yo`, `resolved it\.`)},
		{LabelWhyUs, re(`W`, `y`, `do`, `you`, `want`, `to`, `work`, `for`, c+`\?`)},
	}

	writingSamples := lit("Writing samples")
	analysisSamples := lit("Analysis samples")
	presentationSamples := lit("Presentation samples")
	exploratorySamples := lit("Exploratory samples")
	questionnaire := lit("Questionnaire")

	fields := []Field{
		{Label: LabelWorkSamples, Candidates: []Candidate{
			{lit("Work sample(s)"), writingSamples},
			{re(`If`, `his work is entirely proprietary`, `please describe it as fully as y`, `can, providing necessary context\.`), writingSamples},
			{lit("What would you have done differently?"), exploratorySamples},
			{re(`Some questions`, `o have in mind as you describe them:`), exploratorySamples},
			{lit("Work samples"), exploratorySamples},
			{lit("design sample(s)"), questionnaire},
		}},
		{Label: LabelWritingSamples, Candidates: []Candidate{
			{lit("Writing sample(s)"), analysisSamples},
			{re(`Please submit at least one writing sample \(and no more tha`, `three\) that you feel represent`, `you`, `providin`, `links if`, `necessary\.`), analysisSamples},
			{writingSamples, analysisSamples},
			{lit("Writing sample(s)"), lit("Code and/or design sample")},
		}},
		{Label: LabelAnalysisSamples, Candidates: []Candidate{
			{regexp.MustCompile(`(?m)Analysis sample\(s\)$`), presentationSamples},
			{re(`please recount a`, `incident`, `which you analyzed syste`, `misbehavior`, `including as much technical detail as you can recall\.`), presentationSamples},
			{analysisSamples, presentationSamples},
		}},
		{Label: LabelPresentationSamples, Candidates: []Candidate{
			{lit("Presentation sample(s)"), questionnaire},
			{re(`I`, `you don’t have a publicl`, `available presentation`, `pleas`, `describe a topic on which you have presented in th`, `past\.`), questionnaire},
			{presentationSamples, questionnaire},
		}},
		{Label: LabelExploratorySamples, Candidates: []Candidate{
			{lit("Exploratory sample(s)"), questionnaire},
			{re(`What’s an example o`, `something that you needed to explore, reverse engineer, decipher or otherwise figure out a`, `part of a program or project and how did you do it\? Please provide as much detail as you ca`, `recall\.`), questionnaire},
			{exploratorySamples, questionnaire},
		}},
	}

	for i, q := range questions {
		var end *regexp.Regexp
		if i+1 < len(questions) {
			end = questions[i+1].start
		}
		fields = append(fields, Field{Label: q.label, Candidates: []Candidate{{Start: q.start, End: end}}})
	}

	return fields
}

var fieldsByCompany sync.Map // string -> []Field

// ExtractAnswers segments the materials text into the applicant's answers.
func ExtractAnswers(text, company string) types.Answers {
	v, ok := fieldsByCompany.Load(company)
	if !ok {
		v, _ = fieldsByCompany.LoadOrStore(company, MaterialsFields(company))
	}
	m := ExtractAll(text, v.([]Field))
	return types.Answers{
		WorkSamples:            m[LabelWorkSamples],
		WritingSamples:         m[LabelWritingSamples],
		AnalysisSamples:        m[LabelAnalysisSamples],
		PresentationSamples:    m[LabelPresentationSamples],
		ExploratorySamples:     m[LabelExploratorySamples],
		TechnicallyChallenging: m[LabelTechnicallyChallenging],
		ProudOf:                m[LabelProudOf],
		Happiest:               m[LabelHappiest],
		Unhappiest:             m[LabelUnhappiest],
		ValueReflected:         m[LabelValueReflected],
		ValueViolated:          m[LabelValueViolated],
		ValuesInTension:        m[LabelValuesInTension],
		WhyUs:                  m[LabelWhyUs],
	}
}
