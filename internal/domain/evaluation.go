package domain

// RubricResult holds the judge's answers to the fixed rubric questions,
// scoring an answer against the context it was generated from. Raw keeps
// the judge's full free-text output; the structured fields are a
// best-effort parse of it and are only meaningful when Parsed is true.
type RubricResult struct {
	Grounded        bool   `json:"grounded"`
	Hallucination   bool   `json:"hallucination"`
	Disagreement    bool   `json:"disagreement"`
	QuestionCount   int    `json:"question_count"`
	QuestionCovered []bool `json:"question_covered"`
	CoveredCount    int    `json:"covered_count"`
	Parsed          bool   `json:"parsed"`
	Raw             string `json:"raw"`
}

// IdealVerdict is the closed five-way outcome of comparing an answer
// against a human-authored expert answer.
type IdealVerdict string

const (
	VerdictSubset               IdealVerdict = "SUBSET"
	VerdictSuperset             IdealVerdict = "SUPERSET"
	VerdictEquivalent           IdealVerdict = "EQUIVALENT"
	VerdictDisagreement         IdealVerdict = "DISAGREEMENT"
	VerdictImmaterialDifference IdealVerdict = "IMMATERIAL_DIFFERENCE"
)
