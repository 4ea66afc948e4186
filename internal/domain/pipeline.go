package domain

import "strings"

// Query is the raw user input entering the pipeline. It is never mutated;
// every stage receives it by value.
type Query struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
	// Language, when set, requests translation of the final answer after
	// verification. Translated text is not re-verified.
	Language string `json:"language,omitempty"`
}

// GuardOutcome tags the result of the input guard.
type GuardOutcome string

const (
	GuardClean             GuardOutcome = "CLEAN"
	GuardModerated         GuardOutcome = "MODERATED"
	GuardInjectionDetected GuardOutcome = "INJECTION_DETECTED"
)

// GuardVerdict is produced once per query. Any outcome other than
// GuardClean is terminal for the request.
type GuardVerdict struct {
	Outcome GuardOutcome `json:"outcome"`
	// Reason carries the moderation rationale when Outcome is GuardModerated.
	Reason string `json:"reason,omitempty"`
}

// Terminal reports whether the verdict stops the pipeline.
func (v GuardVerdict) Terminal() bool {
	return v.Outcome != GuardClean
}

// Classification maps a query onto the fixed two-level service taxonomy.
// The zero value is "unclassified", which downstream stages tolerate.
type Classification struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

// Unclassified reports whether the classifier failed to produce a
// structurally valid result.
func (c Classification) Unclassified() bool {
	return c.Primary == "" && c.Secondary == ""
}

// ResolvedContext is the ordered, deduplicated set of catalog products
// judged relevant to a query.
type ResolvedContext []Product

// Names returns the product names in context order.
func (rc ResolvedContext) Names() []string {
	names := make([]string, 0, len(rc))
	for _, p := range rc {
		names = append(names, p.Name)
	}
	return names
}

// PromptText serializes the context for inclusion in backend prompts.
// Empty contexts render as an explicit marker so the answerer still has
// something to ground its clarifying reply on.
func (rc ResolvedContext) PromptText() string {
	if len(rc) == 0 {
		return "(no relevant products found)"
	}
	parts := make([]string, 0, len(rc))
	for _, p := range rc {
		parts = append(parts, p.PromptText())
	}
	return strings.Join(parts, "\n\n")
}

// ReasoningStep is one internal segment of the chain-of-thought protocol.
// Steps are scratch state: logged, never shown to the user.
type ReasoningStep struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

// ReasoningTrace is the parsed output of the reasoning answerer: the
// ordered internal steps plus the single user-visible answer segment.
type ReasoningTrace struct {
	Steps  []ReasoningStep `json:"steps"`
	Answer string          `json:"answer"`
}

// VerificationVerdict tags the output verifier's judgement.
type VerificationVerdict string

const (
	VerdictSupported   VerificationVerdict = "SUPPORTED"
	VerdictUnsupported VerificationVerdict = "UNSUPPORTED"
)

// FallbackAnswer replaces any answer the verifier judged unsupported.
const FallbackAnswer = "I'm unable to process the information that you are " +
	"looking for. Please contact customer support for further assistance."

// PipelineOutcome is the terminal state of one pipeline run.
type PipelineOutcome string

const (
	OutcomeAnswered PipelineOutcome = "ANSWERED"
	OutcomeRejected PipelineOutcome = "REJECTED"
	OutcomeFallback PipelineOutcome = "FALLBACK"
)

// PipelineResult is the serializable outcome handed to the delivery layer.
type PipelineResult struct {
	Query            Query               `json:"query"`
	Guard            GuardVerdict        `json:"guard"`
	Classification   Classification      `json:"classification"`
	Context          ResolvedContext     `json:"resolved_context"`
	Answer           string              `json:"answer"`
	Verification     VerificationVerdict `json:"verification,omitempty"`
	Outcome          PipelineOutcome     `json:"outcome"`
	TranslatedAnswer string              `json:"translated_answer,omitempty"`
}
