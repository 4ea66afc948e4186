package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/supportdesk/backend/internal/domain"
)

// rubricSystemMessage sets up the judge for context-grounded scoring.
const rubricSystemMessage = "You are an assistant that evaluates how well the customer service agent " +
	"answers a user question by looking at the context that the customer service " +
	"agent is using to generate its response."

// idealSystemMessage sets up the judge for expert-answer comparison.
const idealSystemMessage = "You are an assistant that evaluates how well the customer service agent " +
	"answers a user question by comparing the response to the ideal (expert) response. " +
	"Output a single letter and nothing else."

// EvaluatorService is the offline evaluation harness. It never runs on
// the request path; it consumes completed (query, context, answer)
// triples after the fact.
type EvaluatorService struct {
	chat domain.ChatCompleter
}

// NewEvaluatorService creates a new evaluator.
func NewEvaluatorService(chat domain.ChatCompleter) *EvaluatorService {
	return &EvaluatorService{chat: chat}
}

// EvalWithRubric scores an answer against the context it was generated
// from. The judge's raw free text is the source of truth; the structured
// fields are a best-effort parse flagged by Parsed.
func (s *EvaluatorService) EvalWithRubric(ctx context.Context, query domain.Query, resolved domain.ResolvedContext, answer string) (*domain.RubricResult, error) {
	userMessage := fmt.Sprintf(`You are evaluating a submitted answer to a question based on the context that the agent uses to answer the question.

Here is the data:

[BEGIN DATA]
************
[Question]: %s
************
[Context]: %s
************
[Submission]: %s
************
[END DATA]

Compare the factual content of the submitted answer with the context. Ignore any differences in style, grammar, or punctuation.

Answer the following questions:

- Is the Assistant response based only on the context provided? (Y or N)
- Does the answer include information that is not provided in the context? (Y or N)
- Is there any disagreement between the response and the context? (Y or N)
- Count how many questions the user asked. (output a number)
- For each question that the user asked, is there a corresponding answer to it?
  Question 1: (Y or N)
  Question 2: (Y or N)
  ...
  Question N: (Y or N)
- Of the number of questions asked, how many of these questions were addressed by the answer? (output a number)`,
		query.Text, resolved.PromptText(), answer)

	response, err := s.chat.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: rubricSystemMessage},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return nil, err
	}

	result := parseRubric(response)
	return result, nil
}

// EvalVsIdeal classifies an answer against a human-authored expert answer
// using the closed A-E single-letter protocol. A letter outside the
// protocol is a malformed verdict, never silently mapped.
func (s *EvaluatorService) EvalVsIdeal(ctx context.Context, query domain.Query, idealAnswer, answer string) (domain.IdealVerdict, error) {
	userMessage := fmt.Sprintf(`You are comparing a submitted answer to an expert answer on a given question. Here is the data:

[BEGIN DATA]
************
[Question]: %s
************
[Expert]: %s
************
[Submission]: %s
************
[END DATA]

Compare the factual content of the submitted answer with the expert answer. Ignore any differences in style, grammar, or punctuation.
The submitted answer may either be a subset or superset of the expert answer, or it may conflict with it. Determine which case applies. Answer the question by selecting one of the following options:
(A) The submitted answer is a subset of the expert answer and is fully consistent with it.
(B) The submitted answer is a superset of the expert answer and is fully consistent with it.
(C) The submitted answer contains all the same details as the expert answer.
(D) There is a disagreement between the submitted answer and the expert answer.
(E) The answers differ, but these differences don't matter from the perspective of factuality.
choice_strings: ABCDE`,
		query.Text, idealAnswer, answer)

	response, err := s.chat.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: idealSystemMessage},
			{Role: "user", Content: userMessage},
		},
	})
	if err != nil {
		return "", err
	}

	return parseIdealVerdict(response)
}

// parseIdealVerdict maps the judge's single letter onto the closed
// five-way verdict.
func parseIdealVerdict(response string) (domain.IdealVerdict, error) {
	letter := strings.Trim(strings.TrimSpace(response), "()")
	switch letter {
	case "A":
		return domain.VerdictSubset, nil
	case "B":
		return domain.VerdictSuperset, nil
	case "C":
		return domain.VerdictEquivalent, nil
	case "D":
		return domain.VerdictDisagreement, nil
	case "E":
		return domain.VerdictImmaterialDifference, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrMalformedVerdict, response)
	}
}

// parseRubric extracts the structured answer set from the judge's free
// text. The expected token order is three Y/N answers, the question
// count, one Y/N per question, and the covered count. Raw always carries
// the full judge output.
func parseRubric(response string) *domain.RubricResult {
	result := &domain.RubricResult{Raw: response}

	var bools []bool
	var numbers []int
	firstNumberAt := -1

	for _, line := range strings.Split(response, "\n") {
		fields := strings.Fields(strings.TrimRight(strings.TrimSpace(line), "."))
		if len(fields) == 0 {
			continue
		}
		last := strings.Trim(fields[len(fields)-1], "()")
		switch strings.ToUpper(last) {
		case "Y", "YES":
			bools = append(bools, true)
		case "N", "NO":
			bools = append(bools, false)
		default:
			if n, err := strconv.Atoi(last); err == nil {
				if firstNumberAt == -1 {
					firstNumberAt = len(bools)
				}
				numbers = append(numbers, n)
			}
		}
	}

	if len(bools) < 3 || len(numbers) < 2 || firstNumberAt < 3 {
		return result
	}

	result.Grounded = bools[0]
	result.Hallucination = bools[1]
	result.Disagreement = bools[2]
	result.QuestionCount = numbers[0]
	result.CoveredCount = numbers[len(numbers)-1]
	result.QuestionCovered = bools[firstNumberAt:]
	result.Parsed = true

	return result
}
