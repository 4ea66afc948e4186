package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/supportdesk/backend/internal/domain"
)

// stepLabelRegex strips the trailing "Step N:" label that each
// delimiter-split segment carries for the step that follows it.
var stepLabelRegex = regexp.MustCompile(`\s*Step\s*\d+\s*:\s*$`)

// responseMarker introduces the single user-visible segment of the
// reasoning output. Everything before it is internal scratch state.
const responseMarker = "Response to user:"

// clarifyingAnswer is used when the backend produced no usable final
// segment. The pipeline never emits an empty answer.
const clarifyingAnswer = "I'm happy to help! Could you tell me a bit more " +
	"about the product you're interested in?"

// AnswerService produces a grounded reply via the fixed five-step
// chain-of-thought protocol, consuming the resolved context.
type AnswerService struct {
	chat domain.ChatCompleter
}

// NewAnswerService creates a new reasoning answerer.
func NewAnswerService(chat domain.ChatCompleter) *AnswerService {
	return &AnswerService{chat: chat}
}

// Answer runs one reasoning completion and parses it into a trace. The
// final segment becomes the user-visible answer; the internal steps are
// retained on the trace for logging only.
func (s *AnswerService) Answer(ctx context.Context, query domain.Query, resolved domain.ResolvedContext) (*domain.ReasoningTrace, error) {
	response, err := s.chat.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: reasoningSystemMessage(resolved)},
			{Role: "user", Content: delimiter + query.Text + delimiter},
		},
	})
	if err != nil {
		return nil, err
	}

	return parseTrace(response), nil
}

// reasoningSystemMessage builds the five-step instruction around the
// resolved context.
func reasoningSystemMessage(resolved domain.ResolvedContext) string {
	return fmt.Sprintf(`Follow these steps to answer the customer queries.
The customer query will be delimited with four hashtags, i.e. %s.

Step 1:%s First decide whether the user is asking a question about a specific product or products. Product category doesn't count.

Step 2:%s If the user is asking about specific products, identify whether the products are in the following list.
All available products:
%s

Step 3:%s If the message contains products in the list above, list any assumptions that the user is making in their message e.g. that Laptop X is bigger than Laptop Y, or that Laptop Z has a 2 year warranty.

Step 4:%s If the user made any assumptions, figure out whether the assumption is true based on your product information.

Step 5:%s First, politely correct the customer's incorrect assumptions if applicable. Only mention or reference products in the list of available products above, as these are the only products that the store sells. If no relevant products were found, politely ask a clarifying question. Answer the customer in a friendly tone.

Use the following format:
Step 1:%s <step 1 reasoning>
Step 2:%s <step 2 reasoning>
Step 3:%s <step 3 reasoning>
Step 4:%s <step 4 reasoning>
%s <response to customer>

Make sure to include %s to separate every step.`,
		delimiter, delimiter, delimiter, resolved.PromptText(),
		delimiter, delimiter, delimiter,
		delimiter, delimiter, delimiter, delimiter,
		responseMarker, delimiter)
}

// parseTrace splits the raw completion into internal steps and the final
// user-visible answer. The answer is never empty: if the marker is
// missing the last delimiter-bounded segment is used, and if that is
// blank too a fixed clarifying reply is substituted.
func parseTrace(raw string) *domain.ReasoningTrace {
	trace := &domain.ReasoningTrace{}

	scratch := raw
	if idx := strings.LastIndex(raw, responseMarker); idx != -1 {
		trace.Answer = strings.TrimSpace(raw[idx+len(responseMarker):])
		scratch = raw[:idx]
	}

	segments := strings.Split(scratch, delimiter)
	for _, segment := range segments {
		segment = stepLabelRegex.ReplaceAllString(segment, "")
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		trace.Steps = append(trace.Steps, domain.ReasoningStep{
			Number:  len(trace.Steps) + 1,
			Content: segment,
		})
	}

	if trace.Answer == "" && len(trace.Steps) > 0 {
		// No marker: fall back to the last segment.
		last := trace.Steps[len(trace.Steps)-1]
		trace.Answer = last.Content
		trace.Steps = trace.Steps[:len(trace.Steps)-1]
	}

	if strings.TrimSpace(trace.Answer) == "" {
		trace.Answer = clarifyingAnswer
	}

	return trace
}
