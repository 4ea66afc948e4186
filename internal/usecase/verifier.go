package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/supportdesk/backend/internal/domain"
)

// verifierSystemMessage instructs the backend to judge whether a candidate
// answer is grounded in the retrieved context and addresses the query.
const verifierSystemMessage = "You are an assistant that evaluates whether customer service agent responses sufficiently answer customer questions, and also validates that all the facts the assistant cites from the product information are correct.\n" +
	"The product information and user and customer service agent messages will be delimited by 3 backticks, i.e. ```.\n\n" +
	"Respond with a Y or N character, with no punctuation:\n" +
	"Y - if the output sufficiently answers the question AND the response correctly uses product information\n" +
	"N - otherwise\n\n" +
	"Output a single letter only."

// VerifierService is the mandatory trust boundary: no answer reaches the
// caller without passing through it.
type VerifierService struct {
	chat domain.ChatCompleter
}

// NewVerifierService creates a new output verifier.
func NewVerifierService(chat domain.ChatCompleter) *VerifierService {
	return &VerifierService{chat: chat}
}

// Verify judges the candidate answer against the query and resolved
// context. Exactly Y is Supported; every other output is Unsupported, and
// the caller must substitute the fixed fallback. The discarded raw answer
// is logged for offline review, never returned to the user.
func (s *VerifierService) Verify(ctx context.Context, query domain.Query, resolved domain.ResolvedContext, answer string) (domain.VerificationVerdict, error) {
	bundle := fmt.Sprintf("Customer message: ```%s```\n"+
		"Product information: ```%s```\n"+
		"Agent response: ```%s```\n\n"+
		"Does the response use the retrieved information correctly?\n"+
		"Does the response sufficiently answer the question?\n\n"+
		"Output Y or N",
		query.Text, resolved.PromptText(), answer)

	response, err := s.chat.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: verifierSystemMessage},
			{Role: "user", Content: bundle},
		},
		MaxTokens: 1,
	})
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(response) == "Y" {
		return domain.VerdictSupported, nil
	}

	log.Printf("[VERIFY] Answer rejected, discarded: %.200q", answer)
	return domain.VerdictUnsupported, nil
}
