package usecase

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/supportdesk/backend/internal/domain"
)

// classifierSystemMessage carries the fixed two-level service taxonomy.
const classifierSystemMessage = `You will be provided with customer service queries. The customer service query will be delimited with ` + delimiter + ` characters.
Classify each query into a primary category and a secondary category.
Provide your output in json format with the keys: primary and secondary.

Primary categories: Billing, Technical Support, Account Management, or General Inquiry.

Billing secondary categories:
Unsubscribe or upgrade
Add a payment method
Explanation for charge
Dispute a charge

Technical Support secondary categories:
General troubleshooting
Device compatibility
Software updates

Account Management secondary categories:
Password reset
Update personal information
Close account
Account security

General Inquiry secondary categories:
Product information
Pricing
Feedback
Speak to a human`

// ClassifierService maps a query onto the fixed primary/secondary service
// taxonomy. Classification is advisory: a parse failure degrades to
// unclassified and the pipeline continues.
type ClassifierService struct {
	chat domain.ChatCompleter
}

// NewClassifierService creates a new intent classifier.
func NewClassifierService(chat domain.ChatCompleter) *ClassifierService {
	return &ClassifierService{chat: chat}
}

// Classify requests a two-key JSON object from the backend. Output that
// does not decode into the expected shape yields the unclassified zero
// value, not an error; only backend failures are returned as errors.
func (s *ClassifierService) Classify(ctx context.Context, query domain.Query) (domain.Classification, error) {
	response, err := s.chat.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: classifierSystemMessage},
			{Role: "user", Content: delimiter + query.Text + delimiter},
		},
	})
	if err != nil {
		return domain.Classification{}, err
	}

	classification, ok := parseClassification(response)
	if !ok {
		log.Printf("[CLASSIFY] Unparseable classification output: %.80q", response)
		return domain.Classification{}, nil
	}

	return classification, nil
}

// parseClassification decodes the backend output into the two-key shape.
// The boolean reports whether the output parsed.
func parseClassification(response string) (domain.Classification, bool) {
	cleaned := stripCodeFence(response)

	var classification domain.Classification
	if err := json.Unmarshal([]byte(cleaned), &classification); err != nil {
		return domain.Classification{}, false
	}
	if classification.Primary == "" {
		return domain.Classification{}, false
	}

	return classification, true
}

// stripCodeFence removes a surrounding markdown code fence, which some
// backend models wrap JSON output in.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
