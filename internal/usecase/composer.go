package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/supportdesk/backend/internal/domain"
)

// ComposerService builds a complete customer-service email from a product
// blurb: a simulated customer comment, an inferred subject line, a short
// summary, a one-word sentiment, and the final email body. Each artifact
// is a separate backend call so failures surface individually.
type ComposerService struct {
	chat       domain.ChatCompleter
	translator *TranslateService
}

// NewComposerService creates a new email composer.
func NewComposerService(chat domain.ChatCompleter, translator *TranslateService) *ComposerService {
	return &ComposerService{
		chat:       chat,
		translator: translator,
	}
}

// Compose runs the full comment-to-email chain for one product. When
// language is non-empty the finished body is also translated.
func (s *ComposerService) Compose(ctx context.Context, product *domain.Product, language string) (*domain.CustomerEmail, error) {
	if product == nil {
		return nil, domain.ErrInvalidRequest
	}

	email := &domain.CustomerEmail{}
	var err error

	email.Comment, err = s.generate(ctx, product.PromptText(),
		"Assume you are a customer of the electronics company. Generate a comment in less than 100 words about the product.")
	if err != nil {
		return nil, fmt.Errorf("generating comment: %w", err)
	}

	email.Subject, err = s.generate(ctx, email.Comment,
		"Assume that you are a customer support representative of the electronics company. Generate a subject for an email replying to the comment.")
	if err != nil {
		return nil, fmt.Errorf("generating subject: %w", err)
	}

	email.Summary, err = s.generate(ctx, email.Comment,
		"Assume that you are a customer support representative of the electronics company. Provide a concise summary of the comment in at most 30 words.")
	if err != nil {
		return nil, fmt.Errorf("generating summary: %w", err)
	}

	email.Sentiment, err = s.generate(ctx, email.Comment,
		"Do sentiment analysis of the comment. Just mention if it is positive or negative in one word.")
	if err != nil {
		return nil, fmt.Errorf("analyzing sentiment: %w", err)
	}
	email.Sentiment = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(email.Sentiment), "."))

	body := fmt.Sprintf("Comment: %s\nSubject: %s\nSummary: %s\nSentiment: %s",
		email.Comment, email.Subject, email.Summary, email.Sentiment)
	email.Body, err = s.generate(ctx, body,
		"Create an email to be sent to the customer based on the comment and sentiment, including the subject and summary, in a proper format having subject and other content.")
	if err != nil {
		return nil, fmt.Errorf("generating email body: %w", err)
	}

	if language != "" {
		email.Translated, err = s.translator.Translate(ctx, email.Body, language)
		if err != nil {
			return nil, fmt.Errorf("translating email: %w", err)
		}
	}

	return email, nil
}

// generate runs one completion with the given grounding text as the
// system message.
func (s *ComposerService) generate(ctx context.Context, grounding, instruction string) (string, error) {
	response, err := s.chat.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: grounding},
			{Role: "user", Content: delimiter + instruction + delimiter},
		},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}
