package usecase

import (
	"context"
	"fmt"

	"github.com/supportdesk/backend/internal/domain"
)

// TranslateService translates final answers into a requested target
// language. It runs after verification, outside the trust boundary:
// translated text is not re-verified.
type TranslateService struct {
	chat domain.ChatCompleter
}

// NewTranslateService creates a new translator.
func NewTranslateService(chat domain.ChatCompleter) *TranslateService {
	return &TranslateService{chat: chat}
}

// Translate renders text into the target language.
func (s *TranslateService) Translate(ctx context.Context, text, language string) (string, error) {
	if text == "" || language == "" {
		return "", domain.ErrInvalidRequest
	}

	instruction := fmt.Sprintf("Translate the given content into %s. Output only the translation.", language)

	return s.chat.Complete(ctx, domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: text},
			{Role: "user", Content: delimiter + instruction + delimiter},
		},
	})
}
