package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/nexh/focus/internal/domain"
)

const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
	ProviderNone   = "none"
)

// NewDraftGenerator creates a draft generator based on the provider name.
// Returns an error if the provider is unknown or the API key is empty.
func NewDraftGenerator(provider, apiKey, model string) (domain.DraftGenerator, error) {
	switch provider {
	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewGeminiClient(apiKey, model), nil

	case ProviderMock:
		return NewMockClient(), nil

	case ProviderNone:
		return TemplateGenerator{}, nil

	default:
		return nil, fmt.Errorf("unknown draft provider: %s (valid options: gemini, mock, none)", provider)
	}
}

// TemplateGenerator returns the fixed fallback message.
type TemplateGenerator struct{}

func (TemplateGenerator) Draft(_ context.Context, req domain.DraftRequest) (string, error) {
	return FallbackDraft(req.Entry.Name), nil
}

func FallbackDraft(name string) string {
	name = CleanInput(name)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(fallbackDraft, name)
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
