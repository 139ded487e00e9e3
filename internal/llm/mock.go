package llm

import (
	"context"
	"sync"

	"github.com/nexh/focus/internal/domain"
)

// MockClient is a configurable draft generator for testing.
// Set DraftResponse/DraftError to control what Draft returns.
type MockClient struct {
	DraftResponse string
	DraftError    error

	mu         sync.Mutex
	DraftCalls []domain.DraftRequest
}

func NewMockClient() *MockClient {
	return &MockClient{
		DraftResponse: "Mock draft",
	}
}

func (m *MockClient) Draft(_ context.Context, req domain.DraftRequest) (string, error) {
	m.mu.Lock()
	m.DraftCalls = append(m.DraftCalls, req)
	m.mu.Unlock()

	if m.DraftError != nil {
		return "", m.DraftError
	}
	return m.DraftResponse, nil
}

func (m *MockClient) Calls() []domain.DraftRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.DraftRequest(nil), m.DraftCalls...)
}
