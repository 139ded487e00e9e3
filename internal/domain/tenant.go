package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const DefaultLanguage = "English"

type Tenant struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Industry   string          `json:"industry"`
	Language   string          `json:"language"`
	Config     json.RawMessage `json:"config,omitempty"`
	APIKeyHash string          `json:"-"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// OutputLanguage returns the language drafts are written in.
func (t *Tenant) OutputLanguage() string {
	if t.Language == "" {
		return DefaultLanguage
	}
	return t.Language
}
