package domain

import (
	"time"

	"github.com/google/uuid"
)

type CandidateStatus string

const (
	CandidateStatusActive   CandidateStatus = "active"
	CandidateStatusOptedOut CandidateStatus = "opted_out"
	CandidateStatusDeleted  CandidateStatus = "deleted"
	CandidateStatusExcluded CandidateStatus = "excluded"
)

func ValidCandidateStatus(s string) bool {
	switch CandidateStatus(s) {
	case CandidateStatusActive, CandidateStatusOptedOut, CandidateStatusDeleted, CandidateStatusExcluded:
		return true
	}
	return false
}

// Eligible reports whether a candidate with this status may be contacted.
// Only active candidates are; unknown statuses are treated as ineligible.
func (s CandidateStatus) Eligible() bool {
	return s == CandidateStatusActive
}

// Candidate is a customer (or asset) record owned by a single tenant.
type Candidate struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	Name              string          `json:"name"`
	Phone             string          `json:"phone,omitempty"`
	Status            CandidateStatus `json:"status"`
	LastInteractionAt *time.Time      `json:"last_interaction_at,omitempty"`
	Attributes        map[string]any  `json:"attributes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
