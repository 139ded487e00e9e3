package domain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type TenantStore interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*Tenant, error)
	UpdateConfig(ctx context.Context, id uuid.UUID, config json.RawMessage) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}

type CandidateListOpts struct {
	Status *CandidateStatus
	Limit  int
	Offset int
}

type CandidateStore interface {
	Create(ctx context.Context, c *Candidate) error
	GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*Candidate, error)
	List(ctx context.Context, tenantID uuid.UUID, opts CandidateListOpts) ([]Candidate, error)
	// ListLastInteractionBefore returns the tenant's candidates whose last
	// interaction happened strictly before cutoff.
	ListLastInteractionBefore(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]Candidate, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, status CandidateStatus) error
	TouchInteraction(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, at time.Time) error
}

// ActionLogStore is append-only.
type ActionLogStore interface {
	Append(ctx context.Context, e *ActionLogEntry) error
	// ListInWindow returns entries with from <= created_at < to.
	ListInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]ActionLogEntry, error)
}

// SnapshotReader reads a tenant's candidates and action log from one
// consistent snapshot.
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, tenantID uuid.UUID, candidateCutoff, logFrom, logTo time.Time) ([]Candidate, []ActionLogEntry, error)
}

// ReportCache stores computed focus lists for the rest of their day.
type ReportCache interface {
	Get(ctx context.Context, tenantID uuid.UUID, date string) (*FocusList, error)
	Set(ctx context.Context, list *FocusList, ttl time.Duration) error
	Delete(ctx context.Context, tenantID uuid.UUID, date string) error
}

// DraftRequest carries everything a draft generator may put into its prompt.
type DraftRequest struct {
	Industry string
	Language string
	Date     string
	Entry    FocusEntry
}

type DraftGenerator interface {
	Draft(ctx context.Context, req DraftRequest) (string, error)
}
