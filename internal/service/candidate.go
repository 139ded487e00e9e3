package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/store"
)

const maxCandidateListLimit = 500

var (
	ErrCandidateNameMissing   = errors.New("name is required")
	ErrCandidateInvalidStatus = errors.New("invalid status")
	ErrInteractionInFuture    = errors.New("interaction time is in the future")
)

type CandidateService struct {
	candidateStore domain.CandidateStore
	now            func() time.Time
}

func NewCandidateService(cs domain.CandidateStore) *CandidateService {
	return &CandidateService{candidateStore: cs, now: time.Now}
}

func candidateNotFound(id uuid.UUID) error {
	return &domain.NotFoundError{Resource: "candidate", ID: id.String()}
}

func (s *CandidateService) Create(ctx context.Context, c *domain.Candidate, tenantID uuid.UUID) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return ErrCandidateNameMissing
	}
	if c.Status == "" {
		c.Status = domain.CandidateStatusActive
	}
	if !domain.ValidCandidateStatus(string(c.Status)) {
		return ErrCandidateInvalidStatus
	}
	if c.LastInteractionAt != nil && c.LastInteractionAt.After(s.now()) {
		return ErrInteractionInFuture
	}
	c.TenantID = tenantID

	if err := s.candidateStore.Create(ctx, c); err != nil {
		return &domain.DataAccessError{Op: "create candidate", Err: err}
	}
	return nil
}

func (s *CandidateService) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Candidate, error) {
	c, err := s.candidateStore.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, candidateNotFound(id)
		}
		return nil, &domain.DataAccessError{Op: "get candidate", Err: err}
	}
	return c, nil
}

func (s *CandidateService) List(ctx context.Context, tenantID uuid.UUID, opts domain.CandidateListOpts) ([]domain.Candidate, error) {
	if opts.Status != nil && !domain.ValidCandidateStatus(string(*opts.Status)) {
		return nil, ErrCandidateInvalidStatus
	}
	if opts.Limit > maxCandidateListLimit {
		opts.Limit = maxCandidateListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}

	list, err := s.candidateStore.List(ctx, tenantID, opts)
	if err != nil {
		return nil, &domain.DataAccessError{Op: "list candidates", Err: err}
	}
	if list == nil {
		list = []domain.Candidate{}
	}
	return list, nil
}

func (s *CandidateService) UpdateStatus(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, status domain.CandidateStatus) error {
	if !domain.ValidCandidateStatus(string(status)) {
		return ErrCandidateInvalidStatus
	}
	if err := s.candidateStore.UpdateStatus(ctx, id, tenantID, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return candidateNotFound(id)
		}
		return &domain.DataAccessError{Op: "update candidate status", Err: err}
	}
	return nil
}

// RecordInteraction notes a visit or purchase. A zero at means now.
func (s *CandidateService) RecordInteraction(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, at time.Time) error {
	now := s.now()
	if at.IsZero() {
		at = now
	}
	if at.After(now) {
		return ErrInteractionInFuture
	}
	if err := s.candidateStore.TouchInteraction(ctx, id, tenantID, at.UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return candidateNotFound(id)
		}
		return &domain.DataAccessError{Op: "record interaction", Err: err}
	}
	return nil
}
