package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/store"
	"go.uber.org/zap"
)

// maxClockSkew is how far in the future a client-supplied sent_at may be.
const maxClockSkew = time.Minute

var (
	ErrActionCandidateMissing = errors.New("candidate_id is required")
	ErrActionInvalidChannel   = errors.New("invalid channel")
	ErrActionInFuture         = errors.New("sent_at is in the future")
	ErrActionInvalidRange     = errors.New("from must be before to")
)

// ActionLogService appends contact records once a human has sent a message.
type ActionLogService struct {
	actionStore    domain.ActionLogStore
	candidateStore domain.CandidateStore
	logger         *zap.Logger
	now            func() time.Time
}

func NewActionLogService(as domain.ActionLogStore, cs domain.CandidateStore, logger *zap.Logger) *ActionLogService {
	return &ActionLogService{
		actionStore:    as,
		candidateStore: cs,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *ActionLogService) Record(ctx context.Context, e *domain.ActionLogEntry, tenantID uuid.UUID) error {
	if e.CandidateID == uuid.Nil {
		return ErrActionCandidateMissing
	}
	if e.Channel == "" {
		e.Channel = domain.ChannelWhatsApp
	}
	if !domain.ValidChannel(string(e.Channel)) {
		return ErrActionInvalidChannel
	}
	if !e.CreatedAt.IsZero() && e.CreatedAt.After(s.now().Add(maxClockSkew)) {
		return ErrActionInFuture
	}

	// Verify candidate belongs to tenant
	if _, err := s.candidateStore.GetByID(ctx, e.CandidateID, tenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return candidateNotFound(e.CandidateID)
		}
		return &domain.DataAccessError{Op: "get candidate", Err: err}
	}

	e.TenantID = tenantID
	if err := s.actionStore.Append(ctx, e); err != nil {
		return &domain.DataAccessError{Op: "append action log", Err: err}
	}

	s.logger.Info("outreach recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("candidate_id", e.CandidateID.String()),
		zap.String("channel", string(e.Channel)))
	return nil
}

// List returns the tenant's entries with from <= created_at < to.
func (s *ActionLogService) List(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.ActionLogEntry, error) {
	if !from.Before(to) {
		return nil, ErrActionInvalidRange
	}
	entries, err := s.actionStore.ListInWindow(ctx, tenantID, from, to)
	if err != nil {
		return nil, &domain.DataAccessError{Op: "list action log", Err: err}
	}
	if entries == nil {
		entries = []domain.ActionLogEntry{}
	}
	return entries, nil
}
