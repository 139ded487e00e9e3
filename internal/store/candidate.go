package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexh/focus/internal/domain"
)

const defaultCandidateLimit = 100

type CandidateStore struct {
	db *pgxpool.Pool
}

func NewCandidateStore(db *pgxpool.Pool) *CandidateStore {
	return &CandidateStore{db: db}
}

const candidateColumns = `id, tenant_id, name, phone, status, last_interaction_at, attributes, created_at, updated_at`

func scanCandidate(row pgx.Row) (domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Status, &c.LastInteractionAt, &c.Attributes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func collectCandidates(rows pgx.Rows) ([]domain.Candidate, error) {
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *CandidateStore) Create(ctx context.Context, c *domain.Candidate) error {
	if c.Status == "" {
		c.Status = domain.CandidateStatusActive
	}
	if c.Attributes == nil {
		c.Attributes = map[string]any{}
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO candidates (tenant_id, name, phone, status, last_interaction_at, attributes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		c.TenantID, c.Name, c.Phone, c.Status, c.LastInteractionAt, c.Attributes,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (s *CandidateStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Candidate, error) {
	c, err := scanCandidate(s.db.QueryRow(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *CandidateStore) List(ctx context.Context, tenantID uuid.UUID, opts domain.CandidateListOpts) ([]domain.Candidate, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	var status *string
	if opts.Status != nil {
		v := string(*opts.Status)
		status = &v
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		 WHERE tenant_id = $1 AND ($2::text IS NULL OR status = $2)
		 ORDER BY name, id
		 LIMIT $3 OFFSET $4`,
		tenantID, status, limit, opts.Offset,
	)
	if err != nil {
		return nil, err
	}
	return collectCandidates(rows)
}

func (s *CandidateStore) ListLastInteractionBefore(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]domain.Candidate, error) {
	return listLastInteractionBefore(ctx, s.db, tenantID, cutoff)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listLastInteractionBefore(ctx context.Context, q querier, tenantID uuid.UUID, cutoff time.Time) ([]domain.Candidate, error) {
	rows, err := q.Query(ctx,
		`SELECT `+candidateColumns+` FROM candidates
		 WHERE tenant_id = $1 AND last_interaction_at < $2`,
		tenantID, cutoff,
	)
	if err != nil {
		return nil, err
	}
	return collectCandidates(rows)
}

func (s *CandidateStore) UpdateStatus(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, status domain.CandidateStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE candidates SET status = $3, updated_at = NOW() WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchInteraction moves last_interaction_at forward; an older timestamp is ignored.
func (s *CandidateStore) TouchInteraction(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE candidates
		 SET last_interaction_at = GREATEST(COALESCE(last_interaction_at, $3), $3), updated_at = NOW()
		 WHERE id = $1 AND tenant_id = $2`,
		id, tenantID, at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
