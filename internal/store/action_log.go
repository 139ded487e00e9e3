package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexh/focus/internal/domain"
)

// ActionLogStore only inserts and reads; there is no update or delete path.
type ActionLogStore struct {
	db *pgxpool.Pool
}

func NewActionLogStore(db *pgxpool.Pool) *ActionLogStore {
	return &ActionLogStore{db: db}
}

func (s *ActionLogStore) Append(ctx context.Context, e *domain.ActionLogEntry) error {
	if e.CreatedAt.IsZero() {
		return s.db.QueryRow(ctx,
			`INSERT INTO action_log (tenant_id, candidate_id, channel, note)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at`,
			e.TenantID, e.CandidateID, e.Channel, e.Note,
		).Scan(&e.ID, &e.CreatedAt)
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO action_log (tenant_id, candidate_id, channel, note, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		e.TenantID, e.CandidateID, e.Channel, e.Note, e.CreatedAt,
	).Scan(&e.ID)
}

func (s *ActionLogStore) ListInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.ActionLogEntry, error) {
	return listActionsInWindow(ctx, s.db, tenantID, from, to)
}

func listActionsInWindow(ctx context.Context, q querier, tenantID uuid.UUID, from, to time.Time) ([]domain.ActionLogEntry, error) {
	rows, err := q.Query(ctx,
		`SELECT id, tenant_id, candidate_id, channel, note, created_at
		 FROM action_log
		 WHERE tenant_id = $1 AND created_at >= $2 AND created_at < $3
		 ORDER BY created_at DESC`,
		tenantID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.ActionLogEntry
	for rows.Next() {
		var e domain.ActionLogEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.CandidateID, &e.Channel, &e.Note, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SnapshotStore reads candidates and action log inside one read-only
// REPEATABLE READ transaction so both see the same snapshot.
type SnapshotStore struct {
	db *pgxpool.Pool
}

func NewSnapshotStore(db *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func (s *SnapshotStore) ReadSnapshot(ctx context.Context, tenantID uuid.UUID, candidateCutoff, logFrom, logTo time.Time) ([]domain.Candidate, []domain.ActionLogEntry, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	candidates, err := listLastInteractionBefore(ctx, tx, tenantID, candidateCutoff)
	if err != nil {
		return nil, nil, err
	}

	var entries []domain.ActionLogEntry
	if logFrom.Before(logTo) {
		entries, err = listActionsInWindow(ctx, tx, tenantID, logFrom, logTo)
		if err != nil {
			return nil, nil, err
		}
	}

	return candidates, entries, tx.Commit(ctx)
}
