package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nexh/focus/internal/domain"
)

type TenantStore struct {
	db *pgxpool.Pool
}

func NewTenantStore(db *pgxpool.Pool) *TenantStore {
	return &TenantStore{db: db}
}

const tenantColumns = `id, name, industry, language, config, api_key_hash, created_at, updated_at`

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	var config []byte
	err := row.Scan(&t.ID, &t.Name, &t.Industry, &t.Language, &config, &t.APIKeyHash, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(config) > 0 {
		t.Config = json.RawMessage(config)
	}
	return t, nil
}

func (s *TenantStore) Create(ctx context.Context, t *domain.Tenant) error {
	if t.Language == "" {
		t.Language = domain.DefaultLanguage
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO tenants (name, industry, language, config, api_key_hash) VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		t.Name, t.Industry, t.Language, nullableJSON(t.Config), t.APIKeyHash,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	return wrapDuplicate(err, "create tenant")
}

func (s *TenantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return scanTenant(s.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`,
		id,
	))
}

func (s *TenantStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.Tenant, error) {
	return scanTenant(s.db.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE api_key_hash = $1`,
		apiKeyHash,
	))
}

func (s *TenantStore) UpdateConfig(ctx context.Context, id uuid.UUID, config json.RawMessage) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tenants SET config = $2, updated_at = NOW() WHERE id = $1`,
		id, nullableJSON(config),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *TenantStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM tenants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullableJSON(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
