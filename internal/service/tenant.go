package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/store"
)

var ErrTenantNameMissing = errors.New("name is required")

type TenantService struct {
	tenantStore domain.TenantStore
}

func NewTenantService(ts domain.TenantStore) *TenantService {
	return &TenantService{tenantStore: ts}
}

// Create validates the tenant's configuration before storing it. The raw
// configuration is kept as submitted; it is normalized whenever it is loaded.
func (s *TenantService) Create(ctx context.Context, t *domain.Tenant) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return ErrTenantNameMissing
	}
	t.Industry = strings.ToLower(strings.TrimSpace(t.Industry))
	if trimmed := bytes.TrimSpace(t.Config); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		t.Config = nil
	} else if _, err := domain.NormalizeConfig(t.Industry, t.Config); err != nil {
		return err
	}
	if err := s.tenantStore.Create(ctx, t); err != nil {
		return &domain.DataAccessError{Op: "create tenant", Err: err}
	}
	return nil
}

// UpdateConfig validates raw and stores it, returning the normalized view.
func (s *TenantService) UpdateConfig(ctx context.Context, tenant *domain.Tenant, raw json.RawMessage) (domain.IndustryConfig, error) {
	cfg, err := domain.NormalizeConfig(tenant.Industry, raw)
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.TenantID = tenant.ID
		}
		return domain.IndustryConfig{}, err
	}

	if err := s.tenantStore.UpdateConfig(ctx, tenant.ID, raw); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.IndustryConfig{}, &domain.NotFoundError{Resource: "tenant", ID: tenant.ID.String()}
		}
		return domain.IndustryConfig{}, &domain.DataAccessError{Op: "update tenant config", Err: err}
	}
	tenant.Config = raw
	return cfg, nil
}

// Config returns the tenant's normalized configuration.
func (s *TenantService) Config(ctx context.Context, tenantID uuid.UUID) (domain.IndustryConfig, error) {
	tenant, err := s.tenantStore.GetByID(ctx, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.IndustryConfig{}, &domain.NotFoundError{Resource: "tenant", ID: tenantID.String()}
		}
		return domain.IndustryConfig{}, &domain.DataAccessError{Op: "get tenant", Err: err}
	}
	cfg, err := domain.NormalizeConfig(tenant.Industry, tenant.Config)
	if err != nil {
		var cfgErr *domain.ConfigurationError
		if errors.As(err, &cfgErr) {
			cfgErr.TenantID = tenantID
		}
		return domain.IndustryConfig{}, err
	}
	return cfg, nil
}
