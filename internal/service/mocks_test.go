package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/store"
)

var errStoreDown = errors.New("connection refused")

// mockTenantStore implements domain.TenantStore for testing.
type mockTenantStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*domain.Tenant
	getErr  error
	listErr error
}

func newMockTenantStore() *mockTenantStore {
	return &mockTenantStore{tenants: make(map[uuid.UUID]*domain.Tenant)}
}

func (m *mockTenantStore) add(industry string, config string) *domain.Tenant {
	t := &domain.Tenant{ID: uuid.New(), Name: "Tenant " + industry, Industry: industry}
	if config != "" {
		t.Config = json.RawMessage(config)
	}
	m.mu.Lock()
	m.tenants[t.ID] = t
	m.mu.Unlock()
	return t
}

func (m *mockTenantStore) Create(ctx context.Context, t *domain.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	m.tenants[t.ID] = t
	return nil
}

func (m *mockTenantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	t, ok := m.tenants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockTenantStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.APIKeyHash == apiKeyHash {
			return t, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockTenantStore) UpdateConfig(ctx context.Context, id uuid.UUID, config json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Config = config
	return nil
}

func (m *mockTenantStore) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	ids := make([]uuid.UUID, 0, len(m.tenants))
	for id := range m.tenants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// mockCandidateStore implements domain.CandidateStore and domain.SnapshotReader.
type mockCandidateStore struct {
	mu         sync.Mutex
	candidates map[uuid.UUID]*domain.Candidate
	actions    []domain.ActionLogEntry
	err        error
	snapshots  int
}

func newMockCandidateStore() *mockCandidateStore {
	return &mockCandidateStore{candidates: make(map[uuid.UUID]*domain.Candidate)}
}

func (m *mockCandidateStore) add(tenantID uuid.UUID, name string, last time.Time) *domain.Candidate {
	c := &domain.Candidate{
		ID:                uuid.New(),
		TenantID:          tenantID,
		Name:              name,
		Status:            domain.CandidateStatusActive,
		LastInteractionAt: &last,
	}
	m.mu.Lock()
	m.candidates[c.ID] = c
	m.mu.Unlock()
	return c
}

func (m *mockCandidateStore) Create(ctx context.Context, c *domain.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	c.ID = uuid.New()
	m.candidates[c.ID] = c
	return nil
}

func (m *mockCandidateStore) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.candidates[id]
	if !ok || c.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (m *mockCandidateStore) List(ctx context.Context, tenantID uuid.UUID, opts domain.CandidateListOpts) ([]domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Candidate
	for _, c := range m.candidates {
		if c.TenantID != tenantID {
			continue
		}
		if opts.Status != nil && c.Status != *opts.Status {
			continue
		}
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCandidateStore) ListLastInteractionBefore(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]domain.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Candidate
	for _, c := range m.candidates {
		if c.TenantID == tenantID && c.LastInteractionAt != nil && c.LastInteractionAt.Before(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCandidateStore) UpdateStatus(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, status domain.CandidateStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok || c.TenantID != tenantID {
		return store.ErrNotFound
	}
	c.Status = status
	return nil
}

func (m *mockCandidateStore) TouchInteraction(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok || c.TenantID != tenantID {
		return store.ErrNotFound
	}
	c.LastInteractionAt = &at
	return nil
}

func (m *mockCandidateStore) Append(ctx context.Context, e *domain.ActionLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	e.ID = uuid.New()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.actions = append(m.actions, *e)
	return nil
}

func (m *mockCandidateStore) ListInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.ActionLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.window(tenantID, from, to), nil
}

func (m *mockCandidateStore) window(tenantID uuid.UUID, from, to time.Time) []domain.ActionLogEntry {
	var out []domain.ActionLogEntry
	for _, e := range m.actions {
		if e.TenantID == tenantID && !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			out = append(out, e)
		}
	}
	return out
}

func (m *mockCandidateStore) ReadSnapshot(ctx context.Context, tenantID uuid.UUID, candidateCutoff, logFrom, logTo time.Time) ([]domain.Candidate, []domain.ActionLogEntry, error) {
	m.mu.Lock()
	m.snapshots++
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}
	cands, _ := m.ListLastInteractionBefore(ctx, tenantID, candidateCutoff)
	m.mu.Lock()
	defer m.mu.Unlock()
	return cands, m.window(tenantID, logFrom, logTo), nil
}

func (m *mockCandidateStore) snapshotCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots
}
