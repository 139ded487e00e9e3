package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/nexh/focus/internal/domain"
	"github.com/nexh/focus/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeTenants struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]*domain.Tenant
}

func (f *fakeTenants) Create(ctx context.Context, t *domain.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt
	f.tenants[t.ID] = t
	return nil
}

func (f *fakeTenants) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTenants) GetByAPIKeyHash(ctx context.Context, hash string) (*domain.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tenants {
		if t.APIKeyHash == hash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeTenants) UpdateConfig(ctx context.Context, id uuid.UUID, config json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return store.ErrNotFound
	}
	t.Config = config
	return nil
}

func (f *fakeTenants) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []uuid.UUID
	for id := range f.tenants {
		ids = append(ids, id)
	}
	return ids, nil
}

// fakeData holds candidates and the action log.
type fakeData struct {
	mu          sync.Mutex
	candidates  map[uuid.UUID]*domain.Candidate
	actions     []domain.ActionLogEntry
	snapshotErr error
}

func (f *fakeData) Create(ctx context.Context, c *domain.Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.New()
	f.candidates[c.ID] = c
	return nil
}

func (f *fakeData) GetByID(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok || c.TenantID != tenantID {
		return nil, store.ErrNotFound
	}
	return c, nil
}

func (f *fakeData) List(ctx context.Context, tenantID uuid.UUID, opts domain.CandidateListOpts) ([]domain.Candidate, error) {
	return f.ListLastInteractionBefore(ctx, tenantID, time.Now().Add(time.Hour))
}

func (f *fakeData) ListLastInteractionBefore(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Candidate
	for _, c := range f.candidates {
		if c.TenantID == tenantID && c.LastInteractionAt != nil && c.LastInteractionAt.Before(cutoff) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeData) UpdateStatus(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, status domain.CandidateStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok || c.TenantID != tenantID {
		return store.ErrNotFound
	}
	c.Status = status
	return nil
}

func (f *fakeData) TouchInteraction(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.candidates[id]
	if !ok || c.TenantID != tenantID {
		return store.ErrNotFound
	}
	c.LastInteractionAt = &at
	return nil
}

func (f *fakeData) Append(ctx context.Context, e *domain.ActionLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.New()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	f.actions = append(f.actions, *e)
	return nil
}

func (f *fakeData) ListInWindow(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]domain.ActionLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ActionLogEntry
	for _, e := range f.actions {
		if e.TenantID == tenantID && !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeData) ReadSnapshot(ctx context.Context, tenantID uuid.UUID, cutoff, from, to time.Time) ([]domain.Candidate, []domain.ActionLogEntry, error) {
	if f.snapshotErr != nil {
		return nil, nil, f.snapshotErr
	}
	cands, _ := f.ListLastInteractionBefore(ctx, tenantID, cutoff)
	actions, _ := f.ListInWindow(ctx, tenantID, from, to)
	return cands, actions, nil
}

type mockDrafter struct {
	mock.Mock
}

func (m *mockDrafter) Draft(ctx context.Context, req domain.DraftRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type testServer struct {
	t    *testing.T
	app  *App
	data *fakeData
}

func newTestServer(t *testing.T, drafts domain.DraftGenerator) *testServer {
	t.Helper()
	return newTestServerWithCache(t, drafts, nil)
}

func newTestServerWithCache(t *testing.T, drafts domain.DraftGenerator, cache domain.ReportCache) *testServer {
	t.Helper()
	data := &fakeData{candidates: make(map[uuid.UUID]*domain.Candidate)}
	deps := Deps{
		Tenants:    &fakeTenants{tenants: make(map[uuid.UUID]*domain.Tenant)},
		Candidates: data,
		Actions:    data,
		Snapshots:  data,
		Cache:      cache,
		Drafts:     drafts,
	}
	return &testServer{t: t, app: NewApp(deps, zaptest.NewLogger(t)), data: data}
}

func (s *testServer) do(method, path, apiKey string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createTenant(industry string, config any) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/v1/tenants", "", map[string]any{"name": "Glow", "industry": industry, "config": config})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		APIKey string `json:"api_key"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.APIKey
}

func (s *testServer) createCandidate(apiKey, name string, daysAgo int) uuid.UUID {
	s.t.Helper()
	last := time.Now().UTC().AddDate(0, 0, -daysAgo)
	rec := s.do(http.MethodPost, "/v1/candidates", apiKey, map[string]any{"name": name, "last_interaction_at": last})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	var c domain.Candidate
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &c))
	return c.ID
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestFocusFlow(t *testing.T) {
	s := newTestServer(t, nil)
	key := s.createTenant("beauty", map[string]any{
		"rules":         []map[string]any{{"name": "days_absent_threshold", "value": "60"}},
		"cooldown_days": 30,
		"max_list_size": 10,
	})

	x := s.createCandidate(key, "X", 65)
	y := s.createCandidate(key, "Y", 65)
	s.createCandidate(key, "Z", 40)

	rec := s.do(http.MethodPost, "/v1/actions", key, map[string]any{
		"candidate_id": y.String(),
		"channel":      "whatsapp",
		"sent_at":      time.Now().UTC().AddDate(0, 0, -10),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	today := domain.FormatDate(time.Now())
	rec = s.do(http.MethodGet, "/v1/focus?date="+today, key, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	list := decode[domain.FocusList](t, rec)
	assert.Equal(t, today, list.Date)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, x, list.Entries[0].CandidateID)
	assert.Equal(t, 65, list.Entries[0].DaysSinceLastInteraction)
}

func TestFocus_Drafts(t *testing.T) {
	drafter := &mockDrafter{}
	drafter.On("Draft", mock.Anything, mock.MatchedBy(func(req domain.DraftRequest) bool {
		return req.Entry.Name == "Sarah" && req.Industry == "beauty"
	})).Return("Hi Sarah!", nil).Once()

	s := newTestServer(t, drafter)
	key := s.createTenant("beauty", nil)
	s.createCandidate(key, "Sarah", 75)

	rec := s.do(http.MethodGet, "/v1/focus?drafts=true", key, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	list := decode[domain.FocusList](t, rec)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "Hi Sarah!", list.Entries[0].Draft)
	drafter.AssertExpectations(t)
}

func TestFocus_ErrorMapping(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/v1/focus", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	misconfigured := s.createTenant("bakery", nil)
	rec = s.do(http.MethodGet, "/v1/focus", misconfigured, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "cooldown_days", decode[map[string]string](t, rec)["rule"])

	key := s.createTenant("beauty", nil)
	rec = s.do(http.MethodGet, "/v1/focus?date=15-03-2026", key, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/v1/focus?drafts=maybe", key, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.data.snapshotErr = errors.New("connection reset")
	rec = s.do(http.MethodGet, "/v1/focus", key, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTenantConfig(t *testing.T) {
	s := newTestServer(t, nil)
	key := s.createTenant("fitness", nil)

	rec := s.do(http.MethodGet, "/v1/tenant/config", key, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cfg := decode[map[string]any](t, rec)
	assert.Equal(t, float64(14), cfg["cooldown_days"])
	assert.ElementsMatch(t, []any{"days_absent_threshold", "cooldown_days", "max_list_size"}, cfg["defaulted"])

	rec = s.do(http.MethodPut, "/v1/tenant/config", key, map[string]any{"rules": map[string]any{"days_absent_threshold": "abc"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.do(http.MethodPut, "/v1/tenant/config", key, map[string]any{"rules": map[string]any{"days_absent_threshold": 10}, "cooldown_days": 3, "max_list_size": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cfg = decode[map[string]any](t, rec)
	assert.Equal(t, float64(3), cfg["cooldown_days"])
	assert.Equal(t, float64(5), cfg["max_list_size"])
	assert.Nil(t, cfg["defaulted"])
}

func TestCandidates(t *testing.T) {
	s := newTestServer(t, nil)
	key := s.createTenant("dental", nil)
	otherKey := s.createTenant("dental", nil)
	id := s.createCandidate(key, "Ana", 200)

	rec := s.do(http.MethodGet, "/v1/candidates/"+id.String(), key, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/v1/candidates/"+id.String(), otherKey, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/v1/candidates/not-a-uuid", key, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/candidates", key, map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/v1/candidates/"+id.String()+"/status", key, map[string]any{"status": "opted_out"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/v1/focus", key, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[domain.FocusList](t, rec).Entries)

	rec = s.do(http.MethodPost, "/v1/candidates/"+id.String()+"/interactions", key, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/v1/candidates", key, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["count"])
}

func TestCandidates_ChangesInvalidateCachedFocus(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := newTestServerWithCache(t, nil, store.NewRedisReportCacheFromClient(client, zaptest.NewLogger(t)))
	key := s.createTenant("beauty", nil)
	ana := s.createCandidate(key, "Ana", 90)
	ben := s.createCandidate(key, "Ben", 80)

	rec := s.do(http.MethodGet, "/v1/focus", key, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, decode[domain.FocusList](t, rec).Entries, 2)
	require.Len(t, mr.Keys(), 1)

	rec = s.do(http.MethodPut, "/v1/candidates/"+ana.String()+"/status", key, map[string]any{"status": "opted_out"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, mr.Keys())

	rec = s.do(http.MethodGet, "/v1/focus", key, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[domain.FocusList](t, rec).Entries
	require.Len(t, entries, 1)
	assert.Equal(t, ben, entries[0].CandidateID)

	rec = s.do(http.MethodPost, "/v1/candidates/"+ben.String()+"/interactions", key, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/v1/focus", key, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[domain.FocusList](t, rec).Entries)
}

func TestActions(t *testing.T) {
	s := newTestServer(t, nil)
	key := s.createTenant("beauty", nil)
	id := s.createCandidate(key, "Ana", 90)

	rec := s.do(http.MethodPost, "/v1/actions", key, map[string]any{"candidate_id": id.String(), "channel": "fax"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/actions", key, map[string]any{"candidate_id": uuid.NewString()})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/v1/actions", key, map[string]any{"candidate_id": id.String(), "note": "called"})
	require.Equal(t, http.StatusCreated, rec.Code)

	since := domain.FormatDate(time.Now().AddDate(0, 0, -1))
	rec = s.do(http.MethodGet, fmt.Sprintf("/v1/actions?since=%s", since), key, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["count"])
}

func TestHealthAndStatus(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[map[string]any](t, rec)
	assert.Contains(t, status, "build")

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "focus_http_requests_total")
}
