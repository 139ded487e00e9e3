package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nexh/focus/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCandidateService() (*CandidateService, *mockCandidateStore) {
	cs := newMockCandidateStore()
	svc := NewCandidateService(cs)
	svc.now = func() time.Time { return testNow }
	return svc, cs
}

func TestCandidateService_Create(t *testing.T) {
	svc, _ := newTestCandidateService()
	ctx := context.Background()
	tenantID := uuid.New()

	c := &domain.Candidate{Name: "  Sarah  ", Phone: "+15550100"}
	require.NoError(t, svc.Create(ctx, c, tenantID))
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, tenantID, c.TenantID)
	assert.Equal(t, "Sarah", c.Name)
	assert.Equal(t, domain.CandidateStatusActive, c.Status)
}

func TestCandidateService_CreateValidation(t *testing.T) {
	svc, _ := newTestCandidateService()
	ctx := context.Background()
	tenantID := uuid.New()
	future := testNow.Add(time.Hour)

	assert.ErrorIs(t, svc.Create(ctx, &domain.Candidate{Name: " "}, tenantID), ErrCandidateNameMissing)
	assert.ErrorIs(t, svc.Create(ctx, &domain.Candidate{Name: "a", Status: "vip"}, tenantID), ErrCandidateInvalidStatus)
	assert.ErrorIs(t, svc.Create(ctx, &domain.Candidate{Name: "a", LastInteractionAt: &future}, tenantID), ErrInteractionInFuture)
}

func TestCandidateService_GetByID_TenantScoped(t *testing.T) {
	svc, cs := newTestCandidateService()
	ctx := context.Background()
	owner := uuid.New()
	c := cs.add(owner, "Sarah", testDay)

	got, err := svc.GetByID(ctx, c.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, "Sarah", got.Name)

	_, err = svc.GetByID(ctx, c.ID, uuid.New())
	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "candidate", nf.Resource)
}

func TestCandidateService_List(t *testing.T) {
	svc, cs := newTestCandidateService()
	ctx := context.Background()
	tenantID := uuid.New()
	cs.add(tenantID, "a", testDay)
	optedOut := cs.add(tenantID, "b", testDay)
	optedOut.Status = domain.CandidateStatusOptedOut
	cs.add(uuid.New(), "other tenant", testDay)

	all, err := svc.List(ctx, tenantID, domain.CandidateListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := domain.CandidateStatusOptedOut
	filtered, err := svc.List(ctx, tenantID, domain.CandidateListOpts{Status: &status})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, optedOut.ID, filtered[0].ID)

	bad := domain.CandidateStatus("vip")
	_, err = svc.List(ctx, tenantID, domain.CandidateListOpts{Status: &bad})
	assert.ErrorIs(t, err, ErrCandidateInvalidStatus)

	empty, err := svc.List(ctx, uuid.New(), domain.CandidateListOpts{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

func TestCandidateService_UpdateStatus(t *testing.T) {
	svc, cs := newTestCandidateService()
	ctx := context.Background()
	tenantID := uuid.New()
	c := cs.add(tenantID, "a", testDay)

	require.NoError(t, svc.UpdateStatus(ctx, c.ID, tenantID, domain.CandidateStatusExcluded))
	assert.Equal(t, domain.CandidateStatusExcluded, c.Status)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, c.ID, tenantID, "gone"), ErrCandidateInvalidStatus)

	var nf *domain.NotFoundError
	assert.True(t, errors.As(svc.UpdateStatus(ctx, uuid.New(), tenantID, domain.CandidateStatusActive), &nf))
}

func TestCandidateService_RecordInteraction(t *testing.T) {
	svc, cs := newTestCandidateService()
	ctx := context.Background()
	tenantID := uuid.New()
	c := cs.add(tenantID, "a", testDay.AddDate(0, 0, -90))

	require.NoError(t, svc.RecordInteraction(ctx, c.ID, tenantID, time.Time{}))
	require.NotNil(t, c.LastInteractionAt)
	assert.True(t, c.LastInteractionAt.Equal(testNow))

	assert.ErrorIs(t, svc.RecordInteraction(ctx, c.ID, tenantID, testNow.Add(time.Hour)), ErrInteractionInFuture)

	var nf *domain.NotFoundError
	assert.True(t, errors.As(svc.RecordInteraction(ctx, c.ID, uuid.New(), testNow), &nf))
}
