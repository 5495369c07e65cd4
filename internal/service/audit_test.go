package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/service"
)

// ---- mock orgResolver ------------------------------------------------------

type mockOrgResolver struct {
	orgOf func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

func (m *mockOrgResolver) OrgOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return m.orgOf(ctx, id)
}

func newAuditService(entries *fakeAuditRepo, orgOf func(context.Context, uuid.UUID) (uuid.UUID, error)) *service.AuditService {
	return service.NewAuditService(entries, &mockOrgResolver{orgOf: orgOf},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func failResolve(t *testing.T) func(context.Context, uuid.UUID) (uuid.UUID, error) {
	return func(context.Context, uuid.UUID) (uuid.UUID, error) {
		t.Fatal("resolver must not be called when the payload carries org_id")
		return uuid.Nil, nil
	}
}

func TestAuditService_Record_TenantFromPayload(t *testing.T) {
	entries := &fakeAuditRepo{}
	svc := newAuditService(entries, failResolve(t))
	org, exp, user := uuid.New(), uuid.New(), uuid.New()

	for _, orgValue := range []any{org, org.String()} {
		err := svc.Record(context.Background(), user, exp, domain.ActionCreated, map[string]any{"org_id": orgValue})
		require.NoError(t, err)
	}

	require.Len(t, entries.entries, 2)
	for _, e := range entries.entries {
		assert.Equal(t, org, e.OrganizationID)
		assert.Equal(t, user, e.UserID)
		assert.Equal(t, exp, e.ExperienceID)
	}
}

func TestAuditService_Record_TenantFromRecord(t *testing.T) {
	entries := &fakeAuditRepo{}
	org, exp := uuid.New(), uuid.New()
	svc := newAuditService(entries, func(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
		assert.Equal(t, exp, id)
		return org, nil
	})

	err := svc.Record(context.Background(), uuid.New(), exp, domain.ActionArchived, map[string]any{})

	require.NoError(t, err)
	require.Len(t, entries.entries, 1)
	assert.Equal(t, org, entries.entries[0].OrganizationID)
}

func TestAuditService_Record_Unresolved(t *testing.T) {
	entries := &fakeAuditRepo{}
	svc := newAuditService(entries, func(context.Context, uuid.UUID) (uuid.UUID, error) {
		return uuid.Nil, domain.ErrNotFound
	})

	err := svc.Record(context.Background(), uuid.New(), uuid.New(), domain.ActionUpdated, nil)

	assert.ErrorIs(t, err, domain.ErrTenantUnresolved)
	assert.Empty(t, entries.entries, "nothing is written without a tenant")
}

func TestAuditService_Record_NilUserIsSystem(t *testing.T) {
	entries := &fakeAuditRepo{}
	svc := newAuditService(entries, failResolve(t))

	err := svc.Record(context.Background(), uuid.Nil, uuid.New(), domain.ActionViewed, map[string]any{"org_id": uuid.New()})

	require.NoError(t, err)
	assert.Equal(t, domain.SystemUserID, entries.entries[0].UserID)
}

func TestAuditService_Record_UnknownAction(t *testing.T) {
	svc := newAuditService(&fakeAuditRepo{}, failResolve(t))

	err := svc.Record(context.Background(), uuid.New(), uuid.New(), domain.ActionType("exploded"), map[string]any{"org_id": uuid.New()})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuditService_List(t *testing.T) {
	entries := &fakeAuditRepo{}
	svc := newAuditService(entries, failResolve(t))
	org, exp := uuid.New(), uuid.New()
	ctx := context.Background()
	for _, action := range []domain.ActionType{domain.ActionCreated, domain.ActionShared, domain.ActionViewed} {
		require.NoError(t, svc.Record(ctx, uuid.New(), exp, action, map[string]any{"org_id": org}))
	}

	member := domain.Actor{UserID: uuid.New(), OrgIDs: []uuid.UUID{org}}
	got, total, err := svc.List(ctx, member, org, exp, domain.NewPaginationParams(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, got, 3)
	assert.Equal(t, domain.ActionViewed, got[0].ActionType, "newest first")

	_, _, err = svc.List(ctx, domain.Actor{UserID: uuid.New()}, org, exp, domain.NewPaginationParams(nil, nil))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, _, err = svc.List(ctx, domain.Actor{}, org, exp, domain.NewPaginationParams(nil, nil))
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
