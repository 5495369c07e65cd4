package repo_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/repo"
	"github.com/pkordes/tourdesk/testutil"
)

// testRepos bundles the repos under test, all backed by one transaction.
type testRepos struct {
	tx          pgx.Tx
	experiences repo.ExperienceRepo
	audit       repo.AuditRepo
}

// newTestRepos opens a transaction against the test database and returns
// repos backed by that transaction. The transaction is automatically rolled
// back when the test finishes, giving free per-test isolation.
func newTestRepos(t *testing.T) testRepos {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		// Rollback discards all changes made during the test; no cleanup SQL needed.
		_ = tx.Rollback(context.Background())
	})

	return testRepos{
		tx:          tx,
		experiences: repo.NewExperienceRepo(tx),
		audit:       repo.NewAuditRepo(tx),
	}
}

// insertOrg creates an organization row and returns its id.
func (r testRepos) insertOrg(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := r.tx.Exec(context.Background(),
		`INSERT INTO organizations (id, name, slug) VALUES ($1, $2, $3)`,
		id, "Org "+id.String()[:8], "org-"+id.String())
	require.NoError(t, err, "insert organization")
	return id
}

// insertUser creates a users row and returns its id.
func (r testRepos) insertUser(t *testing.T, displayName string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := r.tx.Exec(context.Background(),
		`INSERT INTO users (id, email, display_name) VALUES ($1, $2, $3)`,
		id, id.String()+"@example.com", displayName)
	require.NoError(t, err, "insert user")
	return id
}

// experienceFixture returns an insertable experience for org with sensible
// defaults. Callers can override individual fields after calling it.
func experienceFixture(org uuid.UUID) domain.Experience {
	id := uuid.New()
	token := uuid.New().String()[:8] + id.String()[:8]
	return domain.Experience{
		ID:                 id,
		OrgID:              org,
		Slug:               "tour-" + id.String(),
		ShareableToken:     &token,
		Name:               "Harbor Walk",
		Description:        "Stroll the old harbor.",
		Category:           "walking",
		Categories:         []string{"walking", "history"},
		DurationMinutes:    90,
		MinGroupSize:       1,
		MaxGroupSize:       12,
		Price:              25.5,
		Currency:           "EUR",
		BookingNoticeHours: 24,
		Included:           []string{"guide"},
		AvailableDates:     json.RawMessage(`[{"date": "2026-08-01"}]`),
		IsActive:           true,
		IsBookableOnline:   true,
	}
}

func (r testRepos) mustInsert(t *testing.T, e domain.Experience) domain.Experience {
	t.Helper()
	got, err := r.experiences.Insert(context.Background(), e)
	require.NoError(t, err, "insert experience")
	return got
}
