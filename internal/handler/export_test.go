package handler_test

import (
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/handler"
)

// pagedList serves n copies of the fixture, honouring page and limit.
func pagedList(n int, calls *int) func(context.Context, domain.Actor, uuid.UUID, domain.ExperienceFilter, domain.PaginationParams) ([]domain.Experience, int64, error) {
	return func(_ context.Context, _ domain.Actor, _ uuid.UUID, _ domain.ExperienceFilter, p domain.PaginationParams) ([]domain.Experience, int64, error) {
		*calls++
		var out []domain.Experience
		for i := p.Offset(); i < n && len(out) < p.Limit; i++ {
			e := experienceFixture()
			e.ID = uuid.New()
			out = append(out, e)
		}
		return out, int64(n), nil
	}
}

// ---- GET …/export (JSON) -------------------------------------------------

func TestExportExperiences_JSON_WalksAllPages(t *testing.T) {
	calls := 0
	svc := &mockExperienceServicer{list: pagedList(230, &calls)}
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, experiencesPath("/export"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	var items []handler.Experience
	decodeEnvelope(t, rec.Body, &items)
	assert.Len(t, items, 230)
	assert.Equal(t, 3, calls)
}

func TestExportExperiences_JSON_Empty(t *testing.T) {
	calls := 0
	svc := &mockExperienceServicer{list: pagedList(0, &calls)}
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, experiencesPath("/export"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}

// ---- GET …/export?format=csv -----------------------------------------------

func TestExportExperiences_CSV(t *testing.T) {
	calls := 0
	svc := &mockExperienceServicer{list: pagedList(2, &calls)}
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, experiencesPath("/export?format=csv"), nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "experiences.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "header plus one row per experience")
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, "tags", records[0][13])

	row := records[1]
	assert.Equal(t, "sunset-kayak-tour", row[1])
	assert.Equal(t, "Monterey, CA", row[4])
	assert.Equal(t, "85.50", row[6])
	assert.Equal(t, "true", row[8])
	assert.Equal(t, "sunset", row[13])
	assert.Equal(t, "2026-05-01T09:00:00Z", row[14])
}

func TestExportExperiences_Forbidden(t *testing.T) {
	svc := &mockExperienceServicer{
		list: func(context.Context, domain.Actor, uuid.UUID, domain.ExperienceFilter, domain.PaginationParams) ([]domain.Experience, int64, error) {
			return nil, 0, domain.ErrForbidden
		},
	}
	rec := httptest.NewRecorder()

	newHTTPHandler(svc, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, experiencesPath("/export?format=csv"), nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
