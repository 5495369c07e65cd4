package handler

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/middleware"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"id", "slug", "name", "category", "location", "duration_minutes",
	"price", "currency", "is_active", "is_archived", "is_shareable",
	"view_count", "booking_count", "tags", "created_at",
}

// exportPageSize is the page size used while walking the full result set.
const exportPageSize = 100

// ExportExperiences handles GET /orgs/{orgId}/experiences/export.
// It accepts the list filters and returns every matching experience.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportExperiences(w http.ResponseWriter, r *http.Request) {
	org, err := pathUUID(r, "orgId")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	params, err := bindListParams(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody("invalid format for parameter format"))
		return
	}

	items, err := s.collect(r.Context(), middleware.ActorFrom(r.Context()), org, params.filter())
	if err != nil {
		s.fail(w, r, err, experienceNotFound)
		return
	}

	if format != nil && *format == "csv" {
		body := buildCSV(items)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="experiences.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = body.WriteTo(w)
		return
	}
	writeData(w, http.StatusOK, experiencesToResponse(items), domain.Outcome{}, nil)
}

// collect walks every page of the filtered list.
func (s *Server) collect(ctx context.Context, actor domain.Actor, org uuid.UUID, f domain.ExperienceFilter) ([]domain.Experience, error) {
	limit := exportPageSize
	var all []domain.Experience
	for page := 1; ; page++ {
		p := page
		items, total, err := s.experiences.List(ctx, actor, org, f, domain.NewPaginationParams(&p, &limit))
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) < limit || int64(len(all)) >= total {
			return all, nil
		}
	}
}

// buildCSV encodes experiences as CSV. Tags within a row are pipe-separated
// ("|") to keep each experience on a single CSV line.
func buildCSV(items []domain.Experience) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, e := range items {
		//nolint:errcheck
		w.Write(experienceToCSVRecord(e))
	}
	w.Flush()
	return &buf
}

func experienceToCSVRecord(e domain.Experience) []string {
	return []string{
		e.ID.String(),
		e.Slug,
		e.Name,
		e.Category,
		e.Location,
		strconv.Itoa(e.DurationMinutes),
		strconv.FormatFloat(e.Price, 'f', 2, 64),
		e.Currency,
		strconv.FormatBool(e.IsActive),
		strconv.FormatBool(e.IsArchived),
		strconv.FormatBool(e.IsShareable),
		strconv.FormatInt(e.ViewCount, 10),
		strconv.FormatInt(e.BookingCount, 10),
		strings.Join(e.Tags, "|"),
		e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
