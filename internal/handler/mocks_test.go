package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/handler"
	"github.com/pkordes/tourdesk/internal/middleware"
)

// mockExperienceServicer is a test double for handler.ExperienceServicer.
// Set only the method fields your test needs.
type mockExperienceServicer struct {
	create          func(ctx context.Context, actor domain.Actor, in domain.ExperienceInput) (domain.Experience, domain.Outcome, error)
	update          func(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID, in domain.ExperienceInput) (domain.Experience, domain.Outcome, error)
	archive         transitionFunc
	restore         transitionFunc
	delete          func(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Outcome, error)
	duplicate       transitionFunc
	setActive       setFunc
	toggleActive    transitionFunc
	setShareable    setFunc
	toggleShareable transitionFunc
	regenerateToken transitionFunc
	get             func(ctx context.Context, actor domain.Actor, orgID uuid.UUID, key string) (domain.Experience, error)
	list            func(ctx context.Context, actor domain.Actor, orgID uuid.UUID, f domain.ExperienceFilter, p domain.PaginationParams) ([]domain.Experience, int64, error)
}

type transitionFunc func(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error)

type setFunc func(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID, value bool) (domain.Experience, domain.Outcome, error)

func (m *mockExperienceServicer) Create(ctx context.Context, a domain.Actor, in domain.ExperienceInput) (domain.Experience, domain.Outcome, error) {
	return m.create(ctx, a, in)
}
func (m *mockExperienceServicer) Update(ctx context.Context, a domain.Actor, org, id uuid.UUID, in domain.ExperienceInput) (domain.Experience, domain.Outcome, error) {
	return m.update(ctx, a, org, id, in)
}
func (m *mockExperienceServicer) Archive(ctx context.Context, a domain.Actor, org, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	return m.archive(ctx, a, org, id)
}
func (m *mockExperienceServicer) Restore(ctx context.Context, a domain.Actor, org, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	return m.restore(ctx, a, org, id)
}
func (m *mockExperienceServicer) Delete(ctx context.Context, a domain.Actor, org, id uuid.UUID) (domain.Outcome, error) {
	return m.delete(ctx, a, org, id)
}
func (m *mockExperienceServicer) Duplicate(ctx context.Context, a domain.Actor, org, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	return m.duplicate(ctx, a, org, id)
}
func (m *mockExperienceServicer) SetActive(ctx context.Context, a domain.Actor, org, id uuid.UUID, v bool) (domain.Experience, domain.Outcome, error) {
	return m.setActive(ctx, a, org, id, v)
}
func (m *mockExperienceServicer) ToggleActive(ctx context.Context, a domain.Actor, org, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	return m.toggleActive(ctx, a, org, id)
}
func (m *mockExperienceServicer) SetShareable(ctx context.Context, a domain.Actor, org, id uuid.UUID, v bool) (domain.Experience, domain.Outcome, error) {
	return m.setShareable(ctx, a, org, id, v)
}
func (m *mockExperienceServicer) ToggleShareable(ctx context.Context, a domain.Actor, org, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	return m.toggleShareable(ctx, a, org, id)
}
func (m *mockExperienceServicer) RegenerateToken(ctx context.Context, a domain.Actor, org, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	return m.regenerateToken(ctx, a, org, id)
}
func (m *mockExperienceServicer) Get(ctx context.Context, a domain.Actor, org uuid.UUID, key string) (domain.Experience, error) {
	return m.get(ctx, a, org, key)
}
func (m *mockExperienceServicer) List(ctx context.Context, a domain.Actor, org uuid.UUID, f domain.ExperienceFilter, p domain.PaginationParams) ([]domain.Experience, int64, error) {
	return m.list(ctx, a, org, f, p)
}

type mockAuditServicer struct {
	list func(ctx context.Context, actor domain.Actor, orgID, experienceID uuid.UUID, p domain.PaginationParams) ([]domain.AuditEntry, int64, error)
}

func (m *mockAuditServicer) List(ctx context.Context, a domain.Actor, org, id uuid.UUID, p domain.PaginationParams) ([]domain.AuditEntry, int64, error) {
	return m.list(ctx, a, org, id, p)
}

type mockPublicServicer struct {
	view        func(ctx context.Context, token string) (domain.Experience, domain.Outcome, error)
	bookingPage func(ctx context.Context, key string) (domain.Experience, error)
}

func (m *mockPublicServicer) View(ctx context.Context, token string) (domain.Experience, domain.Outcome, error) {
	return m.view(ctx, token)
}
func (m *mockPublicServicer) BookingPage(ctx context.Context, key string) (domain.Experience, error) {
	return m.bookingPage(ctx, key)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.ExperienceServicer = (*mockExperienceServicer)(nil)
	_ handler.AuditServicer      = (*mockAuditServicer)(nil)
	_ handler.PublicServicer     = (*mockPublicServicer)(nil)
)

// ---- helpers ---------------------------------------------------------------

var (
	testOrg   = uuid.MustParse("0b6f3c3e-2a55-4d8e-9d7a-1c2b3d4e5f60")
	testActor = domain.Actor{UserID: uuid.MustParse("7d1e9a40-5b6c-4f2d-8e3a-9b0c1d2e3f40"), OrgIDs: []uuid.UUID{testOrg}}
)

// withTestActor stands in for the bearer authenticator.
func withTestActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(middleware.WithActor(r.Context(), testActor)))
	})
}

// newHTTPHandler wires a Server with the given mocks into the chi router.
// This mirrors how the serve command wires it in production.
func newHTTPHandler(exp handler.ExperienceServicer, audit handler.AuditServicer, public handler.PublicServicer) http.Handler {
	srv := handler.NewServer(exp, audit, public, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return srv.Routes(handler.RouteOptions{Authenticate: withTestActor})
}

func experienceFixture() domain.Experience {
	token := "5f2b8c1d9e0a4b3c7d6e5f4a3b2c1d0e"
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return domain.Experience{
		ID:                 uuid.MustParse("3c9d2e1f-4a5b-4c6d-8e7f-9a0b1c2d3e4f"),
		OrgID:              testOrg,
		Slug:               "sunset-kayak-tour",
		ShareableToken:     &token,
		ShareURL:           "https://tours.example.com/share/" + token,
		Name:               "Sunset Kayak Tour",
		Description:        "Paddle the bay at golden hour.",
		Category:           "water",
		Categories:         []string{"water", "outdoor"},
		Location:           "Monterey, CA",
		MeetingPoint:       "Del Monte Beach",
		DurationMinutes:    120,
		MinGroupSize:       2,
		MaxGroupSize:       8,
		Price:              85.5,
		Currency:           "USD",
		CancellationPolicy: "Full refund up to 24 hours before.",
		BookingNoticeHours: 24,
		Included:           []string{"kayak", "life jacket"},
		Requirements:       []string{"swimmer"},
		Highlights:         []string{"sea otters"},
		Languages:          []string{"en", "es"},
		Tags:               []string{"sunset"},
		Images:             []string{"https://blobs.example.com/media/experiences/3c9d2e1f/a.jpg"},
		AvailableDates:     json.RawMessage(`[{"date":"2026-07-01","slots":4}]`),
		IsActive:           true,
		IsBookableOnline:   true,
		IsShareable:        true,
		ViewCount:          41,
		AvgRating:          ptr(4.5),
		TotalReviews:       12,
		CreatedAt:          created,
		UpdatedAt:          created,
	}
}

func ptr[T any](v T) *T { return &v }

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// envelope decodes a success body, keeping data raw for the caller.
type envelope struct {
	Success    bool                       `json:"success"`
	Status     string                     `json:"status"`
	Data       json.RawMessage            `json:"data"`
	Pagination *handler.Pagination        `json:"pagination"`
	Warnings   []domain.FieldWarning      `json:"warnings"`
	Failures   []domain.SideEffectFailure `json:"failures"`
}

func decodeEnvelope(t *testing.T, body io.Reader, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func decodeError(t *testing.T, body io.Reader) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}
