// Package handler implements the HTTP handlers for the Tourdesk API.
// All handlers are methods on Server; they are split into domain-specific
// files (health.go, experience.go, public.go, ...) but share the same struct
// so they can access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/tourdesk/internal/blob"
	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/form"
)

// ExperienceServicer defines the lifecycle operations the experience handlers
// depend on. Defining the interface here (in the consumer package) lets
// handler tests inject a mock without touching the database or blob store.
type ExperienceServicer interface {
	Create(ctx context.Context, actor domain.Actor, in domain.ExperienceInput) (domain.Experience, domain.Outcome, error)
	Update(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID, in domain.ExperienceInput) (domain.Experience, domain.Outcome, error)
	Archive(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error)
	Restore(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error)
	Delete(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Outcome, error)
	Duplicate(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error)
	SetActive(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID, value bool) (domain.Experience, domain.Outcome, error)
	ToggleActive(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error)
	SetShareable(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID, value bool) (domain.Experience, domain.Outcome, error)
	ToggleShareable(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error)
	RegenerateToken(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error)
	Get(ctx context.Context, actor domain.Actor, orgID uuid.UUID, key string) (domain.Experience, error)
	List(ctx context.Context, actor domain.Actor, orgID uuid.UUID, f domain.ExperienceFilter, p domain.PaginationParams) ([]domain.Experience, int64, error)
}

// AuditServicer reads an experience's audit trail.
type AuditServicer interface {
	List(ctx context.Context, actor domain.Actor, orgID, experienceID uuid.UUID, p domain.PaginationParams) ([]domain.AuditEntry, int64, error)
}

// PublicServicer serves anonymous reads.
type PublicServicer interface {
	View(ctx context.Context, token string) (domain.Experience, domain.Outcome, error)
	BookingPage(ctx context.Context, key string) (domain.Experience, error)
}

// Server holds the dependencies shared by every handler.
type Server struct {
	experiences ExperienceServicer
	audit       AuditServicer
	public      PublicServicer
	forms       *form.Parser
	log         *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(experiences ExperienceServicer, audit AuditServicer, public PublicServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		experiences: experiences,
		audit:       audit,
		public:      public,
		forms:       form.NewParser(log),
		log:         log,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil)
}

// RouteOptions carries the middleware applied to each route group.
// A nil field leaves that group unwrapped.
type RouteOptions struct {
	// Authenticate guards every /orgs route and must place a domain.Actor in
	// the request context (see middleware.NewAuthenticator).
	Authenticate func(http.Handler) http.Handler
	// PublicLimit throttles the anonymous /public routes.
	PublicLimit func(http.Handler) http.Handler
	// Blobs, when set, serves stored images under blob.MemoryRoute with that prefix
	// stripped. Only the memory store needs it; cloud stores have their own
	// public URLs.
	Blobs http.Handler
}

// Routes returns a chi router with every API endpoint registered.
func (s *Server) Routes(opts RouteOptions) chi.Router {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errorBody("not_found", "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errorBody("method_not_allowed", "method not allowed"))
	})

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	if opts.Blobs != nil {
		r.Handle(blob.MemoryRoute+"/*", http.StripPrefix(blob.MemoryRoute+"/", opts.Blobs))
	}

	r.Group(func(r chi.Router) {
		use(r, opts.PublicLimit)
		r.Get("/public/experiences/{token}", s.GetPublicExperience)
		r.Get("/public/book/{key}", s.GetBookingPage)
	})

	r.Group(func(r chi.Router) {
		use(r, opts.Authenticate)
		r.Route("/orgs/{orgId}/experiences", func(r chi.Router) {
			r.Get("/", s.ListExperiences)
			r.Post("/", s.CreateExperience)
			r.Get("/export", s.ExportExperiences)
			r.Get("/{id}", s.GetExperience) // id, slug or token
			r.Patch("/{id}", s.UpdateExperience)
			r.Delete("/{id}", s.DeleteExperience)
			r.Post("/{id}/archive", s.ArchiveExperience)
			r.Post("/{id}/restore", s.RestoreExperience)
			r.Post("/{id}/duplicate", s.DuplicateExperience)
			r.Post("/{id}/toggle-active", s.ToggleActive)
			r.Post("/{id}/toggle-shareable", s.ToggleShareable)
			r.Post("/{id}/regenerate-token", s.RegenerateToken)
			r.Put("/{id}/active", s.SetActive)
			r.Put("/{id}/shareable", s.SetShareable)
			r.Get("/{id}/audit", s.ListAudit)
		})
	})
	return r
}

func use(r chi.Router, mw func(http.Handler) http.Handler) {
	if mw != nil {
		r.Use(mw)
	}
}
