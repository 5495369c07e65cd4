package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/middleware"
)

const experienceNotFound = "experience not found"

// CreateExperience handles POST /orgs/{orgId}/experiences.
// The path organization overrides any org_id in the body.
func (s *Server) CreateExperience(w http.ResponseWriter, r *http.Request) {
	org, err := pathUUID(r, "orgId")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	in, warnings, err := s.decodeInput(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	in.OrgID = &org

	created, out, err := s.experiences.Create(r.Context(), middleware.ActorFrom(r.Context()), in)
	if err != nil {
		s.fail(w, r, err, experienceNotFound)
		return
	}
	writeData(w, http.StatusCreated, experienceToResponse(created), out, warnings)
}

// ListExperiences handles GET /orgs/{orgId}/experiences.
// Supports ?page= and ?limit= (defaults: page=1, limit=20, max=100) plus
// q, category, is_active, include_archived, min_price and max_price filters.
func (s *Server) ListExperiences(w http.ResponseWriter, r *http.Request) {
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

	page := params.page()
	items, total, err := s.experiences.List(r.Context(), middleware.ActorFrom(r.Context()), org, params.filter(), page)
	if err != nil {
		s.fail(w, r, err, experienceNotFound)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success:    true,
		Status:     domain.OutcomeOK,
		Data:       experiencesToResponse(items),
		Pagination: &Pagination{Page: page.Page, Limit: page.Limit, Total: total},
	})
}

// GetExperience handles GET /orgs/{orgId}/experiences/{id}.
// The last segment may be the id, the slug or the shareable token.
func (s *Server) GetExperience(w http.ResponseWriter, r *http.Request) {
	org, err := pathUUID(r, "orgId")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	e, err := s.experiences.Get(r.Context(), middleware.ActorFrom(r.Context()), org, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, experienceNotFound)
		return
	}
	writeData(w, http.StatusOK, experienceToResponse(e), domain.Outcome{}, nil)
}

// UpdateExperience handles PATCH /orgs/{orgId}/experiences/{id}.
// Only submitted fields change.
func (s *Server) UpdateExperience(w http.ResponseWriter, r *http.Request) {
	org, id, err := orgAndID(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	in, warnings, err := s.decodeInput(r)
	if err != nil {
		writeBodyError(w, err)
		return
	}

	updated, out, err := s.experiences.Update(r.Context(), middleware.ActorFrom(r.Context()), org, id, in)
	if err != nil {
		s.fail(w, r, err, experienceNotFound)
		return
	}
	writeData(w, http.StatusOK, experienceToResponse(updated), out, warnings)
}

// DeleteExperience handles DELETE /orgs/{orgId}/experiences/{id}.
// The audit trail survives the delete; images are removed best-effort.
func (s *Server) DeleteExperience(w http.ResponseWriter, r *http.Request) {
	org, id, err := orgAndID(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	out, err := s.experiences.Delete(r.Context(), middleware.ActorFrom(r.Context()), org, id)
	if err != nil {
		s.fail(w, r, err, experienceNotFound)
		return
	}
	writeData(w, http.StatusOK, nil, out, nil)
}

// lifecycleFunc is the shape shared by the single-experience transitions.
type lifecycleFunc func(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error)

// transition runs op against the {orgId}/{id} in the path and writes the
// resulting experience with the given success status.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, status int, op lifecycleFunc) {
	org, id, err := orgAndID(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	e, out, err := op(r.Context(), middleware.ActorFrom(r.Context()), org, id)
	if err != nil {
		s.fail(w, r, err, experienceNotFound)
		return
	}
	writeData(w, status, experienceToResponse(e), out, nil)
}

// ArchiveExperience handles POST …/{id}/archive.
func (s *Server) ArchiveExperience(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, http.StatusOK, s.experiences.Archive)
}

// RestoreExperience handles POST …/{id}/restore.
func (s *Server) RestoreExperience(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, http.StatusOK, s.experiences.Restore)
}

// DuplicateExperience handles POST …/{id}/duplicate and returns the copy.
func (s *Server) DuplicateExperience(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, http.StatusCreated, s.experiences.Duplicate)
}

// ToggleActive handles POST …/{id}/toggle-active.
func (s *Server) ToggleActive(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, http.StatusOK, s.experiences.ToggleActive)
}

// ToggleShareable handles POST …/{id}/toggle-shareable.
func (s *Server) ToggleShareable(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, http.StatusOK, s.experiences.ToggleShareable)
}

// RegenerateToken handles POST …/{id}/regenerate-token.
func (s *Server) RegenerateToken(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, http.StatusOK, s.experiences.RegenerateToken)
}

// SetActive handles PUT …/{id}/active with body {"value": bool}.
func (s *Server) SetActive(w http.ResponseWriter, r *http.Request) {
	s.setFlag(w, r, s.experiences.SetActive)
}

// SetShareable handles PUT …/{id}/shareable with body {"value": bool}.
func (s *Server) SetShareable(w http.ResponseWriter, r *http.Request) {
	s.setFlag(w, r, s.experiences.SetShareable)
}

func (s *Server) setFlag(w http.ResponseWriter, r *http.Request,
	set func(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID, value bool) (domain.Experience, domain.Outcome, error)) {
	var body FlagRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBodyError(w, bodyErr(err))
		return
	}
	if body.Value == nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody("value is required"))
		return
	}

	s.transition(w, r, http.StatusOK, func(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
		return set(ctx, actor, orgID, id, *body.Value)
	})
}

// ListAudit handles GET …/{id}/audit, newest entry first.
// Entries of a deleted experience stay readable.
func (s *Server) ListAudit(w http.ResponseWriter, r *http.Request) {
	org, id, err := orgAndID(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}
	page, err := bindPageParams(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, requestBody(err.Error()))
		return
	}

	entries, total, err := s.audit.List(r.Context(), middleware.ActorFrom(r.Context()), org, id, page)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, notFoundBody("audit trail not found"))
			return
		}
		s.fail(w, r, err, experienceNotFound)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success:    true,
		Status:     domain.OutcomeOK,
		Data:       auditToResponse(entries),
		Pagination: &Pagination{Page: page.Page, Limit: page.Limit, Total: total},
	})
}
