package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tourdesk/internal/domain"
)

// GetPublicExperience handles GET /public/experiences/{token}.
// Only shareable, non-archived experiences are visible; each successful
// read counts one view.
func (s *Server) GetPublicExperience(w http.ResponseWriter, r *http.Request) {
	e, out, err := s.public.View(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		s.fail(w, r, err, experienceNotFound)
		return
	}
	if len(out.Failures) > 0 {
		s.log.WarnContext(r.Context(), "public view side effects failed", "experience_id", e.ID, "failures", out.Failures)
	}
	// Side-effect failures are not exposed to anonymous callers.
	writeJSON(w, http.StatusOK, Envelope{Success: true, Status: domain.OutcomeOK, Data: experienceToPublic(e)})
}

// GetBookingPage handles GET /public/book/{key}, where key is the shareable
// token or the slug. The experience must also be bookable online.
func (s *Server) GetBookingPage(w http.ResponseWriter, r *http.Request) {
	e, err := s.public.BookingPage(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, r, err, experienceNotFound)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Status: domain.OutcomeOK, Data: experienceToPublic(e)})
}
