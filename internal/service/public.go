package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/repo"
)

// PublicService serves anonymous reads of shared experiences.
// Anything that is missing, unshared or archived is reported as
// domain.ErrNotFound so callers cannot probe for hidden records.
type PublicService struct {
	repo    repo.ExperienceRepo
	audit   Auditor
	baseURL string
	log     *slog.Logger
}

// NewPublicService constructs a PublicService.
func NewPublicService(r repo.ExperienceRepo, audit Auditor, publicBaseURL string, log *slog.Logger) *PublicService {
	if log == nil {
		log = slog.Default()
	}
	return &PublicService{repo: r, audit: audit, baseURL: publicBaseURL, log: log}
}

// View resolves a share token. Each successful view increments view_count
// and writes a "viewed" entry as the system user; both are best-effort.
func (s *PublicService) View(ctx context.Context, token string) (domain.Experience, domain.Outcome, error) {
	var out domain.Outcome

	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Experience{}, out, fmt.Errorf("service.PublicService.View: %w", domain.ErrNotFound)
	}

	e, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.PublicService.View: %w", err)
	}
	if !e.PubliclyViewable() {
		return domain.Experience{}, out, fmt.Errorf("service.PublicService.View: %w", domain.ErrNotFound)
	}

	if err := s.repo.IncrementViewCount(ctx, e.ID); err != nil {
		out.Record(StepCountView, err)
		s.log.Warn("view count not incremented", "experience_id", e.ID, "error", err)
	} else {
		e.ViewCount++
	}

	err = s.audit.Record(ctx, domain.SystemUserID, e.ID, domain.ActionViewed, map[string]any{"org_id": e.OrgID})
	if err != nil {
		out.Record(StepAudit, err)
		s.log.Warn("audit entry not written", "experience_id", e.ID, "action", domain.ActionViewed, "error", err)
	}

	e.ShareURL = shareURL(s.baseURL, e)
	return e, out, nil
}

// BookingPage resolves a share token or slug for the booking flow. It
// additionally requires online booking to be enabled and does not count a
// view.
func (s *PublicService) BookingPage(ctx context.Context, key string) (domain.Experience, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Experience{}, fmt.Errorf("service.PublicService.BookingPage: %w", domain.ErrNotFound)
	}

	e, err := s.repo.GetByTokenOrSlug(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error("booking page lookup failed", "error", err)
		}
		return domain.Experience{}, fmt.Errorf("service.PublicService.BookingPage: %w", err)
	}
	if !e.PubliclyBookable() {
		return domain.Experience{}, fmt.Errorf("service.PublicService.BookingPage: %w", domain.ErrNotFound)
	}

	e.ShareURL = shareURL(s.baseURL, e)
	return e, nil
}
