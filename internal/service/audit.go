package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/repo"
)

// orgResolver finds the tenant of an experience, including deleted ones.
type orgResolver interface {
	OrgOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// AuditService appends to and reads the experience audit log.
type AuditService struct {
	entries repo.AuditRepo
	orgs    orgResolver
	log     *slog.Logger
}

// NewAuditService constructs an AuditService. orgs is consulted when a
// change payload does not carry the tenant itself.
func NewAuditService(entries repo.AuditRepo, orgs orgResolver, log *slog.Logger) *AuditService {
	if log == nil {
		log = slog.Default()
	}
	return &AuditService{entries: entries, orgs: orgs, log: log}
}

// Record appends one entry. The tenant comes from changes["org_id"] when
// present, else from the experience record; if neither resolves the entry
// is dropped and domain.ErrTenantUnresolved returned. A nil userID is
// recorded as domain.SystemUserID.
func (s *AuditService) Record(ctx context.Context, userID, experienceID uuid.UUID, action domain.ActionType, changes map[string]any) error {
	if !action.Valid() {
		return fmt.Errorf("service.AuditService.Record: action %q: %w", action, domain.ErrValidation)
	}

	orgID, ok := orgFromChanges(changes)
	if !ok {
		resolved, err := s.orgs.OrgOf(ctx, experienceID)
		if err != nil || resolved == uuid.Nil {
			s.log.Warn("audit entry dropped: tenant unresolved",
				"experience_id", experienceID, "action", action, "error", err)
			return fmt.Errorf("service.AuditService.Record: %w", domain.ErrTenantUnresolved)
		}
		orgID = resolved
	}
	if userID == uuid.Nil {
		userID = domain.SystemUserID
	}

	_, err := s.entries.Insert(ctx, domain.AuditEntry{
		ExperienceID:   experienceID,
		OrganizationID: orgID,
		UserID:         userID,
		ActionType:     action,
		Changes:        changes,
	})
	if err != nil {
		return fmt.Errorf("service.AuditService.Record: %w", err)
	}
	return nil
}

// List returns one page of an experience's audit trail, newest first.
func (s *AuditService) List(ctx context.Context, actor domain.Actor, orgID, experienceID uuid.UUID, p domain.PaginationParams) ([]domain.AuditEntry, int64, error) {
	if err := authorize(actor, orgID); err != nil {
		return nil, 0, fmt.Errorf("service.AuditService.List: %w", err)
	}
	entries, total, err := s.entries.List(ctx, orgID, experienceID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.AuditService.List: %w", err)
	}
	return entries, total, nil
}

// orgFromChanges accepts the tenant as a uuid.UUID or its string form.
func orgFromChanges(changes map[string]any) (uuid.UUID, bool) {
	switch v := changes["org_id"].(type) {
	case uuid.UUID:
		return v, v != uuid.Nil
	case string:
		id, err := uuid.Parse(v)
		return id, err == nil && id != uuid.Nil
	}
	return uuid.Nil, false
}

// authorize enforces that actor is signed in and belongs to orgID.
func authorize(actor domain.Actor, orgID uuid.UUID) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !actor.MemberOf(orgID) {
		return domain.ErrForbidden
	}
	return nil
}
