package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tourdesk/internal/domain"
)

// AuditRepo defines the persistence operations for the experience audit log.
// The log is append-only: there is no update or delete.
type AuditRepo interface {
	// Insert appends an entry and returns it with id and created_at populated.
	Insert(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error)

	// List returns one page of entries for an experience, newest first, with
	// display identity joined in where the acting user is known.
	List(ctx context.Context, orgID, experienceID uuid.UUID, p domain.PaginationParams) ([]domain.AuditEntry, int64, error)
}

// pgAuditRepo is the Postgres implementation of AuditRepo.
type pgAuditRepo struct {
	db db
}

// NewAuditRepo constructs an AuditRepo backed by the provided db connection.
func NewAuditRepo(db db) AuditRepo {
	return &pgAuditRepo{db: db}
}

func (r *pgAuditRepo) Insert(ctx context.Context, entry domain.AuditEntry) (domain.AuditEntry, error) {
	const q = `
		INSERT INTO experience_audit_log (experience_id, organization_id, user_id, action_type, changes)
		VALUES (@experience_id, @organization_id, @user_id, @action_type, @changes)
		RETURNING id, created_at`

	changes := entry.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	args := pgx.NamedArgs{
		"experience_id":   entry.ExperienceID,
		"organization_id": entry.OrganizationID,
		"user_id":         entry.UserID,
		"action_type":     string(entry.ActionType),
		"changes":         changes,
	}

	var id pgtype.UUID
	if err := r.db.QueryRow(ctx, q, args).Scan(&id, &entry.CreatedAt); err != nil {
		return domain.AuditEntry{}, fmt.Errorf("repo.AuditRepo.Insert: %w", mapErr(err))
	}
	entry.ID = uuid.UUID(id.Bytes)
	entry.Changes = changes
	return entry, nil
}

// List orders by created_at then the insertion sequence so entries written in
// the same transaction keep a stable newest-first order.
func (r *pgAuditRepo) List(ctx context.Context, orgID, experienceID uuid.UUID, p domain.PaginationParams) ([]domain.AuditEntry, int64, error) {
	args := pgx.NamedArgs{"org_id": orgID, "experience_id": experienceID}

	var total int64
	const countQ = `
		SELECT count(*) FROM experience_audit_log
		WHERE organization_id = @org_id AND experience_id = @experience_id`
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.List: count: %w", err)
	}

	args["limit"] = p.Limit
	args["offset"] = p.Offset()
	const q = `
		SELECT a.id, a.experience_id, a.organization_id, a.user_id, a.action_type,
		       a.changes, a.created_at,
		       u.display_name, u.email,
		       (t.experience_id IS NOT NULL) AS experience_deleted
		FROM experience_audit_log a
		LEFT JOIN users u ON u.id = a.user_id
		LEFT JOIN experience_tombstones t ON t.experience_id = a.experience_id
		WHERE a.organization_id = @org_id AND a.experience_id = @experience_id
		ORDER BY a.created_at DESC, a.seq DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.List: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		e, err := scanAuditEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.AuditRepo.List: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.AuditRepo.List: rows: %w", err)
	}
	return entries, total, nil
}

func scanAuditEntry(s scanner) (domain.AuditEntry, error) {
	var (
		e                      domain.AuditEntry
		id, expID, orgID, user pgtype.UUID
		action                 string
		displayName, email     pgtype.Text
	)
	err := s.Scan(&id, &expID, &orgID, &user, &action, &e.Changes, &e.CreatedAt,
		&displayName, &email, &e.ExperienceDeleted)
	if err != nil {
		return domain.AuditEntry{}, err
	}
	e.ID = uuid.UUID(id.Bytes)
	e.ExperienceID = uuid.UUID(expID.Bytes)
	e.OrganizationID = uuid.UUID(orgID.Bytes)
	e.UserID = uuid.UUID(user.Bytes)
	e.ActionType = domain.ActionType(action)
	if displayName.Valid {
		v := displayName.String
		e.UserDisplayName = &v
	}
	if email.Valid {
		v := email.String
		e.UserEmail = &v
	}
	return e, nil
}
