package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/tourdesk/internal/domain"
)

// ExperienceRepo defines the persistence operations for Experiences.
// Every tenant-facing read and write is scoped by (org_id, id); the unscoped
// lookups exist for the public gate and for audit tenant resolution.
type ExperienceRepo interface {
	// Insert persists e as-is, including its caller-generated id, slug and
	// token, and returns the stored record.
	Insert(ctx context.Context, e domain.Experience) (domain.Experience, error)

	// Get returns the experience with id inside orgID.
	// Returns domain.ErrNotFound if it does not exist in that tenant.
	Get(ctx context.Context, orgID, id uuid.UUID) (domain.Experience, error)

	// GetByKey resolves key as an id, slug or shareable token inside orgID.
	GetByKey(ctx context.Context, orgID uuid.UUID, key string) (domain.Experience, error)

	// GetByToken resolves a shareable token across all tenants.
	GetByToken(ctx context.Context, token string) (domain.Experience, error)

	// GetByTokenOrSlug resolves key as a shareable token, falling back to a
	// slug, across all tenants. A token match wins over a slug match.
	GetByTokenOrSlug(ctx context.Context, key string) (domain.Experience, error)

	// OrgOf returns the tenant of an experience, consulting tombstones for
	// deleted records.
	OrgOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	// List returns one page of a tenant's experiences ordered by updated_at
	// descending, plus the total number of matching rows.
	List(ctx context.Context, orgID uuid.UUID, f domain.ExperienceFilter, p domain.PaginationParams) ([]domain.Experience, int64, error)

	// Update writes the given column values and bumps updated_at.
	// Unknown columns are rejected with domain.ErrValidation.
	Update(ctx context.Context, orgID, id uuid.UUID, set map[string]any) (domain.Experience, error)

	// Delete removes the experience and records a tombstone in one statement,
	// returning the deleted row.
	Delete(ctx context.Context, orgID, id, deletedBy uuid.UUID) (domain.Experience, error)

	// IncrementViewCount adds one to view_count without touching updated_at.
	IncrementViewCount(ctx context.Context, id uuid.UUID) error

	// SlugExists reports whether any experience uses slug.
	SlugExists(ctx context.Context, slug string) (bool, error)

	// TokenExists reports whether any experience uses token.
	TokenExists(ctx context.Context, token string) (bool, error)
}

// updatableColumns are the columns Update accepts.
var updatableColumns = map[string]bool{
	"slug": true, "shareable_token": true,
	"name": true, "description": true, "category": true, "categories": true,
	"location": true, "meeting_point": true, "duration_minutes": true,
	"min_group_size": true, "max_group_size": true, "price": true,
	"currency": true, "cancellation_policy": true, "booking_notice_hours": true,
	"included": true, "excluded": true, "requirements": true,
	"highlights": true, "languages": true, "tags": true, "images": true,
	"available_dates": true,
	"is_active": true, "is_archived": true, "is_bookable_online": true,
	"is_shareable": true, "archived_at": true, "archived_by": true,
	"updated_by": true,
}

const experienceColumns = `
	id, org_id, slug, shareable_token,
	name, description, category, categories, location, meeting_point,
	duration_minutes, min_group_size, max_group_size, price, currency,
	cancellation_policy, booking_notice_hours,
	included, excluded, requirements, highlights, languages, tags, images,
	available_dates,
	is_active, is_archived, is_bookable_online, is_shareable,
	archived_at, archived_by,
	view_count, booking_count, avg_rating, total_reviews,
	duplicated_from, created_by, updated_by, created_at, updated_at`

// pgExperienceRepo is the Postgres implementation of ExperienceRepo.
type pgExperienceRepo struct {
	db db
}

// NewExperienceRepo constructs an ExperienceRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewExperienceRepo(db db) ExperienceRepo {
	return &pgExperienceRepo{db: db}
}

func (r *pgExperienceRepo) Insert(ctx context.Context, e domain.Experience) (domain.Experience, error) {
	q := `
		INSERT INTO experiences (
			id, org_id, slug, shareable_token,
			name, description, category, categories, location, meeting_point,
			duration_minutes, min_group_size, max_group_size, price, currency,
			cancellation_policy, booking_notice_hours,
			included, excluded, requirements, highlights, languages, tags, images,
			available_dates,
			is_active, is_archived, is_bookable_online, is_shareable,
			duplicated_from, created_by, updated_by
		) VALUES (
			@id, @org_id, @slug, @shareable_token,
			@name, @description, @category, @categories, @location, @meeting_point,
			@duration_minutes, @min_group_size, @max_group_size, @price, @currency,
			@cancellation_policy, @booking_notice_hours,
			@included, @excluded, @requirements, @highlights, @languages, @tags, @images,
			@available_dates,
			@is_active, @is_archived, @is_bookable_online, @is_shareable,
			@duplicated_from, @created_by, @updated_by
		)
		RETURNING` + experienceColumns

	args := pgx.NamedArgs{
		"id":                   e.ID,
		"org_id":               e.OrgID,
		"slug":                 e.Slug,
		"shareable_token":      e.ShareableToken, // nil becomes NULL
		"name":                 e.Name,
		"description":          e.Description,
		"category":             e.Category,
		"categories":           nonNil(e.Categories),
		"location":             e.Location,
		"meeting_point":        e.MeetingPoint,
		"duration_minutes":     e.DurationMinutes,
		"min_group_size":       e.MinGroupSize,
		"max_group_size":       e.MaxGroupSize,
		"price":                e.Price,
		"currency":             e.Currency,
		"cancellation_policy":  e.CancellationPolicy,
		"booking_notice_hours": e.BookingNoticeHours,
		"included":             nonNil(e.Included),
		"excluded":             nonNil(e.Excluded),
		"requirements":         nonNil(e.Requirements),
		"highlights":           nonNil(e.Highlights),
		"languages":            nonNil(e.Languages),
		"tags":                 nonNil(e.Tags),
		"images":               nonNil(e.Images),
		"available_dates":      jsonOrNull(e.AvailableDates),
		"is_active":            e.IsActive,
		"is_archived":          e.IsArchived,
		"is_bookable_online":   e.IsBookableOnline,
		"is_shareable":         e.IsShareable,
		"duplicated_from":      e.DuplicatedFrom,
		"created_by":           e.CreatedBy,
		"updated_by":           e.UpdatedBy,
	}

	result, err := scanExperience(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.Insert: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgExperienceRepo) Get(ctx context.Context, orgID, id uuid.UUID) (domain.Experience, error) {
	q := `SELECT` + experienceColumns + `
		FROM experiences
		WHERE org_id = @org_id AND id = @id`

	result, err := scanExperience(r.db.QueryRow(ctx, q, pgx.NamedArgs{"org_id": orgID, "id": id}))
	if err != nil {
		return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.Get: %w", mapErr(err))
	}
	return result, nil
}

// GetByKey compares the id as text so a slug or token never fails uuid parsing.
func (r *pgExperienceRepo) GetByKey(ctx context.Context, orgID uuid.UUID, key string) (domain.Experience, error) {
	q := `SELECT` + experienceColumns + `
		FROM experiences
		WHERE org_id = @org_id
		  AND (id::text = @key OR slug = @key OR shareable_token = @key)
		LIMIT 1`

	result, err := scanExperience(r.db.QueryRow(ctx, q, pgx.NamedArgs{"org_id": orgID, "key": key}))
	if err != nil {
		return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.GetByKey: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgExperienceRepo) GetByToken(ctx context.Context, token string) (domain.Experience, error) {
	q := `SELECT` + experienceColumns + `
		FROM experiences
		WHERE shareable_token = @token`

	result, err := scanExperience(r.db.QueryRow(ctx, q, pgx.NamedArgs{"token": token}))
	if err != nil {
		return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.GetByToken: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgExperienceRepo) GetByTokenOrSlug(ctx context.Context, key string) (domain.Experience, error) {
	q := `SELECT` + experienceColumns + `
		FROM experiences
		WHERE shareable_token = @key OR slug = @key
		ORDER BY (shareable_token = @key) DESC NULLS LAST
		LIMIT 1`

	result, err := scanExperience(r.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key}))
	if err != nil {
		return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.GetByTokenOrSlug: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgExperienceRepo) OrgOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	const q = `
		SELECT org_id FROM experiences WHERE id = @id
		UNION ALL
		SELECT org_id FROM experience_tombstones WHERE experience_id = @id
		LIMIT 1`

	var org pgtype.UUID
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&org); err != nil {
		return uuid.Nil, fmt.Errorf("repo.ExperienceRepo.OrgOf: %w", mapErr(err))
	}
	return uuid.UUID(org.Bytes), nil
}

func (r *pgExperienceRepo) List(ctx context.Context, orgID uuid.UUID, f domain.ExperienceFilter, p domain.PaginationParams) ([]domain.Experience, int64, error) {
	where, args := experienceWhere(orgID, f)

	var total int64
	countQ := `SELECT count(*) FROM experiences WHERE ` + where
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ExperienceRepo.List: count: %w", err)
	}

	args["limit"] = p.Limit
	args["offset"] = p.Offset()
	q := `SELECT` + experienceColumns + `
		FROM experiences
		WHERE ` + where + `
		ORDER BY updated_at DESC, id
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ExperienceRepo.List: %w", err)
	}
	defer rows.Close()

	items := []domain.Experience{}
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ExperienceRepo.List: scan: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ExperienceRepo.List: rows: %w", err)
	}
	return items, total, nil
}

// experienceWhere builds the shared WHERE clause for List and its count.
func experienceWhere(orgID uuid.UUID, f domain.ExperienceFilter) (string, pgx.NamedArgs) {
	clauses := []string{"org_id = @org_id"}
	args := pgx.NamedArgs{"org_id": orgID}

	if !f.IncludeArchived {
		clauses = append(clauses, "NOT is_archived")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		clauses = append(clauses, "(name ILIKE @q OR description ILIKE @q)")
		args["q"] = "%" + escapeLike(q) + "%"
	}
	if f.Category != "" {
		clauses = append(clauses, "(category = @category OR @category = ANY(categories))")
		args["category"] = f.Category
	}
	if f.IsActive != nil {
		clauses = append(clauses, "is_active = @is_active")
		args["is_active"] = *f.IsActive
	}
	if f.MinPrice != nil {
		clauses = append(clauses, "price >= @min_price")
		args["min_price"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		clauses = append(clauses, "price <= @max_price")
		args["max_price"] = *f.MaxPrice
	}
	return strings.Join(clauses, " AND "), args
}

// escapeLike escapes ILIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *pgExperienceRepo) Update(ctx context.Context, orgID, id uuid.UUID, set map[string]any) (domain.Experience, error) {
	if len(set) == 0 {
		return r.Get(ctx, orgID, id)
	}

	// Sorted so the generated SQL is stable for a given column set.
	cols := make([]string, 0, len(set))
	for col := range set {
		if !updatableColumns[col] {
			return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.Update: column %q: %w", col, domain.ErrValidation)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := pgx.NamedArgs{"org_id": orgID, "id": id}
	assignments := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		assignments = append(assignments, fmt.Sprintf("%s = @%s", col, col))
		args[col] = columnArg(set[col])
	}
	assignments = append(assignments, "updated_at = now()")

	q := `UPDATE experiences SET ` + strings.Join(assignments, ", ") + `
		WHERE org_id = @org_id AND id = @id
		RETURNING` + experienceColumns

	result, err := scanExperience(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.Update: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgExperienceRepo) Delete(ctx context.Context, orgID, id, deletedBy uuid.UUID) (domain.Experience, error) {
	q := `
		WITH gone AS (
			DELETE FROM experiences
			WHERE org_id = @org_id AND id = @id
			RETURNING *
		), stone AS (
			INSERT INTO experience_tombstones (experience_id, org_id, slug, name, deleted_by)
			SELECT id, org_id, slug, name, @deleted_by FROM gone
		)
		SELECT` + experienceColumns + ` FROM gone`

	args := pgx.NamedArgs{"org_id": orgID, "id": id, "deleted_by": deletedBy}
	result, err := scanExperience(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Experience{}, fmt.Errorf("repo.ExperienceRepo.Delete: %w", mapErr(err))
	}
	return result, nil
}

func (r *pgExperienceRepo) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE experiences SET view_count = view_count + 1 WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.ExperienceRepo.IncrementViewCount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ExperienceRepo.IncrementViewCount: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgExperienceRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM experiences WHERE slug = @slug)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"slug": slug}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.ExperienceRepo.SlugExists: %w", err)
	}
	return exists, nil
}

func (r *pgExperienceRepo) TokenExists(ctx context.Context, token string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM experiences WHERE shareable_token = @token)`

	var exists bool
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"token": token}).Scan(&exists); err != nil {
		return false, fmt.Errorf("repo.ExperienceRepo.TokenExists: %w", err)
	}
	return exists, nil
}

// columnArg normalises Go values whose zero form would violate a NOT NULL
// column or encode as the wrong JSON.
func columnArg(v any) any {
	switch t := v.(type) {
	case []string:
		return nonNil(t)
	case json.RawMessage:
		return jsonOrNull(t)
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// jsonOrNull returns nil (SQL NULL) for empty or literal-null JSON so
// available_dates stays NULL rather than the JSON value null.
func jsonOrNull(b []byte) any {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return string(b)
}

// scanExperience maps a single database row into a domain.Experience.
func scanExperience(s scanner) (domain.Experience, error) {
	var (
		e              domain.Experience
		id, orgID      pgtype.UUID
		token          pgtype.Text
		dates          []byte
		archivedAt     pgtype.Timestamptz
		archivedBy     pgtype.UUID
		avgRating      pgtype.Float8
		duplicatedFrom pgtype.UUID
		createdBy      pgtype.UUID
		updatedBy      pgtype.UUID
	)

	err := s.Scan(
		&id, &orgID, &e.Slug, &token,
		&e.Name, &e.Description, &e.Category, &e.Categories, &e.Location, &e.MeetingPoint,
		&e.DurationMinutes, &e.MinGroupSize, &e.MaxGroupSize, &e.Price, &e.Currency,
		&e.CancellationPolicy, &e.BookingNoticeHours,
		&e.Included, &e.Excluded, &e.Requirements, &e.Highlights, &e.Languages, &e.Tags, &e.Images,
		&dates,
		&e.IsActive, &e.IsArchived, &e.IsBookableOnline, &e.IsShareable,
		&archivedAt, &archivedBy,
		&e.ViewCount, &e.BookingCount, &avgRating, &e.TotalReviews,
		&duplicatedFrom, &createdBy, &updatedBy, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return domain.Experience{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.OrgID = uuid.UUID(orgID.Bytes)
	if token.Valid {
		t := token.String
		e.ShareableToken = &t
	}
	if len(dates) > 0 {
		e.AvailableDates = dates
	}
	if archivedAt.Valid {
		at := archivedAt.Time.In(time.UTC)
		e.ArchivedAt = &at
	}
	if avgRating.Valid {
		v := avgRating.Float64
		e.AvgRating = &v
	}
	e.ArchivedBy = optionalUUID(archivedBy)
	e.DuplicatedFrom = optionalUUID(duplicatedFrom)
	e.CreatedBy = optionalUUID(createdBy)
	e.UpdatedBy = optionalUUID(updatedBy)

	return e, nil
}

func optionalUUID(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}
