// Package service contains the business logic for the Tourdesk API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
//
// ExperienceService is the single state machine for an experience's
// lifecycle. Each operation performs one primary write; audit entries, blob
// work and counters that follow it are best-effort and reported through
// domain.Outcome rather than failing the call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tourdesk/internal/blob"
	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/repo"
)

// Side-effect step names reported in domain.Outcome.
const (
	StepUploadImage  = "upload_image"
	StepCopyImage    = "copy_image"
	StepAttachImages = "attach_images"
	StepRemoveImages = "remove_images"
	StepAudit        = "audit"
	StepCountView    = "count_view"
)

const copySuffix = " (Copy)"

// Auditor records audit entries. *AuditService implements it.
type Auditor interface {
	Record(ctx context.Context, userID, experienceID uuid.UUID, action domain.ActionType, changes map[string]any) error
}

// ExperienceService implements the experience lifecycle.
type ExperienceService struct {
	repo    repo.ExperienceRepo
	audit   Auditor
	blobs   blob.Store
	baseURL string
	log     *slog.Logger
	now     func() time.Time
}

// NewExperienceService constructs an ExperienceService. publicBaseURL
// prefixes derived share URLs.
func NewExperienceService(r repo.ExperienceRepo, audit Auditor, blobs blob.Store, publicBaseURL string, log *slog.Logger) *ExperienceService {
	if log == nil {
		log = slog.Default()
	}
	return &ExperienceService{
		repo:    r,
		audit:   audit,
		blobs:   blobs,
		baseURL: publicBaseURL,
		log:     log,
		now:     time.Now,
	}
}

// Create persists a new experience in the tenant named by in.OrgID, or the
// actor's only tenant when none is named. A share token is always issued.
// Attached images are uploaded after the insert; a failed upload is skipped.
func (s *ExperienceService) Create(ctx context.Context, actor domain.Actor, in domain.ExperienceInput) (domain.Experience, domain.Outcome, error) {
	var out domain.Outcome

	orgID, err := resolveTenant(actor, in.OrgID)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Create: %w", err)
	}

	e := newExperience()
	applyInput(&e, in)
	if err := validateExperience(e); err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Create: %w", err)
	}

	e.ID = uuid.New()
	e.OrgID = orgID
	e.CreatedBy = &actor.UserID
	e.UpdatedBy = &actor.UserID

	if e.Slug, err = uniqueSlug(ctx, e.Name, s.repo.SlugExists); err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Create: %w", err)
	}
	token, err := freshToken(ctx, "", s.repo.TokenExists)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Create: %w", err)
	}
	e.ShareableToken = &token

	created, err := s.repo.Insert(ctx, e)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Create: %w", err)
	}

	if urls := s.uploadImages(ctx, created.ID, in.Uploads, &out); len(urls) > 0 {
		created = s.attachImages(ctx, created, append(slices.Clone(created.Images), urls...), &out)
	}

	s.record(ctx, &out, actor.UserID, created.ID, domain.ActionCreated, map[string]any{
		"org_id": created.OrgID,
		"name":   created.Name,
		"slug":   created.Slug,
	})
	return s.withShareURL(created), out, nil
}

// Update writes only the submitted fields. New uploads are appended to the
// image list; RemoveImages prunes URLs and their blobs.
func (s *ExperienceService) Update(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID, in domain.ExperienceInput) (domain.Experience, domain.Outcome, error) {
	var out domain.Outcome

	cur, err := s.load(ctx, actor, orgID, id)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Update: %w", err)
	}
	if in.IsActive != nil && *in.IsActive && cur.IsArchived {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Update: %w: restore the experience before activating it", domain.ErrValidation)
	}

	next := cur
	next.Images = slices.Clone(cur.Images)
	touched := applyInput(&next, in)
	if err := validateExperience(next); err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Update: %w", err)
	}

	if next.IsShareable && next.ShareableToken == nil {
		token, err := freshToken(ctx, "", s.repo.TokenExists)
		if err != nil {
			return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Update: %w", err)
		}
		next.ShareableToken = &token
	}

	var removed []string
	if len(in.RemoveImages) > 0 {
		next.Images = slices.DeleteFunc(next.Images, func(u string) bool {
			if slices.Contains(in.RemoveImages, u) {
				removed = append(removed, u)
				return true
			}
			return false
		})
		touched = append(touched, "images")
	}
	if urls := s.uploadImages(ctx, id, in.Uploads, &out); len(urls) > 0 {
		next.Images = append(next.Images, urls...)
		touched = append(touched, "images")
	}

	set, diff := changedColumns(cur, next, touched)
	if cur.ShareableToken == nil && next.ShareableToken != nil {
		set["shareable_token"] = *next.ShareableToken
	}
	if len(set) == 0 {
		return s.withShareURL(cur), out, nil
	}
	set["updated_by"] = actor.UserID

	updated, err := s.repo.Update(ctx, orgID, id, set)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Update: %w", err)
	}

	for _, u := range removed {
		s.removeImage(ctx, u, &out)
	}
	if len(diff) > 0 {
		s.record(ctx, &out, actor.UserID, id, domain.ActionUpdated, diff)
	}
	return s.withShareURL(updated), out, nil
}

// Archive hides the experience from public paths and deactivates it.
// Archiving an archived experience is a no-op.
func (s *ExperienceService) Archive(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	var out domain.Outcome

	cur, err := s.load(ctx, actor, orgID, id)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Archive: %w", err)
	}
	if cur.IsArchived {
		return s.withShareURL(cur), out, nil
	}

	updated, err := s.repo.Update(ctx, orgID, id, map[string]any{
		"is_archived": true,
		"is_active":   false,
		"archived_at": s.now().UTC(),
		"archived_by": actor.UserID,
		"updated_by":  actor.UserID,
	})
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Archive: %w", err)
	}

	s.record(ctx, &out, actor.UserID, id, domain.ActionArchived, map[string]any{
		"was_active": cur.IsActive,
	})
	return s.withShareURL(updated), out, nil
}

// Restore clears the archive flag. is_active is left as it was (false).
func (s *ExperienceService) Restore(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	var out domain.Outcome

	cur, err := s.load(ctx, actor, orgID, id)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Restore: %w", err)
	}
	if !cur.IsArchived {
		return s.withShareURL(cur), out, nil
	}

	updated, err := s.repo.Update(ctx, orgID, id, map[string]any{
		"is_archived": false,
		"archived_at": nil,
		"archived_by": nil,
		"updated_by":  actor.UserID,
	})
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Restore: %w", err)
	}

	s.record(ctx, &out, actor.UserID, id, domain.ActionUnarchived, map[string]any{})
	return s.withShareURL(updated), out, nil
}

// Delete removes the experience permanently. Its blobs are removed first,
// best-effort; the row delete and tombstone are one statement. Audit entries
// are retained and a final "deleted" entry is appended.
func (s *ExperienceService) Delete(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Outcome, error) {
	var out domain.Outcome

	if _, err := s.load(ctx, actor, orgID, id); err != nil {
		return out, fmt.Errorf("service.ExperienceService.Delete: %w", err)
	}

	if err := s.blobs.RemovePrefix(ctx, blob.ExperiencePrefix(id)); err != nil {
		out.Record(StepRemoveImages, err)
		s.log.Warn("image cleanup failed", "experience_id", id, "error", err)
	}

	deleted, err := s.repo.Delete(ctx, orgID, id, actor.UserID)
	if err != nil {
		return out, fmt.Errorf("service.ExperienceService.Delete: %w", err)
	}

	s.record(ctx, &out, actor.UserID, id, domain.ActionDeleted, map[string]any{
		"org_id": orgID,
		"name":   deleted.Name,
		"slug":   deleted.Slug,
	})
	return out, nil
}

// Duplicate copies an experience into a new inactive draft. Counters and
// ratings start from zero, a token is issued only when the source is
// shareable, and images under this store are copied into the new folder.
// Images the store did not issue are kept as references.
func (s *ExperienceService) Duplicate(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	var out domain.Outcome

	src, err := s.load(ctx, actor, orgID, id)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Duplicate: %w", err)
	}

	dup := src
	dup.ID = uuid.New()
	dup.Name = src.Name + copySuffix
	dup.ShareableToken = nil
	dup.IsActive = false
	dup.IsArchived = false
	dup.ArchivedAt = nil
	dup.ArchivedBy = nil
	dup.ViewCount = 0
	dup.BookingCount = 0
	dup.AvgRating = nil
	dup.TotalReviews = 0
	dup.DuplicatedFrom = &src.ID
	dup.CreatedBy = &actor.UserID
	dup.UpdatedBy = &actor.UserID
	dup.Images = nil
	dup.Categories = slices.Clone(src.Categories)
	dup.Included = slices.Clone(src.Included)
	dup.Excluded = slices.Clone(src.Excluded)
	dup.Requirements = slices.Clone(src.Requirements)
	dup.Highlights = slices.Clone(src.Highlights)
	dup.Languages = slices.Clone(src.Languages)
	dup.Tags = slices.Clone(src.Tags)

	if dup.Slug, err = uniqueSlug(ctx, dup.Name, s.repo.SlugExists); err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Duplicate: %w", err)
	}
	if src.IsShareable {
		token, err := freshToken(ctx, src.Token(), s.repo.TokenExists)
		if err != nil {
			return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Duplicate: %w", err)
		}
		dup.ShareableToken = &token
	}

	created, err := s.repo.Insert(ctx, dup)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.Duplicate: %w", err)
	}

	if urls := s.copyImages(ctx, src.Images, created.ID, &out); len(urls) > 0 {
		created = s.attachImages(ctx, created, urls, &out)
	}

	s.record(ctx, &out, actor.UserID, created.ID, domain.ActionCreated, map[string]any{
		"org_id":          created.OrgID,
		"duplicated_from": src.ID,
	})
	s.record(ctx, &out, actor.UserID, src.ID, domain.ActionUpdated, map[string]any{
		"duplicated_to": created.ID,
	})
	return s.withShareURL(created), out, nil
}

// SetActive sets is_active to value. Activating an archived experience is
// rejected with domain.ErrValidation.
func (s *ExperienceService) SetActive(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID, value bool) (domain.Experience, domain.Outcome, error) {
	cur, err := s.load(ctx, actor, orgID, id)
	if err != nil {
		return domain.Experience{}, domain.Outcome{}, fmt.Errorf("service.ExperienceService.SetActive: %w", err)
	}
	return s.setActive(ctx, actor, cur, value)
}

// ToggleActive flips is_active.
func (s *ExperienceService) ToggleActive(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	cur, err := s.load(ctx, actor, orgID, id)
	if err != nil {
		return domain.Experience{}, domain.Outcome{}, fmt.Errorf("service.ExperienceService.ToggleActive: %w", err)
	}
	return s.setActive(ctx, actor, cur, !cur.IsActive)
}

func (s *ExperienceService) setActive(ctx context.Context, actor domain.Actor, cur domain.Experience, value bool) (domain.Experience, domain.Outcome, error) {
	var out domain.Outcome
	if value && cur.IsArchived {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.SetActive: %w: restore the experience before activating it", domain.ErrValidation)
	}
	if cur.IsActive == value {
		return s.withShareURL(cur), out, nil
	}

	updated, err := s.repo.Update(ctx, cur.OrgID, cur.ID, map[string]any{
		"is_active":  value,
		"updated_by": actor.UserID,
	})
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.SetActive: %w", err)
	}

	s.record(ctx, &out, actor.UserID, cur.ID, domain.ActionUpdated, map[string]any{
		"is_active": fromTo(cur.IsActive, value),
	})
	return s.withShareURL(updated), out, nil
}

// SetShareable enables or disables the public share link. Enabling issues a
// token only when none exists; disabling keeps the token so re-enabling
// restores the same link.
func (s *ExperienceService) SetShareable(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID, value bool) (domain.Experience, domain.Outcome, error) {
	cur, err := s.load(ctx, actor, orgID, id)
	if err != nil {
		return domain.Experience{}, domain.Outcome{}, fmt.Errorf("service.ExperienceService.SetShareable: %w", err)
	}
	return s.setShareable(ctx, actor, cur, value)
}

// ToggleShareable flips is_shareable.
func (s *ExperienceService) ToggleShareable(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	cur, err := s.load(ctx, actor, orgID, id)
	if err != nil {
		return domain.Experience{}, domain.Outcome{}, fmt.Errorf("service.ExperienceService.ToggleShareable: %w", err)
	}
	return s.setShareable(ctx, actor, cur, !cur.IsShareable)
}

func (s *ExperienceService) setShareable(ctx context.Context, actor domain.Actor, cur domain.Experience, value bool) (domain.Experience, domain.Outcome, error) {
	var out domain.Outcome
	if cur.IsShareable == value && (!value || cur.ShareableToken != nil) {
		return s.withShareURL(cur), out, nil
	}

	set := map[string]any{"is_shareable": value, "updated_by": actor.UserID}
	issued := false
	if value && cur.ShareableToken == nil {
		token, err := freshToken(ctx, "", s.repo.TokenExists)
		if err != nil {
			return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.SetShareable: %w", err)
		}
		set["shareable_token"] = token
		issued = true
	}

	updated, err := s.repo.Update(ctx, cur.OrgID, cur.ID, set)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.SetShareable: %w", err)
	}

	if value {
		s.record(ctx, &out, actor.UserID, cur.ID, domain.ActionShared, map[string]any{
			"is_shareable": true,
			"token_issued": issued,
		})
	} else {
		s.record(ctx, &out, actor.UserID, cur.ID, domain.ActionUpdated, map[string]any{
			"is_shareable": fromTo(cur.IsShareable, false),
		})
	}
	return s.withShareURL(updated), out, nil
}

// RegenerateToken replaces the share token and enables sharing. The old
// link stops resolving as soon as the write commits.
func (s *ExperienceService) RegenerateToken(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, domain.Outcome, error) {
	var out domain.Outcome

	cur, err := s.load(ctx, actor, orgID, id)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.RegenerateToken: %w", err)
	}

	token, err := freshToken(ctx, cur.Token(), s.repo.TokenExists)
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.RegenerateToken: %w", err)
	}

	updated, err := s.repo.Update(ctx, orgID, id, map[string]any{
		"shareable_token": token,
		"is_shareable":    true,
		"updated_by":      actor.UserID,
	})
	if err != nil {
		return domain.Experience{}, out, fmt.Errorf("service.ExperienceService.RegenerateToken: %w", err)
	}

	s.record(ctx, &out, actor.UserID, id, domain.ActionShared, map[string]any{"regenerated": true})
	return s.withShareURL(updated), out, nil
}

// Get resolves key as an id, slug or share token inside orgID.
func (s *ExperienceService) Get(ctx context.Context, actor domain.Actor, orgID uuid.UUID, key string) (domain.Experience, error) {
	if err := authorize(actor, orgID); err != nil {
		return domain.Experience{}, fmt.Errorf("service.ExperienceService.Get: %w", err)
	}
	e, err := s.repo.GetByKey(ctx, orgID, key)
	if err != nil {
		return domain.Experience{}, fmt.Errorf("service.ExperienceService.Get: %w", err)
	}
	return s.withShareURL(e), nil
}

// List returns one page of the tenant's experiences and the total count.
func (s *ExperienceService) List(ctx context.Context, actor domain.Actor, orgID uuid.UUID, f domain.ExperienceFilter, p domain.PaginationParams) ([]domain.Experience, int64, error) {
	if err := authorize(actor, orgID); err != nil {
		return nil, 0, fmt.Errorf("service.ExperienceService.List: %w", err)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return nil, 0, fmt.Errorf("service.ExperienceService.List: %w: min_price exceeds max_price", domain.ErrValidation)
	}
	items, total, err := s.repo.List(ctx, orgID, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.ExperienceService.List: %w", err)
	}
	for i := range items {
		items[i] = s.withShareURL(items[i])
	}
	return items, total, nil
}

// ShareURL returns the public link for e, or "" when no token exists.
func (s *ExperienceService) ShareURL(e domain.Experience) string {
	return shareURL(s.baseURL, e)
}

func shareURL(baseURL string, e domain.Experience) string {
	if e.ShareableToken == nil {
		return ""
	}
	return baseURL + "/share/" + *e.ShareableToken
}

func (s *ExperienceService) withShareURL(e domain.Experience) domain.Experience {
	e.ShareURL = s.ShareURL(e)
	return e
}

// load authorizes the actor and reads the current record.
func (s *ExperienceService) load(ctx context.Context, actor domain.Actor, orgID, id uuid.UUID) (domain.Experience, error) {
	if err := authorize(actor, orgID); err != nil {
		return domain.Experience{}, err
	}
	return s.repo.Get(ctx, orgID, id)
}

// record writes an audit entry, downgrading failure to the outcome.
func (s *ExperienceService) record(ctx context.Context, out *domain.Outcome, userID, experienceID uuid.UUID, action domain.ActionType, changes map[string]any) {
	err := s.audit.Record(ctx, userID, experienceID, action, changes)
	if err == nil {
		return
	}
	out.Record(StepAudit, err)
	level := slog.LevelWarn
	if errors.Is(err, domain.ErrTenantUnresolved) {
		level = slog.LevelError
	}
	s.log.Log(ctx, level, "audit entry not written",
		"experience_id", experienceID, "action", action, "error", err)
}

// uploadImages stores uploads one at a time and returns the public URLs of
// those that succeeded.
func (s *ExperienceService) uploadImages(ctx context.Context, id uuid.UUID, uploads []domain.Upload, out *domain.Outcome) []string {
	urls := make([]string, 0, len(uploads))
	for _, up := range uploads {
		objectPath := blob.NewImagePath(id, up.Filename)
		if err := s.blobs.Upload(ctx, objectPath, up.Data, up.ContentType); err != nil {
			out.Record(StepUploadImage, fmt.Errorf("%s: %w", up.Filename, err))
			s.log.Warn("image upload skipped", "experience_id", id, "filename", up.Filename, "error", err)
			continue
		}
		urls = append(urls, s.blobs.PublicURL(objectPath))
	}
	return urls
}

// copyImages copies every store-issued image into the folder of dst and
// returns the resulting URL list in the source order.
func (s *ExperienceService) copyImages(ctx context.Context, images []string, dst uuid.UUID, out *domain.Outcome) []string {
	urls := make([]string, 0, len(images))
	for _, u := range images {
		from, ok := s.blobs.PathFromURL(u)
		if !ok {
			urls = append(urls, u)
			continue
		}
		to := blob.RebasePath(from, dst)
		if err := s.blobs.Copy(ctx, from, to); err != nil {
			out.Record(StepCopyImage, fmt.Errorf("%s: %w", u, err))
			s.log.Warn("image copy skipped", "experience_id", dst, "url", u, "error", err)
			continue
		}
		urls = append(urls, s.blobs.PublicURL(to))
	}
	return urls
}

// attachImages writes the image list in a second update. On failure the
// record is returned unchanged and the failure recorded.
func (s *ExperienceService) attachImages(ctx context.Context, e domain.Experience, images []string, out *domain.Outcome) domain.Experience {
	updated, err := s.repo.Update(ctx, e.OrgID, e.ID, map[string]any{"images": images})
	if err != nil {
		out.Record(StepAttachImages, err)
		s.log.Warn("image attach failed", "experience_id", e.ID, "error", err)
		return e
	}
	return updated
}

func (s *ExperienceService) removeImage(ctx context.Context, url string, out *domain.Outcome) {
	objectPath, ok := s.blobs.PathFromURL(url)
	if !ok {
		return
	}
	if err := s.blobs.RemovePrefix(ctx, objectPath); err != nil {
		out.Record(StepRemoveImages, err)
		s.log.Warn("image removal failed", "url", url, "error", err)
	}
}

// resolveTenant picks the tenant for a new experience. Without an explicit
// org the actor must belong to exactly one.
func resolveTenant(actor domain.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if !actor.Authenticated() {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	if requested != nil && *requested != uuid.Nil {
		if !actor.MemberOf(*requested) {
			return uuid.Nil, domain.ErrForbidden
		}
		return *requested, nil
	}
	if len(actor.OrgIDs) == 1 {
		return actor.OrgIDs[0], nil
	}
	return uuid.Nil, fmt.Errorf("%w: org_id is required when the caller belongs to %d organizations", domain.ErrValidation, len(actor.OrgIDs))
}

// newExperience returns a record with column defaults applied.
func newExperience() domain.Experience {
	return domain.Experience{
		Currency:           "USD",
		DurationMinutes:    60,
		MinGroupSize:       1,
		MaxGroupSize:       10,
		BookingNoticeHours: 24,
		IsActive:           true,
		IsBookableOnline:   true,
		Categories:         []string{},
		Included:           []string{},
		Excluded:           []string{},
		Requirements:       []string{},
		Highlights:         []string{},
		Languages:          []string{},
		Tags:               []string{},
		Images:             []string{},
	}
}

// applyInput copies every submitted field of in onto e and returns the
// column names it touched.
func applyInput(e *domain.Experience, in domain.ExperienceInput) []string {
	var touched []string
	assign(&touched, "name", &e.Name, in.Name)
	assign(&touched, "description", &e.Description, in.Description)
	assign(&touched, "category", &e.Category, in.Category)
	assign(&touched, "categories", &e.Categories, in.Categories)
	assign(&touched, "location", &e.Location, in.Location)
	assign(&touched, "meeting_point", &e.MeetingPoint, in.MeetingPoint)
	assign(&touched, "duration_minutes", &e.DurationMinutes, in.DurationMinutes)
	assign(&touched, "min_group_size", &e.MinGroupSize, in.MinGroupSize)
	assign(&touched, "max_group_size", &e.MaxGroupSize, in.MaxGroupSize)
	assign(&touched, "price", &e.Price, in.Price)
	assign(&touched, "currency", &e.Currency, in.Currency)
	assign(&touched, "cancellation_policy", &e.CancellationPolicy, in.CancellationPolicy)
	assign(&touched, "booking_notice_hours", &e.BookingNoticeHours, in.BookingNoticeHours)
	assign(&touched, "included", &e.Included, in.Included)
	assign(&touched, "excluded", &e.Excluded, in.Excluded)
	assign(&touched, "requirements", &e.Requirements, in.Requirements)
	assign(&touched, "highlights", &e.Highlights, in.Highlights)
	assign(&touched, "languages", &e.Languages, in.Languages)
	assign(&touched, "tags", &e.Tags, in.Tags)
	assign(&touched, "available_dates", &e.AvailableDates, in.AvailableDates)
	assign(&touched, "is_active", &e.IsActive, in.IsActive)
	assign(&touched, "is_bookable_online", &e.IsBookableOnline, in.IsBookableOnline)
	assign(&touched, "is_shareable", &e.IsShareable, in.IsShareable)

	if string(e.AvailableDates) == "null" {
		e.AvailableDates = nil
	}
	return touched
}

func assign[T any](touched *[]string, column string, dst *T, src *T) {
	if src == nil {
		return
	}
	*dst = *src
	*touched = append(*touched, column)
}

// changedColumns compares the touched columns of before and after. set holds
// the new values to write; diff holds {from, to} pairs for the audit log.
func changedColumns(before, after domain.Experience, touched []string) (set, diff map[string]any) {
	set, diff = map[string]any{}, map[string]any{}
	from, to := columnValues(before), columnValues(after)
	for _, col := range touched {
		if _, done := set[col]; done {
			continue
		}
		if sameValue(from[col], to[col]) {
			continue
		}
		set[col] = to[col]
		diff[col] = fromTo(from[col], to[col])
	}
	return set, diff
}

func columnValues(e domain.Experience) map[string]any {
	return map[string]any{
		"name":                 e.Name,
		"description":          e.Description,
		"category":             e.Category,
		"categories":           e.Categories,
		"location":             e.Location,
		"meeting_point":        e.MeetingPoint,
		"duration_minutes":     e.DurationMinutes,
		"min_group_size":       e.MinGroupSize,
		"max_group_size":       e.MaxGroupSize,
		"price":                e.Price,
		"currency":             e.Currency,
		"cancellation_policy":  e.CancellationPolicy,
		"booking_notice_hours": e.BookingNoticeHours,
		"included":             e.Included,
		"excluded":             e.Excluded,
		"requirements":         e.Requirements,
		"highlights":           e.Highlights,
		"languages":            e.Languages,
		"tags":                 e.Tags,
		"images":               e.Images,
		"available_dates":      e.AvailableDates,
		"is_active":            e.IsActive,
		"is_bookable_online":   e.IsBookableOnline,
		"is_shareable":         e.IsShareable,
	}
}

// sameValue treats nil and empty lists as equal.
func sameValue(a, b any) bool {
	if as, ok := a.([]string); ok {
		bs, _ := b.([]string)
		return slices.Equal(as, bs)
	}
	return reflect.DeepEqual(a, b)
}

func fromTo(from, to any) map[string]any {
	return map[string]any{"from": from, "to": to}
}
