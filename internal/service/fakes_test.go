package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tourdesk/internal/blob"
	"github.com/pkordes/tourdesk/internal/domain"
	"github.com/pkordes/tourdesk/internal/repo"
	"github.com/pkordes/tourdesk/internal/service"
)

// ---- fake ExperienceRepo ---------------------------------------------------

// fakeExperienceRepo is an in-memory ExperienceRepo with the same scoping
// rules as the Postgres implementation.
type fakeExperienceRepo struct {
	mu         sync.Mutex
	rows       map[uuid.UUID]domain.Experience
	tombstones map[uuid.UUID]uuid.UUID

	// failUpdateOf makes Update fail when the column set contains the key.
	failUpdateOf  map[string]error
	failIncrement error
}

func newFakeExperienceRepo() *fakeExperienceRepo {
	return &fakeExperienceRepo{
		rows:         map[uuid.UUID]domain.Experience{},
		tombstones:   map[uuid.UUID]uuid.UUID{},
		failUpdateOf: map[string]error{},
	}
}

var _ repo.ExperienceRepo = (*fakeExperienceRepo)(nil)

func (f *fakeExperienceRepo) Insert(_ context.Context, e domain.Experience) (domain.Experience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Slug == e.Slug || (e.ShareableToken != nil && row.Token() == *e.ShareableToken) {
			return domain.Experience{}, fmt.Errorf("fake insert: %w", domain.ErrConflict)
		}
	}
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Images == nil {
		e.Images = []string{}
	}
	f.rows[e.ID] = e
	return e, nil
}

func (f *fakeExperienceRepo) Get(_ context.Context, orgID, id uuid.UUID) (domain.Experience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok || e.OrgID != orgID {
		return domain.Experience{}, domain.ErrNotFound
	}
	return e, nil
}

func (f *fakeExperienceRepo) GetByKey(_ context.Context, orgID uuid.UUID, key string) (domain.Experience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.OrgID == orgID && (e.ID.String() == key || e.Slug == key || e.Token() == key) {
			return e, nil
		}
	}
	return domain.Experience{}, domain.ErrNotFound
}

func (f *fakeExperienceRepo) GetByToken(_ context.Context, token string) (domain.Experience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.Token() == token {
			return e, nil
		}
	}
	return domain.Experience{}, domain.ErrNotFound
}

func (f *fakeExperienceRepo) GetByTokenOrSlug(ctx context.Context, key string) (domain.Experience, error) {
	if e, err := f.GetByToken(ctx, key); err == nil {
		return e, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.Slug == key {
			return e, nil
		}
	}
	return domain.Experience{}, domain.ErrNotFound
}

func (f *fakeExperienceRepo) OrgOf(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.rows[id]; ok {
		return e.OrgID, nil
	}
	if org, ok := f.tombstones[id]; ok {
		return org, nil
	}
	return uuid.Nil, domain.ErrNotFound
}

func (f *fakeExperienceRepo) List(_ context.Context, orgID uuid.UUID, flt domain.ExperienceFilter, p domain.PaginationParams) ([]domain.Experience, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []domain.Experience
	for _, e := range f.rows {
		if e.OrgID != orgID || (e.IsArchived && !flt.IncludeArchived) {
			continue
		}
		if flt.IsActive != nil && e.IsActive != *flt.IsActive {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	total := int64(len(all))
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], total, nil
}

func (f *fakeExperienceRepo) Update(_ context.Context, orgID, id uuid.UUID, set map[string]any) (domain.Experience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for col, err := range f.failUpdateOf {
		if _, ok := set[col]; ok {
			return domain.Experience{}, err
		}
	}
	e, ok := f.rows[id]
	if !ok || e.OrgID != orgID {
		return domain.Experience{}, domain.ErrNotFound
	}
	for col, v := range set {
		if err := applyColumn(&e, col, v); err != nil {
			return domain.Experience{}, err
		}
	}
	if e.IsArchived && e.IsActive {
		return domain.Experience{}, fmt.Errorf("fake update: archived and active: %w", domain.ErrValidation)
	}
	e.UpdatedAt = time.Now().UTC()
	f.rows[id] = e
	return e, nil
}

func (f *fakeExperienceRepo) Delete(_ context.Context, orgID, id, _ uuid.UUID) (domain.Experience, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok || e.OrgID != orgID {
		return domain.Experience{}, domain.ErrNotFound
	}
	delete(f.rows, id)
	f.tombstones[id] = orgID
	return e, nil
}

func (f *fakeExperienceRepo) IncrementViewCount(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIncrement != nil {
		return f.failIncrement
	}
	e, ok := f.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.ViewCount++
	f.rows[id] = e
	return nil
}

func (f *fakeExperienceRepo) SlugExists(_ context.Context, slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeExperienceRepo) TokenExists(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.Token() == token {
			return true, nil
		}
	}
	return false, nil
}

// stored returns the persisted row without tenant scoping.
func (f *fakeExperienceRepo) stored(id uuid.UUID) (domain.Experience, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	return e, ok
}

// applyColumn mirrors the column names accepted by the Postgres Update.
func applyColumn(e *domain.Experience, col string, v any) error {
	switch col {
	case "name":
		e.Name = v.(string)
	case "description":
		e.Description = v.(string)
	case "category":
		e.Category = v.(string)
	case "location":
		e.Location = v.(string)
	case "meeting_point":
		e.MeetingPoint = v.(string)
	case "currency":
		e.Currency = v.(string)
	case "cancellation_policy":
		e.CancellationPolicy = v.(string)
	case "duration_minutes":
		e.DurationMinutes = v.(int)
	case "min_group_size":
		e.MinGroupSize = v.(int)
	case "max_group_size":
		e.MaxGroupSize = v.(int)
	case "booking_notice_hours":
		e.BookingNoticeHours = v.(int)
	case "price":
		e.Price = v.(float64)
	case "categories":
		e.Categories = slices.Clone(v.([]string))
	case "included":
		e.Included = slices.Clone(v.([]string))
	case "excluded":
		e.Excluded = slices.Clone(v.([]string))
	case "requirements":
		e.Requirements = slices.Clone(v.([]string))
	case "highlights":
		e.Highlights = slices.Clone(v.([]string))
	case "languages":
		e.Languages = slices.Clone(v.([]string))
	case "tags":
		e.Tags = slices.Clone(v.([]string))
	case "images":
		e.Images = slices.Clone(v.([]string))
	case "available_dates":
		e.AvailableDates = v.(json.RawMessage)
	case "is_active":
		e.IsActive = v.(bool)
	case "is_archived":
		e.IsArchived = v.(bool)
	case "is_bookable_online":
		e.IsBookableOnline = v.(bool)
	case "is_shareable":
		e.IsShareable = v.(bool)
	case "shareable_token":
		tok := v.(string)
		e.ShareableToken = &tok
	case "archived_at":
		if v == nil {
			e.ArchivedAt = nil
		} else {
			at := v.(time.Time)
			e.ArchivedAt = &at
		}
	case "archived_by":
		if v == nil {
			e.ArchivedBy = nil
		} else {
			by := v.(uuid.UUID)
			e.ArchivedBy = &by
		}
	case "updated_by":
		by := v.(uuid.UUID)
		e.UpdatedBy = &by
	default:
		return fmt.Errorf("fake update: column %q: %w", col, domain.ErrValidation)
	}
	return nil
}

// ---- fake AuditRepo --------------------------------------------------------

type fakeAuditRepo struct {
	mu         sync.Mutex
	entries    []domain.AuditEntry
	failInsert error
}

var _ repo.AuditRepo = (*fakeAuditRepo)(nil)

func (f *fakeAuditRepo) Insert(_ context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert != nil {
		return domain.AuditEntry{}, f.failInsert
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now().UTC()
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeAuditRepo) List(_ context.Context, orgID, experienceID uuid.UUID, _ domain.PaginationParams) ([]domain.AuditEntry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.AuditEntry
	for i := len(f.entries) - 1; i >= 0; i-- {
		e := f.entries[i]
		if e.OrganizationID == orgID && e.ExperienceID == experienceID {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

// actions returns the recorded action types for one experience, oldest first.
func (f *fakeAuditRepo) actions(experienceID uuid.UUID) []domain.ActionType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ActionType
	for _, e := range f.entries {
		if e.ExperienceID == experienceID {
			out = append(out, e.ActionType)
		}
	}
	return out
}

// last returns the newest entry for one experience.
func (f *fakeAuditRepo) last(experienceID uuid.UUID) (domain.AuditEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].ExperienceID == experienceID {
			return f.entries[i], true
		}
	}
	return domain.AuditEntry{}, false
}

// ---- fake blob store -------------------------------------------------------

// fakeBlobs is a memory store whose uploads or copies can be made to fail.
type fakeBlobs struct {
	*blob.MemoryStore
	failUploads bool
	failCopies  map[string]bool
}

func (f *fakeBlobs) Upload(ctx context.Context, objectPath string, data []byte, contentType string) error {
	if f.failUploads {
		return fmt.Errorf("upload %s: bucket unavailable", objectPath)
	}
	return f.MemoryStore.Upload(ctx, objectPath, data, contentType)
}

func (f *fakeBlobs) Copy(ctx context.Context, from, to string) error {
	if f.failCopies[from] {
		return fmt.Errorf("copy %s: bucket unavailable", from)
	}
	return f.MemoryStore.Copy(ctx, from, to)
}

// ---- harness ---------------------------------------------------------------

const testBaseURL = "https://tours.example.com"

type harness struct {
	repo   *fakeExperienceRepo
	audit  *fakeAuditRepo
	blobs  *fakeBlobs
	svc    *service.ExperienceService
	public *service.PublicService
	actor  domain.Actor
	org    uuid.UUID
}

func newHarness() *harness {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		repo:  newFakeExperienceRepo(),
		audit: &fakeAuditRepo{},
		blobs: &fakeBlobs{MemoryStore: blob.NewMemoryStore("https://blobs.example.com/media")},
		org:   uuid.New(),
	}
	h.actor = domain.Actor{UserID: uuid.New(), OrgIDs: []uuid.UUID{h.org}}
	auditSvc := service.NewAuditService(h.audit, h.repo, log)
	h.svc = service.NewExperienceService(h.repo, auditSvc, h.blobs, testBaseURL, log)
	h.public = service.NewPublicService(h.repo, auditSvc, testBaseURL, log)
	return h
}

func ptr[T any](v T) *T { return &v }

// mustCreate creates an experience named name in the harness org.
func (h *harness) mustCreate(name string, mutate ...func(*domain.ExperienceInput)) domain.Experience {
	in := domain.ExperienceInput{Name: ptr(name)}
	for _, m := range mutate {
		m(&in)
	}
	e, _, err := h.svc.Create(context.Background(), h.actor, in)
	if err != nil {
		panic(err)
	}
	return e
}
