package handler

import (
	"encoding/json"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/tourdesk/internal/domain"
)

// Experience is the tenant-facing representation of an experience.
type Experience struct {
	Id             openapi_types.UUID `json:"id"`
	OrganizationId openapi_types.UUID `json:"organization_id"`
	Slug           string             `json:"slug"`
	ShareableToken *string            `json:"shareable_token,omitempty"`
	ShareUrl       *string            `json:"share_url,omitempty"`

	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Categories         []string        `json:"categories"`
	Location           string          `json:"location"`
	MeetingPoint       string          `json:"meeting_point"`
	DurationMinutes    int             `json:"duration_minutes"`
	MinGroupSize       int             `json:"min_group_size"`
	MaxGroupSize       int             `json:"max_group_size"`
	Price              float64         `json:"price"`
	Currency           string          `json:"currency"`
	CancellationPolicy string          `json:"cancellation_policy"`
	BookingNoticeHours int             `json:"booking_notice_hours"`
	Included           []string        `json:"included"`
	Excluded           []string        `json:"excluded"`
	Requirements       []string        `json:"requirements"`
	Highlights         []string        `json:"highlights"`
	Languages          []string        `json:"languages"`
	Tags               []string        `json:"tags"`
	Images             []string        `json:"images"`
	AvailableDates     json.RawMessage `json:"available_dates,omitempty"`

	IsActive         bool                `json:"is_active"`
	IsArchived       bool                `json:"is_archived"`
	IsBookableOnline bool                `json:"is_bookable_online"`
	IsShareable      bool                `json:"is_shareable"`
	ArchivedAt       *time.Time          `json:"archived_at,omitempty"`
	ArchivedBy       *openapi_types.UUID `json:"archived_by,omitempty"`

	ViewCount    int64    `json:"view_count"`
	BookingCount int64    `json:"booking_count"`
	AvgRating    *float64 `json:"avg_rating,omitempty"`
	TotalReviews int      `json:"total_reviews"`

	DuplicatedFrom *openapi_types.UUID `json:"duplicated_from,omitempty"`
	CreatedBy      *openapi_types.UUID `json:"created_by,omitempty"`
	UpdatedBy      *openapi_types.UUID `json:"updated_by,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// PublicExperience is what anonymous visitors see. Tenant bookkeeping
// (tokens, audit columns, counters other than reviews) is left out.
type PublicExperience struct {
	Slug               string          `json:"slug"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Category           string          `json:"category"`
	Categories         []string        `json:"categories"`
	Location           string          `json:"location"`
	MeetingPoint       string          `json:"meeting_point"`
	DurationMinutes    int             `json:"duration_minutes"`
	MinGroupSize       int             `json:"min_group_size"`
	MaxGroupSize       int             `json:"max_group_size"`
	Price              float64         `json:"price"`
	Currency           string          `json:"currency"`
	CancellationPolicy string          `json:"cancellation_policy"`
	BookingNoticeHours int             `json:"booking_notice_hours"`
	Included           []string        `json:"included"`
	Excluded           []string        `json:"excluded"`
	Requirements       []string        `json:"requirements"`
	Highlights         []string        `json:"highlights"`
	Languages          []string        `json:"languages"`
	Images             []string        `json:"images"`
	AvailableDates     json.RawMessage `json:"available_dates,omitempty"`
	IsBookableOnline   bool            `json:"is_bookable_online"`
	AvgRating          *float64        `json:"avg_rating,omitempty"`
	TotalReviews       int             `json:"total_reviews"`
}

// AuditEntry is one row of an experience's audit trail.
type AuditEntry struct {
	Id                openapi_types.UUID `json:"id"`
	ExperienceId      openapi_types.UUID `json:"experience_id"`
	UserId            openapi_types.UUID `json:"user_id"`
	UserDisplayName   *string            `json:"user_display_name,omitempty"`
	UserEmail         *string            `json:"user_email,omitempty"`
	ActionType        domain.ActionType  `json:"action_type"`
	Changes           map[string]any     `json:"changes"`
	ExperienceDeleted bool               `json:"experience_deleted"`
	CreatedAt         time.Time          `json:"created_at"`
}

// FlagRequest is the body of PUT …/active and PUT …/shareable.
type FlagRequest struct {
	Value *bool `json:"value"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// --- mapping helpers --------------------------------------------------------

func experienceToResponse(e domain.Experience) Experience {
	resp := Experience{
		Id:                 e.ID,
		OrganizationId:     e.OrgID,
		Slug:               e.Slug,
		ShareableToken:     e.ShareableToken,
		Name:               e.Name,
		Description:        e.Description,
		Category:           e.Category,
		Categories:         nonNil(e.Categories),
		Location:           e.Location,
		MeetingPoint:       e.MeetingPoint,
		DurationMinutes:    e.DurationMinutes,
		MinGroupSize:       e.MinGroupSize,
		MaxGroupSize:       e.MaxGroupSize,
		Price:              e.Price,
		Currency:           e.Currency,
		CancellationPolicy: e.CancellationPolicy,
		BookingNoticeHours: e.BookingNoticeHours,
		Included:           nonNil(e.Included),
		Excluded:           nonNil(e.Excluded),
		Requirements:       nonNil(e.Requirements),
		Highlights:         nonNil(e.Highlights),
		Languages:          nonNil(e.Languages),
		Tags:               nonNil(e.Tags),
		Images:             nonNil(e.Images),
		AvailableDates:     e.AvailableDates,
		IsActive:           e.IsActive,
		IsArchived:         e.IsArchived,
		IsBookableOnline:   e.IsBookableOnline,
		IsShareable:        e.IsShareable,
		ArchivedAt:         e.ArchivedAt,
		ArchivedBy:         e.ArchivedBy,
		ViewCount:          e.ViewCount,
		BookingCount:       e.BookingCount,
		AvgRating:          e.AvgRating,
		TotalReviews:       e.TotalReviews,
		DuplicatedFrom:     e.DuplicatedFrom,
		CreatedBy:          e.CreatedBy,
		UpdatedBy:          e.UpdatedBy,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
	if e.ShareURL != "" {
		resp.ShareUrl = &e.ShareURL
	}
	return resp
}

func experiencesToResponse(items []domain.Experience) []Experience {
	out := make([]Experience, len(items))
	for i, e := range items {
		out[i] = experienceToResponse(e)
	}
	return out
}

func experienceToPublic(e domain.Experience) PublicExperience {
	return PublicExperience{
		Slug:               e.Slug,
		Name:               e.Name,
		Description:        e.Description,
		Category:           e.Category,
		Categories:         nonNil(e.Categories),
		Location:           e.Location,
		MeetingPoint:       e.MeetingPoint,
		DurationMinutes:    e.DurationMinutes,
		MinGroupSize:       e.MinGroupSize,
		MaxGroupSize:       e.MaxGroupSize,
		Price:              e.Price,
		Currency:           e.Currency,
		CancellationPolicy: e.CancellationPolicy,
		BookingNoticeHours: e.BookingNoticeHours,
		Included:           nonNil(e.Included),
		Excluded:           nonNil(e.Excluded),
		Requirements:       nonNil(e.Requirements),
		Highlights:         nonNil(e.Highlights),
		Languages:          nonNil(e.Languages),
		Images:             nonNil(e.Images),
		AvailableDates:     e.AvailableDates,
		IsBookableOnline:   e.IsBookableOnline,
		AvgRating:          e.AvgRating,
		TotalReviews:       e.TotalReviews,
	}
}

func auditToResponse(entries []domain.AuditEntry) []AuditEntry {
	out := make([]AuditEntry, len(entries))
	for i, a := range entries {
		changes := a.Changes
		if changes == nil {
			changes = map[string]any{}
		}
		out[i] = AuditEntry{
			Id:                a.ID,
			ExperienceId:      a.ExperienceID,
			UserId:            a.UserID,
			UserDisplayName:   a.UserDisplayName,
			UserEmail:         a.UserEmail,
			ActionType:        a.ActionType,
			Changes:           changes,
			ExperienceDeleted: a.ExperienceDeleted,
			CreatedAt:         a.CreatedAt,
		}
	}
	return out
}

// nonNil keeps empty lists as [] rather than null in JSON.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
