// Package domain contains the core data types for the Tourdesk API.
// It is imported by every other internal package (repo, service, handler)
// and depends only on uuid.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Experience is a tour product owned by exactly one organization.
//
// ShareableToken is nil until sharing is first enabled (or the record is
// created, which always issues one). IsArchived implies !IsActive.
type Experience struct {
	ID             uuid.UUID
	OrgID          uuid.UUID
	Slug           string
	ShareableToken *string

	Name               string
	Description        string
	Category           string
	Categories         []string
	Location           string
	MeetingPoint       string
	DurationMinutes    int
	MinGroupSize       int
	MaxGroupSize       int
	Price              float64
	Currency           string
	CancellationPolicy string
	BookingNoticeHours int
	Included           []string
	Excluded           []string
	Requirements       []string
	Highlights         []string
	Languages          []string
	Tags               []string
	Images             []string
	AvailableDates     json.RawMessage // nil when unset

	IsActive         bool
	IsArchived       bool
	IsBookableOnline bool
	IsShareable      bool
	ArchivedAt       *time.Time
	ArchivedBy       *uuid.UUID

	ViewCount    int64
	BookingCount int64
	AvgRating    *float64
	TotalReviews int

	DuplicatedFrom *uuid.UUID
	CreatedBy      *uuid.UUID
	UpdatedBy      *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// ShareURL is derived from the configured public base URL and the token.
	// It is never persisted.
	ShareURL string
}

// Token returns the shareable token or "" when none has been issued.
func (e Experience) Token() string {
	if e.ShareableToken == nil {
		return ""
	}
	return *e.ShareableToken
}

// PubliclyViewable reports whether the anonymous view path may return e.
func (e Experience) PubliclyViewable() bool {
	return e.IsShareable && !e.IsArchived
}

// PubliclyBookable reports whether the anonymous booking path may return e.
func (e Experience) PubliclyBookable() bool {
	return e.PubliclyViewable() && e.IsBookableOnline
}

// ExperienceInput carries the caller-supplied descriptive fields for create
// and update. A nil pointer means "not submitted": update leaves the column
// untouched and create falls back to the column default.
type ExperienceInput struct {
	OrgID *uuid.UUID `json:"org_id,omitempty"`

	Name               *string          `json:"name,omitempty"`
	Description        *string          `json:"description,omitempty"`
	Category           *string          `json:"category,omitempty"`
	Categories         *[]string        `json:"categories,omitempty"`
	Location           *string          `json:"location,omitempty"`
	MeetingPoint       *string          `json:"meeting_point,omitempty"`
	DurationMinutes    *int             `json:"duration_minutes,omitempty"`
	MinGroupSize       *int             `json:"min_group_size,omitempty"`
	MaxGroupSize       *int             `json:"max_group_size,omitempty"`
	Price              *float64         `json:"price,omitempty"`
	Currency           *string          `json:"currency,omitempty"`
	CancellationPolicy *string          `json:"cancellation_policy,omitempty"`
	BookingNoticeHours *int             `json:"booking_notice_hours,omitempty"`
	Included           *[]string        `json:"included,omitempty"`
	Excluded           *[]string        `json:"excluded,omitempty"`
	Requirements       *[]string        `json:"requirements,omitempty"`
	Highlights         *[]string        `json:"highlights,omitempty"`
	Languages          *[]string        `json:"languages,omitempty"`
	Tags               *[]string        `json:"tags,omitempty"`
	AvailableDates     *json.RawMessage `json:"available_dates,omitempty"`

	IsActive         *bool `json:"is_active,omitempty"`
	IsBookableOnline *bool `json:"is_bookable_online,omitempty"`
	IsShareable      *bool `json:"is_shareable,omitempty"`

	// Uploads are attached image files; never decoded from JSON.
	Uploads []Upload `json:"-"`
	// RemoveImages lists image URLs to prune on update.
	RemoveImages []string `json:"remove_images,omitempty"`
}

// Upload is one attached file from a form submission.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FieldWarning reports a submitted value that could not be used as-is and
// was replaced by a default.
type FieldWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ExperienceFilter narrows List results. Zero values mean "no filter".
type ExperienceFilter struct {
	Query           string
	Category        string
	IsActive        *bool
	IncludeArchived bool
	MinPrice        *float64
	MaxPrice        *float64
}
