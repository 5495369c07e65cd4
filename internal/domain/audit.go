package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionType enumerates the lifecycle transitions recorded in the audit log.
type ActionType string

const (
	ActionCreated    ActionType = "created"
	ActionUpdated    ActionType = "updated"
	ActionDeleted    ActionType = "deleted"
	ActionArchived   ActionType = "archived"
	ActionUnarchived ActionType = "unarchived"
	ActionViewed     ActionType = "viewed"
	ActionShared     ActionType = "shared"
	ActionBooked     ActionType = "booked"
)

// Valid reports whether a is one of the enumerated action types.
func (a ActionType) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionArchived,
		ActionUnarchived, ActionViewed, ActionShared, ActionBooked:
		return true
	}
	return false
}

// SystemUserID is recorded as the actor for entries written without an
// authenticated user (public views).
var SystemUserID = uuid.Nil

// AuditEntry is one immutable audit log row.
// UserDisplayName and UserEmail are filled by the reader when the acting user
// is known; ExperienceDeleted is true once the experience has been tombstoned.
type AuditEntry struct {
	ID             uuid.UUID
	ExperienceID   uuid.UUID
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	ActionType     ActionType
	Changes        map[string]any
	CreatedAt      time.Time

	UserDisplayName   *string
	UserEmail         *string
	ExperienceDeleted bool
}
