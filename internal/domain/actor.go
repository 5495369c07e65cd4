package domain

import "github.com/google/uuid"

// Actor is the authenticated caller of a lifecycle operation.
// It is built once per request by the auth middleware and passed explicitly
// into every service call.
type Actor struct {
	UserID uuid.UUID
	OrgIDs []uuid.UUID
}

// Authenticated reports whether the actor carries a user id.
func (a Actor) Authenticated() bool {
	return a.UserID != uuid.Nil
}

// MemberOf reports whether the actor belongs to orgID.
func (a Actor) MemberOf(orgID uuid.UUID) bool {
	for _, id := range a.OrgIDs {
		if id == orgID {
			return true
		}
	}
	return false
}
