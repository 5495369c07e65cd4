package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist, or exists outside the caller's tenant.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing name, min group size above max group size).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrUnauthenticated is returned when a mutating operation runs without an
// authenticated actor. Handlers should map this to HTTP 401.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden is returned when the actor is not a member of the tenant the
// operation is scoped to. Handlers should map this to HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write violates a uniqueness constraint
// (slug or shareable token). Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrTenantUnresolved is returned by the audit logger when neither the change
// payload nor the experience record yields an organization id. It is only
// ever seen by best-effort callers.
var ErrTenantUnresolved = errors.New("tenant could not be resolved")
