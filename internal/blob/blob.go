// Package blob stores experience images.
//
// Store is the blob-store contract the lifecycle operations consume: upload,
// public URL, copy and prefix removal. Each implementation is bound to one
// bucket, so paths are bucket-relative ("experiences/{id}/{file}").
package blob

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Store is implemented by GCSStore, CloudinaryStore and MemoryStore.
type Store interface {
	// Upload writes data at objectPath, replacing any existing object.
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) error

	// PublicURL returns the browsable URL for objectPath.
	PublicURL(objectPath string) string

	// Copy duplicates the object at from into to.
	Copy(ctx context.Context, from, to string) error

	// RemovePrefix deletes every object whose path starts with prefix.
	RemovePrefix(ctx context.Context, prefix string) error

	// PathFromURL maps a URL produced by PublicURL back to its object path.
	// ok is false for URLs this store did not issue.
	PathFromURL(url string) (objectPath string, ok bool)
}

// ExperiencePrefix is the folder holding every image of one experience.
func ExperiencePrefix(experienceID uuid.UUID) string {
	return fmt.Sprintf("experiences/%s/", experienceID)
}

// NewImagePath returns a fresh object path for an upload, keeping the
// original file extension.
func NewImagePath(experienceID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return ExperiencePrefix(experienceID) + uuid.NewString() + ext
}

// RebasePath moves objectPath under another experience's folder, keeping the
// file name.
func RebasePath(objectPath string, experienceID uuid.UUID) string {
	return ExperiencePrefix(experienceID) + path.Base(objectPath)
}
