package blob

import (
	"context"
	"fmt"

	"github.com/pkordes/tourdesk/internal/config"
)

// MemoryRoute is the API path prefix that serves a MemoryStore.
const MemoryRoute = "/blobs"

// Open returns the Store selected by cfg.BlobProvider.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.BlobProvider {
	case config.BlobGCS:
		return NewGCSStore(ctx, cfg.BlobBucket, cfg.GCSCredentialsFile)
	case config.BlobCloudinary:
		return NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.BlobBucket)
	case config.BlobMemory:
		base := cfg.BlobBaseURL
		if base == "" {
			base = "http://localhost:" + cfg.Port + MemoryRoute
		}
		return NewMemoryStore(base), nil
	default:
		return nil, fmt.Errorf("blob.Open: unknown provider %q", cfg.BlobProvider)
	}
}
