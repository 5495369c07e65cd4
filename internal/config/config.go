// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Blob providers accepted by BLOB_PROVIDER.
const (
	BlobMemory     = "memory"
	BlobGCS        = "gcs"
	BlobCloudinary = "cloudinary"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret is the HMAC key used to verify bearer tokens. Required.
	JWTSecret string

	// PublicBaseURL prefixes share links: PublicBaseURL + "/share/" + token.
	PublicBaseURL string

	// BlobProvider selects the image store: memory, gcs or cloudinary.
	BlobProvider string
	// BlobBucket is the GCS bucket, or the folder prefix for memory/cloudinary.
	BlobBucket string
	// BlobBaseURL is where the API serves memory-store objects. Defaults to
	// http://localhost:{Port}/blobs; unused by gcs and cloudinary.
	BlobBaseURL string
	// GCSCredentialsFile is an optional service-account JSON path.
	GCSCredentialsFile string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	// PublicRateLimitPerMin caps anonymous share-link requests per client IP.
	PublicRateLimitPerMin int

	// MaxBodyBytes limits request bodies, including multipart image uploads.
	MaxBodyBytes int64
}

// Load reads the configuration `api serve` needs. A .env file in the working
// directory is loaded first when present; it never overrides variables
// already set in the process environment. The error names every required
// variable that is not set, in a stable order.
func Load() (Config, error) {
	cfg := read()

	reqs := []requirement{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"JWT_SECRET", cfg.JWTSecret},
	}
	switch cfg.BlobProvider {
	case BlobMemory, BlobGCS:
	case BlobCloudinary:
		reqs = append(reqs,
			requirement{"CLOUDINARY_CLOUD_NAME", cfg.CloudinaryCloudName},
			requirement{"CLOUDINARY_API_KEY", cfg.CloudinaryAPIKey},
			requirement{"CLOUDINARY_API_SECRET", cfg.CloudinaryAPISecret},
		)
	default:
		return Config{}, fmt.Errorf("unknown BLOB_PROVIDER %q (want memory, gcs or cloudinary)", cfg.BlobProvider)
	}
	if err := check(reqs); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadMigrate reads the configuration for `api migrate`, which only talks
// to the database.
func LoadMigrate() (Config, error) {
	cfg := read()
	if err := check([]requirement{{"DATABASE_URL", cfg.DatabaseURL}}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadToken reads the configuration for `api token`, which only signs.
func LoadToken() (Config, error) {
	cfg := read()
	if err := check([]requirement{{"JWT_SECRET", cfg.JWTSecret}}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// requirement pairs an environment variable with the value read for it.
type requirement struct {
	key, value string
}

func check(reqs []requirement) error {
	var missing []string
	for _, r := range reqs {
		if r.value == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	return nil
}

func read() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:5173")
	v.SetDefault("BLOB_PROVIDER", BlobMemory)
	v.SetDefault("BLOB_BUCKET", "experience-images")
	v.SetDefault("PUBLIC_RATE_LIMIT_PER_MIN", 120)
	v.SetDefault("MAX_BODY_BYTES", 10<<20)

	return Config{
		Port:                  v.GetString("PORT"),
		DatabaseURL:           v.GetString("DATABASE_URL"),
		LogLevel:              v.GetString("LOG_LEVEL"),
		CORSOrigins:           splitCSV(v.GetString("CORS_ORIGINS")),
		JWTSecret:             v.GetString("JWT_SECRET"),
		PublicBaseURL:         strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		BlobProvider:          strings.ToLower(v.GetString("BLOB_PROVIDER")),
		BlobBucket:            v.GetString("BLOB_BUCKET"),
		BlobBaseURL:           strings.TrimRight(v.GetString("BLOB_BASE_URL"), "/"),
		GCSCredentialsFile:    v.GetString("GCS_CREDENTIALS_FILE"),
		CloudinaryCloudName:   v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:      v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:   v.GetString("CLOUDINARY_API_SECRET"),
		PublicRateLimitPerMin: v.GetInt("PUBLIC_RATE_LIMIT_PER_MIN"),
		MaxBodyBytes:          v.GetInt64("MAX_BODY_BYTES"),
	}
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
