package blob

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStore implements Store on a Google Cloud Storage bucket.
// Objects are written with a public-read ACL so PublicURL links resolve
// without signing.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore creates a client from credentialsFile (or application default
// credentials when empty) bound to bucket.
func NewGCSStore(ctx context.Context, bucket, credentialsFile string) (*GCSStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("blob.NewGCSStore: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// Close releases the underlying client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) Upload(ctx context.Context, objectPath string, data []byte, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(objectPath).NewWriter(ctx)
	w.ACL = []storage.ACLRule{{Entity: storage.AllUsers, Role: storage.RoleReader}}
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("blob.GCSStore.Upload: write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("blob.GCSStore.Upload: close %s: %w", objectPath, err)
	}
	return nil
}

func (s *GCSStore) PublicURL(objectPath string) string {
	return gcsPublicURL(s.bucket, objectPath)
}

func (s *GCSStore) Copy(ctx context.Context, from, to string) error {
	bkt := s.client.Bucket(s.bucket)
	copier := bkt.Object(to).CopierFrom(bkt.Object(from))
	copier.ACL = []storage.ACLRule{{Entity: storage.AllUsers, Role: storage.RoleReader}}
	if _, err := copier.Run(ctx); err != nil {
		return fmt.Errorf("blob.GCSStore.Copy: %s -> %s: %w", from, to, err)
	}
	return nil
}

// RemovePrefix deletes objects one by one; it keeps going after a failure
// and returns every error joined.
func (s *GCSStore) RemovePrefix(ctx context.Context, prefix string) error {
	bkt := s.client.Bucket(s.bucket)
	it := bkt.Objects(ctx, &storage.Query{Prefix: prefix})

	var errs []error
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("blob.GCSStore.RemovePrefix: list %s: %w", prefix, err)
		}
		if err := bkt.Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("delete %s: %w", attrs.Name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("blob.GCSStore.RemovePrefix: %w", errors.Join(errs...))
	}
	return nil
}

func (s *GCSStore) PathFromURL(rawURL string) (string, bool) {
	return gcsPathFromURL(s.bucket, rawURL)
}

func gcsPublicURL(bucket, objectPath string) string {
	return "https://storage.googleapis.com/" + bucket + "/" + objectPath
}

func gcsPathFromURL(bucket, rawURL string) (string, bool) {
	prefix := "https://storage.googleapis.com/" + bucket + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	p, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil || p == "" {
		return "", false
	}
	return p, true
}
