package blob

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryStore implements Store on Cloudinary. Object paths become public
// IDs (extension dropped) under folder.
type CloudinaryStore struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	folder    string
}

// NewCloudinaryStore builds a client from API credentials.
func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("blob.NewCloudinaryStore: %w", err)
	}
	return &CloudinaryStore{cld: cld, cloudName: cloudName, folder: strings.Trim(folder, "/")}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, objectPath string, data []byte, _ string) error {
	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID: s.publicID(objectPath),
	})
	if err != nil {
		return fmt.Errorf("blob.CloudinaryStore.Upload: %s: %w", objectPath, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("blob.CloudinaryStore.Upload: %s: %s", objectPath, res.Error.Message)
	}
	return nil
}

// PublicURL builds the delivery URL through the SDK, falling back to the
// documented URL layout if the asset cannot be built.
func (s *CloudinaryStore) PublicURL(objectPath string) string {
	id := s.publicID(objectPath)
	if img, err := s.cld.Image(id); err == nil {
		if u, err := img.String(); err == nil && u != "" {
			return u
		}
	}
	return cloudinaryURL(s.cloudName, id)
}

// Copy re-uploads the delivered source asset under the new public ID;
// Cloudinary has no server-side copy.
func (s *CloudinaryStore) Copy(ctx context.Context, from, to string) error {
	res, err := s.cld.Upload.Upload(ctx, s.PublicURL(from), uploader.UploadParams{
		PublicID: s.publicID(to),
	})
	if err != nil {
		return fmt.Errorf("blob.CloudinaryStore.Copy: %s -> %s: %w", from, to, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("blob.CloudinaryStore.Copy: %s -> %s: %s", from, to, res.Error.Message)
	}
	return nil
}

func (s *CloudinaryStore) RemovePrefix(ctx context.Context, prefix string) error {
	_, err := s.cld.Admin.DeleteAssetsByPrefix(ctx, admin.DeleteAssetsByPrefixParams{
		Prefix: []string{s.publicID(prefix)},
	})
	if err != nil {
		return fmt.Errorf("blob.CloudinaryStore.RemovePrefix: %s: %w", prefix, err)
	}
	return nil
}

func (s *CloudinaryStore) PathFromURL(rawURL string) (string, bool) {
	return cloudinaryPathFromURL(s.cloudName, s.folder, rawURL)
}

// publicID strips the extension and prepends the folder.
func (s *CloudinaryStore) publicID(objectPath string) string {
	id := strings.TrimSuffix(objectPath, path.Ext(objectPath))
	if strings.HasSuffix(objectPath, "/") {
		id = objectPath
	}
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}

func cloudinaryURL(cloudName, publicID string) string {
	return "https://res.cloudinary.com/" + cloudName + "/image/upload/" + publicID
}

var cloudinaryVersion = regexp.MustCompile(`^v\d+/`)

// cloudinaryPathFromURL turns
// https://res.cloudinary.com/{cloud}/image/upload/v123/{folder}/{path}.jpg
// back into {path}. The extension is not recoverable and is dropped.
func cloudinaryPathFromURL(cloudName, folder, rawURL string) (string, bool) {
	prefix := "https://res.cloudinary.com/" + cloudName + "/image/upload/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	rest := cloudinaryVersion.ReplaceAllString(strings.TrimPrefix(rawURL, prefix), "")
	rest = strings.TrimSuffix(rest, path.Ext(rest))
	if folder != "" {
		if !strings.HasPrefix(rest, folder+"/") {
			return "", false
		}
		rest = strings.TrimPrefix(rest, folder+"/")
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}
