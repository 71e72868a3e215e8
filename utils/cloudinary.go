package utils

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	config "github.com/phillip/travel-planner-go/config"
)

// Upload folders, nested under the configured root folder.
const (
	FolderAvatars     = "avatars"
	FolderItineraries = "itineraries"
	FolderReviews     = "reviews"
)

const maxImageSize = 5 << 20

// MediaStore keeps user images. Deleting takes the URL Upload returned.
type MediaStore interface {
	Upload(ctx context.Context, file multipart.File, folder string) (string, error)
	Delete(ctx context.Context, imageURL string) error
}

type CloudinaryStore struct {
	cld  *cloudinary.Cloudinary
	root string
}

func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{cld: cld, root: cfg.Folder}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, file multipart.File, folder string) (string, error) {
	resp, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: path.Join(s.root, folder),
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload error: %s", resp.Error.Message)
	}
	return resp.SecureURL, nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, imageURL string) error {
	publicID, err := extractPublicID(imageURL)
	if err != nil {
		return fmt.Errorf("could not extract public ID: %w", err)
	}
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	return nil
}

// extractPublicID maps a delivery URL back to its public id:
// https://res.cloudinary.com/demo/image/upload/v1234567890/travel-planner/avatars/abc123.jpg
// -> travel-planner/avatars/abc123
func extractPublicID(imageURL string) (string, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil {
		return "", err
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	i := 0
	for i < len(parts) && parts[i] != "upload" {
		i++
	}
	if i >= len(parts)-1 {
		return "", errors.New("invalid cloudinary URL format")
	}
	rest := parts[i+1:]
	if len(rest) > 1 && isVersionSegment(rest[0]) {
		rest = rest[1:]
	}

	joined := path.Join(rest...)
	return strings.TrimSuffix(joined, path.Ext(joined)), nil
}

func isVersionSegment(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DisabledMedia is used when Cloudinary credentials are absent.
type DisabledMedia struct{}

func (DisabledMedia) Upload(context.Context, multipart.File, string) (string, error) {
	return "", NewError(http.StatusServiceUnavailable, "Image uploads are not configured")
}

func (DisabledMedia) Delete(context.Context, string) error { return nil }

// UploadFiles stores every file of a multipart field and returns their URLs
// in order. It stops at the first failure.
func UploadFiles(ctx context.Context, media MediaStore, files []*multipart.FileHeader, folder string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxImageSize {
			return nil, BadRequest(fmt.Sprintf("%s exceeds the 5MB limit", fh.Filename))
		}
		if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
			return nil, BadRequest(fmt.Sprintf("%s is not an image", fh.Filename))
		}

		file, err := fh.Open()
		if err != nil {
			return nil, Internal("Failed to open file", err)
		}
		u, err := media.Upload(ctx, file, folder)
		file.Close()
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return nil, apiErr
			}
			return nil, Internal("Image upload failed", err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}

// DeleteImages removes images best-effort; failures are only logged.
func DeleteImages(ctx context.Context, media MediaStore, urls []string, logf func(url string, err error)) {
	for _, u := range urls {
		if err := media.Delete(ctx, u); err != nil && logf != nil {
			logf(u, err)
		}
	}
}
