package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// CheckInImagePrefix is the key prefix of check-in photos.
const CheckInImagePrefix = "checkins/"

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error
}

var ErrUnsupportedContentType = errors.New("content type must be image/*")

var subtypePattern = regexp.MustCompile(`^[a-z0-9.+-]+$`)

// NewImageKey builds a unique object key for a user's check-in photo.
func NewImageKey(userID string, contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	subtype, ok := strings.CutPrefix(ct, "image/")
	if !ok || !subtypePattern.MatchString(subtype) {
		return "", ErrUnsupportedContentType
	}
	ext := subtype
	switch subtype {
	case "jpeg", "pjpeg":
		ext = "jpg"
	case "svg+xml":
		ext = "svg"
	}
	return fmt.Sprintf("%s%s/%s.%s", CheckInImagePrefix, userID, uuid.NewString(), ext), nil
}

// OwnsImageKey reports whether key was issued to userID by NewImageKey.
func OwnsImageKey(userID, key string) bool {
	rest, ok := strings.CutPrefix(key, CheckInImagePrefix+userID+"/")
	return ok && rest != "" && !strings.Contains(rest, "/")
}
