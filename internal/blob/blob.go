// Package blob stores item image attachments behind an opaque key. The core
// never reads image files itself: callers store the image first and attach
// the resulting key to an item via create or update.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem is the local filesystem implementation (default, dev).
	DriverFilesystem Driver = "fs"
	// DriverS3 is an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3"
	// DriverMemory is the in-memory implementation used in tests.
	DriverMemory Driver = "memory"
)

// Only PNG and JPEG images are accepted as item attachments.
const (
	ContentTypePNG  = "image/png"
	ContentTypeJPEG = "image/jpeg"
)

// ErrUnsupportedType is returned when a Put carries a content type other than
// PNG or JPEG.
var ErrUnsupportedType = errors.New("blob: only image/png and image/jpeg attachments are supported")

// ErrNotFound is returned when no blob exists under the requested key.
var ErrNotFound = errors.New("blob: not found")

// ErrUnsupported is returned when an optional capability is not available.
var ErrUnsupported = errors.New("blob: unsupported operation")

// Info describes a stored image.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the interface image storage backends implement. Put replaces any
// existing blob under the same key, so re-attaching an image to an item does
// not require a delete first. Presign returns ErrUnsupported on backends that
// cannot mint direct download URLs; callers fall back to streaming via Get.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Presign(ctx context.Context, key string, expiry time.Duration) (string, error)
	Driver() Driver
}

// ValidateContentType rejects anything that is not a supported image type.
func ValidateContentType(contentType string) error {
	switch contentType {
	case ContentTypePNG, ContentTypeJPEG:
		return nil
	}
	return ErrUnsupportedType
}

// KeyFor derives the canonical attachment key for an item.
func KeyFor(itemID, contentType string) string {
	ext := "jpg"
	if contentType == ContentTypePNG {
		ext = "png"
	}
	return fmt.Sprintf("items/%s.%s", itemID, ext)
}
