package filestorage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize caps a single uploaded image.
const MaxImageSize = 5 << 20

// imageTypes maps accepted image content types to the extension stored objects get.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// FileStorage stores uploaded files and returns the URL clients use to fetch them
type FileStorage interface {
	// SaveFile stores the upload under dir and returns its public URL
	SaveFile(ctx context.Context, fileHeader *multipart.FileHeader, dir string) (string, error)

	// DeleteFile removes a file previously returned by SaveFile
	DeleteFile(ctx context.Context, fileURL string) error
}

// ImageExtension validates an upload as an accepted image and returns the
// extension its stored name should carry.
func ImageExtension(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("no file provided")
	}
	if fileHeader.Size > MaxImageSize {
		return "", fmt.Errorf("file exceeds the %d MB limit", MaxImageSize>>20)
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(fileHeader.Header.Get("Content-Type"), ";")[0]))
	ext, ok := imageTypes[contentType]
	if !ok {
		return "", fmt.Errorf("unsupported image type %q", contentType)
	}
	return ext, nil
}

// objectName builds a collision-free name under dir.
func objectName(dir, ext string) string {
	name := uuid.New().String() + ext
	if dir == "" {
		return name
	}
	return filepath.ToSlash(filepath.Join(dir, name))
}
