package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
)

const maxUploadBytes = 10 * 1024 * 1024

// Folder scopes an upload to the surface it belongs to.
type Folder string

const (
	FolderProduct Folder = "products"
	FolderVendor  Folder = "vendors"
	FolderProfile Folder = "profiles"
)

var allowedImageMimes = []string{"image/png", "image/jpeg", "image/webp"}

// bucket is the slice of the storage client used for uploads.
type bucket interface {
	Upload(ctx context.Context, objectName, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, objectName string) error
}

// UploadInput describes one incoming file.
type UploadInput struct {
	Folder      Folder
	FileName    string
	ContentType string
	SizeBytes   int64
	Body        io.Reader
}

// UploadDTO is returned after a successful upload.
type UploadDTO struct {
	ObjectName string `json:"object_name"`
	PublicURL  string `json:"public_url"`
}

// Service stores listing and profile images in the public bucket.
type Service interface {
	Upload(ctx context.Context, userID uuid.UUID, input UploadInput) (UploadDTO, error)
	Delete(ctx context.Context, objectName string) error
}

type service struct {
	bucket bucket
	logg   *logger.Logger
}

// NewService builds a media service with the required dependencies.
func NewService(storage bucket, logg *logger.Logger) (Service, error) {
	if storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "storage bucket is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{bucket: storage, logg: logg}, nil
}

// Upload validates the file and writes it under a random object name
// so uploads never collide or overwrite each other.
func (s *service) Upload(ctx context.Context, userID uuid.UUID, input UploadInput) (UploadDTO, error) {
	if userID == uuid.Nil {
		return UploadDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.Body == nil {
		return UploadDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "file body is required")
	}
	if !validFolder(input.Folder) {
		return UploadDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown upload folder")
	}
	if input.SizeBytes <= 0 || input.SizeBytes > maxUploadBytes {
		return UploadDTO{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("file size must be between 1 and %d bytes", maxUploadBytes))
	}
	if !allowedMime(input.ContentType) {
		return UploadDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "only png, jpeg and webp images are accepted")
	}

	objectName := buildObjectName(input.Folder, uuid.New(), input.FileName)
	body := io.LimitReader(input.Body, maxUploadBytes)
	url, err := s.bucket.Upload(ctx, objectName, input.ContentType, body)
	if err != nil {
		return UploadDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload object")
	}

	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "media uploaded")
	return UploadDTO{ObjectName: objectName, PublicURL: url}, nil
}

// Delete removes an object. Deleting an object that is already gone
// is not an error.
func (s *service) Delete(ctx context.Context, objectName string) error {
	name := strings.TrimSpace(objectName)
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "object name is required")
	}
	if err := s.bucket.Delete(ctx, name); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete object")
	}
	return nil
}

func validFolder(folder Folder) bool {
	switch folder {
	case FolderProduct, FolderVendor, FolderProfile:
		return true
	default:
		return false
	}
}

func allowedMime(mimeType string) bool {
	for _, candidate := range allowedImageMimes {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildObjectName(folder Folder, id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("%s/%s/%s", folder, id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case r == ' ':
			b.WriteRune('-')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
