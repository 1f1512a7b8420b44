package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/oli-store-api/internal/domain"
	"github.com/oli-store-api/internal/infrastructure/dynamo"
	s3infra "github.com/oli-store-api/internal/infrastructure/s3"
	"github.com/oli-store-api/internal/pkg/id"
)

type UploadInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
	UploaderID  string
}

// Service stores product and slider images: the bytes in S3, a metadata row
// in DynamoDB.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (*domain.File, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, *domain.File, error)
	// PresignURL returns a time-limited direct S3 link for the file, so
	// clients can fetch large images without proxying bytes through the API.
	PresignURL(ctx context.Context, fileID string) (string, error)
	Delete(ctx context.Context, fileID string) error
}

type service struct {
	s3       *s3infra.Store
	fileRepo *dynamo.FileRepo
}

func NewService(s3 *s3infra.Store, fileRepo *dynamo.FileRepo) Service {
	return &service{s3: s3, fileRepo: fileRepo}
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*domain.File, error) {
	safeName := sanitizeFilename(input.Filename)
	key := fmt.Sprintf("images/%s/%s", input.UploaderID, safeName)
	hasher := sha256.New()
	tee := io.TeeReader(input.Reader, hasher)
	contentType := input.ContentType
	if contentType == "" {
		contentType = contentTypeFromName(safeName)
	}
	url, err := s.s3.Upload(ctx, key, tee, contentType)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	f := &domain.File{
		FileID:           id.New(),
		Object:           key,
		Size:             input.Size,
		Type:             contentType,
		Name:             safeName,
		Hash:             hex.EncodeToString(hasher.Sum(nil)),
		URL:              &url,
		UploadedByUserID: input.UploaderID,
		Enable:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.fileRepo.Put(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) Download(ctx context.Context, fileID string) (io.ReadCloser, *domain.File, error) {
	f, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if !f.Enable {
		return nil, nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	rc, err := s.s3.Download(ctx, f.Object)
	if err != nil {
		return nil, nil, err
	}
	return rc, f, nil
}

func (s *service) PresignURL(ctx context.Context, fileID string) (string, error) {
	f, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return "", err
	}
	if !f.Enable {
		return "", fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	return s.s3.PresignedURL(ctx, f.Object, 15*time.Minute)
}

func (s *service) Delete(ctx context.Context, fileID string) error {
	f, err := s.fileRepo.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if !f.Enable {
		return fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	if err := s.s3.Delete(ctx, f.Object); err != nil {
		return err
	}
	return s.fileRepo.SoftDelete(ctx, fileID)
}

func contentTypeFromName(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." {
		return result
	}
	return "_"
}
