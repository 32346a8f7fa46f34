package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/domain"
)

// MaxImageBytes caps a single upload.
const MaxImageBytes = 10 << 20

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// ImageStore is the persistence surface the image service needs.
type ImageStore interface {
	Create(ctx context.Context, img *domain.Image) error
	FindByID(ctx context.Context, id int64) (*domain.Image, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Image, int64, error)
	Delete(ctx context.Context, id int64) error
}

// ImageService stores image bytes on disk under a server-generated name and
// tracks ownership in the database.
type ImageService struct {
	images ImageStore
	dir    string
	log    *slog.Logger
}

func NewImageService(images ImageStore, uploadDir string, log *slog.Logger) (*ImageService, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageService{images: images, dir: uploadDir, log: log}, nil
}

// Upload writes the bytes to disk and records the metadata row. The stored
// filename is a fresh UUID so client names never reach the filesystem.
func (s *ImageService) Upload(ctx context.Context, userID uuid.UUID, originalName string, body io.Reader) (*domain.Image, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return nil, apperr.New(apperr.KindInvalidInput, "unsupported image type")
	}

	filename := uuid.NewString() + ext
	path := filepath.Join(s.dir, filename)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("create image file: %w", err))
	}

	written, err := io.Copy(file, io.LimitReader(body, MaxImageBytes+1))
	closeErr := file.Close()
	switch {
	case err != nil:
		os.Remove(path)
		return nil, apperr.Internal(fmt.Errorf("write image file: %w", err))
	case closeErr != nil:
		os.Remove(path)
		return nil, apperr.Internal(fmt.Errorf("close image file: %w", closeErr))
	case written == 0:
		os.Remove(path)
		return nil, apperr.New(apperr.KindInvalidInput, "image is empty")
	case written > MaxImageBytes:
		os.Remove(path)
		return nil, apperr.Newf(apperr.KindInvalidInput, "image exceeds %d bytes", MaxImageBytes)
	}

	img := &domain.Image{
		UserID:       userID,
		Filename:     filename,
		OriginalName: filepath.Base(originalName),
	}
	if err := s.images.Create(ctx, img); err != nil {
		os.Remove(path)
		return nil, apperr.Internal(err)
	}
	return img, nil
}

// Get returns the metadata and the on-disk path. Any authenticated user may
// read an image; annotation is collaborative.
func (s *ImageService) Get(ctx context.Context, id int64) (*domain.Image, string, error) {
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		return nil, "", apperr.Internal(err)
	}
	if img == nil {
		return nil, "", apperr.New(apperr.KindNotFound, "image not found")
	}
	return img, filepath.Join(s.dir, img.Filename), nil
}

// ServePath resolves a stored filename to its on-disk path. Filenames are
// server-generated, so anything with path structure is rejected outright.
func (s *ImageService) ServePath(filename string) (string, error) {
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		return "", apperr.New(apperr.KindInvalidInput, "malformed filename")
	}
	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", apperr.New(apperr.KindNotFound, "image not found")
		}
		return "", apperr.Internal(err)
	}
	return path, nil
}

// List returns one page of the caller's images.
func (s *ImageService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Image, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	images, total, err := s.images.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(err)
	}
	return images, total, nil
}

// Delete removes the image. Only the owner or an admin may delete; the
// annotations go with it via the foreign key.
func (s *ImageService) Delete(ctx context.Context, caller *domain.User, id int64) error {
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if img == nil {
		return apperr.New(apperr.KindNotFound, "image not found")
	}
	if img.UserID != caller.ID && caller.Role != domain.RoleAdmin {
		return apperr.New(apperr.KindPermissionDenied, "not the image owner")
	}

	if err := s.images.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	if err := os.Remove(filepath.Join(s.dir, img.Filename)); err != nil && !os.IsNotExist(err) {
		// Metadata row is gone; an orphan file is only a cleanup concern.
		s.log.Warn("remove image file failed", "filename", img.Filename, "error", err)
	}
	return nil
}
