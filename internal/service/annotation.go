package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/apperr"
	"github.com/pictolab/pictolab/internal/domain"
)

// AnnotationStore is the persistence surface the annotation service needs.
type AnnotationStore interface {
	ReplaceForImage(ctx context.Context, imageID int64, userID uuid.UUID, annotations []domain.Annotation) error
	ListByImage(ctx context.Context, imageID int64) ([]domain.Annotation, error)
}

// AnnotationService manages labeled regions. Any authenticated user may
// annotate any image; each save replaces that user's own set on the image.
type AnnotationService struct {
	images      ImageStore
	annotations AnnotationStore
}

func NewAnnotationService(images ImageStore, annotations AnnotationStore) *AnnotationService {
	return &AnnotationService{images: images, annotations: annotations}
}

// Save replaces the caller's annotations on an image.
func (s *AnnotationService) Save(ctx context.Context, userID uuid.UUID, imageID int64, annotations []domain.Annotation) error {
	img, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return apperr.Internal(err)
	}
	if img == nil {
		return apperr.New(apperr.KindNotFound, "image not found")
	}

	if err := s.annotations.ReplaceForImage(ctx, imageID, userID, annotations); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// Get returns every annotation on an image, across all contributors.
func (s *AnnotationService) Get(ctx context.Context, imageID int64) ([]domain.Annotation, error) {
	img, err := s.images.FindByID(ctx, imageID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if img == nil {
		return nil, apperr.New(apperr.KindNotFound, "image not found")
	}

	out, err := s.annotations.ListByImage(ctx, imageID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}
