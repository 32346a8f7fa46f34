package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/domain"
)

// AnnotationRepository persists labeled regions on images.
type AnnotationRepository struct {
	db *sql.DB
}

func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

// ReplaceForImage swaps the user's annotation set on an image in one
// transaction, so readers never observe a half-written set.
func (r *AnnotationRepository) ReplaceForImage(ctx context.Context, imageID int64, userID uuid.UUID, annotations []domain.Annotation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM annotations WHERE image_id = $1 AND user_id = $2", imageID, userID); err != nil {
		return fmt.Errorf("clear annotations: %w", err)
	}

	for i := range annotations {
		a := &annotations[i]
		err := tx.QueryRowContext(ctx,
			`INSERT INTO annotations (image_id, user_id, label, x, y, width, height)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			imageID, userID, a.Label, a.X, a.Y, a.Width, a.Height,
		).Scan(&a.ID)
		if err != nil {
			return fmt.Errorf("insert annotation: %w", err)
		}
		a.ImageID = imageID
		a.UserID = userID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListByImage returns every annotation on an image, across all users.
func (r *AnnotationRepository) ListByImage(ctx context.Context, imageID int64) ([]domain.Annotation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, image_id, user_id, label, x, y, width, height
		 FROM annotations WHERE image_id = $1 ORDER BY id`, imageID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	var out []domain.Annotation
	for rows.Next() {
		var a domain.Annotation
		if err := rows.Scan(&a.ID, &a.ImageID, &a.UserID, &a.Label, &a.X, &a.Y, &a.Width, &a.Height); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	return out, nil
}
