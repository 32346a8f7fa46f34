package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pictolab/pictolab/internal/domain"
)

// ImageRepository persists image metadata. The bytes themselves live on
// disk; this table only records ownership and naming.
type ImageRepository struct {
	db *sql.DB
}

func NewImageRepository(db *sql.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

const imageColumns = "id, user_id, filename, original_name, create_at"

func scanImage(row interface{ Scan(...any) error }) (*domain.Image, error) {
	var img domain.Image
	err := row.Scan(&img.ID, &img.UserID, &img.Filename, &img.OriginalName, &img.CreateAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan image: %w", err)
	}
	return &img, nil
}

// Create inserts the metadata row and fills in the generated ID and
// creation time.
func (r *ImageRepository) Create(ctx context.Context, img *domain.Image) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO images (user_id, filename, original_name)
		 VALUES ($1, $2, $3) RETURNING id, create_at`,
		img.UserID, img.Filename, img.OriginalName,
	).Scan(&img.ID, &img.CreateAt)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

func (r *ImageRepository) FindByID(ctx context.Context, id int64) (*domain.Image, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+imageColumns+" FROM images WHERE id = $1", id)
	return scanImage(row)
}

// ListByUser returns one page of the user's images, newest first, plus the
// total count.
func (r *ImageRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Image, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		"SELECT count(*) FROM images WHERE user_id = $1", userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count images: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+imageColumns+" FROM images WHERE user_id = $1 ORDER BY create_at DESC, id DESC LIMIT $2 OFFSET $3",
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, 0, err
		}
		images = append(images, *img)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list images: %w", err)
	}
	return images, total, nil
}

// Delete removes the metadata row. The caller deletes the file afterwards.
func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM images WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete image: %w", err)
	}
	return requireRow(res)
}
