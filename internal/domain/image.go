package domain

import (
	"time"

	"github.com/google/uuid"
)

// Image is the metadata row for an uploaded image. Bytes live on disk under
// the configured upload directory; Filename is server-generated.
type Image struct {
	ID           int64
	UserID       uuid.UUID
	Filename     string
	OriginalName string
	CreateAt     time.Time
}

// Annotation is a single labeled region on an image.
type Annotation struct {
	ID      int64
	ImageID int64
	UserID  uuid.UUID
	Label   string
	X       float64
	Y       float64
	Width   float64
	Height  float64
}
