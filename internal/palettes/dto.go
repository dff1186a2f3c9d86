package palettes

import (
	"time"

	"github.com/angelmondragon/paintref-backend/internal/paints"
)

// CreatePaletteInput names a new palette.
type CreatePaletteInput struct {
	UserID string `json:"user_id" validate:"required"`
	Name   string `json:"name" validate:"required,max=120"`
}

// PaintRef identifies a paint to link, optionally through the color pick it
// was matched from.
type PaintRef struct {
	BrandID          string  `json:"brand_id" validate:"required"`
	PaintID          string  `json:"paint_id" validate:"required"`
	ImageColorPickID *string `json:"image_color_pick_id,omitempty"`
}

// AddPaintsInput links paints to a palette.
type AddPaintsInput struct {
	Paints []PaintRef `json:"paints" validate:"required,min=1,dive"`
}

// LinkedPaint is a palette link with its paint resolved. Paint is nil when
// the paint was removed from the catalog.
type LinkedPaint struct {
	ID               string           `json:"id"`
	BrandID          string           `json:"brand_id"`
	PaintID          string           `json:"paint_id"`
	ImageColorPickID *string          `json:"image_color_pick_id"`
	AddedAt          time.Time        `json:"added_at"`
	Paint            *paints.PaintDTO `json:"paint"`
}

// PaletteDTO is a palette with its linked paints.
type PaletteDTO struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Name      string        `json:"name"`
	CreatedAt time.Time     `json:"created_at"`
	Paints    []LinkedPaint `json:"paints"`
}

// CascadeResult counts what DeletePalette removed.
type CascadeResult struct {
	PaletteID     string `json:"palette_id"`
	LinksDeleted  int64  `json:"links_deleted"`
	PicksDeleted  int64  `json:"picks_deleted"`
	ImagesDeleted int64  `json:"images_deleted"`
}
