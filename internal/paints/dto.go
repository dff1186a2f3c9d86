package paints

import (
	"strings"
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
)

// SortDirection orders catalog pages by name.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// CatalogFilters narrows a catalog query. Empty fields are ignored.
type CatalogFilters struct {
	BrandID  string `json:"brand_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Code     string `json:"code,omitempty"`
	Hex      string `json:"hex,omitempty"`
	Category string `json:"category,omitempty"`
}

// BrandFilters narrows a listing of one brand's paints.
type BrandFilters struct {
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
	Hex  string `json:"hex,omitempty"`
}

// PaletteRef names a palette of the requesting user that holds a paint.
type PaletteRef struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PaintDTO is a paint with its brand denormalized and optional fields defaulted.
type PaintDTO struct {
	ID            string       `json:"id"`
	BrandID       string       `json:"brand_id"`
	Brand         string       `json:"brand"`
	BrandLogo     string       `json:"brand_logo"`
	Code          string       `json:"code"`
	Color         string       `json:"color"`
	Name          string       `json:"name"`
	NameLower     string       `json:"name_lower"`
	Hex           string       `json:"hex"`
	R             int          `json:"r"`
	G             int          `json:"g"`
	B             int          `json:"b"`
	Set           string       `json:"set"`
	Category      string       `json:"category"`
	IsMetallic    bool         `json:"is_metallic"`
	IsTransparent bool         `json:"is_transparent"`
	Barcode       string       `json:"barcode"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	Palettes      []PaletteRef `json:"palettes,omitempty"`
}

// NewPaintDTO maps a paint row; brand may be nil when the brand vanished.
func NewPaintDTO(p models.Paint, brand *models.Brand) PaintDTO {
	dto := PaintDTO{
		ID:        p.ID,
		BrandID:   p.BrandID,
		Code:      p.Code,
		Color:     p.Color,
		Name:      p.Name,
		NameLower: p.NameLower,
		Hex:       p.Hex,
		R:         p.R,
		G:         p.G,
		B:         p.B,
		Set:       p.Set,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if brand != nil {
		dto.Brand = brand.Name
		dto.BrandLogo = brand.LogoURL
	}
	if p.Category != nil {
		dto.Category = *p.Category
	}
	if p.IsMetallic != nil {
		dto.IsMetallic = *p.IsMetallic
	}
	if p.IsTransparent != nil {
		dto.IsTransparent = *p.IsTransparent
	}
	if p.Barcode != nil {
		dto.Barcode = *p.Barcode
	}
	return dto
}

// CreatePaintInput is the admin payload for a new paint.
type CreatePaintInput struct {
	BrandID       string  `json:"brand_id" validate:"required"`
	ID            string  `json:"id"`
	Code          string  `json:"code" validate:"required"`
	Color         string  `json:"color"`
	Name          string  `json:"name" validate:"required"`
	Hex           string  `json:"hex" validate:"required,paint_hex"`
	Set           string  `json:"set"`
	Category      *string `json:"category"`
	IsMetallic    *bool   `json:"is_metallic"`
	IsTransparent *bool   `json:"is_transparent"`
	Barcode       string  `json:"barcode"`
}

// PaintDraft is a validated paint with its brand resolved, waiting to be
// inserted.
type PaintDraft struct {
	paint models.Paint
	brand *models.Brand
}

// UpdatePaintInput carries optional admin edits.
type UpdatePaintInput struct {
	Code          *string `json:"code" validate:"omitempty,min=1"`
	Color         *string `json:"color"`
	Name          *string `json:"name" validate:"omitempty,min=1"`
	Hex           *string `json:"hex" validate:"omitempty,paint_hex"`
	Set           *string `json:"set"`
	Category      *string `json:"category"`
	IsMetallic    *bool   `json:"is_metallic"`
	IsTransparent *bool   `json:"is_transparent"`
	Barcode       *string `json:"barcode"`
}

// BarcodeCoverage summarizes how many paints carry a barcode.
type BarcodeCoverage struct {
	Total          int64 `json:"total"`
	WithBarcode    int64 `json:"with_barcode"`
	WithoutBarcode int64 `json:"without_barcode"`
}

// ClassifyResult reports a category classification run.
type ClassifyResult struct {
	Scanned           int `json:"scanned"`
	Updated           int `json:"updated"`
	CategoriesCreated int `json:"categories_created"`
}

func normalizeSort(sort SortDirection) SortDirection {
	if strings.EqualFold(string(sort), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}
