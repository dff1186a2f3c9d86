package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Paint lives in its brand's partition: (brand_id, id) is the identity.
type Paint struct {
	BrandID       string    `gorm:"column:brand_id;type:text;primaryKey;index:paints_brand_name_idx,priority:1"`
	ID            string    `gorm:"column:id;type:text;primaryKey"`
	Code          string    `gorm:"column:code;not null;default:'';index:paints_code_idx"`
	Color         string    `gorm:"column:color;not null;default:''"`
	Name          string    `gorm:"column:name;not null;index:paints_brand_name_idx,priority:2"`
	NameLower     string    `gorm:"column:name_lower;not null;default:'';index:paints_name_lower_idx"`
	Hex           string    `gorm:"column:hex;not null;default:'';index:paints_hex_idx"`
	R             int       `gorm:"column:r;not null;default:0"`
	G             int       `gorm:"column:g;not null;default:0"`
	B             int       `gorm:"column:b;not null;default:0"`
	Set           string    `gorm:"column:set_name;not null;default:''"`
	Category      *string   `gorm:"column:category;index:paints_category_idx"`
	IsMetallic    *bool     `gorm:"column:is_metallic"`
	IsTransparent *bool     `gorm:"column:is_transparent"`
	Barcode       *string   `gorm:"column:barcode;index:paints_barcode_idx"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Key returns the paint's composite identity.
func (p Paint) Key() PaintKey {
	return PaintKey{BrandID: p.BrandID, PaintID: p.ID}
}

// BeforeSave keeps name_lower derived from name.
func (p *Paint) BeforeSave(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.NameLower = strings.ToLower(p.Name)
	return nil
}

// PaintKey identifies a paint across partitions.
type PaintKey struct {
	BrandID string `json:"brand_id"`
	PaintID string `json:"paint_id"`
}

// UniqueKeys drops duplicate keys while preserving first-seen order.
func UniqueKeys(keys []PaintKey) []PaintKey {
	seen := make(map[PaintKey]struct{}, len(keys))
	out := make([]PaintKey, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
