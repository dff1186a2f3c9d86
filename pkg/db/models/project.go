package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project item kinds name the collection a ProjectItem points into.
const (
	ProjectItemPalette = "palettes"
	ProjectItemImage   = "user_color_images"
	ProjectItemPaint   = "paints"
)

// Project groups palettes, images and paints under one user-owned name.
type Project struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	UserID    string    `gorm:"column:user_id;type:text;not null;index:projects_user_name_idx,priority:1"`
	Name      string    `gorm:"column:name;not null"`
	NameLower string    `gorm:"column:name_lower;not null;default:'';index:projects_user_name_idx,priority:2"`
	Public    bool      `gorm:"column:public;not null;default:false;index:projects_public_created_idx,priority:1"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:projects_public_created_idx,priority:2"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeSave keeps name_lower derived from name.
func (p *Project) BeforeSave(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.NameLower = strings.ToLower(p.Name)
	return nil
}

// ProjectItem references one palette, image or paint from a project. BrandID
// is set only for paints.
type ProjectItem struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	ProjectID string    `gorm:"column:project_id;type:text;not null;uniqueIndex:project_items_ref_key,priority:1"`
	UserID    string    `gorm:"column:user_id;type:text;not null"`
	Kind      string    `gorm:"column:kind;not null;uniqueIndex:project_items_ref_key,priority:2"`
	RefID     string    `gorm:"column:ref_id;type:text;not null;uniqueIndex:project_items_ref_key,priority:3"`
	BrandID   string    `gorm:"column:brand_id;type:text;not null;default:'';uniqueIndex:project_items_ref_key,priority:4"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *ProjectItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// ProjectShare grants UserID read access to a project shared by SharedBy.
type ProjectShare struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	ProjectID string    `gorm:"column:project_id;type:text;not null;uniqueIndex:project_shares_user_key,priority:1"`
	UserID    string    `gorm:"column:user_id;type:text;not null;uniqueIndex:project_shares_user_key,priority:2;index:project_shares_user_created_idx,priority:1"`
	SharedBy  string    `gorm:"column:shared_by;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:project_shares_user_created_idx,priority:2"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *ProjectShare) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Flag is a named runtime toggle.
type Flag struct {
	Name      string    `gorm:"column:name;type:text;primaryKey"`
	Enabled   bool      `gorm:"column:enabled;not null;default:false"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
