package models

import "time"

// Brand is a paint manufacturer; paints are partitioned under it.
type Brand struct {
	ID        string    `gorm:"column:id;type:text;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;index:brands_name_idx" json:"name"`
	LogoURL   string    `gorm:"column:logo_url;not null;default:''" json:"logo_url"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
