package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubmissionStatusPending   = "pending"
	SubmissionStatusFinalized = "finalized"
)

// PaintSubmission is a user-proposed paint awaiting review. Pointer fields
// stay nil until the submitter or a reviewer fills them in.
type PaintSubmission struct {
	ID        string    `gorm:"column:id;type:text;primaryKey"`
	UserID    *string   `gorm:"column:user_id;type:text;index:paint_submissions_user_idx"`
	BrandID   string    `gorm:"column:brand_id;type:text;not null;default:''"`
	Code      string    `gorm:"column:code;not null;default:''"`
	Color     string    `gorm:"column:color;not null;default:''"`
	Hex       string    `gorm:"column:hex;not null;default:''"`
	Name      string    `gorm:"column:name;not null;default:''"`
	Set       string    `gorm:"column:set_name;not null;default:''"`
	R         *int      `gorm:"column:r"`
	G         *int      `gorm:"column:g"`
	B         *int      `gorm:"column:b"`
	Barcode   *string   `gorm:"column:barcode"`
	Status    string    `gorm:"column:status;not null;default:'pending';index:paint_submissions_status_idx"`
	Broadcast bool      `gorm:"column:broadcast;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *PaintSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = SubmissionStatusPending
	}
	return nil
}
