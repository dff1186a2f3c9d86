package submissions

import (
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
)

// CreateSubmissionInput proposes a paint. Every catalog field is optional
// until the submission is finalized.
type CreateSubmissionInput struct {
	UserID    *string `json:"user_id"`
	BrandID   string  `json:"brand_id"`
	Code      string  `json:"code"`
	Color     string  `json:"color"`
	Hex       string  `json:"hex" validate:"omitempty,paint_hex"`
	Name      string  `json:"name"`
	Set       string  `json:"set"`
	R         *int    `json:"r" validate:"omitempty,gte=0,lte=255"`
	G         *int    `json:"g" validate:"omitempty,gte=0,lte=255"`
	B         *int    `json:"b" validate:"omitempty,gte=0,lte=255"`
	Barcode   *string `json:"barcode"`
	Broadcast bool    `json:"broadcast"`
}

// UpdateSubmissionInput edits a submission. Moving Status to finalized
// creates the catalog paint.
type UpdateSubmissionInput struct {
	BrandID   *string `json:"brand_id"`
	Code      *string `json:"code"`
	Color     *string `json:"color"`
	Hex       *string `json:"hex" validate:"omitempty,paint_hex"`
	Name      *string `json:"name"`
	Set       *string `json:"set"`
	R         *int    `json:"r" validate:"omitempty,gte=0,lte=255"`
	G         *int    `json:"g" validate:"omitempty,gte=0,lte=255"`
	B         *int    `json:"b" validate:"omitempty,gte=0,lte=255"`
	Barcode   *string `json:"barcode"`
	Broadcast *bool   `json:"broadcast"`
	Status    *string `json:"status" validate:"omitempty,oneof=pending finalized"`
}

// SubmissionDTO is a submission annotated with its submitter's email.
type SubmissionDTO struct {
	ID        string    `json:"id"`
	UserID    *string   `json:"user_id"`
	UserEmail string    `json:"user_email"`
	BrandID   string    `json:"brand_id"`
	Code      string    `json:"code"`
	Color     string    `json:"color"`
	Hex       string    `json:"hex"`
	Name      string    `json:"name"`
	Set       string    `json:"set"`
	R         *int      `json:"r"`
	G         *int      `json:"g"`
	B         *int      `json:"b"`
	Barcode   *string   `json:"barcode"`
	Status    string    `json:"status"`
	Broadcast bool      `json:"broadcast"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newSubmissionDTO(s models.PaintSubmission, email string) SubmissionDTO {
	return SubmissionDTO{
		ID:        s.ID,
		UserID:    s.UserID,
		UserEmail: email,
		BrandID:   s.BrandID,
		Code:      s.Code,
		Color:     s.Color,
		Hex:       s.Hex,
		Name:      s.Name,
		Set:       s.Set,
		R:         s.R,
		G:         s.G,
		B:         s.B,
		Barcode:   s.Barcode,
		Status:    s.Status,
		Broadcast: s.Broadcast,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
