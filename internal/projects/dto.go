package projects

import (
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
)

// CreateProjectInput names a new project.
type CreateProjectInput struct {
	UserID string `json:"user_id" validate:"required"`
	Name   string `json:"name" validate:"required,max=120"`
	Public bool   `json:"public"`
}

// UpdateProjectInput changes the fields that are set.
type UpdateProjectInput struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Public *bool   `json:"public,omitempty"`
}

// ProjectFilters narrows a user's projects. Name matches as a
// case-insensitive prefix.
type ProjectFilters struct {
	Name string `json:"name"`
}

// AddItemInput points a project at a palette, image or paint. BrandID is
// required for paints and ignored otherwise.
type AddItemInput struct {
	UserID    string `json:"user_id" validate:"required"`
	ProjectID string `json:"project_id" validate:"required"`
	Kind      string `json:"table" validate:"required,oneof=palettes user_color_images paints"`
	RefID     string `json:"table_id" validate:"required"`
	BrandID   string `json:"brand_id"`
}

// ShareInput names the project and the user it is shared with.
type ShareInput struct {
	ActorID   string `json:"user_triggered_action" validate:"required"`
	ProjectID string `json:"project_id" validate:"required"`
	UserID    string `json:"user_id" validate:"required"`
}

// AddItemResult reports whether the item was created or already present.
type AddItemResult struct {
	Item    models.ProjectItem `json:"item"`
	Created bool               `json:"created"`
}

// ShareResult reports whether the share was created or already present.
type ShareResult struct {
	Share   models.ProjectShare `json:"share"`
	Created bool                `json:"created"`
}

// ItemDTO is one reference held by a project.
type ItemDTO struct {
	ID        string    `json:"id"`
	Kind      string    `json:"table"`
	RefID     string    `json:"table_id"`
	BrandID   string    `json:"brand_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProjectDTO is a project with its items.
type ProjectDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Public    bool      `json:"public"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Items     []ItemDTO `json:"items"`
}

// DeleteResult counts what DeleteProject removed.
type DeleteResult struct {
	ProjectID     string `json:"project_id"`
	ItemsDeleted  int64  `json:"items_deleted"`
	SharesDeleted int64  `json:"shares_deleted"`
}

func newProjectDTO(p models.Project, items []ItemDTO) ProjectDTO {
	if items == nil {
		items = []ItemDTO{}
	}
	return ProjectDTO{
		ID:        p.ID,
		UserID:    p.UserID,
		Name:      p.Name,
		Public:    p.Public,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Items:     items,
	}
}

func newItemDTO(i models.ProjectItem) ItemDTO {
	return ItemDTO{ID: i.ID, Kind: i.Kind, RefID: i.RefID, BrandID: i.BrandID, CreatedAt: i.CreatedAt}
}
