package ownership

import (
	"time"

	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
)

// SetOwnedInput marks a paint as owned.
type SetOwnedInput struct {
	UserID   string `json:"user_id" validate:"required"`
	BrandID  string `json:"brand_id" validate:"required"`
	PaintID  string `json:"paint_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
	Notes    string `json:"notes"`
}

// UpdateOwnedInput edits an inventory entry.
type UpdateOwnedInput struct {
	Quantity *int    `json:"quantity" validate:"omitempty,gte=0"`
	Notes    *string `json:"notes"`
}

// SetDesiredInput marks a paint as desired. Priority follows the
// PriorityUnranked / PriorityAppend / 1..N+1 convention.
type SetDesiredInput struct {
	UserID   string `json:"user_id" validate:"required"`
	BrandID  string `json:"brand_id" validate:"required"`
	PaintID  string `json:"paint_id" validate:"required"`
	Type     string `json:"type"`
	Priority int    `json:"priority"`
}

// UpdateDesiredInput edits a wishlist entry. Rank changes go through ReorderWishlist.
type UpdateDesiredInput struct {
	Type *string `json:"type"`
}

// SetOwnedResult is the inventory entry after SetOwned.
type SetOwnedResult struct {
	Entry   models.InventoryEntry `json:"entry"`
	Created bool                  `json:"created"`
}

// SetDesiredResult is the wishlist entry after SetDesired.
type SetDesiredResult struct {
	Entry    models.WishlistEntry `json:"entry"`
	Restored bool                 `json:"restored"`
}

// InventoryFilters narrows a user's inventory listing.
type InventoryFilters struct {
	BrandID     string `json:"brand_id,omitempty"`
	BrandName   string `json:"brand,omitempty"`
	Stock       *int   `json:"stock,omitempty"`
	OnlyInStock bool   `json:"only_in_stock,omitempty"`
	MinStock    *int   `json:"min_stock,omitempty"`
	MaxStock    *int   `json:"max_stock,omitempty"`
}

// InventoryItem is an inventory entry joined with its paint and palette names.
type InventoryItem struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	BrandID   string           `json:"brand_id"`
	PaintID   string           `json:"paint_id"`
	Quantity  int              `json:"quantity"`
	Notes     string           `json:"notes"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	Paint     *paints.PaintDTO `json:"paint"`
	Palettes  []string         `json:"palettes"`
}

// Wishlist sort keys.
const (
	SortByCreatedAt    = "created_at"
	SortByAlphabetical = "alphabetical"
)

// WishlistFilters narrows and orders a wishlist read. Pagination applies only
// when both Limit and Page are positive.
type WishlistFilters struct {
	Q         string `json:"q,omitempty"`
	Priority  *int   `json:"priority,omitempty"`
	BrandID   string `json:"brand_id,omitempty"`
	Palette   string `json:"palette,omitempty"`
	SortBy    string `json:"sort_by,omitempty" validate:"omitempty,oneof=created_at alphabetical"`
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=asc desc"`
	Limit     int    `json:"limit,omitempty" validate:"gte=0"`
	Page      int    `json:"page,omitempty" validate:"gte=0"`
}

// WishlistItem is an active wishlist entry joined with its paint and brand.
type WishlistItem struct {
	ID        string          `json:"id"`
	BrandID   string          `json:"brand_id"`
	PaintID   string          `json:"paint_id"`
	Type      string          `json:"type"`
	Priority  int             `json:"priority"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Paint     paints.PaintDTO `json:"paint"`
	Brand     models.Brand    `json:"brand"`
	Palettes  []string        `json:"palettes"`
}

// WishlistResult carries page metadata only when pagination was requested.
type WishlistResult struct {
	UserID      string         `json:"user_id"`
	TotalItems  int            `json:"total_items"`
	TotalPages  int            `json:"total_pages,omitempty"`
	CurrentPage int            `json:"current_page,omitempty"`
	Items       []WishlistItem `json:"wishlist"`
}

// PaintStatus tells whether a user owns or desires a paint.
type PaintStatus struct {
	PaintID     string  `json:"paint_id"`
	BrandID     string  `json:"brand_id"`
	BrandName   *string `json:"brand_name"`
	IsInventory bool    `json:"is_inventory"`
	IsWishlist  bool    `json:"is_wishlist"`
	InventoryID string  `json:"inventory_id"`
	WishlistID  string  `json:"wishlist_id"`
}

// PaintUsage describes how a user relates to a paint.
type PaintUsage struct {
	BrandID     string              `json:"brand_id"`
	PaintID     string              `json:"paint_id"`
	Paint       paints.PaintDTO     `json:"paint"`
	Brand       *models.Brand       `json:"brand"`
	InInventory bool                `json:"in_inventory"`
	InWishlist  bool                `json:"in_wishlist"`
	InventoryID string              `json:"inventory_id"`
	WishlistID  string              `json:"wishlist_id"`
	Palettes    []paints.PaletteRef `json:"palettes"`
}
