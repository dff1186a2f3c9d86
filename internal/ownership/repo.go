package ownership

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/angelmondragon/paintref-backend/pkg/docstore"
	"gorm.io/gorm"
)

// inventorySchema whitelists the inventory fields listings may filter or order on.
var inventorySchema = docstore.Schema{
	"userId":    "user_id",
	"brandId":   "brand_id",
	"paintId":   "paint_id",
	"quantity":  "quantity",
	"createdAt": "created_at",
	"id":        "id",
}

// Repository persists inventory and wishlist entries. Both tables change
// together in every state transition, so one repository spans them.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) inventoryScan(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.InventoryEntry{})
}

func (r *Repository) FindInventory(ctx context.Context, id string) (*models.InventoryEntry, error) {
	var entry models.InventoryEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindInventoryByTriple returns nil without error when the user does not own the paint.
func (r *Repository) FindInventoryByTriple(ctx context.Context, userID, brandID, paintID string) (*models.InventoryEntry, error) {
	var entry models.InventoryEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND brand_id = ? AND paint_id = ?", userID, brandID, paintID).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) CreateInventory(ctx context.Context, entry *models.InventoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) UpdateInventory(ctx context.Context, id string, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).
		Model(&models.InventoryEntry{}).
		Where("id = ?", id).
		UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) DeleteInventory(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.InventoryEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteInventoryByTriple removes the user's inventory row for a paint, if any.
func (r *Repository) DeleteInventoryByTriple(ctx context.Context, userID, brandID, paintID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND brand_id = ? AND paint_id = ?", userID, brandID, paintID).
		Delete(&models.InventoryEntry{})
	return res.RowsAffected, res.Error
}

func (r *Repository) FindWishlist(ctx context.Context, id string) (*models.WishlistEntry, error) {
	var entry models.WishlistEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindWishlistByTriple returns the active or soft-deleted row for the paint,
// or nil without error when none exists.
func (r *Repository) FindWishlistByTriple(ctx context.Context, userID, brandID, paintID string) (*models.WishlistEntry, error) {
	var entry models.WishlistEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND brand_id = ? AND paint_id = ?", userID, brandID, paintID).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *Repository) CreateWishlist(ctx context.Context, entry *models.WishlistEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) UpdateWishlist(ctx context.Context, id string, updates map[string]any) error {
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&models.WishlistEntry{}).
		Where("id = ?", id).
		UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetPriority rewrites only the rank, leaving updated_at untouched so rank
// compaction does not disturb recency ordering.
func (r *Repository) SetPriority(ctx context.Context, id string, priority int) error {
	return r.db.WithContext(ctx).
		Model(&models.WishlistEntry{}).
		Where("id = ?", id).
		UpdateColumn("priority", priority).Error
}

func (r *Repository) DeleteWishlist(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.WishlistEntry{}).Error
}

// ListRanked returns the user's active ranked entries in rank order.
func (r *Repository) ListRanked(ctx context.Context, userID string) ([]models.WishlistEntry, error) {
	var rows []models.WishlistEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted = ? AND priority > 0", userID, false).
		Order("priority ASC").
		Order("updated_at DESC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActive returns every active entry: ranked ones by rank, then unranked,
// each group most recently updated first.
func (r *Repository) ListActive(ctx context.Context, userID string) ([]models.WishlistEntry, error) {
	var rows []models.WishlistEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted = ?", userID, false).
		Order("CASE WHEN priority > 0 THEN 0 ELSE 1 END").
		Order("priority ASC").
		Order("updated_at DESC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindActiveWishlistByTriple returns nil without error when no active row exists.
func (r *Repository) FindActiveWishlistByTriple(ctx context.Context, userID, brandID, paintID string) (*models.WishlistEntry, error) {
	var entry models.WishlistEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND brand_id = ? AND paint_id = ? AND deleted = ?", userID, brandID, paintID, false).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
