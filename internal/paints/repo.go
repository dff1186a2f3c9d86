package paints

import (
	"context"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/angelmondragon/paintref-backend/pkg/docstore"
	"gorm.io/gorm"
)

// catalogSchema whitelists the paint fields queries may filter or order on.
var catalogSchema = docstore.Schema{
	"brandId":   "brand_id",
	"id":        "id",
	"code":      "code",
	"name":      "name",
	"nameLower": "name_lower",
	"hex":       "hex",
	"category":  "category",
	"barcode":   "barcode",
}

const blankBarcode = "(barcode IS NULL OR TRIM(barcode) = '')"

// Repository wires paint persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// scan returns a fresh statement over the paints table.
func (r *Repository) scan(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Paint{})
}

func (r *Repository) Create(ctx context.Context, paint *models.Paint) error {
	return r.db.WithContext(ctx).Create(paint).Error
}

// FindByID loads one paint from its brand partition.
func (r *Repository) FindByID(ctx context.Context, brandID, paintID string) (*models.Paint, error) {
	var paint models.Paint
	if err := r.db.WithContext(ctx).
		Where("brand_id = ? AND id = ?", brandID, paintID).
		First(&paint).Error; err != nil {
		return nil, err
	}
	return &paint, nil
}

// FindByCode loads the paint with code inside the brand partition.
func (r *Repository) FindByCode(ctx context.Context, brandID, code string) (*models.Paint, error) {
	var paint models.Paint
	if err := r.db.WithContext(ctx).
		Where("brand_id = ? AND code = ?", brandID, code).
		Order("id ASC").
		First(&paint).Error; err != nil {
		return nil, err
	}
	return &paint, nil
}

// Update applies column updates to one paint. Missing rows surface as
// gorm.ErrRecordNotFound.
func (r *Repository) Update(ctx context.Context, brandID, paintID string, updates map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Paint{}).
		Where("brand_id = ? AND id = ?", brandID, paintID).
		UpdateColumns(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, brandID, paintID string) error {
	res := r.db.WithContext(ctx).
		Where("brand_id = ? AND id = ?", brandID, paintID).
		Delete(&models.Paint{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListByBrand returns the whole partition of a brand.
func (r *Repository) ListByBrand(ctx context.Context, brandID string) ([]models.Paint, error) {
	var rows []models.Paint
	if err := r.db.WithContext(ctx).
		Where("brand_id = ?", brandID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByKeys loads many paints in one round trip. Unknown keys are absent
// from the result.
func (r *Repository) FindByKeys(ctx context.Context, keys []models.PaintKey) (map[models.PaintKey]models.Paint, error) {
	keys = models.UniqueKeys(keys)
	out := make(map[models.PaintKey]models.Paint, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	wanted := make(map[models.PaintKey]struct{}, len(keys))
	brandIDs := make([]string, 0, len(keys))
	paintIDs := make([]string, 0, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
		brandIDs = append(brandIDs, k.BrandID)
		paintIDs = append(paintIDs, k.PaintID)
	}
	var rows []models.Paint
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND brand_id IN ?", paintIDs, brandIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		if _, ok := wanted[p.Key()]; ok {
			out[p.Key()] = p
		}
	}
	return out, nil
}

// FindByBarcode scans every partition for an exact barcode, ordered by name.
func (r *Repository) FindByBarcode(ctx context.Context, barcode string, limit int) ([]models.Paint, error) {
	var rows []models.Paint
	q := r.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		Order("name ASC").
		Order("brand_id ASC").
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountBarcodes returns the number of paints and how many carry a non-blank barcode.
func (r *Repository) CountBarcodes(ctx context.Context) (total, withBarcode int64, err error) {
	if err = r.scan(ctx).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = r.scan(ctx).Where("NOT " + blankBarcode).Count(&withBarcode).Error; err != nil {
		return 0, 0, err
	}
	return total, withBarcode, nil
}

// ListWithoutBarcode returns paints whose barcode is missing or blank.
func (r *Repository) ListWithoutBarcode(ctx context.Context) ([]models.Paint, error) {
	var rows []models.Paint
	if err := r.db.WithContext(ctx).
		Where(blankBarcode).
		Order("brand_id ASC").
		Order("name ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListSharedBarcodes returns every paint whose barcode is used by more than one paint.
func (r *Repository) ListSharedBarcodes(ctx context.Context) ([]models.Paint, error) {
	shared := r.db.WithContext(ctx).
		Model(&models.Paint{}).
		Select("barcode").
		Where("NOT " + blankBarcode).
		Group("barcode").
		Having("COUNT(*) > 1")
	var rows []models.Paint
	if err := r.db.WithContext(ctx).
		Where("barcode IN (?)", shared).
		Order("barcode ASC").
		Order("brand_id ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListMissingNameLower returns named paints whose name_lower was never derived.
func (r *Repository) ListMissingNameLower(ctx context.Context) ([]models.Paint, error) {
	var rows []models.Paint
	if err := r.db.WithContext(ctx).
		Where("name <> '' AND (name_lower IS NULL OR name_lower = '')").
		Order("brand_id ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// NextBatch reads up to limit paints after the given key in (brand_id, id) order.
func (r *Repository) NextBatch(ctx context.Context, after *models.PaintKey, limit int) ([]models.Paint, error) {
	q := docstore.Query{}.
		OrderBy("brandId", false).
		OrderBy("id", false).
		WithLimit(limit)
	if after != nil {
		q = q.After(docstore.Cursor{after.BrandID, after.PaintID})
	}
	tx, err := q.Apply(r.scan(ctx), catalogSchema)
	if err != nil {
		return nil, err
	}
	var rows []models.Paint
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListCategoryNames returns the distinct non-null categories in use.
func (r *Repository) ListCategoryNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := r.scan(ctx).
		Distinct("category").
		Where("category IS NOT NULL").
		Order("category ASC").
		Pluck("category", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// ListCategories returns the stored categories by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}
