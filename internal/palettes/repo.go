package palettes

import (
	"context"

	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/angelmondragon/paintref-backend/pkg/docstore"
	"gorm.io/gorm"
)

var paletteSchema = docstore.Schema{
	"userId":    "user_id",
	"createdAt": "created_at",
	"id":        "id",
}

// Repository persists palettes, their paint links and the color picks and
// images a palette cascade may remove.
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

func (r *Repository) scan(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Palette{})
}

func (r *Repository) Create(ctx context.Context, palette *models.Palette) error {
	return r.db.WithContext(ctx).Create(palette).Error
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Palette, error) {
	var palette models.Palette
	if err := r.db.WithContext(ctx).First(&palette, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &palette, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Palette{}).Error
}

// LinksFor returns the paint links of the given palettes in insertion order.
func (r *Repository) LinksFor(ctx context.Context, paletteIDs []string) ([]models.PalettePaint, error) {
	if len(paletteIDs) == 0 {
		return nil, nil
	}
	var rows []models.PalettePaint
	if err := r.db.WithContext(ctx).
		Where("palette_id IN ?", paletteIDs).
		Order("added_at ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CreateLinks(ctx context.Context, links []models.PalettePaint) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&links).Error
}

func (r *Repository) DeleteLinks(ctx context.Context, paletteID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("palette_id = ?", paletteID).Delete(&models.PalettePaint{})
	return res.RowsAffected, res.Error
}

// CountLinksToPick counts links outside paletteID that reference the pick.
func (r *Repository) CountLinksToPick(ctx context.Context, pickID, paletteID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.PalettePaint{}).
		Where("image_color_pick_id = ? AND palette_id <> ?", pickID, paletteID).
		Count(&n).Error
	return n, err
}

func (r *Repository) FindPick(ctx context.Context, id string) (*models.ImageColorPick, error) {
	var pick models.ImageColorPick
	if err := r.db.WithContext(ctx).First(&pick, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &pick, nil
}

// FindPicks loads the picks for ids keyed by id. Unknown ids are absent.
func (r *Repository) FindPicks(ctx context.Context, ids []string) (map[string]models.ImageColorPick, error) {
	out := make(map[string]models.ImageColorPick, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ImageColorPick
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *Repository) DeletePick(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ImageColorPick{}).Error
}

func (r *Repository) CountPicksOfImage(ctx context.Context, imageID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.ImageColorPick{}).
		Where("image_id = ?", imageID).
		Count(&n).Error
	return n, err
}

func (r *Repository) DeleteImage(ctx context.Context, id string) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.UserColorImage{})
	return res.RowsAffected, res.Error
}

// PalettesContaining maps each key to the user's palettes that link it,
// oldest palette first.
func (r *Repository) PalettesContaining(ctx context.Context, userID string, keys []models.PaintKey) (map[models.PaintKey][]paints.PaletteRef, error) {
	keys = models.UniqueKeys(keys)
	out := make(map[models.PaintKey][]paints.PaletteRef, len(keys))
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

	userPalettes := r.db.WithContext(ctx).Model(&models.Palette{}).Select("id").Where("user_id = ?", userID)
	var links []models.PalettePaint
	if err := r.db.WithContext(ctx).
		Where("brand_id IN ? AND paint_id IN ? AND palette_id IN (?)", brandIDs, paintIDs, userPalettes).
		Find(&links).Error; err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return out, nil
	}

	paletteIDs := make([]string, 0, len(links))
	for _, l := range links {
		paletteIDs = append(paletteIDs, l.PaletteID)
	}
	var palettes []models.Palette
	if err := r.db.WithContext(ctx).
		Where("id IN ?", paletteIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&palettes).Error; err != nil {
		return nil, err
	}

	linked := make(map[string]map[models.PaintKey]struct{}, len(palettes))
	for _, l := range links {
		key := models.PaintKey{BrandID: l.BrandID, PaintID: l.PaintID}
		if _, ok := wanted[key]; !ok {
			continue
		}
		if linked[l.PaletteID] == nil {
			linked[l.PaletteID] = map[models.PaintKey]struct{}{}
		}
		linked[l.PaletteID][key] = struct{}{}
	}
	for _, p := range palettes {
		for key := range linked[p.ID] {
			out[key] = append(out[key], paints.PaletteRef{
				ID:        p.ID,
				Name:      p.Name,
				UserID:    p.UserID,
				CreatedAt: p.CreatedAt,
			})
		}
	}
	return out, nil
}
