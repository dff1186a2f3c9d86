package ownership

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/angelmondragon/paintref-backend/pkg/docstore"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/pagination"
	"github.com/angelmondragon/paintref-backend/pkg/validators"
	"gorm.io/gorm"
)

// ListInventory pages through a user's inventory oldest first, joining each
// row with its paint and the names of the user's palettes holding it.
func (s *service) ListInventory(ctx context.Context, userID string, filters InventoryFilters, limit, page int) (pagination.Result[InventoryItem], error) {
	if strings.TrimSpace(userID) == "" {
		return pagination.Result[InventoryItem]{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	limit = pagination.NormalizeLimit(limit)

	brandsByID, err := s.brands.All(ctx)
	if err != nil {
		return pagination.Result[InventoryItem]{}, err
	}
	brandID := filters.BrandID
	if brandID == "" && strings.TrimSpace(filters.BrandName) != "" {
		brandID = brandIDByName(brandsByID, filters.BrandName)
		if brandID == "" {
			return pagination.NewResult[InventoryItem](nil, pagination.Resolve(0, limit, page)), nil
		}
	}

	q := buildInventoryQuery(userID, brandID, filters)
	rows, err := docstore.Paginate[models.InventoryEntry](func() *gorm.DB { return s.repo.inventoryScan(ctx) }, inventorySchema, q, limit, page)
	if err != nil {
		return pagination.Result[InventoryItem]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory")
	}

	keys := make([]models.PaintKey, 0, len(rows.Items))
	for _, row := range rows.Items {
		keys = append(keys, models.PaintKey{BrandID: row.BrandID, PaintID: row.PaintID})
	}
	paintsByKey, err := s.paints.FindByKeys(ctx, keys)
	if err != nil {
		return pagination.Result[InventoryItem]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory paints")
	}
	palettesByKey, err := s.palettesFor(ctx, userID, keys)
	if err != nil {
		return pagination.Result[InventoryItem]{}, err
	}

	return pagination.Map(rows, func(row models.InventoryEntry) InventoryItem {
		key := models.PaintKey{BrandID: row.BrandID, PaintID: row.PaintID}
		item := InventoryItem{
			ID:        row.ID,
			UserID:    row.UserID,
			BrandID:   row.BrandID,
			PaintID:   row.PaintID,
			Quantity:  row.Quantity,
			Notes:     row.Notes,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			Palettes:  paletteNames(palettesByKey[key]),
		}
		if p, ok := paintsByKey[key]; ok {
			var brand *models.Brand
			if b, ok := brandsByID[p.BrandID]; ok {
				brand = &b
			}
			dto := paints.NewPaintDTO(p, brand)
			item.Paint = &dto
		}
		return item
	}), nil
}

func buildInventoryQuery(userID, brandID string, filters InventoryFilters) docstore.Query {
	q := docstore.Query{}.Where("userId", docstore.OpEq, userID)
	if brandID != "" {
		q = q.Where("brandId", docstore.OpEq, brandID)
	}
	switch {
	case filters.Stock != nil:
		q = q.Where("quantity", docstore.OpEq, *filters.Stock)
	case filters.OnlyInStock:
		q = q.Where("quantity", docstore.OpGt, 0)
	}
	if filters.MinStock != nil {
		q = q.Where("quantity", docstore.OpGte, *filters.MinStock)
	}
	if filters.MaxStock != nil {
		q = q.Where("quantity", docstore.OpLte, *filters.MaxStock)
	}
	return q.OrderBy("createdAt", false).OrderBy("id", false)
}

// GetUserWishlist returns the user's active wishlist, ranked entries first.
// Entries whose paint or brand no longer exists are left out.
func (s *service) GetUserWishlist(ctx context.Context, userID string, filters WishlistFilters) (*WishlistResult, error) {
	if err := validators.Struct(filters); err != nil {
		return nil, err
	}
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	brandsByID, err := s.brands.All(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]models.PaintKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, models.PaintKey{BrandID: row.BrandID, PaintID: row.PaintID})
	}
	paintsByKey, err := s.paints.FindByKeys(ctx, keys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist paints")
	}
	palettesByKey, err := s.palettesFor(ctx, userID, keys)
	if err != nil {
		return nil, err
	}

	items := make([]WishlistItem, 0, len(rows))
	for _, row := range rows {
		key := models.PaintKey{BrandID: row.BrandID, PaintID: row.PaintID}
		paint, ok := paintsByKey[key]
		if !ok {
			continue
		}
		brand, ok := brandsByID[row.BrandID]
		if !ok {
			continue
		}
		items = append(items, WishlistItem{
			ID:        row.ID,
			BrandID:   row.BrandID,
			PaintID:   row.PaintID,
			Type:      row.Type,
			Priority:  row.Priority,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			Paint:     paints.NewPaintDTO(paint, &brand),
			Brand:     brand,
			Palettes:  paletteNames(palettesByKey[key]),
		})
	}

	items = filterWishlist(items, filters)
	sortWishlist(items, filters)

	result := &WishlistResult{UserID: userID, TotalItems: len(items), Items: items}
	if filters.Limit > 0 && filters.Page > 0 {
		page := pagination.Slice(items, filters.Limit, filters.Page)
		result.Items = page.Items
		result.TotalPages = page.TotalPages
		result.CurrentPage = page.CurrentPage
	}
	return result, nil
}

func filterWishlist(items []WishlistItem, filters WishlistFilters) []WishlistItem {
	q := strings.ToLower(strings.TrimSpace(filters.Q))
	palette := strings.ToLower(strings.TrimSpace(filters.Palette))
	out := items[:0]
	for _, item := range items {
		if filters.Priority != nil && item.Priority != *filters.Priority {
			continue
		}
		if filters.BrandID != "" && item.BrandID != filters.BrandID {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(item.Paint.Name), q) &&
			!strings.Contains(strings.ToLower(item.Brand.Name), q) {
			continue
		}
		if palette != "" && !containsFold(item.Palettes, palette) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// sortWishlist keeps rank order unless a sort key was requested.
func sortWishlist(items []WishlistItem, filters WishlistFilters) {
	if filters.SortBy == "" {
		return
	}
	asc := filters.Direction == "asc"
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if filters.SortBy == SortByAlphabetical {
			an, bn := strings.ToLower(a.Paint.Name), strings.ToLower(b.Paint.Name)
			if asc {
				return an < bn
			}
			return an > bn
		}
		if asc {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// PaintStatus reports whether the user owns or desires a paint. The brand
// may be given by id or exact name.
func (s *service) PaintStatus(ctx context.Context, userID, brandIDOrName, paintID string) (*PaintStatus, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(brandIDOrName) == "" || strings.TrimSpace(paintID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id, brand and paint id are required")
	}
	brand, err := s.brands.Resolve(ctx, brandIDOrName)
	if err != nil {
		return nil, err
	}

	owned, err := s.repo.FindInventoryByTriple(ctx, userID, brand.ID, paintID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory entry")
	}
	desired, err := s.repo.FindActiveWishlistByTriple(ctx, userID, brand.ID, paintID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist entry")
	}

	name := brand.Name
	status := &PaintStatus{PaintID: paintID, BrandID: brand.ID, BrandName: &name}
	if owned != nil {
		status.IsInventory = true
		status.InventoryID = owned.ID
	}
	if desired != nil {
		status.IsWishlist = true
		status.WishlistID = desired.ID
	}
	return status, nil
}

// PaintUsage returns the paint with the user's inventory, wishlist and
// palette relations to it.
func (s *service) PaintUsage(ctx context.Context, userID, brandID, paintID string) (*PaintUsage, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(brandID) == "" || strings.TrimSpace(paintID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id, brand id and paint id are required")
	}
	paint, err := s.paints.FindByID(ctx, brandID, paintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "paint not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load paint")
	}
	var brand *models.Brand
	if b, err := s.brands.Get(ctx, brandID); err == nil {
		brand = b
	} else if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return nil, err
	}

	owned, err := s.repo.FindInventoryByTriple(ctx, userID, brandID, paintID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory entry")
	}
	desired, err := s.repo.FindActiveWishlistByTriple(ctx, userID, brandID, paintID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist entry")
	}
	key := paint.Key()
	palettesByKey, err := s.palettesFor(ctx, userID, []models.PaintKey{key})
	if err != nil {
		return nil, err
	}

	usage := &PaintUsage{
		BrandID:  brandID,
		PaintID:  paintID,
		Paint:    paints.NewPaintDTO(*paint, brand),
		Brand:    brand,
		Palettes: palettesByKey[key],
	}
	if usage.Palettes == nil {
		usage.Palettes = []paints.PaletteRef{}
	}
	if owned != nil {
		usage.InInventory = true
		usage.InventoryID = owned.ID
	}
	if desired != nil {
		usage.InWishlist = true
		usage.WishlistID = desired.ID
	}
	return usage, nil
}

func (s *service) palettesFor(ctx context.Context, userID string, keys []models.PaintKey) (map[models.PaintKey][]paints.PaletteRef, error) {
	if s.palettes == nil || len(keys) == 0 {
		return map[models.PaintKey][]paints.PaletteRef{}, nil
	}
	out, err := s.palettes.PalettesContaining(ctx, userID, models.UniqueKeys(keys))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load palettes")
	}
	return out, nil
}

func brandIDByName(brandsByID map[string]models.Brand, name string) string {
	for id, b := range brandsByID {
		if b.Name == name {
			return id
		}
	}
	return ""
}

func paletteNames(refs []paints.PaletteRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.Name)
	}
	return names
}

func containsFold(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
