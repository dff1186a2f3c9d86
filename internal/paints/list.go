package paints

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/color"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/angelmondragon/paintref-backend/pkg/docstore"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/pagination"
	"gorm.io/gorm"
)

// prefixSentinel is the highest BMP private-use rune; appended to a prefix it
// bounds a range scan to every string starting with that prefix.
const prefixSentinel = "\uf8ff"

// QueryCatalog serves a numbered page of paints, across all brands or within
// one, ordered by name.
func (s *service) QueryCatalog(ctx context.Context, filters CatalogFilters, limit, page int, sort SortDirection) (pagination.Result[PaintDTO], error) {
	start := time.Now()
	defer func() { s.metrics.ObserveQuery("catalog", time.Since(start)) }()

	limit = pagination.NormalizeLimit(limit)
	brandsByID, err := s.brands.All(ctx)
	if err != nil {
		return pagination.Result[PaintDTO]{}, err
	}
	if filters.BrandID != "" {
		if _, ok := brandsByID[filters.BrandID]; !ok {
			return pagination.NewResult[PaintDTO](nil, pagination.Resolve(0, limit, page)), nil
		}
	}

	q := buildCatalogQuery(filters, sort)
	rows, err := docstore.Paginate[models.Paint](func() *gorm.DB { return s.repo.scan(ctx) }, catalogSchema, q, limit, page)
	if err != nil {
		return pagination.Result[PaintDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "query catalog")
	}
	return pagination.Map(rows, func(p models.Paint) PaintDTO {
		return NewPaintDTO(p, brandOf(brandsByID, p.BrandID))
	}), nil
}

// ListBrandPaints pages through one brand's partition by ascending name.
func (s *service) ListBrandPaints(ctx context.Context, brandID string, filters BrandFilters, limit, page int) (pagination.Result[PaintDTO], error) {
	if strings.TrimSpace(brandID) == "" {
		return pagination.Result[PaintDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "brand_id is required")
	}
	return s.QueryCatalog(ctx, CatalogFilters{
		BrandID: brandID,
		Name:    filters.Name,
		Code:    filters.Code,
		Hex:     filters.Hex,
	}, limit, page, SortAsc)
}

// buildCatalogQuery orders by name and adds tie-breaks so every row has a
// distinct cursor position. A name filter is a case-insensitive prefix match.
func buildCatalogQuery(filters CatalogFilters, sort SortDirection) docstore.Query {
	q := docstore.Query{}
	if filters.BrandID != "" {
		q = q.Where("brandId", docstore.OpEq, filters.BrandID)
	}

	prefix := strings.ToLower(strings.TrimSpace(filters.Name))
	q = q.OrderBy("name", normalizeSort(sort) == SortDesc)
	if prefix != "" {
		q = q.Where("nameLower", docstore.OpGte, prefix).
			Where("nameLower", docstore.OpLte, prefix+prefixSentinel)
	} else {
		q = q.Where("nameLower", docstore.OpGt, "").
			OrderBy("nameLower", false)
	}

	if code := strings.TrimSpace(filters.Code); code != "" {
		q = q.Where("code", docstore.OpEq, code)
	}
	if hex := strings.TrimSpace(filters.Hex); hex != "" {
		if rgb, err := color.ParseHex(hex); err == nil {
			hex = rgb.Hex()
		}
		q = q.Where("hex", docstore.OpEq, hex)
	}
	if category := strings.TrimSpace(filters.Category); category != "" {
		q = q.Where("category", docstore.OpEq, category)
	}

	return q.OrderBy("brandId", false).OrderBy("id", false)
}

func brandOf(brandsByID map[string]models.Brand, id string) *models.Brand {
	b, ok := brandsByID[id]
	if !ok {
		return nil
	}
	return &b
}
