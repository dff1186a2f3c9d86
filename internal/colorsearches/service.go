// Package colorsearches stores the paints a user kept from similarity
// searches and resolves them back to catalog rows.
package colorsearches

import (
	"context"
	"strings"

	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
)

type paintFinder interface {
	FindByKeys(ctx context.Context, keys []models.PaintKey) (map[models.PaintKey]models.Paint, error)
}

type brandIndex interface {
	All(ctx context.Context) (map[string]models.Brand, error)
}

// ResolvedPaint is one saved pick. Paint or Brand is nil when it no longer exists.
type ResolvedPaint struct {
	PaintID string           `json:"paint_id"`
	BrandID string           `json:"brand_id"`
	Paint   *paints.PaintDTO `json:"paint"`
	Brand   *models.Brand    `json:"brand"`
}

// UserSearches flattens every saved search of a user.
type UserSearches struct {
	UserID string          `json:"user_id"`
	Paints []ResolvedPaint `json:"paints"`
}

type Service struct {
	repo   *Repository
	paints paintFinder
	brands brandIndex
}

func NewService(repo *Repository, paintRepo paintFinder, brands brandIndex) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "color search repository required")
	}
	if paintRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paint repository required")
	}
	if brands == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand index required")
	}
	return &Service{repo: repo, paints: paintRepo, brands: brands}, nil
}

// Save records the paints picked from one search.
func (s *Service) Save(ctx context.Context, userID string, picks []models.PaintKey) (*models.ColorSearch, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if len(picks) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one paint is required")
	}
	for i, p := range picks {
		if p.BrandID == "" || p.PaintID == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "paint_id and brand_id are required").
				WithDetails(map[string]any{"index": i})
		}
	}
	search := &models.ColorSearch{UserID: userID, Paints: picks}
	if err := s.repo.Create(ctx, search); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save color search")
	}
	return search, nil
}

// List resolves every pick of every saved search with one paint lookup and
// one brand lookup.
func (s *Service) List(ctx context.Context, userID string) (*UserSearches, error) {
	searches, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list color searches")
	}
	out := &UserSearches{UserID: userID, Paints: []ResolvedPaint{}}
	if len(searches) == 0 {
		return out, nil
	}

	var keys []models.PaintKey
	for _, search := range searches {
		keys = append(keys, search.Paints...)
	}
	found, err := s.paints.FindByKeys(ctx, keys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load searched paints")
	}
	brandsByID, err := s.brands.All(ctx)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		entry := ResolvedPaint{PaintID: key.PaintID, BrandID: key.BrandID}
		var brand *models.Brand
		if b, ok := brandsByID[key.BrandID]; ok {
			brand = &b
			entry.Brand = brand
		}
		if p, ok := found[key]; ok {
			dto := paints.NewPaintDTO(p, brand)
			entry.Paint = &dto
		}
		out.Paints = append(out.Paints, entry)
	}
	return out, nil
}
