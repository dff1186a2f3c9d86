// Package palettes manages user palettes and the cascade that removes a
// palette together with the color picks only it references.
package palettes

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/angelmondragon/paintref-backend/pkg/docstore"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/metrics"
	"github.com/angelmondragon/paintref-backend/pkg/pagination"
	"github.com/angelmondragon/paintref-backend/pkg/validators"
	"gorm.io/gorm"
)

type Service interface {
	CreatePalette(ctx context.Context, input CreatePaletteInput) (*models.Palette, error)
	ListPalettes(ctx context.Context, userID string, limit, page int) (pagination.Result[PaletteDTO], error)
	AddPaints(ctx context.Context, userID, paletteID string, input AddPaintsInput) ([]models.PalettePaint, error)
	DeletePalette(ctx context.Context, userID, paletteID string) (*CascadeResult, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type paintFinder interface {
	FindByKeys(ctx context.Context, keys []models.PaintKey) (map[models.PaintKey]models.Paint, error)
}

type brandIndex interface {
	All(ctx context.Context) (map[string]models.Brand, error)
}

// ServiceParams groups dependencies for the palette service. Metrics and
// Logger are optional.
type ServiceParams struct {
	Repo    *Repository
	DB      *db.Client
	Users   userFinder
	Paints  paintFinder
	Brands  brandIndex
	Metrics *metrics.CatalogMetrics
	Logger  *logger.Logger
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	users    userFinder
	paints   paintFinder
	brands   brandIndex
	metrics  *metrics.CatalogMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "palette repository required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user finder required")
	case params.Paints == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paint finder required")
	case params.Brands == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand index required")
	}
	return &service{
		repo:     params.Repo,
		dbClient: params.DB,
		users:    params.Users,
		paints:   params.Paints,
		brands:   params.Brands,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

func (s *service) CreatePalette(ctx context.Context, input CreatePaletteInput) (*models.Palette, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	palette := &models.Palette{UserID: input.UserID, Name: input.Name}
	if err := s.repo.Create(ctx, palette); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create palette")
	}
	return palette, nil
}

// ListPalettes pages through a user's palettes newest first, each with its
// paints resolved in one batched lookup.
func (s *service) ListPalettes(ctx context.Context, userID string, limit, page int) (pagination.Result[PaletteDTO], error) {
	if strings.TrimSpace(userID) == "" {
		return pagination.Result[PaletteDTO]{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	q := docstore.Query{}.
		Where("userId", docstore.OpEq, userID).
		OrderBy("createdAt", true).
		OrderBy("id", true)
	rows, err := docstore.Paginate[models.Palette](func() *gorm.DB { return s.repo.scan(ctx) }, paletteSchema, q, limit, page)
	if err != nil {
		return pagination.Result[PaletteDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list palettes")
	}

	paletteIDs := make([]string, 0, len(rows.Items))
	for _, p := range rows.Items {
		paletteIDs = append(paletteIDs, p.ID)
	}
	links, err := s.repo.LinksFor(ctx, paletteIDs)
	if err != nil {
		return pagination.Result[PaletteDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load palette paints")
	}
	keys := make([]models.PaintKey, 0, len(links))
	for _, l := range links {
		keys = append(keys, models.PaintKey{BrandID: l.BrandID, PaintID: l.PaintID})
	}
	paintsByKey, err := s.paints.FindByKeys(ctx, keys)
	if err != nil {
		return pagination.Result[PaletteDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load paints")
	}
	brandsByID, err := s.brands.All(ctx)
	if err != nil {
		return pagination.Result[PaletteDTO]{}, err
	}

	byPalette := make(map[string][]LinkedPaint, len(rows.Items))
	for _, l := range links {
		linked := LinkedPaint{
			ID:               l.ID,
			BrandID:          l.BrandID,
			PaintID:          l.PaintID,
			ImageColorPickID: l.ImageColorPickID,
			AddedAt:          l.AddedAt,
		}
		if p, ok := paintsByKey[models.PaintKey{BrandID: l.BrandID, PaintID: l.PaintID}]; ok {
			var brand *models.Brand
			if b, ok := brandsByID[p.BrandID]; ok {
				brand = &b
			}
			dto := paints.NewPaintDTO(p, brand)
			linked.Paint = &dto
		}
		byPalette[l.PaletteID] = append(byPalette[l.PaletteID], linked)
	}

	return pagination.Map(rows, func(p models.Palette) PaletteDTO {
		linked := byPalette[p.ID]
		if linked == nil {
			linked = []LinkedPaint{}
		}
		return PaletteDTO{ID: p.ID, UserID: p.UserID, Name: p.Name, CreatedAt: p.CreatedAt, Paints: linked}
	}), nil
}

// AddPaints links catalog paints to one of the user's palettes. Every paint
// and every referenced color pick must exist.
func (s *service) AddPaints(ctx context.Context, userID, paletteID string, input AddPaintsInput) ([]models.PalettePaint, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.loadOwned(ctx, s.repo, userID, paletteID); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load palette")
	}

	keys := make([]models.PaintKey, 0, len(input.Paints))
	pickIDs := make([]string, 0, len(input.Paints))
	for _, ref := range input.Paints {
		keys = append(keys, models.PaintKey{BrandID: ref.BrandID, PaintID: ref.PaintID})
		if ref.ImageColorPickID != nil && *ref.ImageColorPickID != "" {
			pickIDs = append(pickIDs, *ref.ImageColorPickID)
		}
	}
	found, err := s.paints.FindByKeys(ctx, keys)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load paints")
	}
	var missing []string
	for _, k := range models.UniqueKeys(keys) {
		if _, ok := found[k]; !ok {
			missing = append(missing, k.BrandID+"/"+k.PaintID)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "paint not found").
			WithDetails(map[string]any{"paints": missing})
	}
	picks, err := s.repo.FindPicks(ctx, pickIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load color picks")
	}
	for _, id := range pickIDs {
		if _, ok := picks[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "color pick not found").
				WithDetails(map[string]any{"image_color_pick_id": id})
		}
	}

	links := make([]models.PalettePaint, 0, len(input.Paints))
	for _, ref := range input.Paints {
		link := models.PalettePaint{PaletteID: paletteID, BrandID: ref.BrandID, PaintID: ref.PaintID}
		if ref.ImageColorPickID != nil && *ref.ImageColorPickID != "" {
			id := *ref.ImageColorPickID
			link.ImageColorPickID = &id
		}
		links = append(links, link)
	}
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateLinks(ctx, links)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link paints")
	}
	return links, nil
}

// loadOwned hides other users' palettes as NOT_FOUND.
func (s *service) loadOwned(ctx context.Context, repo *Repository, userID, paletteID string) (*models.Palette, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(paletteID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and palette id are required")
	}
	palette, err := repo.FindByID(ctx, paletteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "palette not found")
		}
		return nil, err
	}
	if palette.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "palette not found")
	}
	return palette, nil
}
