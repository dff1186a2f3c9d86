package paints

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/color"
	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/metrics"
	"github.com/angelmondragon/paintref-backend/pkg/pagination"
	"github.com/angelmondragon/paintref-backend/pkg/validators"
	"gorm.io/gorm"
)

const (
	barcodeLookupLimit       = 100
	defaultCategoryBatchSize = 200
)

// Service exposes catalog reads and admin maintenance for paints.
type Service interface {
	QueryCatalog(ctx context.Context, filters CatalogFilters, limit, page int, sort SortDirection) (pagination.Result[PaintDTO], error)
	ListBrandPaints(ctx context.Context, brandID string, filters BrandFilters, limit, page int) (pagination.Result[PaintDTO], error)
	GetPaint(ctx context.Context, brandID, paintID string) (*PaintDTO, error)
	FindByBarcode(ctx context.Context, userID, barcode string) ([]PaintDTO, error)
	BarcodeCoverage(ctx context.Context) (*BarcodeCoverage, error)
	PaintsWithoutBarcode(ctx context.Context) ([]PaintDTO, error)
	RepeatedBarcodes(ctx context.Context) ([]PaintDTO, error)
	CreatePaint(ctx context.Context, input CreatePaintInput) (*PaintDTO, error)
	PreparePaint(ctx context.Context, input CreatePaintInput) (*PaintDraft, error)
	InsertPaint(ctx context.Context, tx *gorm.DB, draft *PaintDraft) (*PaintDTO, error)
	UpdatePaint(ctx context.Context, brandID, paintID string, input UpdatePaintInput) (*PaintDTO, error)
	DeletePaint(ctx context.Context, brandID, paintID string) error
	BackfillNameLower(ctx context.Context) (int, error)
	ClassifyCategories(ctx context.Context) (*ClassifyResult, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

type brandDirectory interface {
	All(ctx context.Context) (map[string]models.Brand, error)
	Get(ctx context.Context, id string) (*models.Brand, error)
}

// PaletteIndex finds which of a user's palettes hold the given paints.
type PaletteIndex interface {
	PalettesContaining(ctx context.Context, userID string, keys []models.PaintKey) (map[models.PaintKey][]PaletteRef, error)
}

// ServiceParams groups dependencies for the paints service. Palettes,
// Metrics and Logger are optional.
type ServiceParams struct {
	Repo              *Repository
	DB                *db.Client
	Brands            brandDirectory
	Palettes          PaletteIndex
	Metrics           *metrics.CatalogMetrics
	Logger            *logger.Logger
	CategoryBatchSize int
}

type service struct {
	repo      *Repository
	dbClient  *db.Client
	brands    brandDirectory
	palettes  PaletteIndex
	metrics   *metrics.CatalogMetrics
	logg      *logger.Logger
	batchSize int
}

// NewService constructs the paints service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paint repository required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client required")
	}
	if params.Brands == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand directory required")
	}
	batch := params.CategoryBatchSize
	if batch <= 0 {
		batch = defaultCategoryBatchSize
	}
	return &service{
		repo:      params.Repo,
		dbClient:  params.DB,
		brands:    params.Brands,
		palettes:  params.Palettes,
		metrics:   params.Metrics,
		logg:      params.Logger,
		batchSize: batch,
	}, nil
}

func (s *service) GetPaint(ctx context.Context, brandID, paintID string) (*PaintDTO, error) {
	brand, err := s.brands.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}
	paint, err := s.loadPaint(ctx, brandID, paintID)
	if err != nil {
		return nil, err
	}
	dto := NewPaintDTO(*paint, brand)
	return &dto, nil
}

// FindByBarcode returns up to 100 paints carrying barcode, each annotated
// with the palettes of userID that contain it.
func (s *service) FindByBarcode(ctx context.Context, userID, barcode string) ([]PaintDTO, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveQuery("barcode", time.Since(start)) }()

	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "barcode is required")
	}
	rows, err := s.repo.FindByBarcode(ctx, barcode, barcodeLookupLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find paints by barcode")
	}
	out, err := s.denormalize(ctx, rows)
	if err != nil {
		return nil, err
	}

	refs := map[models.PaintKey][]PaletteRef{}
	if userID != "" && s.palettes != nil && len(rows) > 0 {
		keys := make([]models.PaintKey, len(rows))
		for i, p := range rows {
			keys[i] = p.Key()
		}
		refs, err = s.palettes.PalettesContaining(ctx, userID, keys)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load palettes for paints")
		}
	}
	for i := range out {
		key := models.PaintKey{BrandID: out[i].BrandID, PaintID: out[i].ID}
		out[i].Palettes = refs[key]
		if out[i].Palettes == nil {
			out[i].Palettes = []PaletteRef{}
		}
	}
	return out, nil
}

func (s *service) BarcodeCoverage(ctx context.Context) (*BarcodeCoverage, error) {
	total, with, err := s.repo.CountBarcodes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count barcodes")
	}
	return &BarcodeCoverage{Total: total, WithBarcode: with, WithoutBarcode: total - with}, nil
}

func (s *service) PaintsWithoutBarcode(ctx context.Context) ([]PaintDTO, error) {
	rows, err := s.repo.ListWithoutBarcode(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list paints without barcode")
	}
	return s.denormalize(ctx, rows)
}

// RepeatedBarcodes returns every paint that shares its barcode with another paint.
func (s *service) RepeatedBarcodes(ctx context.Context) ([]PaintDTO, error) {
	rows, err := s.repo.ListSharedBarcodes(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list repeated barcodes")
	}
	return s.denormalize(ctx, rows)
}

// CreatePaint adds a paint to a brand. Codes are unique within a brand.
func (s *service) CreatePaint(ctx context.Context, input CreatePaintInput) (*PaintDTO, error) {
	draft, err := s.PreparePaint(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.insert(ctx, s.repo, draft)
}

// PreparePaint validates input and resolves its brand without writing.
func (s *service) PreparePaint(ctx context.Context, input CreatePaintInput) (*PaintDraft, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	rgb, err := color.ParseHex(input.Hex)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid hex")
	}
	brand, err := s.brands.Get(ctx, input.BrandID)
	if err != nil {
		return nil, err
	}

	var barcode *string
	if trimmed := strings.TrimSpace(input.Barcode); trimmed != "" {
		barcode = &trimmed
	}
	return &PaintDraft{
		brand: brand,
		paint: models.Paint{
			BrandID:       input.BrandID,
			ID:            input.ID,
			Code:          strings.TrimSpace(input.Code),
			Color:         input.Color,
			Name:          strings.TrimSpace(input.Name),
			Hex:           rgb.Hex(),
			R:             rgb.R,
			G:             rgb.G,
			B:             rgb.B,
			Set:           input.Set,
			Category:      input.Category,
			IsMetallic:    input.IsMetallic,
			IsTransparent: input.IsTransparent,
			Barcode:       barcode,
		},
	}, nil
}

// InsertPaint writes a prepared paint inside the caller's transaction.
func (s *service) InsertPaint(ctx context.Context, tx *gorm.DB, draft *PaintDraft) (*PaintDTO, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction required")
	}
	return s.insert(ctx, s.repo.WithTx(tx), draft)
}

func (s *service) insert(ctx context.Context, repo *Repository, draft *PaintDraft) (*PaintDTO, error) {
	if draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paint draft required")
	}
	paint := draft.paint
	if err := ensureCodeFree(ctx, repo, paint.BrandID, paint.Code, ""); err != nil {
		return nil, err
	}
	if paint.ID != "" {
		if _, err := repo.FindByID(ctx, paint.BrandID, paint.ID); err == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "paint id already exists in brand")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load paint")
		}
	}
	if err := repo.Create(ctx, &paint); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "paint already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create paint")
	}
	dto := NewPaintDTO(paint, draft.brand)
	return &dto, nil
}

// UpdatePaint applies admin edits. A name change re-derives name_lower and a
// hex change re-derives the RGB channels.
func (s *service) UpdatePaint(ctx context.Context, brandID, paintID string, input UpdatePaintInput) (*PaintDTO, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	current, err := s.loadPaint(ctx, brandID, paintID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Code != nil {
		code := strings.TrimSpace(*input.Code)
		if code != current.Code {
			if err := ensureCodeFree(ctx, s.repo, brandID, code, paintID); err != nil {
				return nil, err
			}
		}
		updates["code"] = code
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		updates["name"] = name
		updates["name_lower"] = strings.ToLower(name)
	}
	if input.Hex != nil {
		rgb, err := color.ParseHex(*input.Hex)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid hex")
		}
		updates["hex"] = rgb.Hex()
		updates["r"] = rgb.R
		updates["g"] = rgb.G
		updates["b"] = rgb.B
	}
	if input.Color != nil {
		updates["color"] = *input.Color
	}
	if input.Set != nil {
		updates["set_name"] = *input.Set
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.IsMetallic != nil {
		updates["is_metallic"] = *input.IsMetallic
	}
	if input.IsTransparent != nil {
		updates["is_transparent"] = *input.IsTransparent
	}
	if input.Barcode != nil {
		updates["barcode"] = strings.TrimSpace(*input.Barcode)
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		if err := s.repo.Update(ctx, brandID, paintID, updates); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "paint not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update paint")
		}
	}
	return s.GetPaint(ctx, brandID, paintID)
}

func (s *service) DeletePaint(ctx context.Context, brandID, paintID string) error {
	if err := s.repo.Delete(ctx, brandID, paintID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "paint not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete paint")
	}
	return nil
}

// BackfillNameLower derives name_lower for named paints that lack it and
// reports how many rows were repaired.
func (s *service) BackfillNameLower(ctx context.Context) (int, error) {
	rows, err := s.repo.ListMissingNameLower(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list paints missing name_lower")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for _, p := range rows {
			if err := txRepo.Update(ctx, p.BrandID, p.ID, map[string]any{"name_lower": strings.ToLower(p.Name)}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "backfill name_lower")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "updated", len(rows)), "name_lower backfill complete")
	}
	return len(rows), nil
}

func (s *service) loadPaint(ctx context.Context, brandID, paintID string) (*models.Paint, error) {
	paint, err := s.repo.FindByID(ctx, brandID, paintID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "paint not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load paint")
	}
	return paint, nil
}

// ensureCodeFree rejects code when another paint of the brand already uses it.
func ensureCodeFree(ctx context.Context, repo *Repository, brandID, code, selfID string) error {
	existing, err := repo.FindByCode(ctx, brandID, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check paint code")
	}
	if existing.ID == selfID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "paint code already exists in brand").
		WithDetails(map[string]any{"brand_id": brandID, "code": code, "paint_id": existing.ID})
}

func (s *service) denormalize(ctx context.Context, rows []models.Paint) ([]PaintDTO, error) {
	out := make([]PaintDTO, 0, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	brandsByID, err := s.brands.All(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		out = append(out, NewPaintDTO(p, brandOf(brandsByID, p.BrandID)))
	}
	return out, nil
}
