// Package similarity ranks paints from several brands by perceptual
// closeness to a target color.
package similarity

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/color"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/metrics"
	"github.com/angelmondragon/paintref-backend/pkg/pagination"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

type paintLister interface {
	ListByBrand(ctx context.Context, brandID string) ([]models.Paint, error)
}

type brandLoader interface {
	Get(ctx context.Context, id string) (*models.Brand, error)
}

// Match is a paint scored against the target color.
type Match struct {
	paints.PaintDTO
	Similarity float64 `json:"similarity"`
}

// RankerParams groups dependencies for the ranker. Metrics and Logger are optional.
type RankerParams struct {
	Paints      paintLister
	Brands      brandLoader
	Concurrency int
	Metrics     *metrics.CatalogMetrics
	Logger      *logger.Logger
}

// Ranker fans out one partition scan per brand and ranks the union.
type Ranker struct {
	paints      paintLister
	brands      brandLoader
	concurrency int
	metrics     *metrics.CatalogMetrics
	logg        *logger.Logger
}

func NewRanker(params RankerParams) (*Ranker, error) {
	if params.Paints == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paint lister required")
	}
	if params.Brands == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "brand loader required")
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Ranker{
		paints:      params.Paints,
		brands:      params.Brands,
		concurrency: concurrency,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// FindSimilarAcrossBrands scores every paint of brandIDs against hex and
// returns one page of the global ranking, most similar first. Missing brands
// are skipped. A brand whose partition cannot be read is logged and skipped.
func (r *Ranker) FindSimilarAcrossBrands(ctx context.Context, brandIDs []string, hex string, limit, page int) (pagination.Result[Match], error) {
	start := time.Now()
	defer func() { r.metrics.ObserveQuery("similarity", time.Since(start)) }()

	brandIDs = uniqueNonBlank(brandIDs)
	if len(brandIDs) == 0 {
		return pagination.Result[Match]{}, pkgerrors.New(pkgerrors.CodeValidation, "at least one brand id is required")
	}
	if strings.TrimSpace(hex) == "" {
		return pagination.Result[Match]{}, pkgerrors.New(pkgerrors.CodeValidation, "hex is required")
	}
	target, err := color.ParseHex(hex)
	if err != nil {
		return pagination.Result[Match]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid hex color")
	}
	limit = pagination.NormalizeLimit(limit)

	perBrand := make([][]Match, len(brandIDs))
	failures := make([]error, len(brandIDs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, brandID := range brandIDs {
		g.Go(func() error {
			matches, err := r.scoreBrand(ctx, brandID, target)
			if err != nil {
				failures[i] = err
				return nil
			}
			perBrand[i] = matches
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return pagination.Result[Match]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank paints")
	}
	if err := multierr.Combine(failures...); err != nil && r.logg != nil {
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"failed_brands": len(multierr.Errors(err)),
			"brands":        len(brandIDs),
		})
		r.logg.Error(logCtx, "similarity ranking skipped brand partitions", err)
	}

	var all []Match
	for _, matches := range perBrand {
		all = append(all, matches...)
	}
	sortMatches(all)
	return pagination.Slice(all, limit, page), nil
}

// scoreBrand returns nil matches for a missing brand.
func (r *Ranker) scoreBrand(ctx context.Context, brandID string, target color.RGB) ([]Match, error) {
	brand, err := r.brands.Get(ctx, brandID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			r.metrics.IncPartition("missing")
			return nil, nil
		}
		r.metrics.IncPartition("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load brand "+brandID)
	}
	rows, err := r.paints.ListByBrand(ctx, brandID)
	if err != nil {
		r.metrics.IncPartition("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan brand "+brandID)
	}
	r.metrics.IncPartition("scanned")

	out := make([]Match, 0, len(rows))
	for _, p := range rows {
		out = append(out, Match{
			PaintDTO:   paints.NewPaintDTO(p, brand),
			Similarity: color.Similarity(target, color.RGB{R: p.R, G: p.G, B: p.B}),
		})
	}
	return out, nil
}

// sortMatches orders by similarity descending, then brand and paint id.
func sortMatches(all []Match) {
	sort.Slice(all, func(i, j int) bool {
		if all[i].Similarity != all[j].Similarity {
			return all[i].Similarity > all[j].Similarity
		}
		if all[i].BrandID != all[j].BrandID {
			return all[i].BrandID < all[j].BrandID
		}
		return all[i].ID < all[j].ID
	})
}

func uniqueNonBlank(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
