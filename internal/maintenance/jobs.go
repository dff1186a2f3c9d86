package maintenance

import (
	"context"
	"fmt"

	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
)

const (
	JobBackfillNameLower  = "backfill-name-lower"
	JobClassifyCategories = "classify-categories"
)

type nameLowerBackfiller interface {
	BackfillNameLower(ctx context.Context) (int, error)
}

type categoryClassifier interface {
	ClassifyCategories(ctx context.Context) (*paints.ClassifyResult, error)
}

// NewBackfillNameLowerJob repairs paints whose name_lower was never derived.
func NewBackfillNameLowerJob(catalog nameLowerBackfiller, logg *logger.Logger) (Job, error) {
	if catalog == nil {
		return nil, fmt.Errorf("paint service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &backfillNameLowerJob{catalog: catalog, logg: logg}, nil
}

type backfillNameLowerJob struct {
	catalog nameLowerBackfiller
	logg    *logger.Logger
}

func (j *backfillNameLowerJob) Name() string { return JobBackfillNameLower }

func (j *backfillNameLowerJob) Run(ctx context.Context) error {
	repaired, err := j.catalog.BackfillNameLower(ctx)
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithField(ctx, "repaired", repaired), "name_lower backfill finished")
	return nil
}

// NewClassifyCategoriesJob re-derives category flags from set names.
func NewClassifyCategoriesJob(catalog categoryClassifier, logg *logger.Logger) (Job, error) {
	if catalog == nil {
		return nil, fmt.Errorf("paint service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &classifyCategoriesJob{catalog: catalog, logg: logg}, nil
}

type classifyCategoriesJob struct {
	catalog categoryClassifier
	logg    *logger.Logger
}

func (j *classifyCategoriesJob) Name() string { return JobClassifyCategories }

func (j *classifyCategoriesJob) Run(ctx context.Context) error {
	res, err := j.catalog.ClassifyCategories(ctx)
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"scanned":            res.Scanned,
		"updated":            res.Updated,
		"categories_created": res.CategoriesCreated,
	}), "category classification finished")
	return nil
}
