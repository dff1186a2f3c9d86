package paints

import (
	"context"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"gorm.io/gorm"
)

// ClassifyCategories re-derives category flags for every paint from its set,
// batch by batch, then makes sure a Category row exists for each category in use.
func (s *service) ClassifyCategories(ctx context.Context) (*ClassifyResult, error) {
	result := &ClassifyResult{}
	var after *models.PaintKey
	for {
		batch, err := s.repo.NextBatch(ctx, after, s.batchSize)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read paint batch")
		}
		if len(batch) == 0 {
			break
		}
		result.Scanned += len(batch)

		changed := make([]models.Paint, 0, len(batch))
		for _, p := range batch {
			c := Classify(p.Set)
			if sameClassification(p, c) {
				continue
			}
			p.Category = &c.Category
			p.IsMetallic = &c.IsMetallic
			p.IsTransparent = &c.IsTransparent
			changed = append(changed, p)
		}
		if len(changed) > 0 {
			if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
				txRepo := s.repo.WithTx(tx)
				for _, p := range changed {
					if err := txRepo.Update(ctx, p.BrandID, p.ID, map[string]any{
						"category":       *p.Category,
						"is_metallic":    *p.IsMetallic,
						"is_transparent": *p.IsTransparent,
					}); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update paint categories")
			}
			result.Updated += len(changed)
		}

		last := batch[len(batch)-1].Key()
		after = &last
		if len(batch) < s.batchSize {
			break
		}
	}

	created, err := s.syncCategories(ctx)
	if err != nil {
		return nil, err
	}
	result.CategoriesCreated = created

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"scanned":            result.Scanned,
			"updated":            result.Updated,
			"categories_created": result.CategoriesCreated,
		}), "paint classification complete")
	}
	return result, nil
}

// Categories lists the stored categories by name.
func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	return rows, nil
}

func (s *service) syncCategories(ctx context.Context) (int, error) {
	inUse, err := s.repo.ListCategoryNames(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list category names")
	}
	stored, err := s.repo.ListCategories(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list categories")
	}
	known := make(map[string]struct{}, len(stored))
	for _, c := range stored {
		known[c.Name] = struct{}{}
	}

	created := 0
	for _, raw := range inUse {
		name := categoryName(&raw)
		if _, ok := known[name]; ok {
			continue
		}
		if err := s.repo.CreateCategory(ctx, &models.Category{Name: name}); err != nil {
			return created, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create category")
		}
		known[name] = struct{}{}
		created++
	}
	return created, nil
}

func sameClassification(p models.Paint, c Classification) bool {
	return p.Category != nil && *p.Category == c.Category &&
		p.IsMetallic != nil && *p.IsMetallic == c.IsMetallic &&
		p.IsTransparent != nil && *p.IsTransparent == c.IsTransparent
}
