package palettes

import (
	"context"
	"errors"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"gorm.io/gorm"
)

// Cascade steps named in PARTIAL_WRITE details.
const (
	stepLoadPalette   = "load_palette"
	stepLoadLinks     = "load_links"
	stepDeletePick    = "delete_pick"
	stepDeleteImage   = "delete_image"
	stepDeleteLinks   = "delete_links"
	stepDeletePalette = "delete_palette"
)

// DeletePalette removes a palette, its paint links, and every color pick and
// image that nothing else references, in one transaction. A pick linked from
// another palette survives; an image survives while any pick points at it.
// Failures after the palette was found surface as PARTIAL_WRITE naming the
// step that failed.
func (s *service) DeletePalette(ctx context.Context, userID, paletteID string) (*CascadeResult, error) {
	result := &CascadeResult{PaletteID: paletteID}
	step := stepLoadPalette

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if _, err := s.loadOwned(ctx, txRepo, userID, paletteID); err != nil {
			return err
		}

		step = stepLoadLinks
		links, err := txRepo.LinksFor(ctx, []string{paletteID})
		if err != nil {
			return err
		}

		for _, pickID := range distinctPickIDs(links) {
			step = stepDeletePick
			shared, err := txRepo.CountLinksToPick(ctx, pickID, paletteID)
			if err != nil {
				return err
			}
			if shared > 0 {
				continue
			}
			pick, err := txRepo.FindPick(ctx, pickID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if err := txRepo.DeletePick(ctx, pickID); err != nil {
				return err
			}
			result.PicksDeleted++

			step = stepDeleteImage
			remaining, err := txRepo.CountPicksOfImage(ctx, pick.ImageID)
			if err != nil {
				return err
			}
			if remaining > 0 {
				continue
			}
			n, err := txRepo.DeleteImage(ctx, pick.ImageID)
			if err != nil {
				return err
			}
			result.ImagesDeleted += n
		}

		step = stepDeleteLinks
		n, err := txRepo.DeleteLinks(ctx, paletteID)
		if err != nil {
			return err
		}
		result.LinksDeleted = n

		step = stepDeletePalette
		return txRepo.Delete(ctx, paletteID)
	})
	if err == nil {
		s.metrics.IncCascade("ok")
		return result, nil
	}

	if typed := pkgerrors.As(err); typed != nil && step == stepLoadPalette && ctx.Err() == nil {
		return nil, typed
	}
	s.metrics.IncCascade("partial_write")
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"palette_id": paletteID, "step": step})
		s.logg.Error(logCtx, "palette cascade failed", err)
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodePartialWrite, err, "palette delete did not complete").
		WithDetails(map[string]any{"palette_id": paletteID, "step": step})
}

func distinctPickIDs(links []models.PalettePaint) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		if l.ImageColorPickID == nil || *l.ImageColorPickID == "" {
			continue
		}
		id := *l.ImageColorPickID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
