package projects

import (
	"context"

	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"gorm.io/gorm"
)

// Delete steps named in PARTIAL_WRITE details.
const (
	stepLoadProject   = "load_project"
	stepDeleteItems   = "delete_items"
	stepDeleteShares  = "delete_shares"
	stepDeleteProject = "delete_project"
)

// DeleteProject removes a project with its items and share records in one
// transaction. The referenced palettes, images and paints are untouched.
func (s *service) DeleteProject(ctx context.Context, userID, projectID string) (*DeleteResult, error) {
	result := &DeleteResult{ProjectID: projectID}
	step := stepLoadProject

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if _, err := s.loadOwned(ctx, txRepo, userID, projectID, "delete"); err != nil {
			return err
		}

		step = stepDeleteItems
		n, err := txRepo.DeleteItems(ctx, projectID)
		if err != nil {
			return err
		}
		result.ItemsDeleted = n

		step = stepDeleteShares
		n, err = txRepo.DeleteShares(ctx, projectID)
		if err != nil {
			return err
		}
		result.SharesDeleted = n

		step = stepDeleteProject
		return txRepo.Delete(ctx, projectID)
	})
	if err == nil {
		return result, nil
	}

	if typed := pkgerrors.As(err); typed != nil && step == stepLoadProject && ctx.Err() == nil {
		return nil, typed
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"project_id": projectID, "step": step})
		s.logg.Error(logCtx, "project delete failed", err)
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodePartialWrite, err, "project delete did not complete").
		WithDetails(map[string]any{"project_id": projectID, "step": step})
}
