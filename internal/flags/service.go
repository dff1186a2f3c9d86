// Package flags stores named runtime toggles.
package flags

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"gorm.io/gorm"
)

// GuestLogic switches clients into guest-mode behavior.
const GuestLogic = "guest_logic"

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flag repository required")
	}
	return &Service{repo: repo}, nil
}

// Enabled reports the flag's value. A flag that was never set is off.
func (s *Service) Enabled(ctx context.Context, name string) (bool, error) {
	if strings.TrimSpace(name) == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "flag name is required")
	}
	flag, err := s.repo.Find(ctx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load flag")
	}
	return flag.Enabled, nil
}

func (s *Service) Set(ctx context.Context, name string, enabled bool) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "flag name is required")
	}
	if err := s.repo.Upsert(ctx, &models.Flag{Name: name, Enabled: enabled}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save flag")
	}
	return nil
}
