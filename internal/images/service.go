// Package images records reference images a user samples colors from and
// the picks taken from them.
package images

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/paintref-backend/pkg/color"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/validators"
	"gorm.io/gorm"
)

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreatePickInput samples a color at a point of an image.
type CreatePickInput struct {
	ImageID string  `json:"image_id" validate:"required"`
	Hex     string  `json:"hex" validate:"required,paint_hex"`
	X       float64 `json:"x_coord" validate:"gte=0"`
	Y       float64 `json:"y_coord" validate:"gte=0"`
}

type Service struct {
	repo  *Repository
	users userFinder
}

func NewService(repo *Repository, users userFinder) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image repository required")
	}
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user finder required")
	}
	return &Service{repo: repo, users: users}, nil
}

// CreateImage records an uploaded image path for the user.
func (s *Service) CreateImage(ctx context.Context, userID, imagePath string) (*models.UserColorImage, error) {
	imagePath = strings.TrimSpace(imagePath)
	if strings.TrimSpace(userID) == "" || imagePath == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and image path are required")
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	image := &models.UserColorImage{UserID: userID, ImagePath: imagePath}
	if err := s.repo.CreateImage(ctx, image); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create image")
	}
	return image, nil
}

func (s *Service) ListImages(ctx context.Context, userID string) ([]models.UserColorImage, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListImages(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list images")
	}
	if rows == nil {
		rows = []models.UserColorImage{}
	}
	return rows, nil
}

// CreatePick stores a sampled color with its RGB components derived from hex.
func (s *Service) CreatePick(ctx context.Context, input CreatePickInput) (*models.ImageColorPick, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	rgb, err := color.ParseHex(input.Hex)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid hex color")
	}
	if _, err := s.repo.FindImage(ctx, input.ImageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load image")
	}
	pick := &models.ImageColorPick{
		ImageID:  input.ImageID,
		HexColor: rgb.Hex(),
		R:        rgb.R,
		G:        rgb.G,
		B:        rgb.B,
		XCoord:   input.X,
		YCoord:   input.Y,
	}
	if err := s.repo.CreatePick(ctx, pick); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create color pick")
	}
	return pick, nil
}

func (s *Service) ListPicks(ctx context.Context, imageID string) ([]models.ImageColorPick, error) {
	if strings.TrimSpace(imageID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image id is required")
	}
	rows, err := s.repo.ListPicks(ctx, imageID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list color picks")
	}
	if rows == nil {
		rows = []models.ImageColorPick{}
	}
	return rows, nil
}
