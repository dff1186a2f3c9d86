// Package submissions reviews user-proposed paints and turns finalized
// submissions into catalog paints.
package submissions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/logger"
	"github.com/angelmondragon/paintref-backend/pkg/validators"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, input CreateSubmissionInput) (*models.PaintSubmission, error)
	List(ctx context.Context, status string) ([]SubmissionDTO, error)
	Update(ctx context.Context, id string, input UpdateSubmissionInput) (*models.PaintSubmission, error)
}

type paintCreator interface {
	PreparePaint(ctx context.Context, input paints.CreatePaintInput) (*paints.PaintDraft, error)
	InsertPaint(ctx context.Context, tx *gorm.DB, draft *paints.PaintDraft) (*paints.PaintDTO, error)
}

type userLookup interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.User, error)
}

// FinalizeNotifier is told, without waiting, that a submission was finalized.
type FinalizeNotifier interface {
	SubmissionFinalized(ctx context.Context, submitterID, label, brandID, hex string, broadcast bool)
}

// ServiceParams groups dependencies for the submission service. Notifier
// and Logger are optional.
type ServiceParams struct {
	Repo     *Repository
	DB       *db.Client
	Paints   paintCreator
	Users    userLookup
	Notifier FinalizeNotifier
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	paints   paintCreator
	users    userLookup
	notifier FinalizeNotifier
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "submission repository required")
	case params.DB == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db client required")
	case params.Paints == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paint service required")
	case params.Users == nil:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user lookup required")
	}
	return &service{
		repo:     params.Repo,
		dbClient: params.DB,
		paints:   params.Paints,
		users:    params.Users,
		notifier: params.Notifier,
		logg:     params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateSubmissionInput) (*models.PaintSubmission, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	submission := &models.PaintSubmission{
		UserID:    input.UserID,
		BrandID:   strings.TrimSpace(input.BrandID),
		Code:      strings.TrimSpace(input.Code),
		Color:     input.Color,
		Hex:       input.Hex,
		Name:      strings.TrimSpace(input.Name),
		Set:       input.Set,
		R:         input.R,
		G:         input.G,
		B:         input.B,
		Barcode:   input.Barcode,
		Status:    models.SubmissionStatusPending,
		Broadcast: input.Broadcast,
	}
	if err := s.repo.Create(ctx, submission); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create submission")
	}
	return submission, nil
}

// List returns submissions newest first with submitter emails resolved in
// one lookup.
func (s *service) List(ctx context.Context, status string) ([]SubmissionDTO, error) {
	status = strings.TrimSpace(status)
	if status != "" && status != models.SubmissionStatusPending && status != models.SubmissionStatusFinalized {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be pending or finalized")
	}
	rows, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list submissions")
	}

	var userIDs []string
	seen := map[string]struct{}{}
	for _, row := range rows {
		if row.UserID == nil || *row.UserID == "" {
			continue
		}
		if _, ok := seen[*row.UserID]; ok {
			continue
		}
		seen[*row.UserID] = struct{}{}
		userIDs = append(userIDs, *row.UserID)
	}
	usersByID, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submitters")
	}

	out := make([]SubmissionDTO, 0, len(rows))
	for _, row := range rows {
		email := ""
		if row.UserID != nil {
			email = usersByID[*row.UserID].Email
		}
		out = append(out, newSubmissionDTO(row, email))
	}
	return out, nil
}

// Update applies edits. The transition to finalized requires every catalog
// field, creates the paint and then notifies the submitter, or everyone
// when the submission asks for a broadcast.
func (s *service) Update(ctx context.Context, id string, input UpdateSubmissionInput) (*models.PaintSubmission, error) {
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	submission, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "submission not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load submission")
	}

	wasFinalized := submission.Status == models.SubmissionStatusFinalized
	applyUpdate(submission, input)
	finalizing := !wasFinalized && submission.Status == models.SubmissionStatusFinalized

	submission.UpdatedAt = time.Now().UTC()
	if !finalizing {
		if err := s.repo.Save(ctx, submission); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save submission")
		}
		return submission, nil
	}

	if missing := missingFields(submission); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing required fields: "+strings.Join(missing, ", ")).
			WithDetails(map[string]any{"missing": missing})
	}
	draft, err := s.paints.PreparePaint(ctx, paintInput(submission))
	if err != nil {
		return nil, err
	}
	// The paint insert and the status change commit or roll back together.
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.paints.InsertPaint(ctx, tx, draft); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Save(ctx, submission); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save submission")
		}
		return nil
	}); err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "submission_id", id), "submission finalize rolled back", err)
		}
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "finalize submission")
	}

	if s.notifier != nil {
		label := submission.Code
		if label == "" {
			label = submission.Name
		}
		submitter := ""
		if submission.UserID != nil {
			submitter = *submission.UserID
		}
		s.notifier.SubmissionFinalized(ctx, submitter, label, submission.BrandID, submission.Hex, submission.Broadcast)
	}
	return submission, nil
}

func paintInput(submission *models.PaintSubmission) paints.CreatePaintInput {
	class := paints.Classify(submission.Set)
	barcode := ""
	if submission.Barcode != nil {
		barcode = *submission.Barcode
	}
	return paints.CreatePaintInput{
		BrandID:       submission.BrandID,
		Code:          submission.Code,
		Color:         submission.Color,
		Name:          submission.Name,
		Hex:           submission.Hex,
		Set:           submission.Set,
		Category:      &class.Category,
		IsMetallic:    &class.IsMetallic,
		IsTransparent: &class.IsTransparent,
		Barcode:       barcode,
	}
}

func applyUpdate(s *models.PaintSubmission, in UpdateSubmissionInput) {
	if in.BrandID != nil {
		s.BrandID = strings.TrimSpace(*in.BrandID)
	}
	if in.Code != nil {
		s.Code = strings.TrimSpace(*in.Code)
	}
	if in.Color != nil {
		s.Color = *in.Color
	}
	if in.Hex != nil {
		s.Hex = *in.Hex
	}
	if in.Name != nil {
		s.Name = strings.TrimSpace(*in.Name)
	}
	if in.Set != nil {
		s.Set = *in.Set
	}
	if in.R != nil {
		s.R = in.R
	}
	if in.G != nil {
		s.G = in.G
	}
	if in.B != nil {
		s.B = in.B
	}
	if in.Barcode != nil {
		s.Barcode = in.Barcode
	}
	if in.Broadcast != nil {
		s.Broadcast = *in.Broadcast
	}
	if in.Status != nil {
		s.Status = *in.Status
	}
}

// missingFields lists the catalog fields a finalized submission still lacks.
func missingFields(s *models.PaintSubmission) []string {
	var missing []string
	for _, f := range []struct {
		name    string
		present bool
	}{
		{"brandId", s.BrandID != ""},
		{"code", s.Code != ""},
		{"color", s.Color != ""},
		{"hex", s.Hex != ""},
		{"name", s.Name != ""},
		{"set", s.Set != ""},
		{"b", s.B != nil},
		{"g", s.G != nil},
		{"r", s.R != nil},
	} {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	return missing
}
