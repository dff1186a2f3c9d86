package submissions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/paintref-backend/internal/brands"
	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/internal/users"
	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/db/dbtest"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type finalizedCall struct {
	submitter, label, brandID, hex string
	broadcast                      bool
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []finalizedCall
}

func (n *recordingNotifier) SubmissionFinalized(_ context.Context, submitterID, label, brandID, hex string, broadcast bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, finalizedCall{submitterID, label, brandID, hex, broadcast})
}

type fixture struct {
	client   *db.Client
	paints   *paints.Repository
	notifier *recordingNotifier
	service  Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	client := dbtest.New(t)

	brandRepo := brands.NewRepository(client.DB())
	require.NoError(t, brandRepo.Create(ctx, &models.Brand{ID: "citadel", Name: "Citadel"}))
	dir, err := brands.NewDirectory(brands.DirectoryParams{Repo: brandRepo})
	require.NoError(t, err)

	paintRepo := paints.NewRepository(client.DB())
	paintSvc, err := paints.NewService(paints.ServiceParams{Repo: paintRepo, DB: client, Brands: dir})
	require.NoError(t, err)

	userRepo := users.NewRepository(client.DB())
	_, err = userRepo.Create(ctx, users.CreateUserDTO{ID: "u1", Email: "painter@example.com"})
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(client.DB()),
		DB:       client,
		Paints:   paintSvc,
		Users:    userRepo,
		Notifier: notifier,
	})
	require.NoError(t, err)
	return fixture{client: client, paints: paintRepo, notifier: notifier, service: svc}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func completeInput() CreateSubmissionInput {
	return CreateSubmissionInput{
		UserID:  strPtr("u1"),
		BrandID: "citadel",
		Code:    "CIT-01",
		Color:   "blue",
		Hex:     "#0D407F",
		Name:    "Macragge Blue",
		Set:     "Base Metal",
		R:       intPtr(13),
		G:       intPtr(64),
		B:       intPtr(127),
	}
}

func TestCreateStartsPending(t *testing.T) {
	f := newFixture(t)
	sub, err := f.service.Create(context.Background(), CreateSubmissionInput{Name: "Mystery Green"})
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID)
	require.Equal(t, models.SubmissionStatusPending, sub.Status)
}

func TestCreateRejectsBadHex(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Create(context.Background(), CreateSubmissionInput{Hex: "blue"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListFiltersByStatusAndResolvesEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Create(ctx, completeInput())
	require.NoError(t, err)
	require.NoError(t, f.client.DB().Model(&models.PaintSubmission{}).
		Where("id = ?", first.ID).Update("created_at", time.Now().Add(-time.Hour)).Error)
	second, err := f.service.Create(ctx, CreateSubmissionInput{Name: "Anonymous"})
	require.NoError(t, err)

	all, err := f.service.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, second.ID, all[0].ID)
	require.Equal(t, "", all[0].UserEmail)
	require.Equal(t, "painter@example.com", all[1].UserEmail)

	_, err = f.service.Update(ctx, first.ID, UpdateSubmissionInput{Status: strPtr(models.SubmissionStatusFinalized)})
	require.NoError(t, err)

	finalized, err := f.service.List(ctx, models.SubmissionStatusFinalized)
	require.NoError(t, err)
	require.Len(t, finalized, 1)
	require.Equal(t, first.ID, finalized[0].ID)

	_, err = f.service.List(ctx, "archived")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFinalizeCreatesClassifiedPaintAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.service.Create(ctx, completeInput())
	require.NoError(t, err)

	updated, err := f.service.Update(ctx, sub.ID, UpdateSubmissionInput{Status: strPtr(models.SubmissionStatusFinalized)})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusFinalized, updated.Status)

	paint, err := f.paints.FindByCode(ctx, "citadel", "CIT-01")
	require.NoError(t, err)
	require.Equal(t, "Macragge Blue", paint.Name)
	require.NotNil(t, paint.Category)
	require.Equal(t, "Metallics", *paint.Category)
	require.NotNil(t, paint.IsMetallic)
	require.True(t, *paint.IsMetallic)

	require.Equal(t, []finalizedCall{{"u1", "CIT-01", "citadel", "#0D407F", false}}, f.notifier.calls)
}

func TestFinalizeRequiresCatalogFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.service.Create(ctx, CreateSubmissionInput{Name: "Half Done", BrandID: "citadel"})
	require.NoError(t, err)

	_, err = f.service.Update(ctx, sub.ID, UpdateSubmissionInput{Status: strPtr(models.SubmissionStatusFinalized)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Contains(t, pkgerrors.As(err).Message(), "code")

	var stored models.PaintSubmission
	require.NoError(t, f.client.DB().First(&stored, "id = ?", sub.ID).Error)
	require.Equal(t, models.SubmissionStatusPending, stored.Status)
	require.Empty(t, f.notifier.calls)
}

func TestFinalizeDuplicateCodeConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.paints.Create(ctx, &models.Paint{BrandID: "citadel", ID: "existing", Code: "CIT-01", Name: "Old", Hex: "#000000"}))

	sub, err := f.service.Create(ctx, completeInput())
	require.NoError(t, err)
	_, err = f.service.Update(ctx, sub.ID, UpdateSubmissionInput{Status: strPtr(models.SubmissionStatusFinalized)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	require.Empty(t, f.notifier.calls)
}

func TestUpdateEditsWithoutFinalizing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.service.Create(ctx, CreateSubmissionInput{Name: "Draft"})
	require.NoError(t, err)
	updated, err := f.service.Update(ctx, sub.ID, UpdateSubmissionInput{Name: strPtr("  Renamed "), Broadcast: boolPtr(true)})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.True(t, updated.Broadcast)
	require.Empty(t, f.notifier.calls)

	_, err = f.service.Update(ctx, "missing", UpdateSubmissionInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFinalizeBroadcastNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := completeInput()
	in.Broadcast = true
	sub, err := f.service.Create(ctx, in)
	require.NoError(t, err)

	// Re-finalizing an already finalized submission does not notify twice.
	for i := 0; i < 2; i++ {
		_, err = f.service.Update(ctx, sub.ID, UpdateSubmissionInput{Status: strPtr(models.SubmissionStatusFinalized)})
		require.NoError(t, err)
	}
	require.Len(t, f.notifier.calls, 1)
	require.True(t, f.notifier.calls[0].broadcast)
}

func boolPtr(b bool) *bool { return &b }

func TestFinalizeRollsBackPaintWhenSaveFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sub, err := f.service.Create(ctx, completeInput())
	require.NoError(t, err)

	failing := true
	require.NoError(t, f.client.DB().Callback().Update().Before("gorm:update").Register("test:fail_submission_save", func(tx *gorm.DB) {
		if failing && tx.Statement.Table == "paint_submissions" {
			_ = tx.AddError(errors.New("storage unavailable"))
		}
	}))

	_, err = f.service.Update(ctx, sub.ID, UpdateSubmissionInput{Status: strPtr(models.SubmissionStatusFinalized)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), "got %v", err)

	_, err = f.paints.FindByCode(ctx, "citadel", "CIT-01")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	var stored models.PaintSubmission
	require.NoError(t, f.client.DB().First(&stored, "id = ?", sub.ID).Error)
	require.Equal(t, models.SubmissionStatusPending, stored.Status)
	require.Empty(t, f.notifier.calls)

	failing = false
	updated, err := f.service.Update(ctx, sub.ID, UpdateSubmissionInput{Status: strPtr(models.SubmissionStatusFinalized)})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusFinalized, updated.Status)
	_, err = f.paints.FindByCode(ctx, "citadel", "CIT-01")
	require.NoError(t, err)
	require.Len(t, f.notifier.calls, 1)
}
