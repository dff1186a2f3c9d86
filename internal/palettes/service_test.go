package palettes

import (
	"context"
	"errors"
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

type fixture struct {
	client  *db.Client
	repo    *Repository
	service Service
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
	for _, p := range []models.Paint{
		{BrandID: "citadel", ID: "p1", Name: "Mephiston Red", Hex: "#9A1115"},
		{BrandID: "citadel", ID: "p2", Name: "Abaddon Black", Hex: "#000000"},
		{BrandID: "citadel", ID: "p3", Name: "Caliban Green", Hex: "#00401A"},
	} {
		require.NoError(t, paintRepo.Create(ctx, &p))
	}

	userRepo := users.NewRepository(client.DB())
	for _, id := range []string{"u1", "u2"} {
		_, err := userRepo.Create(ctx, users.CreateUserDTO{ID: id})
		require.NoError(t, err)
	}

	repo := NewRepository(client.DB())
	svc, err := NewService(ServiceParams{Repo: repo, DB: client, Users: userRepo, Paints: paintRepo, Brands: dir})
	require.NoError(t, err)
	return fixture{client: client, repo: repo, service: svc}
}

func (f fixture) image(t *testing.T, id string) {
	t.Helper()
	require.NoError(t, f.client.DB().Create(&models.UserColorImage{ID: id, UserID: "u1", ImagePath: "images/" + id + ".png"}).Error)
}

func (f fixture) pick(t *testing.T, id, imageID string) {
	t.Helper()
	require.NoError(t, f.client.DB().Create(&models.ImageColorPick{ID: id, ImageID: imageID, HexColor: "#FFFFFF", R: 255, G: 255, B: 255}).Error)
}

func (f fixture) palette(t *testing.T, id, userID string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, f.repo.Create(context.Background(), &models.Palette{ID: id, UserID: userID, Name: "Palette " + id, CreatedAt: createdAt}))
}

func (f fixture) count(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.client.DB().Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func ref(paintID string, pickID string) PaintRef {
	r := PaintRef{BrandID: "citadel", PaintID: paintID}
	if pickID != "" {
		r.ImageColorPickID = &pickID
	}
	return r
}

func TestDeletePaletteRemovesExclusivePicksAndImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.image(t, "img-1")
	f.pick(t, "pick-1", "img-1")
	f.pick(t, "pick-2", "img-1")
	f.palette(t, "pal-a", "u1", time.Now())
	_, err := f.service.AddPaints(ctx, "u1", "pal-a", AddPaintsInput{Paints: []PaintRef{
		ref("p1", "pick-1"), ref("p2", "pick-2"), ref("p3", ""),
	}})
	require.NoError(t, err)

	res, err := f.service.DeletePalette(ctx, "u1", "pal-a")
	require.NoError(t, err)
	require.EqualValues(t, 3, res.LinksDeleted)
	require.EqualValues(t, 2, res.PicksDeleted)
	require.EqualValues(t, 1, res.ImagesDeleted)

	require.Zero(t, f.count(t, &models.PalettePaint{}, "palette_id = ?", "pal-a"))
	require.Zero(t, f.count(t, &models.Palette{}, "id = ?", "pal-a"))
	require.Zero(t, f.count(t, &models.ImageColorPick{}, "1 = 1"))
	require.Zero(t, f.count(t, &models.UserColorImage{}, "1 = 1"))
}

func TestDeletePaletteKeepsSharedPicksAndImages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.image(t, "img-shared")
	f.pick(t, "pick-shared", "img-shared")
	f.image(t, "img-own")
	f.pick(t, "pick-own", "img-own")
	f.image(t, "img-mixed")
	f.pick(t, "pick-mixed", "img-mixed")
	f.pick(t, "pick-unlinked", "img-mixed")

	f.palette(t, "pal-a", "u1", time.Now())
	f.palette(t, "pal-b", "u1", time.Now())
	_, err := f.service.AddPaints(ctx, "u1", "pal-a", AddPaintsInput{Paints: []PaintRef{
		ref("p1", "pick-shared"), ref("p2", "pick-own"), ref("p3", "pick-mixed"),
	}})
	require.NoError(t, err)
	_, err = f.service.AddPaints(ctx, "u1", "pal-b", AddPaintsInput{Paints: []PaintRef{ref("p1", "pick-shared")}})
	require.NoError(t, err)

	res, err := f.service.DeletePalette(ctx, "u1", "pal-a")
	require.NoError(t, err)
	require.EqualValues(t, 2, res.PicksDeleted)
	require.EqualValues(t, 1, res.ImagesDeleted)

	require.EqualValues(t, 1, f.count(t, &models.ImageColorPick{}, "id = ?", "pick-shared"))
	require.EqualValues(t, 1, f.count(t, &models.UserColorImage{}, "id = ?", "img-shared"))
	require.Zero(t, f.count(t, &models.ImageColorPick{}, "id IN ?", []string{"pick-own", "pick-mixed"}))
	require.Zero(t, f.count(t, &models.UserColorImage{}, "id = ?", "img-own"))
	require.EqualValues(t, 1, f.count(t, &models.UserColorImage{}, "id = ?", "img-mixed"))
	require.EqualValues(t, 1, f.count(t, &models.PalettePaint{}, "palette_id = ?", "pal-b"))
}

func TestDeletePaletteOfAnotherUserIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.palette(t, "pal-a", "u1", time.Now())

	_, err := f.service.DeletePalette(context.Background(), "u2", "pal-a")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	_, err = f.service.DeletePalette(context.Background(), "u1", "missing")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	require.EqualValues(t, 1, f.count(t, &models.Palette{}, "id = ?", "pal-a"))
}

func TestDeletePaletteReportsFailedStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.image(t, "img-1")
	f.pick(t, "pick-1", "img-1")
	f.palette(t, "pal-a", "u1", time.Now())
	_, err := f.service.AddPaints(ctx, "u1", "pal-a", AddPaintsInput{Paints: []PaintRef{ref("p1", "pick-1")}})
	require.NoError(t, err)

	require.NoError(t, f.client.DB().Callback().Delete().Before("gorm:delete").Register("test:fail_images", func(tx *gorm.DB) {
		if tx.Statement.Table == "user_color_images" {
			_ = tx.AddError(errors.New("storage unavailable"))
		}
	}))

	_, err = f.service.DeletePalette(ctx, "u1", "pal-a")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePartialWrite), "got %v", err)
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, stepDeleteImage, details["step"])

	require.EqualValues(t, 1, f.count(t, &models.Palette{}, "id = ?", "pal-a"))
	require.EqualValues(t, 1, f.count(t, &models.ImageColorPick{}, "id = ?", "pick-1"))
	require.EqualValues(t, 1, f.count(t, &models.PalettePaint{}, "palette_id = ?", "pal-a"))
}

func TestDeletePaletteDeadlineIsPartialWrite(t *testing.T) {
	f := newFixture(t)
	f.palette(t, "pal-a", "u1", time.Now())

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err := f.service.DeletePalette(ctx, "u1", "pal-a")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodePartialWrite), "got %v", err)
}

func TestAddPaintsValidatesReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.palette(t, "pal-a", "u1", time.Now())

	_, err := f.service.AddPaints(ctx, "u1", "pal-a", AddPaintsInput{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = f.service.AddPaints(ctx, "u1", "pal-a", AddPaintsInput{Paints: []PaintRef{ref("p9", "")}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.service.AddPaints(ctx, "u1", "pal-a", AddPaintsInput{Paints: []PaintRef{ref("p1", "pick-missing")}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.service.AddPaints(ctx, "u2", "pal-a", AddPaintsInput{Paints: []PaintRef{ref("p1", "")}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	require.Zero(t, f.count(t, &models.PalettePaint{}, "palette_id = ?", "pal-a"))
}

func TestCreateAndListPalettes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreatePalette(ctx, CreatePaletteInput{UserID: "u1", Name: "  Ultramarines  "})
	require.NoError(t, err)
	require.Equal(t, "Ultramarines", created.Name)

	_, err = f.service.CreatePalette(ctx, CreatePaletteInput{UserID: "ghost", Name: "x"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	_, err = f.service.CreatePalette(ctx, CreatePaletteInput{UserID: "u1", Name: " "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	base := time.Now().Add(-time.Hour)
	f.palette(t, "old", "u1", base)
	f.palette(t, "mid", "u1", base.Add(time.Minute))
	f.palette(t, "other", "u2", base.Add(2*time.Minute))
	_, err = f.service.AddPaints(ctx, "u1", "mid", AddPaintsInput{Paints: []PaintRef{ref("p2", ""), ref("p1", "")}})
	require.NoError(t, err)

	page, err := f.service.ListPalettes(ctx, "u1", 2, 1)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	require.Equal(t, 2, page.TotalPages)
	require.Equal(t, created.ID, page.Items[0].ID)
	require.Empty(t, page.Items[0].Paints)
	require.Equal(t, "mid", page.Items[1].ID)
	require.Len(t, page.Items[1].Paints, 2)
	for _, linked := range page.Items[1].Paints {
		require.NotNil(t, linked.Paint)
		require.Equal(t, "Citadel", linked.Paint.Brand)
	}

	last, err := f.service.ListPalettes(ctx, "u1", 2, 2)
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	require.Equal(t, "old", last.Items[0].ID)
}

func TestPalettesContaining(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	f.palette(t, "first", "u1", base)
	f.palette(t, "second", "u1", base.Add(time.Minute))
	f.palette(t, "foreign", "u2", base)
	_, err := f.service.AddPaints(ctx, "u1", "first", AddPaintsInput{Paints: []PaintRef{ref("p1", ""), ref("p2", "")}})
	require.NoError(t, err)
	_, err = f.service.AddPaints(ctx, "u1", "second", AddPaintsInput{Paints: []PaintRef{ref("p1", ""), ref("p1", "")}})
	require.NoError(t, err)
	_, err = f.service.AddPaints(ctx, "u2", "foreign", AddPaintsInput{Paints: []PaintRef{ref("p3", "")}})
	require.NoError(t, err)

	p1 := models.PaintKey{BrandID: "citadel", PaintID: "p1"}
	p2 := models.PaintKey{BrandID: "citadel", PaintID: "p2"}
	p3 := models.PaintKey{BrandID: "citadel", PaintID: "p3"}
	got, err := f.repo.PalettesContaining(ctx, "u1", []models.PaintKey{p1, p2, p3})
	require.NoError(t, err)

	require.Len(t, got[p1], 2)
	require.Equal(t, "first", got[p1][0].ID)
	require.Equal(t, "second", got[p1][1].ID)
	require.Len(t, got[p2], 1)
	require.Empty(t, got[p3])
}
