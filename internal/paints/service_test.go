package paints

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreatePaintDerivesColorAndNameLower(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	dto, err := f.service.CreatePaint(ctx, CreatePaintInput{
		BrandID: "citadel",
		Code:    " CIT-10 ",
		Name:    "Retributor Armour",
		Hex:     "c39e4d",
		Set:     "Base",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "CIT-10", dto.Code)
	assert.Equal(t, "retributor armour", dto.NameLower)
	assert.Equal(t, "#C39E4D", dto.Hex)
	assert.Equal(t, []int{195, 158, 77}, []int{dto.R, dto.G, dto.B})
	assert.Equal(t, "Citadel", dto.Brand)
	assert.Equal(t, "", dto.Barcode)
}

func TestCreatePaintValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedCatalog(t, f.repo)

	_, err := f.service.CreatePaint(ctx, CreatePaintInput{BrandID: "citadel", Code: "X", Name: "Bad", Hex: "#12"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.service.CreatePaint(ctx, CreatePaintInput{BrandID: "ghost", Code: "X", Name: "Lost", Hex: "#121212"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.service.CreatePaint(ctx, CreatePaintInput{BrandID: "citadel", Code: "CIT-02", Name: "Copy", Hex: "#121212"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = f.service.CreatePaint(ctx, CreatePaintInput{BrandID: "vallejo", Code: "CIT-02", Name: "Other brand", Hex: "#121212"})
	assert.NoError(t, err)
}

func TestInsertPaintFollowsCallerTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	draft, err := f.service.PreparePaint(ctx, CreatePaintInput{BrandID: "citadel", Code: "CIT-20", Name: "Mephiston Red", Hex: "#9A1115"})
	require.NoError(t, err)

	_, err = f.service.InsertPaint(ctx, nil, draft)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	rollback := errors.New("rollback")
	err = f.client.WithTx(ctx, func(tx *gorm.DB) error {
		dto, err := f.service.InsertPaint(ctx, tx, draft)
		require.NoError(t, err)
		assert.Equal(t, "#9A1115", dto.Hex)
		return rollback
	})
	require.ErrorIs(t, err, rollback)
	_, err = f.repo.FindByCode(ctx, "citadel", "CIT-20")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, f.client.WithTx(ctx, func(tx *gorm.DB) error {
		_, err := f.service.InsertPaint(ctx, tx, draft)
		return err
	}))
	_, err = f.repo.FindByCode(ctx, "citadel", "CIT-20")
	require.NoError(t, err)
}

func TestUpdatePaintRederivesDerivedFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedCatalog(t, f.repo)

	name := "Evil Sunz Scarlet"
	hex := "#C01411"
	dto, err := f.service.UpdatePaint(ctx, "citadel", "c2", UpdatePaintInput{Name: &name, Hex: &hex})
	require.NoError(t, err)
	assert.Equal(t, "Evil Sunz Scarlet", dto.Name)
	assert.Equal(t, "evil sunz scarlet", dto.NameLower)
	assert.Equal(t, []int{192, 20, 17}, []int{dto.R, dto.G, dto.B})

	res, err := f.service.QueryCatalog(ctx, CatalogFilters{Name: "evil"}, 10, 1, SortAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"citadel/c2"}, ids(res.Items))
}

func TestUpdatePaintErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedCatalog(t, f.repo)

	code := "CIT-03"
	_, err := f.service.UpdatePaint(ctx, "citadel", "c2", UpdatePaintInput{Code: &code})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	same := "CIT-02"
	_, err = f.service.UpdatePaint(ctx, "citadel", "c2", UpdatePaintInput{Code: &same})
	assert.NoError(t, err)

	_, err = f.service.UpdatePaint(ctx, "citadel", "missing", UpdatePaintInput{Code: &same})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeletePaint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedCatalog(t, f.repo)

	require.NoError(t, f.service.DeletePaint(ctx, "vallejo", "v3"))
	err := f.service.DeletePaint(ctx, "vallejo", "v3")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.service.GetPaint(ctx, "vallejo", "v3")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFindByBarcodeAnnotatesPalettes(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	index := &fakePaletteIndex{refs: map[models.PaintKey][]PaletteRef{
		{BrandID: "vallejo", PaintID: "v2"}: {{ID: "p1", Name: "Blood Angels", UserID: "u1", CreatedAt: created}},
	}}
	f := newFixture(t, index)
	seedCatalog(t, f.repo)

	res, err := f.service.FindByBarcode(ctx, "u1", "5011921026326")
	require.NoError(t, err)
	assert.Equal(t, "u1", index.userID)
	assert.Equal(t, []string{"citadel/c1", "vallejo/v2"}, ids(res))
	assert.Empty(t, res[0].Palettes)
	require.Len(t, res[1].Palettes, 1)
	assert.Equal(t, "Blood Angels", res[1].Palettes[0].Name)

	anon, err := f.service.FindByBarcode(ctx, "", "5011921026326")
	require.NoError(t, err)
	require.Len(t, anon, 2)
	assert.NotNil(t, anon[1].Palettes)
	assert.Empty(t, anon[1].Palettes)

	_, err = f.service.FindByBarcode(ctx, "u1", "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestBarcodeReports(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedCatalog(t, f.repo)

	coverage, err := f.service.BarcodeCoverage(ctx)
	require.NoError(t, err)
	assert.Equal(t, &BarcodeCoverage{Total: 7, WithBarcode: 3, WithoutBarcode: 4}, coverage)

	missing, err := f.service.PaintsWithoutBarcode(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"citadel/c2", "citadel/c3", "citadel/c4", "vallejo/v3"}, ids(missing))

	repeated, err := f.service.RepeatedBarcodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"citadel/c1", "vallejo/v2"}, ids(repeated))
	assert.Equal(t, "Vallejo", repeated[1].Brand)
}

func TestBackfillNameLower(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	seedCatalog(t, f.repo)

	require.NoError(t, f.client.DB().Exec("UPDATE paints SET name_lower = '' WHERE id IN ('c1', 'v1')").Error)

	updated, err := f.service.BackfillNameLower(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)

	paint, err := f.repo.FindByID(ctx, "vallejo", "v1")
	require.NoError(t, err)
	assert.Equal(t, "black", paint.NameLower)

	again, err := f.service.BackfillNameLower(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)
}
