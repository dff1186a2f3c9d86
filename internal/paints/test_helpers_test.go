package paints

import (
	"context"
	"testing"

	"github.com/angelmondragon/paintref-backend/internal/brands"
	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/db/dbtest"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/stretchr/testify/require"
)

type fakePaletteIndex struct {
	refs   map[models.PaintKey][]PaletteRef
	userID string
}

func (f *fakePaletteIndex) PalettesContaining(ctx context.Context, userID string, keys []models.PaintKey) (map[models.PaintKey][]PaletteRef, error) {
	f.userID = userID
	out := map[models.PaintKey][]PaletteRef{}
	for _, k := range keys {
		if refs, ok := f.refs[k]; ok {
			out[k] = refs
		}
	}
	return out, nil
}

type fixture struct {
	client  *db.Client
	repo    *Repository
	service Service
}

func newFixture(t *testing.T, palettes PaletteIndex) fixture {
	t.Helper()
	client := dbtest.New(t)
	brandRepo := brands.NewRepository(client.DB())
	dir, err := brands.NewDirectory(brands.DirectoryParams{Repo: brandRepo})
	require.NoError(t, err)

	for _, b := range []models.Brand{
		{ID: "citadel", Name: "Citadel", LogoURL: "https://img/citadel.png"},
		{ID: "vallejo", Name: "Vallejo"},
	} {
		b := b
		require.NoError(t, brandRepo.Create(context.Background(), &b))
	}

	repo := NewRepository(client.DB())
	svc, err := NewService(ServiceParams{Repo: repo, DB: client, Brands: dir, Palettes: palettes, CategoryBatchSize: 2})
	require.NoError(t, err)
	return fixture{client: client, repo: repo, service: svc}
}

func strPtr(v string) *string { return &v }

func seedCatalog(t *testing.T, repo *Repository) {
	t.Helper()
	for _, p := range []models.Paint{
		{BrandID: "citadel", ID: "c1", Code: "CIT-01", Name: "Abaddon Black", Hex: "#000000", Set: "Base", Barcode: strPtr("5011921026326")},
		{BrandID: "citadel", ID: "c2", Code: "CIT-02", Name: "Mephiston Red", Hex: "#9A1115", R: 154, G: 17, B: 21, Set: "Base"},
		{BrandID: "citadel", ID: "c3", Code: "CIT-03", Name: "Khorne Red", Hex: "#6A0001", R: 106, G: 0, B: 1, Set: "Base", Barcode: strPtr("  ")},
		{BrandID: "citadel", ID: "c4", Code: "CIT-04", Name: "Averland Sunset", Hex: "#FDB825", R: 253, G: 184, B: 37, Set: "Base"},
		{BrandID: "vallejo", ID: "v1", Code: "70.950", Name: "Black", Hex: "#000000", Set: "Model Color", Barcode: strPtr("8429551709507")},
		{BrandID: "vallejo", ID: "v2", Code: "70.926", Name: "Mephiston Red", Hex: "#9A1115", R: 154, G: 17, B: 21, Set: "Metal Color Air", Barcode: strPtr("5011921026326")},
		{BrandID: "vallejo", ID: "v3", Code: "70.946", Name: "Dark Red", Hex: "#5A0C0E", R: 90, G: 12, B: 14, Set: "Transparent Sprays"},
	} {
		p := p
		require.NoError(t, repo.Create(context.Background(), &p))
	}
}

func ids(items []PaintDTO) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.BrandID + "/" + p.ID
	}
	return out
}
