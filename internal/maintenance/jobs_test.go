package maintenance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/paintref-backend/internal/brands"
	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/db/dbtest"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
)

func TestCatalogJobsRepairPaints(t *testing.T) {
	ctx := context.Background()
	client := dbtest.New(t)
	logg, _ := testLogger()

	brandRepo := brands.NewRepository(client.DB())
	require.NoError(t, brandRepo.Create(ctx, &models.Brand{ID: "vallejo", Name: "Vallejo"}))
	dir, err := brands.NewDirectory(brands.DirectoryParams{Repo: brandRepo})
	require.NoError(t, err)

	paintRepo := paints.NewRepository(client.DB())
	require.NoError(t, paintRepo.Create(ctx, &models.Paint{BrandID: "vallejo", ID: "v1", Name: "Gold", Hex: "#C9A43A", Set: "Metal Color"}))
	require.NoError(t, client.DB().Exec("UPDATE paints SET name_lower = '' WHERE id = ?", "v1").Error)

	svc, err := paints.NewService(paints.ServiceParams{Repo: paintRepo, DB: client, Brands: dir})
	require.NoError(t, err)

	backfill, err := NewBackfillNameLowerJob(svc, logg)
	require.NoError(t, err)
	classify, err := NewClassifyCategoriesJob(svc, logg)
	require.NoError(t, err)

	service, err := NewService(ServiceParams{Logger: logg, Registry: NewRegistry(backfill, classify), Lock: &fakeLock{}})
	require.NoError(t, err)
	require.NoError(t, service.RunOnce(ctx))

	var stored models.Paint
	require.NoError(t, client.DB().First(&stored, "brand_id = ? AND id = ?", "vallejo", "v1").Error)
	assert.Equal(t, "gold", stored.NameLower)
	require.NotNil(t, stored.Category)
	assert.Equal(t, "Metallics", *stored.Category)

	var categories int64
	require.NoError(t, client.DB().Model(&models.Category{}).Where("name = ?", "Metallics").Count(&categories).Error)
	assert.Equal(t, int64(1), categories)
}

func TestJobConstructorsValidate(t *testing.T) {
	logg, _ := testLogger()
	_, err := NewBackfillNameLowerJob(nil, logg)
	require.Error(t, err)
	_, err = NewClassifyCategoriesJob(nil, logg)
	require.Error(t, err)
}
