package ownership

import (
	"context"
	"testing"

	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/stretchr/testify/require"
)

func ownAll(t *testing.T, svc Service, userID string, entries map[models.PaintKey]int) {
	t.Helper()
	for key, qty := range entries {
		_, err := svc.SetOwned(context.Background(), SetOwnedInput{
			UserID: userID, BrandID: key.BrandID, PaintID: key.PaintID, Quantity: qty,
		})
		require.NoError(t, err)
	}
}

func paintIDs(items []InventoryItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.BrandID + "/" + item.PaintID
	}
	return out
}

func TestListInventoryFilters(t *testing.T) {
	red := models.PaintKey{BrandID: "citadel", PaintID: "p1"}
	f := newFixture(t, stubPaletteIndex{refs: map[models.PaintKey][]paints.PaletteRef{
		red: {{ID: "pal-1", Name: "Blood Angels"}},
	}})
	ctx := context.Background()

	ownAll(t, f.service, "u1", map[models.PaintKey]int{
		red:                                 3,
		{BrandID: "citadel", PaintID: "p2"}: 0,
		{BrandID: "citadel", PaintID: "p3"}: 7,
		{BrandID: "vallejo", PaintID: "p1"}: 1,
	})
	ownAll(t, f.service, "u2", map[models.PaintKey]int{red: 9})

	all, err := f.service.ListInventory(ctx, "u1", InventoryFilters{}, 10, 1)
	require.NoError(t, err)
	require.Equal(t, 4, all.Total)
	require.ElementsMatch(t, []string{"citadel/p1", "citadel/p2", "citadel/p3", "vallejo/p1"}, paintIDs(all.Items))
	for _, item := range all.Items {
		require.NotNil(t, item.Paint)
		if item.BrandID == "citadel" && item.PaintID == "p1" {
			require.Equal(t, []string{"Blood Angels"}, item.Palettes)
			require.Equal(t, "Citadel", item.Paint.Brand)
		} else {
			require.Empty(t, item.Palettes)
		}
	}

	inStock, err := f.service.ListInventory(ctx, "u1", InventoryFilters{OnlyInStock: true}, 10, 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"citadel/p1", "citadel/p3", "vallejo/p1"}, paintIDs(inStock.Items))

	exact, err := f.service.ListInventory(ctx, "u1", InventoryFilters{Stock: intPtr(0)}, 10, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"citadel/p2"}, paintIDs(exact.Items))

	ranged, err := f.service.ListInventory(ctx, "u1", InventoryFilters{MinStock: intPtr(2), MaxStock: intPtr(7)}, 10, 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"citadel/p1", "citadel/p3"}, paintIDs(ranged.Items))

	byName, err := f.service.ListInventory(ctx, "u1", InventoryFilters{BrandName: "Vallejo"}, 10, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"vallejo/p1"}, paintIDs(byName.Items))

	unknown, err := f.service.ListInventory(ctx, "u1", InventoryFilters{BrandName: "Army Painter"}, 10, 1)
	require.NoError(t, err)
	require.Zero(t, unknown.Total)
	require.Empty(t, unknown.Items)

	paged, err := f.service.ListInventory(ctx, "u1", InventoryFilters{}, 3, 2)
	require.NoError(t, err)
	require.Equal(t, 2, paged.TotalPages)
	require.Equal(t, 2, paged.CurrentPage)
	require.Len(t, paged.Items, 1)
}

func TestGetUserWishlistFiltersAndSorts(t *testing.T) {
	f := newFixture(t, stubPaletteIndex{refs: map[models.PaintKey][]paints.PaletteRef{
		{BrandID: "citadel", PaintID: "p4"}: {{ID: "pal-2", Name: "Dark Angels"}},
	}})
	ctx := context.Background()

	desire(t, f.service, "u1", "citadel", "p1", PriorityAppend)
	desire(t, f.service, "u1", "citadel", "p2", PriorityUnranked)
	desire(t, f.service, "u1", "citadel", "p3", PriorityAppend)
	desire(t, f.service, "u1", "citadel", "p4", 1)
	desire(t, f.service, "u1", "vallejo", "p1", PriorityUnranked)

	names := func(items []WishlistItem) []string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = item.Paint.Name
		}
		return out
	}

	all, err := f.service.GetUserWishlist(ctx, "u1", WishlistFilters{})
	require.NoError(t, err)
	require.Equal(t, 5, all.TotalItems)
	require.Equal(t, []string{"Caliban Green", "Mephiston Red", "Averland Sunset"}, names(all.Items[:3]))
	require.ElementsMatch(t, []string{"Abaddon Black", "Dark Red"}, names(all.Items[3:]))
	require.Zero(t, all.TotalPages)

	alpha, err := f.service.GetUserWishlist(ctx, "u1", WishlistFilters{SortBy: SortByAlphabetical, Direction: "asc"})
	require.NoError(t, err)
	require.Equal(t, []string{"Abaddon Black", "Averland Sunset", "Caliban Green", "Dark Red", "Mephiston Red"}, names(alpha.Items))

	red, err := f.service.GetUserWishlist(ctx, "u1", WishlistFilters{Q: "RED"})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Mephiston Red", "Dark Red"}, names(red.Items))

	vallejo, err := f.service.GetUserWishlist(ctx, "u1", WishlistFilters{Q: "vallejo"})
	require.NoError(t, err)
	require.Equal(t, []string{"Dark Red"}, names(vallejo.Items))

	top, err := f.service.GetUserWishlist(ctx, "u1", WishlistFilters{Priority: intPtr(1)})
	require.NoError(t, err)
	require.Equal(t, []string{"Caliban Green"}, names(top.Items))

	palette, err := f.service.GetUserWishlist(ctx, "u1", WishlistFilters{Palette: "angels"})
	require.NoError(t, err)
	require.Equal(t, []string{"Caliban Green"}, names(palette.Items))
	require.Equal(t, []string{"Dark Angels"}, palette.Items[0].Palettes)

	paged, err := f.service.GetUserWishlist(ctx, "u1", WishlistFilters{BrandID: "citadel", SortBy: SortByAlphabetical, Direction: "asc", Limit: 3, Page: 2})
	require.NoError(t, err)
	require.Equal(t, 4, paged.TotalItems)
	require.Equal(t, 2, paged.TotalPages)
	require.Equal(t, 2, paged.CurrentPage)
	require.Equal(t, []string{"Mephiston Red"}, names(paged.Items))

	_, err = f.service.GetUserWishlist(ctx, "ghost", WishlistFilters{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.service.GetUserWishlist(ctx, "u1", WishlistFilters{SortBy: "price"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestGetUserWishlistSkipsVanishedPaints(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	desire(t, f.service, "u1", "citadel", "p1", PriorityAppend)
	desire(t, f.service, "u1", "citadel", "p2", PriorityAppend)
	require.NoError(t, f.client.DB().Where("brand_id = ? AND id = ?", "citadel", "p2").Delete(&models.Paint{}).Error)

	res, err := f.service.GetUserWishlist(ctx, "u1", WishlistFilters{})
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalItems)
	require.Equal(t, "p1", res.Items[0].PaintID)
}

func TestPaintStatusAndUsage(t *testing.T) {
	key := models.PaintKey{BrandID: "citadel", PaintID: "p2"}
	f := newFixture(t, stubPaletteIndex{refs: map[models.PaintKey][]paints.PaletteRef{
		key: {{ID: "pal-1", Name: "Night Lords", UserID: "u1"}},
	}})
	ctx := context.Background()

	desired := desire(t, f.service, "u1", "citadel", "p2", PriorityAppend)

	usage, err := f.service.PaintUsage(ctx, "u1", "citadel", "p2")
	require.NoError(t, err)
	require.Equal(t, "Abaddon Black", usage.Paint.Name)
	require.Equal(t, "Citadel", usage.Brand.Name)
	require.True(t, usage.InWishlist)
	require.Equal(t, desired.ID, usage.WishlistID)
	require.False(t, usage.InInventory)
	require.Len(t, usage.Palettes, 1)
	require.Equal(t, "Night Lords", usage.Palettes[0].Name)

	other, err := f.service.PaintUsage(ctx, "u1", "citadel", "p3")
	require.NoError(t, err)
	require.False(t, other.InWishlist)
	require.Empty(t, other.Palettes)

	_, err = f.service.PaintUsage(ctx, "u1", "citadel", "p9")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = f.service.PaintStatus(ctx, "u1", "Army Painter", "p1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}
