package ownership

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/paintref-backend/internal/brands"
	"github.com/angelmondragon/paintref-backend/internal/paints"
	"github.com/angelmondragon/paintref-backend/internal/users"
	"github.com/angelmondragon/paintref-backend/pkg/db"
	"github.com/angelmondragon/paintref-backend/pkg/db/dbtest"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/angelmondragon/paintref-backend/pkg/redis"
	"github.com/stretchr/testify/require"
)

type memoryLockStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryLockStore() *memoryLockStore {
	return &memoryLockStore{values: map[string]string{}}
}

func (m *memoryLockStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryLockStore) CompareAndDelete(ctx context.Context, key, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.values[key]; !ok || v != token {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func (m *memoryLockStore) held(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingNotifier) PaintAdded(ctx context.Context, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, userID)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type stubPaletteIndex struct {
	refs map[models.PaintKey][]paints.PaletteRef
}

func (s stubPaletteIndex) PalettesContaining(ctx context.Context, userID string, keys []models.PaintKey) (map[models.PaintKey][]paints.PaletteRef, error) {
	out := map[models.PaintKey][]paints.PaletteRef{}
	for _, k := range keys {
		if refs, ok := s.refs[k]; ok {
			out[k] = refs
		}
	}
	return out, nil
}

type fixture struct {
	client   *db.Client
	repo     *Repository
	locks    *memoryLockStore
	notifier *recordingNotifier
	service  Service
}

func newFixture(t *testing.T, palettes paints.PaletteIndex) fixture {
	t.Helper()
	ctx := context.Background()
	client := dbtest.New(t)

	brandRepo := brands.NewRepository(client.DB())
	dir, err := brands.NewDirectory(brands.DirectoryParams{Repo: brandRepo})
	require.NoError(t, err)
	for _, b := range []models.Brand{
		{ID: "citadel", Name: "Citadel"},
		{ID: "vallejo", Name: "Vallejo"},
	} {
		require.NoError(t, brandRepo.Create(ctx, &b))
	}

	paintRepo := paints.NewRepository(client.DB())
	for _, p := range []models.Paint{
		{BrandID: "citadel", ID: "p1", Name: "Mephiston Red", Hex: "#9A1115"},
		{BrandID: "citadel", ID: "p2", Name: "Abaddon Black", Hex: "#000000"},
		{BrandID: "citadel", ID: "p3", Name: "Averland Sunset", Hex: "#FDB825"},
		{BrandID: "citadel", ID: "p4", Name: "Caliban Green", Hex: "#00401A"},
		{BrandID: "vallejo", ID: "p1", Name: "Dark Red", Hex: "#5A0C0E"},
	} {
		require.NoError(t, paintRepo.Create(ctx, &p))
	}

	userRepo := users.NewRepository(client.DB())
	for _, u := range []users.CreateUserDTO{
		{ID: "u1", Email: "u1@example.com"},
		{ID: "u2", Email: "u2@example.com"},
		{ID: "admin", Email: "admin@example.com", IsAdmin: true},
	} {
		_, err := userRepo.Create(ctx, u)
		require.NoError(t, err)
	}

	locks := newMemoryLockStore()
	locker, err := redis.NewLocker(locks, time.Minute, time.Millisecond)
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	repo := NewRepository(client.DB())
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		DB:       client,
		Users:    userRepo,
		Brands:   dir,
		Paints:   paintRepo,
		Palettes: palettes,
		Locker:   locker,
		Notifier: notifier,
	})
	require.NoError(t, err)
	return fixture{client: client, repo: repo, locks: locks, notifier: notifier, service: svc}
}

func desire(t *testing.T, svc Service, userID, brandID, paintID string, priority int) models.WishlistEntry {
	t.Helper()
	res, err := svc.SetDesired(context.Background(), SetDesiredInput{
		UserID: userID, BrandID: brandID, PaintID: paintID, Type: "buy", Priority: priority,
	})
	require.NoError(t, err)
	return res.Entry
}

// ranks returns the user's ranked paint ids in rank order.
func ranks(t *testing.T, repo *Repository, userID string) []string {
	t.Helper()
	rows, err := repo.ListRanked(context.Background(), userID)
	require.NoError(t, err)
	out := make([]string, len(rows))
	for i, r := range rows {
		require.Equal(t, i+1, r.Priority, "ranks must be dense")
		out[i] = r.PaintID
	}
	return out
}

func intPtr(v int) *int { return &v }
