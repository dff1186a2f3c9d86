package catalog

import (
	"context"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/paintref-backend/internal/flags"
	"github.com/angelmondragon/paintref-backend/internal/ownership"
	"github.com/angelmondragon/paintref-backend/internal/projects"
	"github.com/angelmondragon/paintref-backend/internal/submissions"
	"github.com/angelmondragon/paintref-backend/internal/users"
	"github.com/angelmondragon/paintref-backend/pkg/config"
	"github.com/angelmondragon/paintref-backend/pkg/db/dbtest"
	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	"github.com/angelmondragon/paintref-backend/pkg/push"
)

type memoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemoryStore() *memoryStore { return &memoryStore{values: map[string]string{}} }

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	return nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryStore) CompareAndDelete(_ context.Context, key, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values[key] != token {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func (m *memoryStore) CacheKey(parts ...string) string {
	key := "test:cache"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

type recordingSender struct {
	mu       sync.Mutex
	messages []push.Message
}

func (s *recordingSender) SendToTokens(_ context.Context, tokens []string, msg push.Message) (push.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return push.Result{SuccessCount: len(tokens)}, nil
}

const deviceToken = "device-token-0123456789abcdef"

func TestNewWiresServicesEndToEnd(t *testing.T) {
	ctx := context.Background()
	client := dbtest.New(t)
	require.NoError(t, client.DB().Create(&models.Brand{ID: "citadel", Name: "Citadel"}).Error)
	require.NoError(t, client.DB().Create(&models.Paint{BrandID: "citadel", ID: "p1", Name: "Mephiston Red", Hex: "#9A1115"}).Error)
	userRepo := users.NewRepository(client.DB())
	_, err := userRepo.Create(ctx, users.CreateUserDTO{ID: "u1", Email: "u1@example.com"})
	require.NoError(t, err)
	require.NoError(t, userRepo.SetPushTokens(ctx, "u1", []string{deviceToken}))

	sender := &recordingSender{}
	store := newMemoryStore()
	cat, err := New(Params{
		Config: config.CatalogConfig{ReorderLockTTL: time.Second, ReorderLockBackoff: time.Millisecond},
		Push:   config.PushConfig{BatchSize: 500, SendTimeout: time.Second},
		DB:     client,
		Cache:  store,
		Sender: sender,
	})
	require.NoError(t, err)

	res, err := cat.Ownership.SetOwned(ctx, ownership.SetOwnedInput{UserID: "u1", BrandID: "citadel", PaintID: "p1", Quantity: 1})
	require.NoError(t, err)
	assert.True(t, res.Created)

	sub, err := cat.Submissions.Create(ctx, submissions.CreateSubmissionInput{UserID: strPtr("u1"), Name: "Draft"})
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionStatusPending, sub.Status)

	project, err := cat.Projects.CreateProject(ctx, projects.CreateProjectInput{UserID: "u1", Name: "Reds"})
	require.NoError(t, err)
	added, err := cat.Projects.AddItem(ctx, projects.AddItemInput{UserID: "u1", ProjectID: project.ID, Kind: models.ProjectItemPaint, RefID: "p1", BrandID: "citadel"})
	require.NoError(t, err)
	assert.True(t, added.Created)

	require.NoError(t, cat.Flags.Set(ctx, flags.GuestLogic, true))
	guest, err := cat.Flags.Enabled(ctx, flags.GuestLogic)
	require.NoError(t, err)
	assert.True(t, guest)

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, cat.Shutdown(shutdownCtx))

	sender.mu.Lock()
	defer sender.mu.Unlock()
	require.Len(t, sender.messages, 1)
	assert.Equal(t, "🎨 New Paint Added", sender.messages[0].Title)

	brands, err := cat.Brands.List(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)
	_, cached := store.values[store.CacheKey("brands", "all")]
	assert.True(t, cached)
}

func TestNewRequiresDBAndSender(t *testing.T) {
	_, err := New(Params{Sender: &recordingSender{}})
	require.Error(t, err)
	_, err = New(Params{DB: dbtest.New(t)})
	require.Error(t, err)
}

func TestNewWithoutCacheRunsUnlocked(t *testing.T) {
	cat, err := New(Params{DB: dbtest.New(t), Sender: push.NewLogSender(nil)})
	require.NoError(t, err)
	assert.NotNil(t, cat.Ownership)
	require.NoError(t, cat.Shutdown(context.Background()))
}

func strPtr(s string) *string { return &s }
