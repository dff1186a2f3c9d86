package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/angelmondragon/paintref-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/paintref-backend/pkg/errors"
	"github.com/angelmondragon/paintref-backend/pkg/push"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeTokenStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	setErr  error
	updates map[string][]string
}

func newFakeTokenStore(users ...models.User) *fakeTokenStore {
	store := &fakeTokenStore{users: map[string]*models.User{}, updates: map[string][]string{}}
	for i := range users {
		u := users[i]
		store.users[u.ID] = &u
	}
	return store
}

func (f *fakeTokenStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeTokenStore) ListWithTokens(ctx context.Context) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, id := range []string{"u1", "u2", "u3"} {
		if u, ok := f.users[id]; ok && len(u.PushTokens) > 0 {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeTokenStore) SetPushTokens(ctx context.Context, id string, tokens []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.users[id].PushTokens = tokens
	f.updates[id] = tokens
	return nil
}

type recordingSender struct {
	mu      sync.Mutex
	batches [][]string
	failOn  int
}

func (s *recordingSender) SendToTokens(ctx context.Context, tokens []string, msg push.Message) (push.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]string{}, tokens...))
	if s.failOn > 0 && len(s.batches) == s.failOn {
		return push.Result{}, errors.New("topic unavailable")
	}
	var res push.Result
	for _, t := range tokens {
		if push.ValidToken(t) {
			res.SuccessCount++
		} else {
			res.FailureCount++
			res.InvalidTokens = append(res.InvalidTokens, t)
		}
	}
	return res, nil
}

func tok(seed string) string {
	return seed + strings.Repeat("x", 24)
}

func TestRegisterTokenAppendsOnce(t *testing.T) {
	store := newFakeTokenStore(models.User{ID: "u1", PushTokens: []string{tok("a")}})
	svc, err := NewService(ServiceParams{Users: store, Sender: &recordingSender{}})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.RegisterToken(ctx, "u1", tok("b")))
	require.NoError(t, svc.RegisterToken(ctx, "u1", " "+tok("b")+" "))
	assert.Equal(t, []string{tok("a"), tok("b")}, []string(store.users["u1"].PushTokens))

	err = svc.RegisterToken(ctx, "ghost", tok("c"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
	err = svc.RegisterToken(ctx, "u1", "")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestNotifyAllBatchesAndPrunesInvalidTokens(t *testing.T) {
	store := newFakeTokenStore(
		models.User{ID: "u1", PushTokens: []string{tok("a"), "bad"}},
		models.User{ID: "u2", PushTokens: []string{tok("b"), tok("a")}},
		models.User{ID: "u3", PushTokens: []string{tok("c")}},
	)
	sender := &recordingSender{}
	svc, err := NewService(ServiceParams{Users: store, Sender: sender, BatchSize: 2})
	require.NoError(t, err)

	res, err := svc.NotifyAll(context.Background(), "New paint", "Mephiston Red")
	require.NoError(t, err)
	assert.Equal(t, 3, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)

	require.Len(t, sender.batches, 2)
	assert.Equal(t, []string{tok("a"), "bad"}, sender.batches[0])
	assert.Equal(t, []string{tok("b"), tok("c")}, sender.batches[1])

	assert.Equal(t, []string{tok("a")}, store.updates["u1"])
	assert.NotContains(t, store.updates, "u2")
}

func TestNotifyAllContinuesAfterFailedBatch(t *testing.T) {
	store := newFakeTokenStore(
		models.User{ID: "u1", PushTokens: []string{tok("a")}},
		models.User{ID: "u2", PushTokens: []string{tok("b")}},
	)
	sender := &recordingSender{failOn: 1}
	svc, err := NewService(ServiceParams{Users: store, Sender: sender, BatchSize: 1})
	require.NoError(t, err)

	res, err := svc.NotifyAll(context.Background(), "t", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	assert.Len(t, sender.batches, 2)
}

func TestNotifyUserTargetsOneUser(t *testing.T) {
	store := newFakeTokenStore(
		models.User{ID: "u1", PushTokens: []string{tok("a")}},
		models.User{ID: "u2", PushTokens: []string{tok("b")}},
	)
	sender := &recordingSender{}
	svc, err := NewService(ServiceParams{Users: store, Sender: sender})
	require.NoError(t, err)

	res, err := svc.NotifyUser(context.Background(), "u2", "t", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, res.SuccessCount)
	require.Len(t, sender.batches, 1)
	assert.Equal(t, []string{tok("b")}, sender.batches[0])

	_, err = svc.NotifyUser(context.Background(), "ghost", "t", "b")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestPruneFailureIsSwallowed(t *testing.T) {
	store := newFakeTokenStore(models.User{ID: "u1", PushTokens: []string{"bad"}})
	store.setErr = errors.New("db down")
	svc, err := NewService(ServiceParams{Users: store, Sender: &recordingSender{}})
	require.NoError(t, err)

	res, err := svc.NotifyAll(context.Background(), "t", "b")
	require.NoError(t, err)
	assert.Equal(t, 1, res.FailureCount)
}

func TestDispatcherRunsInBackground(t *testing.T) {
	store := newFakeTokenStore(
		models.User{ID: "u1", PushTokens: []string{tok("a")}},
		models.User{ID: "u2", PushTokens: []string{tok("b")}},
	)
	sender := &recordingSender{}
	svc, err := NewService(ServiceParams{Users: store, Sender: sender})
	require.NoError(t, err)

	d := NewDispatcher(svc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	d.PaintAdded(ctx, "u1")
	d.SubmissionFinalized(ctx, "u2", "70.950", "vallejo", "#000000", false)
	cancel()
	d.Wait()

	require.Len(t, sender.batches, 2)
	assert.ElementsMatch(t, [][]string{{tok("a"), tok("b")}, {tok("b")}}, sender.batches)

	var nilDispatcher *Dispatcher
	nilDispatcher.PaintAdded(context.Background(), "u1")
}
