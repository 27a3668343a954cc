package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookway/stocktake/internal/domain/models"
	"github.com/bookway/stocktake/internal/session"
)

// fakeStore is an in-memory session.Store that records calls and lets tests
// inject failures.
type fakeStore struct {
	mu          sync.Mutex
	sessions    map[string]models.SessionData
	updateErr   error
	subscribers map[int]func([]models.ProductRecord)
	nextSub     int
	disposed    int
	closed      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions:    make(map[string]models.SessionData),
		subscribers: make(map[int]func([]models.ProductRecord)),
	}
}

func (f *fakeStore) CreateSession(_ context.Context, id string, data models.SessionData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = data
	return nil
}

func (f *fakeStore) JoinSession(_ context.Context, id string) (models.SessionData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.sessions[id]
	if !ok {
		return models.SessionData{}, session.ErrSessionNotFound
	}
	return data, nil
}

func (f *fakeStore) UpdateSession(_ context.Context, id string, products []models.ProductRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	data, ok := f.sessions[id]
	if !ok {
		return session.ErrSessionNotFound
	}
	data.Products = products
	f.sessions[id] = data
	return nil
}

func (f *fakeStore) Subscribe(_ context.Context, _ string, fn func([]models.ProductRecord)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextSub
	f.nextSub++
	f.subscribers[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subscribers[id]; ok {
			f.disposed++
			delete(f.subscribers, id)
		}
	}, nil
}

func (f *fakeStore) Close(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStore) deliver(products []models.ProductRecord) {
	f.mu.Lock()
	fns := make([]func([]models.ProductRecord), 0, len(f.subscribers))
	for _, fn := range f.subscribers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(products)
	}
}

func testSession(id string) models.SessionData {
	return models.SessionData{
		SessionID: id,
		FileName:  "stoc.xlsx",
		Products: []models.ProductRecord{
			{ID: "CF280A_0", Code: "CF280A", Description: "CF280A - Toner", ScripticStock: 5},
		},
		CreatedAt:   time.Now().UnixMilli(),
		LastUpdated: time.Now().UnixMilli(),
	}
}

func TestClientCreateAndJoin(t *testing.T) {
	store := newFakeStore()
	client := New(store, nil)

	require.NoError(t, client.Create(context.Background(), testSession("123456")))

	got, err := client.Join(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, "123456", got.SessionID)
	assert.Len(t, got.Products, 1)

	_, err = client.Join(context.Background(), "000000")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestClientPushReportsOutcome(t *testing.T) {
	store := newFakeStore()
	client := New(store, nil)
	require.NoError(t, client.Create(context.Background(), testSession("123456")))

	updated := []models.ProductRecord{
		{ID: "CF280A_0", Code: "CF280A", Description: "CF280A - Toner", ScripticStock: 5, ActualStock: 3},
	}
	client.Push("123456", updated)

	select {
	case result := <-client.Results():
		require.NoError(t, result.Err)
		assert.Equal(t, "123456", result.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("no push result delivered")
	}

	got, err := client.Join(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Products[0].ActualStock)
}

func TestClientPushFailureIsObservableNotFatal(t *testing.T) {
	store := newFakeStore()
	store.updateErr = errors.New("backend down")
	client := New(store, nil)
	require.NoError(t, client.Create(context.Background(), testSession("123456")))

	client.Push("123456", nil)

	select {
	case result := <-client.Results():
		assert.ErrorContains(t, result.Err, "backend down")
	case <-time.After(2 * time.Second):
		t.Fatal("no push result delivered")
	}
}

func TestClientWatchReplacesPreviousSubscription(t *testing.T) {
	store := newFakeStore()
	client := New(store, nil)

	var first, second []models.ProductRecord
	require.NoError(t, client.Watch(context.Background(), "123456", func(p []models.ProductRecord) { first = p }))
	require.NoError(t, client.Watch(context.Background(), "123456", func(p []models.ProductRecord) { second = p }))

	assert.Equal(t, 1, store.disposed)

	store.deliver([]models.ProductRecord{{ID: "X_1"}})
	assert.Nil(t, first)
	require.Len(t, second, 1)
	assert.Equal(t, "X_1", second[0].ID)
}

func TestClientLeaveIsIdempotent(t *testing.T) {
	store := newFakeStore()
	client := New(store, nil)
	require.NoError(t, client.Watch(context.Background(), "123456", func([]models.ProductRecord) {}))

	client.Leave()
	client.Leave()
	assert.Equal(t, 1, store.disposed)

	store.deliver([]models.ProductRecord{{ID: "X_1"}})
}

func TestClientCloseTearsDownStore(t *testing.T) {
	store := newFakeStore()
	client := New(store, nil)
	require.NoError(t, client.Watch(context.Background(), "123456", func([]models.ProductRecord) {}))

	require.NoError(t, client.Close(context.Background()))
	assert.Equal(t, 1, store.disposed)
	assert.True(t, store.closed)
}
