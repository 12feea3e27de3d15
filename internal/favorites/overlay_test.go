package favorites

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/abgdnv/webstore/internal/catalog"
	"github.com/abgdnv/webstore/internal/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Put(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func TestOverlay_ToggleIsIdempotentInPairs(t *testing.T) {
	// given
	ctx := context.Background()
	o := NewOverlay(ctx, kv.NewMemory(), kv.Anonymous, testLogger)

	// when
	on, err := o.Toggle(ctx, 5)
	require.NoError(t, err)
	off, err := o.Toggle(ctx, 5)
	require.NoError(t, err)

	// then
	assert.True(t, on)
	assert.False(t, off)
	assert.False(t, o.IsFavorite(5))
	assert.Zero(t, o.Count())
}

func TestOverlay_PersistsSortedJSONUnderIdentityKey(t *testing.T) {
	// given
	ctx := context.Background()
	store := kv.NewMemory()
	o := NewOverlay(ctx, store, kv.UserIdentity("42"), testLogger)

	// when
	for _, id := range []int64{9, 2, 5} {
		_, err := o.Toggle(ctx, id)
		require.NoError(t, err)
	}

	// then
	data, err := store.Get(ctx, "studyzone_favorites_user_42")
	require.NoError(t, err)
	assert.JSONEq(t, "[2,5,9]", string(data))
	_, err = store.Get(ctx, "studyzone_favorites")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestOverlay_LoadsPersistedSet(t *testing.T) {
	// given
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Put(ctx, "studyzone_favorites", []byte("[3,1]")))

	// when
	o := NewOverlay(ctx, store, kv.Anonymous, testLogger)

	// then
	assert.Equal(t, catalog.NewIDSet(1, 3), o.Current())
	assert.True(t, o.IsFavorite(3))
	assert.Equal(t, 2, o.Count())
}

func TestOverlay_SwitchContextIsolatesSets(t *testing.T) {
	// given
	ctx := context.Background()
	store := kv.NewMemory()
	o := NewOverlay(ctx, store, kv.Anonymous, testLogger)
	_, err := o.Toggle(ctx, 1)
	require.NoError(t, err)

	// when
	o.SwitchContext(ctx, kv.UserIdentity("7"))
	_, err = o.Toggle(ctx, 2)
	require.NoError(t, err)

	// then
	assert.Equal(t, kv.UserIdentity("7"), o.Identity())
	assert.Equal(t, catalog.NewIDSet(2), o.Current(), "anonymous favorites must not be merged")

	o.SwitchContext(ctx, kv.Anonymous)
	assert.Equal(t, catalog.NewIDSet(1), o.Current())
}

func TestOverlay_CurrentIsASnapshot(t *testing.T) {
	ctx := context.Background()
	o := NewOverlay(ctx, kv.NewMemory(), kv.Anonymous, testLogger)
	_, err := o.Toggle(ctx, 1)
	require.NoError(t, err)

	snapshot := o.Current()
	delete(snapshot, 1)

	assert.True(t, o.IsFavorite(1))
}

func TestOverlay_UnreadableStorageStartsEmpty(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(m *mockStore)
	}{
		{
			name: "corrupt json",
			setup: func(m *mockStore) {
				m.On("Get", mock.Anything, "studyzone_favorites").Return([]byte("{not json"), nil)
			},
		},
		{
			name: "wrong shape",
			setup: func(m *mockStore) {
				m.On("Get", mock.Anything, "studyzone_favorites").Return([]byte(`{"ids":[1]}`), nil)
			},
		},
		{
			name: "read error",
			setup: func(m *mockStore) {
				m.On("Get", mock.Anything, "studyzone_favorites").Return(nil, errors.New("disk on fire"))
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			store := &mockStore{}
			tc.setup(store)

			// when
			o := NewOverlay(context.Background(), store, kv.Anonymous, testLogger)

			// then
			assert.Empty(t, o.Current())
			store.AssertExpectations(t)
		})
	}
}

func TestOverlay_ToggleSaveFailureKeepsState(t *testing.T) {
	// given
	ctx := context.Background()
	store := &mockStore{}
	store.On("Get", mock.Anything, "studyzone_favorites").Return([]byte("[1]"), nil)
	store.On("Put", mock.Anything, "studyzone_favorites", mock.Anything).Return(errors.New("read-only"))
	o := NewOverlay(ctx, store, kv.Anonymous, testLogger)

	// when
	state, err := o.Toggle(ctx, 1)

	// then
	require.Error(t, err)
	assert.True(t, state, "membership is reported unchanged")
	assert.True(t, o.IsFavorite(1))
	store.AssertExpectations(t)
}

func TestOverlay_ToggleAfterReadErrorKeepsStoredSet(t *testing.T) {
	t.Run("store still unreadable", func(t *testing.T) {
		// given
		ctx := context.Background()
		store := &mockStore{}
		store.On("Get", mock.Anything, "studyzone_favorites_user_8").Return(nil, errors.New("timeout"))
		o := NewOverlay(ctx, store, kv.UserIdentity("8"), testLogger)
		require.True(t, o.Stale())

		// when
		_, err := o.Toggle(ctx, 5)

		// then
		require.Error(t, err)
		assert.True(t, o.Stale())
		assert.Empty(t, o.Current())
		store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store recovered", func(t *testing.T) {
		// given
		ctx := context.Background()
		store := &mockStore{}
		store.On("Get", mock.Anything, "studyzone_favorites_user_8").Return(nil, errors.New("timeout")).Once()
		store.On("Get", mock.Anything, "studyzone_favorites_user_8").Return([]byte("[3,4]"), nil).Once()
		store.On("Put", mock.Anything, "studyzone_favorites_user_8", []byte("[3,4,5]")).Return(nil)
		o := NewOverlay(ctx, store, kv.UserIdentity("8"), testLogger)

		// when
		state, err := o.Toggle(ctx, 5)

		// then
		require.NoError(t, err)
		assert.True(t, state)
		assert.False(t, o.Stale())
		assert.Equal(t, catalog.NewIDSet(3, 4, 5), o.Current())
		store.AssertExpectations(t)
	})
}

func TestOverlay_CorruptDataIsNotStale(t *testing.T) {
	store := &mockStore{}
	store.On("Get", mock.Anything, "studyzone_favorites").Return([]byte("{not json"), nil)

	o := NewOverlay(context.Background(), store, kv.Anonymous, testLogger)

	assert.False(t, o.Stale())
	assert.Empty(t, o.Current())
}

func TestOverlay_Clear(t *testing.T) {
	// given
	ctx := context.Background()
	store := kv.NewMemory()
	o := NewOverlay(ctx, store, kv.UserIdentity("3"), testLogger)
	_, err := o.Toggle(ctx, 10)
	require.NoError(t, err)

	// when
	err = o.Clear(ctx)

	// then
	require.NoError(t, err)
	assert.Zero(t, o.Count())
	_, err = store.Get(ctx, "studyzone_favorites_user_3")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestRegistry_KeepsIdentitiesApart(t *testing.T) {
	// given: a single slot forces every identity through the same overlay
	ctx := context.Background()
	r := NewRegistry(kv.NewMemory(), 1, testLogger)
	alice, bob := kv.UserIdentity("alice"), kv.UserIdentity("bob")

	// when
	require.NoError(t, r.With(ctx, alice, func(o *Overlay) error {
		_, err := o.Toggle(ctx, 1)
		return err
	}))
	require.NoError(t, r.With(ctx, bob, func(o *Overlay) error {
		_, err := o.Toggle(ctx, 2)
		return err
	}))

	// then
	var aliceSet, bobSet catalog.IDSet
	require.NoError(t, r.With(ctx, alice, func(o *Overlay) error {
		aliceSet = o.Current()
		return nil
	}))
	require.NoError(t, r.With(ctx, bob, func(o *Overlay) error {
		bobSet = o.Current()
		return nil
	}))
	assert.Equal(t, catalog.NewIDSet(1), aliceSet)
	assert.Equal(t, catalog.NewIDSet(2), bobSet)
}

func TestRegistry_PropagatesError(t *testing.T) {
	r := NewRegistry(kv.NewMemory(), 0, testLogger)
	boom := errors.New("boom")

	err := r.With(context.Background(), kv.Anonymous, func(*Overlay) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.Len(t, r.slots, DefaultSlots)
}

func TestRegistry_ReloadsStaleOverlay(t *testing.T) {
	// given
	ctx := context.Background()
	store := &mockStore{}
	store.On("Get", mock.Anything, "studyzone_favorites_user_alice").Return(nil, errors.New("timeout")).Once()
	store.On("Get", mock.Anything, "studyzone_favorites_user_alice").Return([]byte("[7]"), nil).Once()
	r := NewRegistry(store, 1, testLogger)
	alice := kv.UserIdentity("alice")

	var first, second catalog.IDSet
	require.NoError(t, r.With(ctx, alice, func(o *Overlay) error {
		first = o.Current()
		return nil
	}))

	// when
	require.NoError(t, r.With(ctx, alice, func(o *Overlay) error {
		second = o.Current()
		return nil
	}))

	// then
	assert.Empty(t, first)
	assert.Equal(t, catalog.NewIDSet(7), second)
	store.AssertExpectations(t)
}
