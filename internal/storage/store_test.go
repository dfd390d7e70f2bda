package storage

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	N     int      `json:"n"`
	Items []string `json:"items"`
}

type failingArea struct {
	*MemoryArea
	getErr error
	setErr error
}

func (f *failingArea) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.MemoryArea.Get(ctx, key)
}

func (f *failingArea) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryArea.Set(ctx, key, value)
}

func TestStore_GetReturnsFallbackWhenAbsent(t *testing.T) {
	s := New(NewMemoryArea(), "k", counter{N: 7}, WithoutPrime())

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, counter{N: 7}, v)
}

func TestStore_GetTreatsNullAsFallback(t *testing.T) {
	area := NewMemoryArea()
	require.NoError(t, area.Set(context.Background(), "k", []byte("null")))

	s := New(area, "k", counter{N: 1}, WithoutPrime())
	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v.N)
}

func TestStore_FallbackIsNotShared(t *testing.T) {
	s := New(NewMemoryArea(), "k", counter{Items: []string{"a"}}, WithoutPrime())

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	v.Items[0] = "mutated"

	again, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Items)
}

func TestStore_UpdatePersistsAndNotifies(t *testing.T) {
	area := NewMemoryArea()
	s := New(area, "k", counter{}, WithoutPrime())

	var calls atomic.Int32
	unsubscribe := s.Subscribe(func() { calls.Add(1) })

	require.NoError(t, s.Update(context.Background(), func(prev counter) (counter, error) {
		prev.N++
		return prev, nil
	}))
	require.NoError(t, s.Set(context.Background(), counter{N: 10}))

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, v.N)
	assert.EqualValues(t, 2, calls.Load())

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 10, snap.N)

	unsubscribe()
	require.NoError(t, s.Set(context.Background(), counter{N: 11}))
	assert.EqualValues(t, 2, calls.Load())
}

func TestStore_UpdateErrorsLeaveValueUntouched(t *testing.T) {
	s := New(NewMemoryArea(), "k", counter{N: 1}, WithoutPrime())
	boom := errors.New("boom")

	err := s.Update(context.Background(), func(prev counter) (counter, error) {
		return counter{N: 99}, boom
	})
	require.ErrorIs(t, err, boom)

	err = s.Update(context.Background(), func(prev counter) (counter, error) {
		return prev, NoChange()
	})
	require.NoError(t, err)

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v.N)
}

func TestStore_ConcurrentUpdatesAreSerialized(t *testing.T) {
	s := New(NewMemoryArea(), "k", counter{}, WithoutPrime())

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Update(context.Background(), func(prev counter) (counter, error) {
				prev.N++
				return prev, nil
			}))
		}()
	}
	wg.Wait()

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, n, v.N)
}

func TestStore_PrimeLoadsAndFiresListeners(t *testing.T) {
	area := NewMemoryArea()
	require.NoError(t, area.Set(context.Background(), "k", []byte(`{"n":3}`)))

	s := New(area, "k", counter{})
	<-s.Ready()

	v, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 3, v.N)
}

func TestStore_LiveUpdateFollowsOtherStores(t *testing.T) {
	area := NewMemoryArea()
	a := New(area, "k", counter{}, WithoutPrime())
	b := New(area, "k", counter{}, WithoutPrime(), WithLiveUpdate())
	t.Cleanup(b.Close)

	changed := make(chan struct{}, 4)
	b.Subscribe(func() { changed <- struct{}{} })

	require.NoError(t, a.Set(context.Background(), counter{N: 5}))

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("live update not delivered")
	}
	v, ok := b.Snapshot()
	require.True(t, ok)
	assert.Equal(t, 5, v.N)

	require.NoError(t, area.Delete(context.Background(), "k"))
	<-changed
	v, _ = b.Snapshot()
	assert.Equal(t, 0, v.N)
}

func TestStore_LiveUpdateSkipsOwnWrites(t *testing.T) {
	s := New(NewMemoryArea(), "k", counter{}, WithoutPrime(), WithLiveUpdate())
	t.Cleanup(s.Close)

	var calls atomic.Int32
	s.Subscribe(func() { calls.Add(1) })

	require.NoError(t, s.Set(context.Background(), counter{N: 1}))
	assert.EqualValues(t, 1, calls.Load())
}

func TestStore_InvalidatedContext(t *testing.T) {
	area := NewMemoryArea()
	s := New(area, "k", counter{}, WithoutPrime())
	require.NoError(t, s.Set(context.Background(), counter{N: 4}))
	require.NoError(t, area.Close())

	v, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, v.N, "cached value is returned")

	require.NoError(t, s.Set(context.Background(), counter{N: 5}), "write is skipped")
	snap, _ := s.Snapshot()
	assert.Equal(t, 4, snap.N)
}

func TestStore_AreaErrorsAreReturned(t *testing.T) {
	boom := errors.New("disk")
	area := &failingArea{MemoryArea: NewMemoryArea(), getErr: boom}
	s := New(area, "k", counter{}, WithoutPrime())

	_, err := s.Get(context.Background())
	require.ErrorIs(t, err, boom)

	area.getErr = nil
	area.setErr = boom
	err = s.Set(context.Background(), counter{N: 2})
	require.ErrorIs(t, err, boom)

	_, ok := s.Snapshot()
	require.True(t, ok)
	snap, _ := s.Snapshot()
	assert.Equal(t, 0, snap.N, "cache rolled back")
}
