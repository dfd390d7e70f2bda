package services

import (
	"context"
	"errors"
	"testing"

	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/auth"
	"github.com/khanhkom/engz/internal/history"
	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistoryRemote struct {
	logged []api.LogHistoryRequest
	err    error
}

func (f *fakeHistoryRemote) Log(_ context.Context, req api.LogHistoryRequest) (*api.Response[api.HistoryEntry], error) {
	f.logged = append(f.logged, req)
	if f.err != nil {
		return nil, f.err
	}
	return &api.Response[api.HistoryEntry]{Data: api.HistoryEntry{Query: req.Query}}, nil
}

func newRecorder(t *testing.T, authenticated bool) (*HistoryRecorder, *history.Store, *fakeHistoryRemote) {
	t.Helper()
	area := storage.NewMemoryArea()
	h := history.Open(area)
	a := auth.Open(area)
	t.Cleanup(h.Close)
	t.Cleanup(a.Close)
	if authenticated {
		require.NoError(t, a.Login(context.Background(), models.User{ID: "u1"}, "a", "r", 3600))
	}

	remote := &fakeHistoryRemote{}
	r := NewHistoryRecorder(h, a, remote, nil)
	r.Go = func(fn func()) { fn() }
	return r, h, remote
}

func TestHistoryRecorder_SignedIn(t *testing.T) {
	r, h, remote := newRecorder(t, true)
	ctx := context.Background()

	entry, err := r.Record(ctx, "hello", models.SourceGoogle)
	require.NoError(t, err)
	assert.Equal(t, "hello", entry.Word)

	entries, err := h.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, []api.LogHistoryRequest{{Query: "hello", Provider: "google"}}, remote.logged)
}

func TestHistoryRecorder_SignedOutStaysLocal(t *testing.T) {
	r, h, remote := newRecorder(t, false)
	ctx := context.Background()

	_, err := r.Record(ctx, "hello", models.SourceBing)
	require.NoError(t, err)

	entries, err := h.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, remote.logged)
}

func TestHistoryRecorder_ServerErrorIsIgnored(t *testing.T) {
	r, _, remote := newRecorder(t, true)
	remote.err = errors.New("offline")

	_, err := r.Record(context.Background(), "hello", models.SourceCambridge)
	require.NoError(t, err)
	assert.Len(t, remote.logged, 1)
}
