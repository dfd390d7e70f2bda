package services

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/auth"
	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/notebook"
	"github.com/khanhkom/engz/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var localNow = time.UnixMilli(1_700_000_000_000)

type fakeRemote struct {
	mu         sync.Mutex
	calls      map[string]int
	listParams []api.ListNotebookParams
	updates    map[string]api.UpdateNotebookEntryRequest
	deletes    []string

	listFn   func(p api.ListNotebookParams) (*api.PaginatedResponse[api.NotebookEntry], error)
	createFn func(req api.CreateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error)
	bulkFn   func(req api.BulkCreateNotebookRequest) (*api.Response[api.BulkCreateNotebookResponse], error)
	updateFn func(id string, req api.UpdateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error)
	deleteFn func(id string) (*api.Response[api.DeleteNotebookEntryResponse], error)
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		calls:   make(map[string]int),
		updates: make(map[string]api.UpdateNotebookEntryRequest),
	}
}

func (f *fakeRemote) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeRemote) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeRemote) List(_ context.Context, p api.ListNotebookParams) (*api.PaginatedResponse[api.NotebookEntry], error) {
	f.count("list")
	f.mu.Lock()
	f.listParams = append(f.listParams, p)
	f.mu.Unlock()
	if f.listFn != nil {
		return f.listFn(p)
	}
	return &api.PaginatedResponse[api.NotebookEntry]{}, nil
}

func (f *fakeRemote) Create(_ context.Context, req api.CreateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error) {
	f.count("create")
	if f.createFn != nil {
		return f.createFn(req)
	}
	return &api.Response[api.NotebookEntry]{Data: api.NotebookEntry{ID: "srv-" + req.Word, Word: req.Word}}, nil
}

func (f *fakeRemote) BulkCreate(_ context.Context, req api.BulkCreateNotebookRequest) (*api.Response[api.BulkCreateNotebookResponse], error) {
	f.count("bulk")
	if f.bulkFn != nil {
		return f.bulkFn(req)
	}
	return &api.Response[api.BulkCreateNotebookResponse]{}, nil
}

func (f *fakeRemote) Update(_ context.Context, id string, req api.UpdateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error) {
	f.count("update")
	f.mu.Lock()
	f.updates[id] = req
	f.mu.Unlock()
	if f.updateFn != nil {
		return f.updateFn(id, req)
	}
	return &api.Response[api.NotebookEntry]{Data: api.NotebookEntry{ID: id}}, nil
}

func (f *fakeRemote) Delete(_ context.Context, id string) (*api.Response[api.DeleteNotebookEntryResponse], error) {
	f.count("delete")
	f.mu.Lock()
	f.deletes = append(f.deletes, id)
	f.mu.Unlock()
	if f.deleteFn != nil {
		return f.deleteFn(id)
	}
	return &api.Response[api.DeleteNotebookEntryResponse]{Data: api.DeleteNotebookEntryResponse{ID: id}}, nil
}

func page(entries ...api.NotebookEntry) func(api.ListNotebookParams) (*api.PaginatedResponse[api.NotebookEntry], error) {
	return func(api.ListNotebookParams) (*api.PaginatedResponse[api.NotebookEntry], error) {
		return &api.PaginatedResponse[api.NotebookEntry]{Data: entries}, nil
	}
}

type syncEnv struct {
	nb     *notebook.Store
	auth   *auth.Store
	remote *fakeRemote
	sync   *NotebookSync
}

func newSyncEnv(t *testing.T, authenticated bool) *syncEnv {
	t.Helper()
	ctx := context.Background()

	area := storage.NewMemoryArea()
	nb := notebook.Open(area, notebook.WithClock(func() time.Time { return localNow }))
	a := auth.Open(area)
	t.Cleanup(nb.Close)
	t.Cleanup(a.Close)

	if authenticated {
		require.NoError(t, a.Login(ctx, models.User{ID: "u1"}, "access", "refresh", 3600))
	}

	remote := newFakeRemote()
	s := NewNotebookSync(nb, a, remote, nil)
	s.now = func() time.Time { return localNow }
	return &syncEnv{nb: nb, auth: a, remote: remote, sync: s}
}

func (e *syncEnv) addSynced(t *testing.T, id, serverID, word string) {
	t.Helper()
	require.NoError(t, e.nb.AddWordFromSync(context.Background(), models.Word{
		ID: id, ServerID: serverID, Word: word, Translation: word + "-vi",
		Status: models.StatusNew, Source: models.SourceGoogle,
		SavedAt: localNow.UnixMilli(), UpdatedAt: localNow.UnixMilli(),
		SyncStatus: models.SyncStatusSynced,
	}))
}

func (e *syncEnv) words(t *testing.T) []models.Word {
	t.Helper()
	st, err := e.nb.State(context.Background())
	require.NoError(t, err)
	return st.Words
}

func TestSync_PushesNewWord(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	env.remote.createFn = func(req api.CreateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error) {
		assert.Equal(t, "Hello", req.Word)
		assert.Equal(t, "xin chào", req.Translation)
		assert.Equal(t, "google", req.Source)
		assert.Equal(t, "new", req.Status)
		return &api.Response[api.NotebookEntry]{Data: api.NotebookEntry{ID: "srv-1", Word: req.Word}}, nil
	}

	_, err := env.nb.AddWord(ctx, models.WordPayload{Word: "Hello", Translation: "xin chào"})
	require.NoError(t, err)

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Pushed: 1}, stats)

	words := env.words(t)
	require.Len(t, words, 1)
	assert.Equal(t, "srv-1", words[0].ServerID)
	assert.Equal(t, models.SyncStatusSynced, words[0].SyncStatus)

	last, ok, err := env.auth.LastSyncAt(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", last)
}

func TestSync_RemoteDeleteRemovesLocalWord(t *testing.T) {
	env := newSyncEnv(t, true)
	env.addSynced(t, "w1", "srv-1", "Hello")

	deletedAt := localNow.Add(time.Hour)
	env.remote.listFn = page(api.NotebookEntry{
		ID: "srv-1", Word: "Hello", UpdatedAt: deletedAt, DeletedAt: &deletedAt,
	})

	stats, err := env.sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Deleted: 1}, stats)
	assert.Empty(t, env.words(t))
}

func TestSync_SkipsWhileAnotherSyncRuns(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	env.remote.listFn = func(api.ListNotebookParams) (*api.PaginatedResponse[api.NotebookEntry], error) {
		once.Do(func() { close(started) })
		<-release
		return &api.PaginatedResponse[api.NotebookEntry]{}, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := env.sync.Sync(ctx)
		done <- err
	}()

	<-started
	assert.True(t, env.sync.Syncing())

	_, err := env.nb.AddWord(ctx, models.WordPayload{Word: "late"})
	require.NoError(t, err)

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{}, stats)
	assert.Equal(t, 1, env.remote.total())

	close(release)
	require.NoError(t, <-done)
	assert.False(t, env.sync.Syncing())
}

func TestSync_NotAuthenticated(t *testing.T) {
	env := newSyncEnv(t, false)
	ctx := context.Background()

	_, err := env.nb.AddWord(ctx, models.WordPayload{Word: "hello"})
	require.NoError(t, err)

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{}, stats)
	assert.Zero(t, env.remote.total())
	assert.False(t, env.sync.Syncing())
}

func TestSync_UpdateOfMissingRemoteEntryRemovesWord(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()
	env.addSynced(t, "w1", "srv-1", "run")
	require.NoError(t, env.nb.UpdateStatus(ctx, "w1", models.StatusLearning))

	env.remote.updateFn = func(string, api.UpdateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error) {
		return nil, &api.Error{StatusCode: http.StatusNotFound, Message: "not found"}
	}

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Errors: 1}, stats)
	assert.Empty(t, env.words(t))
}

func TestSync_ConflictOnCreateMarksSynced(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	env.remote.createFn = func(api.CreateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error) {
		return nil, &api.Error{StatusCode: http.StatusConflict, Message: "exists"}
	}
	w, err := env.nb.AddWord(ctx, models.WordPayload{Word: "tree"})
	require.NoError(t, err)

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Errors: 1}, stats)

	got, err := env.nb.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)
	assert.Empty(t, got.ServerID)

	stats, err = env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{}, stats)
	assert.Equal(t, 1, env.remote.Calls("create"))
}

func TestSync_OtherPushErrorsKeepWordPending(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	env.remote.createFn = func(req api.CreateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error) {
		if req.Word == "bad" {
			return nil, &api.Error{StatusCode: http.StatusInternalServerError, Message: "boom"}
		}
		return &api.Response[api.NotebookEntry]{Data: api.NotebookEntry{ID: "srv-" + req.Word}}, nil
	}
	good, err := env.nb.AddWord(ctx, models.WordPayload{Word: "good"})
	require.NoError(t, err)
	bad, err := env.nb.AddWord(ctx, models.WordPayload{Word: "bad"})
	require.NoError(t, err)

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Pushed: 1, Errors: 1}, stats)

	got, err := env.nb.Get(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPendingCreate, got.SyncStatus)

	got, err = env.nb.Get(ctx, good.ID)
	require.NoError(t, err)
	assert.Equal(t, "srv-good", got.ServerID)
}

func TestSync_PushesInNotebookOrder(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	var order []string
	env.remote.createFn = func(req api.CreateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error) {
		order = append(order, req.Word)
		return &api.Response[api.NotebookEntry]{Data: api.NotebookEntry{ID: "srv-" + req.Word}}, nil
	}
	for _, w := range []string{"one", "two", "three"} {
		_, err := env.nb.AddWord(ctx, models.WordPayload{Word: w})
		require.NoError(t, err)
	}

	_, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	// new words are prepended
	assert.Equal(t, []string{"three", "two", "one"}, order)
}

func TestSync_PushesUpdatesAndDeletes(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	env.addSynced(t, "w1", "srv-1", "run")
	env.addSynced(t, "w2", "srv-2", "walk")
	require.NoError(t, env.nb.UpdateStatus(ctx, "w1", models.StatusMastered))
	require.NoError(t, env.nb.DeleteWord(ctx, "w2"))

	local, err := env.nb.AddWord(ctx, models.WordPayload{Word: "draft"})
	require.NoError(t, err)
	require.NoError(t, env.nb.SoftDelete(ctx, local.ID))

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Pushed: 3}, stats)

	assert.Equal(t, api.UpdateNotebookEntryRequest{Translation: "run-vi", Status: "mastered"}, env.remote.updates["srv-1"])
	assert.Equal(t, []string{"srv-2"}, env.remote.deletes)
	assert.Zero(t, env.remote.Calls("create"))

	words := env.words(t)
	require.Len(t, words, 1)
	assert.Equal(t, "w1", words[0].ID)
	assert.Equal(t, models.SyncStatusSynced, words[0].SyncStatus)
}

func TestSync_PullNeverOverwritesPendingWord(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()
	env.addSynced(t, "w1", "srv-1", "run")
	require.NoError(t, env.nb.UpdateStatus(ctx, "w1", models.StatusLearning))

	env.remote.updateFn = func(string, api.UpdateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error) {
		return nil, &api.Error{StatusCode: http.StatusBadGateway, Message: "down"}
	}
	env.remote.listFn = page(api.NotebookEntry{
		ID: "srv-1", Word: "run", Translation: "remote", Status: "mastered",
		UpdatedAt: localNow.Add(24 * time.Hour),
	})

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Errors: 1}, stats)

	got, err := env.nb.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "run-vi", got.Translation)
	assert.Equal(t, models.StatusLearning, got.Status)
	assert.Equal(t, models.SyncStatusPendingUpdate, got.SyncStatus)
}

func TestSync_PullAppliesOnlyNewerRemoteVersions(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	env.addSynced(t, "w1", "srv-1", "newer")
	env.addSynced(t, "w2", "srv-2", "same")
	pron := "/ˈnjuːə/"
	require.NoError(t, env.nb.UpdateWord(ctx, "w1", models.WordEdit{Pronunciation: &pron}))
	require.NoError(t, env.nb.MarkSynced(ctx, "w1", ""))

	created := localNow.Add(-time.Hour)
	env.remote.listFn = page(
		api.NotebookEntry{ID: "srv-1", Word: "newer", Translation: "mới hơn", Status: "LEARNING", Source: "bing",
			CreatedAt: created, UpdatedAt: localNow.Add(time.Millisecond)},
		api.NotebookEntry{ID: "srv-2", Word: "same", Translation: "ignored", UpdatedAt: localNow},
	)

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Pulled: 1}, stats)

	got, err := env.nb.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "mới hơn", got.Translation)
	assert.Equal(t, models.StatusLearning, got.Status)
	assert.Equal(t, models.SourceBing, got.Source)
	assert.Equal(t, pron, got.Pronunciation)
	assert.Equal(t, created.UnixMilli(), got.SavedAt)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)

	got, err = env.nb.Get(ctx, "w2")
	require.NoError(t, err)
	assert.Equal(t, "same-vi", got.Translation)
}

func TestSync_PullInsertsNewRemoteWords(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()
	env.addSynced(t, "w1", "srv-1", "old")

	gone := localNow
	env.remote.listFn = page(
		api.NotebookEntry{ID: "srv-9", Word: "fresh", Translation: "tươi", Status: "new", UpdatedAt: localNow},
		api.NotebookEntry{ID: "srv-8", Word: "ghost", UpdatedAt: localNow, DeletedAt: &gone},
	)

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Pulled: 1}, stats)

	words := env.words(t)
	require.Len(t, words, 2)
	assert.Equal(t, "fresh", words[0].Word)
	assert.Equal(t, "srv-9", words[0].ServerID)
	assert.NotEmpty(t, words[0].ID)
	assert.Equal(t, models.SyncStatusSynced, words[0].SyncStatus)
}

func TestSync_PullMatchesByTextWhenServerIDUnknown(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	env.remote.createFn = func(api.CreateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error) {
		return nil, &api.Error{StatusCode: http.StatusConflict}
	}
	w, err := env.nb.AddWord(ctx, models.WordPayload{Word: "Apple"})
	require.NoError(t, err)

	env.remote.listFn = page(api.NotebookEntry{ID: "srv-apple", Word: "apple", Translation: "táo", UpdatedAt: localNow.Add(time.Second)})

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Pulled: 1, Errors: 1}, stats)

	words := env.words(t)
	require.Len(t, words, 1)
	assert.Equal(t, w.ID, words[0].ID)
	assert.Equal(t, "srv-apple", words[0].ServerID)
	assert.Equal(t, "táo", words[0].Translation)
}

func TestSync_PullMatchesByTextAcrossServerIDs(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()
	env.addSynced(t, "w1", "srv-1", "Hello")

	env.remote.listFn = page(api.NotebookEntry{ID: "srv-2", Word: "hello", Translation: "xin chào", UpdatedAt: localNow.Add(time.Second)})

	stats, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Pulled: 1}, stats)

	words := env.words(t)
	require.Len(t, words, 1)
	assert.Equal(t, "w1", words[0].ID)
	assert.Equal(t, "srv-2", words[0].ServerID)
	assert.Equal(t, "hello", words[0].Word)
	assert.Equal(t, "xin chào", words[0].Translation)
}

func TestSync_PullRequestParameters(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	_, err := env.sync.Sync(ctx)
	require.NoError(t, err)
	_, err = env.sync.Sync(ctx)
	require.NoError(t, err)

	require.Len(t, env.remote.listParams, 2)
	assert.Equal(t, api.ListNotebookParams{PerPage: 100, IncludeDeleted: true}, env.remote.listParams[0])
	assert.Equal(t, api.ListNotebookParams{PerPage: 100, IncludeDeleted: true, Since: "2023-11-14T22:13:20.000Z"}, env.remote.listParams[1])
}

func TestSync_PullFailureIsReturned(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	listErr := &api.Error{StatusCode: 0, Message: "connection refused"}
	env.remote.listFn = func(api.ListNotebookParams) (*api.PaginatedResponse[api.NotebookEntry], error) {
		return nil, listErr
	}
	_, err := env.nb.AddWord(ctx, models.WordPayload{Word: "hello"})
	require.NoError(t, err)

	stats, err := env.sync.Sync(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, listErr))
	assert.True(t, api.IsNetworkError(err))
	assert.Equal(t, models.SyncStats{Pushed: 1, Errors: 1}, stats)
	assert.False(t, env.sync.Syncing())

	_, ok, err := env.auth.LastSyncAt(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSync_OnlyFirstPageIsApplied(t *testing.T) {
	env := newSyncEnv(t, true)
	env.remote.listFn = func(api.ListNotebookParams) (*api.PaginatedResponse[api.NotebookEntry], error) {
		next := 2
		return &api.PaginatedResponse[api.NotebookEntry]{
			Data:     []api.NotebookEntry{{ID: "srv-1", Word: "first", UpdatedAt: localNow}},
			Metadata: api.PaginatedMetadata{HasNext: true, NextPage: &next, Count: 150},
		}, nil
	}

	stats, err := env.sync.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SyncStats{Pulled: 1}, stats)
	assert.Equal(t, 1, env.remote.Calls("list"))
}

func TestBulkPush(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()

	env.addSynced(t, "w0", "srv-0", "known")
	for _, w := range []string{"alpha", "Beta", "gamma"} {
		_, err := env.nb.AddWord(ctx, models.WordPayload{Word: w})
		require.NoError(t, err)
	}

	env.remote.bulkFn = func(req api.BulkCreateNotebookRequest) (*api.Response[api.BulkCreateNotebookResponse], error) {
		var words []string
		for _, e := range req.Entries {
			words = append(words, e.Word)
		}
		assert.ElementsMatch(t, []string{"alpha", "Beta", "gamma"}, words)
		return &api.Response[api.BulkCreateNotebookResponse]{Data: api.BulkCreateNotebookResponse{
			Created: 2,
			Skipped: 1,
			Entries: []api.BulkEntryResult{
				{ID: "srv-a", Word: "alpha", Status: api.BulkStatusCreated},
				{ID: "srv-b", Word: "beta", Status: api.BulkStatusCreated},
				{ID: "srv-g", Word: "gamma", Status: api.BulkStatusSkipped},
			},
		}}, nil
	}

	res, err := env.sync.BulkPush(ctx)
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Created: 2, Skipped: 1}, res)

	byWord := map[string]models.Word{}
	for _, w := range env.words(t) {
		byWord[w.Word] = w
	}
	assert.Equal(t, "srv-a", byWord["alpha"].ServerID)
	assert.Equal(t, models.SyncStatusSynced, byWord["alpha"].SyncStatus)
	assert.Equal(t, "srv-b", byWord["Beta"].ServerID)
	assert.Empty(t, byWord["gamma"].ServerID)
	assert.Equal(t, models.SyncStatusPendingCreate, byWord["gamma"].SyncStatus)
}

func TestBulkPush_NothingToPush(t *testing.T) {
	env := newSyncEnv(t, true)
	env.addSynced(t, "w0", "srv-0", "known")

	res, err := env.sync.BulkPush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, BulkResult{}, res)
	assert.Zero(t, env.remote.Calls("bulk"))
}

func TestBulkPush_Error(t *testing.T) {
	env := newSyncEnv(t, true)
	ctx := context.Background()
	_, err := env.nb.AddWord(ctx, models.WordPayload{Word: "alpha"})
	require.NoError(t, err)

	env.remote.bulkFn = func(api.BulkCreateNotebookRequest) (*api.Response[api.BulkCreateNotebookResponse], error) {
		return nil, &api.Error{StatusCode: http.StatusServiceUnavailable}
	}

	_, err = env.sync.BulkPush(ctx)
	require.Error(t, err)
	assert.True(t, api.IsServerError(err))
}
