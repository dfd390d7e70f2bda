package notebook

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (*Store, *testClock) {
	t.Helper()
	clock := &testClock{t: time.UnixMilli(1_700_000_000_000)}
	n := 0
	var mu sync.Mutex
	ids := func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("local-%d", n)
	}
	kv := storage.New(storage.NewMemoryArea(), StorageKey, models.NotebookState{}, storage.WithoutPrime())
	return New(kv, WithClock(clock.Now), WithIDGenerator(ids)), clock
}

func mustAdd(t *testing.T, s *Store, word string) *models.Word {
	t.Helper()
	w, err := s.AddWord(context.Background(), models.WordPayload{Word: word, Translation: word + "-vi"})
	require.NoError(t, err)
	require.NotNil(t, w)
	return w
}

func TestAddWord_NewEntry(t *testing.T) {
	s, clock := newTestStore(t)

	w, err := s.AddWord(context.Background(), models.WordPayload{Word: "Hello", Translation: "Xin chào"})
	require.NoError(t, err)
	require.NotNil(t, w)

	assert.Equal(t, "local-1", w.ID)
	assert.Equal(t, models.StatusNew, w.Status)
	assert.Equal(t, models.SyncStatusPendingCreate, w.SyncStatus)
	assert.Equal(t, models.SourceGoogle, w.Source)
	assert.Equal(t, clock.Now().UnixMilli(), w.SavedAt)
	assert.Equal(t, w.SavedAt, w.UpdatedAt)
	assert.Empty(t, w.ServerID)

	has, err := s.HasWord(context.Background(), "hello")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestAddWord_RejectsCaseVariantDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	mustAdd(t, s, "hello")
	dup, err := s.AddWord(ctx, models.WordPayload{Word: "Hello"})
	require.NoError(t, err)
	assert.Nil(t, dup)

	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Len(t, st.Words, 1)
}

func TestAddWord_AllowsReAddAfterSoftDelete(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	first := mustAdd(t, s, "apple")
	require.NoError(t, s.SoftDelete(ctx, first.ID))

	again, err := s.AddWord(ctx, models.WordPayload{Word: "Apple"})
	require.NoError(t, err)
	require.NotNil(t, again)
	assert.NotEqual(t, first.ID, again.ID)
}

func TestAddWord_NewestFirst(t *testing.T) {
	s, _ := newTestStore(t)
	mustAdd(t, s, "one")
	mustAdd(t, s, "two")

	words, err := s.ActiveWords(context.Background())
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, "two", words[0].Word)
	assert.Equal(t, "one", words[1].Word)
}

func TestSoftDelete(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()
	w := mustAdd(t, s, "pear")
	clock.Advance(time.Minute)

	require.NoError(t, s.SoftDelete(ctx, w.ID))

	got, err := s.Get(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DeletedAt)
	assert.Equal(t, clock.Now().UnixMilli(), *got.DeletedAt)
	assert.Equal(t, clock.Now().UnixMilli(), got.UpdatedAt)
	assert.Equal(t, models.SyncStatusPendingDelete, got.SyncStatus)

	active, err := s.ActiveWords(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	require.ErrorIs(t, s.SoftDelete(ctx, "missing"), ErrNotFound)
}

func TestUpdateStatus_SyncStatusTransitions(t *testing.T) {
	tests := []struct {
		name  string
		start models.SyncStatus
		want  models.SyncStatus
	}{
		{"synced becomes pending_update", models.SyncStatusSynced, models.SyncStatusPendingUpdate},
		{"pending_create is kept", models.SyncStatusPendingCreate, models.SyncStatusPendingCreate},
		{"pending_update is kept", models.SyncStatusPendingUpdate, models.SyncStatusPendingUpdate},
		{"pending_delete is kept", models.SyncStatusPendingDelete, models.SyncStatusPendingDelete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock := newTestStore(t)
			ctx := context.Background()
			require.NoError(t, s.AddWordFromSync(ctx, models.Word{
				ID: "w1", ServerID: "srv-1", Word: "run", Status: models.StatusNew, SyncStatus: tt.start,
			}))
			clock.Advance(time.Second)

			require.NoError(t, s.UpdateStatus(ctx, "w1", models.StatusLearning))

			got, err := s.Get(ctx, "w1")
			require.NoError(t, err)
			assert.Equal(t, models.StatusLearning, got.Status)
			assert.Equal(t, tt.want, got.SyncStatus)
			assert.Equal(t, clock.Now().UnixMilli(), got.UpdatedAt)
		})
	}
}

func TestUpdateWord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	w := mustAdd(t, s, "bank")
	require.NoError(t, s.MarkSynced(ctx, w.ID, "srv-9"))

	def := "a financial institution"
	require.NoError(t, s.UpdateWord(ctx, w.ID, models.WordEdit{Definition: &def, Examples: []string{"river bank"}}))

	got, err := s.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, def, got.Definition)
	assert.Equal(t, "bank-vi", got.Translation)
	assert.Equal(t, []string{"river bank"}, got.Examples)
	assert.Equal(t, models.SyncStatusPendingUpdate, got.SyncStatus)
}

func TestMarkSynced(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	w := mustAdd(t, s, "cat")

	require.NoError(t, s.MarkSynced(ctx, w.ID, "srv-1"))
	got, err := s.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "srv-1", got.ServerID)
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)

	require.NoError(t, s.UpdateStatus(ctx, w.ID, models.StatusMastered))
	require.NoError(t, s.MarkSynced(ctx, w.ID, ""))
	got, err = s.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "srv-1", got.ServerID, "empty server id keeps the old one")
	assert.Equal(t, models.SyncStatusSynced, got.SyncStatus)

	pending, err := s.PendingWords(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRemoveWordAndDeleteWord(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	local := mustAdd(t, s, "local")
	remote := mustAdd(t, s, "remote")
	require.NoError(t, s.MarkSynced(ctx, remote.ID, "srv-2"))

	require.NoError(t, s.DeleteWord(ctx, local.ID))
	_, err := s.Get(ctx, local.ID)
	require.ErrorIs(t, err, ErrNotFound, "never-synced word is removed")

	require.NoError(t, s.DeleteWord(ctx, remote.ID))
	got, err := s.Get(ctx, remote.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusPendingDelete, got.SyncStatus)

	require.NoError(t, s.RemoveWord(ctx, remote.ID))
	require.NoError(t, s.RemoveWord(ctx, remote.ID))
	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Words)
}

func TestAddWordFromSync_UpsertByServerIDHasNoDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddWordFromSync(ctx, models.Word{
		ID: "w1", ServerID: "srv-1", Word: "dog", Translation: "chó",
		Pronunciation: "/dɒɡ/", Examples: []string{"a dog"}, SyncStatus: models.SyncStatusSynced,
	}))
	require.NoError(t, s.AddWordFromSync(ctx, models.Word{
		ID: "other", ServerID: "srv-1", Word: "Dog", Translation: "con chó", SyncStatus: models.SyncStatusSynced,
	}))

	st, err := s.State(ctx)
	require.NoError(t, err)
	require.Len(t, st.Words, 1)

	got := st.Words[0]
	assert.Equal(t, "w1", got.ID, "local id is kept")
	assert.Equal(t, "con chó", got.Translation)
	assert.Equal(t, "/dɒɡ/", got.Pronunciation)
	assert.Equal(t, []string{"a dog"}, got.Examples)
}

func TestAddWordFromSync_FallsBackToTextMatch(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	w := mustAdd(t, s, "Hello")

	require.NoError(t, s.AddWordFromSync(ctx, models.Word{
		ServerID: "srv-5", Word: "hello", Translation: "xin chào", SyncStatus: models.SyncStatusSynced,
	}))

	st, err := s.State(ctx)
	require.NoError(t, err)
	require.Len(t, st.Words, 1)
	assert.Equal(t, w.ID, st.Words[0].ID)
	assert.Equal(t, "srv-5", st.Words[0].ServerID)
}

func TestAddWordFromSync_InsertsAtHead(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, "first")

	require.NoError(t, s.AddWordFromSync(ctx, models.Word{ServerID: "srv-7", Word: "remote", SyncStatus: models.SyncStatusSynced}))

	st, err := s.State(ctx)
	require.NoError(t, err)
	require.Len(t, st.Words, 2)
	assert.Equal(t, "remote", st.Words[0].Word)
	assert.NotEmpty(t, st.Words[0].ID)
}

func TestSearchWords(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	mustAdd(t, s, "Butterfly")
	mustAdd(t, s, "butter")
	gone := mustAdd(t, s, "buttress")
	require.NoError(t, s.SoftDelete(ctx, gone.ID))

	got, err := s.SearchWords(ctx, "BUTTER")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.SearchWords(ctx, "fly-vi")
	require.NoError(t, err)
	require.Len(t, got, 1, "translation matches too")
	assert.Equal(t, "Butterfly", got[0].Word)
}

func TestImportAndClearAll(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	existing := mustAdd(t, s, "kept")

	n, err := s.Import(ctx, []models.Word{
		*existing,
		{ID: "backup-1", Word: "restored", SyncStatus: models.SyncStatusPendingCreate},
		{Word: "no id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.Import(ctx, []models.Word{*existing})
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.ClearAll(ctx))
	st, err := s.State(ctx)
	require.NoError(t, err)
	assert.Empty(t, st.Words)
}

func TestConcurrentAddsAreNotLost(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AddWord(ctx, models.WordPayload{Word: fmt.Sprintf("word-%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	words, err := s.ActiveWords(ctx)
	require.NoError(t, err)
	assert.Len(t, words, 20)
}

func TestAddWordFromSync_TextMatchIgnoresServerID(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	w := mustAdd(t, s, "cat")
	require.NoError(t, s.MarkSynced(ctx, w.ID, "srv-new"))

	got, found, err := s.Lookup(ctx, "srv-old", "Cat")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, w.ID, got.ID)

	require.NoError(t, s.AddWordFromSync(ctx, models.Word{ServerID: "srv-old", Word: "Cat", SyncStatus: models.SyncStatusSynced}))

	st, err := s.State(ctx)
	require.NoError(t, err)
	require.Len(t, st.Words, 1)
	assert.Equal(t, w.ID, st.Words[0].ID)
	assert.Equal(t, "srv-old", st.Words[0].ServerID)
	assert.Equal(t, "Cat", st.Words[0].Word)
}

func TestLookup(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	w := mustAdd(t, s, "Tree")

	got, found, err := s.Lookup(ctx, "srv-1", "tree")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, w.ID, got.ID)

	require.NoError(t, s.MarkSynced(ctx, w.ID, "srv-1"))
	got, found, err = s.Lookup(ctx, "srv-1", "renamed")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, w.ID, got.ID)
}
