// Package notebook keeps the user's saved words together with their sync
// status. Every mutation is a read-modify-write on one storage.Store.
package notebook

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/storage"
)

// StorageKey is the area key of the notebook value.
const StorageKey = "saladict-notebook"

var ErrNotFound = errors.New("word not found")

// Store is the local notebook.
type Store struct {
	kv    *storage.Store[models.NotebookState]
	now   func() time.Time
	newID func() string
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func New(kv *storage.Store[models.NotebookState], opts ...Option) *Store {
	s := &Store{
		kv:    kv,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates the notebook store on area under StorageKey.
func Open(area storage.Area, opts ...Option) *Store {
	return New(storage.New(area, StorageKey, models.NotebookState{Words: []models.Word{}}, storage.WithLiveUpdate()), opts...)
}

func (s *Store) nowMs() int64 {
	return s.now().UnixMilli()
}

// Subscribe runs fn after every change of the notebook.
func (s *Store) Subscribe(fn func()) func() {
	return s.kv.Subscribe(fn)
}

// Close stops live updates.
func (s *Store) Close() {
	s.kv.Close()
}

func (s *Store) State(ctx context.Context) (models.NotebookState, error) {
	return s.kv.Get(ctx)
}

func (s *Store) words(ctx context.Context) ([]models.Word, error) {
	st, err := s.kv.Get(ctx)
	if err != nil {
		return nil, err
	}
	return st.Words, nil
}

// AddWord saves a new word as pending_create. It returns nil without
// writing when an active word with the same text (ignoring case) exists.
func (s *Store) AddWord(ctx context.Context, p models.WordPayload) (*models.Word, error) {
	var created *models.Word

	err := s.kv.Update(ctx, func(st models.NotebookState) (models.NotebookState, error) {
		if findActive(st.Words, p.Word) >= 0 {
			return st, storage.NoChange()
		}

		source := p.Source
		if source == "" {
			source = models.SourceGoogle
		}
		now := s.nowMs()
		w := models.Word{
			ID:            s.newID(),
			Word:          p.Word,
			Translation:   p.Translation,
			Pronunciation: p.Pronunciation,
			Definition:    p.Definition,
			Examples:      p.Examples,
			Source:        source,
			Status:        models.StatusNew,
			SavedAt:       now,
			UpdatedAt:     now,
			SyncStatus:    models.SyncStatusPendingCreate,
		}
		created = &w
		st.Words = append([]models.Word{w}, st.Words...)
		return st, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RemoveWord deletes the entry outright, whatever its status.
func (s *Store) RemoveWord(ctx context.Context, id string) error {
	return s.kv.Update(ctx, func(st models.NotebookState) (models.NotebookState, error) {
		i := indexByID(st.Words, id)
		if i < 0 {
			return st, storage.NoChange()
		}
		st.Words = append(st.Words[:i], st.Words[i+1:]...)
		return st, nil
	})
}

// SoftDelete marks the entry deleted and pending_delete.
func (s *Store) SoftDelete(ctx context.Context, id string) error {
	return s.mutate(ctx, id, func(w *models.Word, now int64) {
		w.DeletedAt = &now
		w.UpdatedAt = now
		w.SyncStatus = models.SyncStatusPendingDelete
	})
}

// UpdateStatus changes the learning status. A synced word becomes
// pending_update; pending words keep their status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	return s.mutate(ctx, id, func(w *models.Word, now int64) {
		w.Status = status
		w.UpdatedAt = now
		markUpdated(w)
	})
}

// UpdateWord applies an edit of the user fields with the same pending rules
// as UpdateStatus.
func (s *Store) UpdateWord(ctx context.Context, id string, edit models.WordEdit) error {
	return s.mutate(ctx, id, func(w *models.Word, now int64) {
		if edit.Translation != nil {
			w.Translation = *edit.Translation
		}
		if edit.Pronunciation != nil {
			w.Pronunciation = *edit.Pronunciation
		}
		if edit.Definition != nil {
			w.Definition = *edit.Definition
		}
		if edit.Examples != nil {
			w.Examples = edit.Examples
		}
		w.UpdatedAt = now
		markUpdated(w)
	})
}

// MarkSynced sets the entry to synced and, when serverID is not empty,
// records the server id.
func (s *Store) MarkSynced(ctx context.Context, id, serverID string) error {
	return s.mutate(ctx, id, func(w *models.Word, _ int64) {
		w.SyncStatus = models.SyncStatusSynced
		if serverID != "" {
			w.ServerID = serverID
		}
	})
}

// DeleteWord removes a word the server has never seen and tombstones the
// others so the deletion is pushed.
func (s *Store) DeleteWord(ctx context.Context, id string) error {
	w, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if w.ServerID == "" {
		return s.RemoveWord(ctx, id)
	}
	return s.SoftDelete(ctx, id)
}

// AddWordFromSync upserts a remote entry. The local entry is matched by
// server id first and, failing that, by word text ignoring case. A match
// keeps its local id and any pronunciation, definition or examples the
// remote entry lacks; otherwise the entry is inserted at the head.
func (s *Store) AddWordFromSync(ctx context.Context, entry models.Word) error {
	return s.kv.Update(ctx, func(st models.NotebookState) (models.NotebookState, error) {
		i := indexForSync(st.Words, entry.ServerID, entry.Word)

		if i < 0 {
			if entry.ID == "" {
				entry.ID = s.newID()
			}
			st.Words = append([]models.Word{entry}, st.Words...)
			return st, nil
		}

		existing := st.Words[i]
		entry.ID = existing.ID
		if entry.Pronunciation == "" {
			entry.Pronunciation = existing.Pronunciation
		}
		if entry.Definition == "" {
			entry.Definition = existing.Definition
		}
		if len(entry.Examples) == 0 {
			entry.Examples = existing.Examples
		}
		st.Words[i] = entry
		return st, nil
	})
}

// Import appends words whose local id is not present yet and returns how
// many were added.
func (s *Store) Import(ctx context.Context, words []models.Word) (int, error) {
	added := 0
	err := s.kv.Update(ctx, func(st models.NotebookState) (models.NotebookState, error) {
		for _, w := range words {
			if w.ID == "" || indexByID(st.Words, w.ID) >= 0 {
				continue
			}
			st.Words = append(st.Words, w)
			added++
		}
		if added == 0 {
			return st, storage.NoChange()
		}
		return st, nil
	})
	return added, err
}

// ClearAll empties the notebook.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.kv.Set(ctx, models.NotebookState{Words: []models.Word{}})
}

// Lookup finds the local counterpart of a remote entry with the same rules
// as AddWordFromSync.
func (s *Store) Lookup(ctx context.Context, serverID, text string) (*models.Word, bool, error) {
	words, err := s.words(ctx)
	if err != nil {
		return nil, false, err
	}
	i := indexForSync(words, serverID, text)
	if i < 0 {
		return nil, false, nil
	}
	return &words[i], true, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Word, error) {
	words, err := s.words(ctx)
	if err != nil {
		return nil, err
	}
	i := indexByID(words, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return &words[i], nil
}

// PendingWords returns every word whose sync status is not synced, in
// notebook order.
func (s *Store) PendingWords(ctx context.Context) ([]models.Word, error) {
	return s.filter(ctx, func(w models.Word) bool { return w.IsPending() })
}

// ActiveWords returns the words without a tombstone.
func (s *Store) ActiveWords(ctx context.Context) ([]models.Word, error) {
	return s.filter(ctx, func(w models.Word) bool { return !w.IsDeleted() })
}

// SearchWords matches query against the word and its translation, ignoring
// case, over active words.
func (s *Store) SearchWords(ctx context.Context, query string) ([]models.Word, error) {
	q := strings.ToLower(query)
	return s.filter(ctx, func(w models.Word) bool {
		if w.IsDeleted() {
			return false
		}
		return strings.Contains(strings.ToLower(w.Word), q) ||
			strings.Contains(strings.ToLower(w.Translation), q)
	})
}

// HasWord reports whether an active word equals text ignoring case.
func (s *Store) HasWord(ctx context.Context, text string) (bool, error) {
	words, err := s.words(ctx)
	if err != nil {
		return false, err
	}
	return findActive(words, text) >= 0, nil
}

func (s *Store) filter(ctx context.Context, keep func(models.Word) bool) ([]models.Word, error) {
	words, err := s.words(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Word, 0, len(words))
	for _, w := range words {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *Store) mutate(ctx context.Context, id string, fn func(w *models.Word, now int64)) error {
	return s.kv.Update(ctx, func(st models.NotebookState) (models.NotebookState, error) {
		i := indexByID(st.Words, id)
		if i < 0 {
			return st, ErrNotFound
		}
		fn(&st.Words[i], s.nowMs())
		return st, nil
	})
}

func markUpdated(w *models.Word) {
	if w.SyncStatus == models.SyncStatusSynced {
		w.SyncStatus = models.SyncStatusPendingUpdate
	}
}

func indexByID(words []models.Word, id string) int {
	for i := range words {
		if words[i].ID == id {
			return i
		}
	}
	return -1
}

func indexByServerID(words []models.Word, serverID string) int {
	for i := range words {
		if words[i].ServerID == serverID {
			return i
		}
	}
	return -1
}

// indexForSync matches by server id, then by text ignoring case.
func indexForSync(words []models.Word, serverID, text string) int {
	if serverID != "" {
		if i := indexByServerID(words, serverID); i >= 0 {
			return i
		}
	}
	for i := range words {
		if strings.EqualFold(words[i].Word, text) {
			return i
		}
	}
	return -1
}

func findActive(words []models.Word, text string) int {
	for i := range words {
		if !words[i].IsDeleted() && strings.EqualFold(words[i].Word, text) {
			return i
		}
	}
	return -1
}
