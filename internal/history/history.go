// Package history keeps the most recent dictionary lookups.
package history

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/storage"
)

const StorageKey = "saladict-history"

type Store struct {
	kv  *storage.Store[models.HistoryState]
	now func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(kv *storage.Store[models.HistoryState], opts ...Option) *Store {
	s := &Store{kv: kv, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func Open(area storage.Area, opts ...Option) *Store {
	fallback := models.HistoryState{Entries: []models.HistoryEntry{}, MaxEntries: models.DefaultHistoryMaxEntries}
	return New(storage.New(area, StorageKey, fallback, storage.WithLiveUpdate()), opts...)
}

func (s *Store) Close() {
	s.kv.Close()
}

// AddEntry records a lookup at the head of the history. An earlier lookup
// of the same word (ignoring case) is dropped and the list is capped at
// MaxEntries.
func (s *Store) AddEntry(ctx context.Context, word string, provider models.Source) (models.HistoryEntry, error) {
	entry := models.HistoryEntry{
		ID:        uuid.NewString(),
		Word:      word,
		Timestamp: s.now().UnixMilli(),
		Provider:  provider,
	}

	err := s.kv.Update(ctx, func(st models.HistoryState) (models.HistoryState, error) {
		max := st.MaxEntries
		if max <= 0 {
			max = models.DefaultHistoryMaxEntries
		}

		entries := make([]models.HistoryEntry, 0, len(st.Entries)+1)
		entries = append(entries, entry)
		for _, e := range st.Entries {
			if strings.EqualFold(e.Word, word) {
				continue
			}
			entries = append(entries, e)
		}
		if len(entries) > max {
			entries = entries[:max]
		}

		st.Entries = entries
		st.MaxEntries = max
		return st, nil
	})
	return entry, err
}

func (s *Store) RemoveEntry(ctx context.Context, id string) error {
	return s.kv.Update(ctx, func(st models.HistoryState) (models.HistoryState, error) {
		out := st.Entries[:0]
		for _, e := range st.Entries {
			if e.ID != id {
				out = append(out, e)
			}
		}
		if len(out) == len(st.Entries) {
			return st, storage.NoChange()
		}
		st.Entries = out
		return st, nil
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.kv.Update(ctx, func(st models.HistoryState) (models.HistoryState, error) {
		st.Entries = []models.HistoryEntry{}
		return st, nil
	})
}

// Entries returns the history, newest first.
func (s *Store) Entries(ctx context.Context) ([]models.HistoryEntry, error) {
	st, err := s.kv.Get(ctx)
	if err != nil {
		return nil, err
	}
	return st.Entries, nil
}

// EntriesByDate groups the history by local calendar day (YYYY-MM-DD).
func (s *Store) EntriesByDate(ctx context.Context) (map[string][]models.HistoryEntry, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]models.HistoryEntry)
	for _, e := range entries {
		day := time.UnixMilli(e.Timestamp).Format(time.DateOnly)
		out[day] = append(out[day], e)
	}
	return out, nil
}
