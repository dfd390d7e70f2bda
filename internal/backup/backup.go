// Package backup stores snapshots of the local notebook in an object store
// and restores them.
package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/khanhkom/engz/internal/logging"
	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/notebook"
	"github.com/segmentio/encoding/json"
)

const snapshotVersion = 1

var ErrNotFound = errors.New("backup not found")

// ObjectStore keeps opaque blobs by key. Get returns ErrNotFound for a
// missing key.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Snapshot is the stored form of a notebook.
type Snapshot struct {
	Version   int           `json:"version"`
	CreatedAt string        `json:"createdAt"`
	Words     []models.Word `json:"words"`
}

type Service struct {
	store    ObjectStore
	notebook *notebook.Store
	log      logging.Logger
	now      func() time.Time
}

func NewService(store ObjectStore, nb *notebook.Store, log logging.Logger) *Service {
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{store: store, notebook: nb, log: log.With("component", "backup"), now: time.Now}
}

// ObjectKey is where the snapshot of userID lives.
func ObjectKey(userID string) string {
	if userID == "" {
		userID = "anonymous"
	}
	return "notebooks/" + userID + "/notebook.json"
}

// Push uploads the whole notebook, tombstones and pending words included,
// and returns the number of words written.
func (s *Service) Push(ctx context.Context, userID string) (int, error) {
	st, err := s.notebook.State(ctx)
	if err != nil {
		return 0, err
	}

	snap := Snapshot{
		Version:   snapshotVersion,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
		Words:     st.Words,
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}

	key := ObjectKey(userID)
	if err := s.store.Put(ctx, key, body); err != nil {
		return 0, fmt.Errorf("upload snapshot: %w", err)
	}

	s.log.Info(ctx, "notebook backed up", "key", key, "words", len(snap.Words))
	return len(snap.Words), nil
}

// Pull downloads the snapshot and imports the words whose local id is not
// in the notebook yet. It returns how many were added.
func (s *Service) Pull(ctx context.Context, userID string) (int, error) {
	key := ObjectKey(userID)
	body, err := s.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}

	var snap Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	added, err := s.notebook.Import(ctx, snap.Words)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "notebook restored", "key", key, "added", added, "created_at", snap.CreatedAt)
	return added, nil
}
