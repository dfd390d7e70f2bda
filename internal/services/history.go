package services

import (
	"context"
	"fmt"

	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/auth"
	"github.com/khanhkom/engz/internal/history"
	"github.com/khanhkom/engz/internal/logging"
	"github.com/khanhkom/engz/internal/models"
)

// HistoryRemote logs lookups on the server. *api.HistoryAPI implements it.
type HistoryRemote interface {
	Log(ctx context.Context, req api.LogHistoryRequest) (*api.Response[api.HistoryEntry], error)
}

// HistoryRecorder stores lookups locally and, when signed in, reports them
// to the server without waiting for the result.
type HistoryRecorder struct {
	history *history.Store
	auth    *auth.Store
	remote  HistoryRemote
	log     logging.Logger

	// Go runs the server call; tests replace it to run synchronously.
	Go func(fn func())
}

func NewHistoryRecorder(h *history.Store, authStore *auth.Store, remote HistoryRemote, log logging.Logger) *HistoryRecorder {
	if log == nil {
		log = logging.NewNop()
	}
	return &HistoryRecorder{
		history: h,
		auth:    authStore,
		remote:  remote,
		log:     log.With("component", "history"),
		Go:      func(fn func()) { go fn() },
	}
}

// Record adds a lookup to the local history. Server logging failures are
// only logged.
func (r *HistoryRecorder) Record(ctx context.Context, word string, provider models.Source) (models.HistoryEntry, error) {
	entry, err := r.history.AddEntry(ctx, word, provider)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("add history entry: %w", err)
	}

	authed, err := r.auth.IsAuthenticated(ctx)
	if err != nil || !authed {
		return entry, nil
	}

	bg := context.WithoutCancel(ctx)
	r.Go(func() {
		if _, err := r.remote.Log(bg, api.LogHistoryRequest{Query: word, Provider: string(provider)}); err != nil {
			r.log.Debug(bg, "failed to log lookup on server", "word", word, "error", err)
		}
	})
	return entry, nil
}
