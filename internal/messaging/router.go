// Package messaging routes the background messages of the extension
// protocol (dictionary lookups and notebook sync triggers) and serves them
// over gRPC so CLI invocations can reach a running daemon.
package messaging

import (
	"context"
	"errors"
	"strings"

	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/dictionary"
	"github.com/khanhkom/engz/internal/logging"
	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/services"
)

// Message types.
const (
	TypeFetchDictionaries = "SALADICT_FETCH_DICTIONARIES"
	TypeSyncNotebook      = "ENGZ_SYNC_NOTEBOOK"
	TypeBulkSyncNotebook  = "ENGZ_BULK_SYNC_NOTEBOOK"
)

var ErrUnknownMessage = errors.New("unknown message type")

// Message is a request to the background.
type Message struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Response is the reply to a Message. Error is set only when Success is
// false.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Syncer runs notebook synchronization. *services.NotebookSync implements it.
type Syncer interface {
	Sync(ctx context.Context) (models.SyncStats, error)
	BulkPush(ctx context.Context) (services.BulkResult, error)
}

// Router dispatches messages to their handlers.
type Router struct {
	sync    Syncer
	engines []dictionary.Engine
	log     logging.Logger
}

func NewRouter(sync Syncer, engines []dictionary.Engine, log logging.Logger) *Router {
	if log == nil {
		log = logging.NewNop()
	}
	return &Router{sync: sync, engines: engines, log: log.With("component", "router")}
}

// Handle runs the handler of msg.Type. Failures are reported in the
// response, never as a Go error.
func (r *Router) Handle(ctx context.Context, msg Message) Response {
	switch msg.Type {
	case TypeFetchDictionaries:
		word, _ := msg.Payload["word"].(string)
		word = strings.TrimSpace(word)
		if word == "" {
			return failure(errors.New("word is required"))
		}
		lang, _ := msg.Payload["targetLang"].(string)
		return Response{Success: true, Data: dictionary.FetchAll(ctx, r.engines, word, lang)}

	case TypeSyncNotebook:
		stats, err := r.sync.Sync(ctx)
		if err != nil {
			r.log.Warn(ctx, "sync message failed", "error", err)
			return failure(err)
		}
		return Response{Success: true, Data: stats}

	case TypeBulkSyncNotebook:
		res, err := r.sync.BulkPush(ctx)
		if err != nil {
			r.log.Warn(ctx, "bulk sync message failed", "error", err)
			return failure(err)
		}
		return Response{Success: true, Data: res}
	}

	r.log.Debug(ctx, "unknown message", "type", msg.Type)
	return failure(ErrUnknownMessage)
}

func failure(err error) Response {
	return Response{Success: false, Error: api.Message(err)}
}
