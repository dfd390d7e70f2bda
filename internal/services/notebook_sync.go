// Package services contains the application services of the EngZ client.
// This file implements notebook synchronization: pending local changes are
// pushed first, then remote changes since the last sync are pulled and
// merged last-write-wins.
package services

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/auth"
	"github.com/khanhkom/engz/internal/logging"
	"github.com/khanhkom/engz/internal/models"
	"github.com/khanhkom/engz/internal/notebook"
)

// pullPageSize is the page size of the pull request. Only the first page is
// processed per sync.
const pullPageSize = 100

// isoMillis is the format of lastSyncAt.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// NotebookRemote is the part of the notebook API the sync engine uses.
// *api.NotebookAPI implements it.
type NotebookRemote interface {
	List(ctx context.Context, p api.ListNotebookParams) (*api.PaginatedResponse[api.NotebookEntry], error)
	Create(ctx context.Context, req api.CreateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error)
	BulkCreate(ctx context.Context, req api.BulkCreateNotebookRequest) (*api.Response[api.BulkCreateNotebookResponse], error)
	Update(ctx context.Context, id string, req api.UpdateNotebookEntryRequest) (*api.Response[api.NotebookEntry], error)
	Delete(ctx context.Context, id string) (*api.Response[api.DeleteNotebookEntryResponse], error)
}

// BulkResult is the outcome of BulkPush as reported by the server.
type BulkResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// NotebookSync reconciles the local notebook with the remote one.
type NotebookSync struct {
	notebook *notebook.Store
	auth     *auth.Store
	remote   NotebookRemote
	log      logging.Logger
	now      func() time.Time

	syncing atomic.Bool
}

// NewNotebookSync creates a sync engine. A nil logger discards output.
func NewNotebookSync(nb *notebook.Store, authStore *auth.Store, remote NotebookRemote, log logging.Logger) *NotebookSync {
	if log == nil {
		log = logging.NewNop()
	}
	return &NotebookSync{
		notebook: nb,
		auth:     authStore,
		remote:   remote,
		log:      log.With("component", "notebook-sync"),
		now:      time.Now,
	}
}

// Syncing reports whether a Sync run is in progress.
func (s *NotebookSync) Syncing() bool {
	return s.syncing.Load()
}

// Sync pushes pending local changes and then pulls remote changes. A call
// made while another Sync runs, or while signed out, returns zero stats and
// does nothing. Failures of single entries are counted in Errors; a failed
// pull is counted once and returned, and lastSyncAt is left unchanged.
func (s *NotebookSync) Sync(ctx context.Context) (models.SyncStats, error) {
	var stats models.SyncStats

	if !s.syncing.CompareAndSwap(false, true) {
		s.log.Debug(ctx, "sync already in progress")
		return stats, nil
	}
	defer s.syncing.Store(false)

	authed, err := s.auth.IsAuthenticated(ctx)
	if err != nil {
		return stats, fmt.Errorf("read auth state: %w", err)
	}
	if !authed {
		s.log.Debug(ctx, "not authenticated, skipping sync")
		return stats, nil
	}

	ctx = logging.ContextWith(ctx, "sync_run", uuid.NewString())

	if err := s.pushPendingChanges(ctx, &stats); err != nil {
		s.log.Error(ctx, "push failed", "error", err)
		return stats, fmt.Errorf("push notebook changes: %w", err)
	}

	pullStarted := s.now()
	if err := s.pullServerChanges(ctx, &stats); err != nil {
		stats.Errors++
		s.log.Error(ctx, "pull failed", "error", err)
		return stats, fmt.Errorf("pull notebook changes: %w", err)
	}

	if err := s.auth.SetLastSyncAt(ctx, pullStarted.UTC().Format(isoMillis)); err != nil {
		return stats, fmt.Errorf("store last sync time: %w", err)
	}

	s.log.Info(ctx, "sync complete",
		"pushed", stats.Pushed, "pulled", stats.Pulled,
		"deleted", stats.Deleted, "errors", stats.Errors)
	return stats, nil
}

func (s *NotebookSync) pushPendingChanges(ctx context.Context, stats *models.SyncStats) error {
	pending, err := s.notebook.PendingWords(ctx)
	if err != nil {
		return fmt.Errorf("read pending words: %w", err)
	}

	for _, w := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}

		pushed, err := s.pushWord(ctx, w)
		if err != nil {
			stats.Errors++
			s.log.Warn(ctx, "failed to push word", "id", w.ID, "word", w.Word, "syncStatus", w.SyncStatus, "error", err)
			s.recoverPush(ctx, w, err)
			continue
		}
		if pushed {
			stats.Pushed++
		}
	}
	return nil
}

func (s *NotebookSync) pushWord(ctx context.Context, w models.Word) (bool, error) {
	switch {
	case w.SyncStatus == models.SyncStatusPendingCreate:
		resp, err := s.remote.Create(ctx, toRemoteEntry(w))
		if err != nil {
			return false, err
		}
		return true, s.notebook.MarkSynced(ctx, w.ID, resp.Data.ID)

	case w.SyncStatus == models.SyncStatusPendingUpdate && w.ServerID != "":
		_, err := s.remote.Update(ctx, w.ServerID, api.UpdateNotebookEntryRequest{
			Translation: w.Translation,
			Status:      string(w.Status),
		})
		if err != nil {
			return false, err
		}
		return true, s.notebook.MarkSynced(ctx, w.ID, "")

	case w.SyncStatus == models.SyncStatusPendingDelete && w.ServerID != "":
		if _, err := s.remote.Delete(ctx, w.ServerID); err != nil {
			return false, err
		}
		return true, s.notebook.RemoveWord(ctx, w.ID)

	case w.SyncStatus == models.SyncStatusPendingDelete:
		// never reached the server
		return true, s.notebook.RemoveWord(ctx, w.ID)
	}

	s.log.Debug(ctx, "nothing to push", "id", w.ID, "syncStatus", w.SyncStatus)
	return false, nil
}

// recoverPush resolves the two push failures that cannot succeed on retry.
func (s *NotebookSync) recoverPush(ctx context.Context, w models.Word, pushErr error) {
	var err error
	switch {
	case api.IsNotFound(pushErr) && w.SyncStatus == models.SyncStatusPendingUpdate:
		err = s.notebook.RemoveWord(ctx, w.ID)
	case api.IsConflict(pushErr) && w.SyncStatus == models.SyncStatusPendingCreate:
		// the next pull brings in the server copy
		err = s.notebook.MarkSynced(ctx, w.ID, "")
	default:
		return
	}
	if err != nil {
		s.log.Error(ctx, "failed to resolve push error locally", "id", w.ID, "error", err)
	}
}

func (s *NotebookSync) pullServerChanges(ctx context.Context, stats *models.SyncStats) error {
	since, _, err := s.auth.LastSyncAt(ctx)
	if err != nil {
		return fmt.Errorf("read last sync time: %w", err)
	}

	resp, err := s.remote.List(ctx, api.ListNotebookParams{
		Since:          since,
		IncludeDeleted: true,
		PerPage:        pullPageSize,
	})
	if err != nil {
		return err
	}

	for _, entry := range resp.Data {
		pulled, deleted, err := s.applyRemote(ctx, entry)
		if err != nil {
			stats.Errors++
			s.log.Warn(ctx, "failed to apply remote entry", "serverId", entry.ID, "error", err)
			continue
		}
		if pulled {
			stats.Pulled++
		}
		if deleted {
			stats.Deleted++
		}
	}

	if resp.Metadata.HasNext {
		s.log.Warn(ctx, "more remote changes than one page, only the first was applied",
			"count", resp.Metadata.Count, "perPage", pullPageSize)
	}
	return nil
}

// applyRemote merges one remote entry. A remote tombstone removes the local
// copy; otherwise the remote version wins only when it is strictly newer and
// the local copy has nothing pending.
func (s *NotebookSync) applyRemote(ctx context.Context, entry api.NotebookEntry) (pulled, deleted bool, err error) {
	local, found, err := s.notebook.Lookup(ctx, entry.ID, entry.Word)
	if err != nil {
		return false, false, err
	}

	switch {
	case entry.DeletedAt != nil:
		if !found || local.IsDeleted() {
			return false, false, nil
		}
		return false, true, s.notebook.RemoveWord(ctx, local.ID)

	case found:
		if entry.UpdatedAt.UnixMilli() <= local.UpdatedAt || local.SyncStatus != models.SyncStatusSynced {
			return false, false, nil
		}
		return true, false, s.notebook.AddWordFromSync(ctx, toLocalWord(entry, local))

	default:
		return true, false, s.notebook.AddWordFromSync(ctx, toLocalWord(entry, nil))
	}
}

// BulkPush uploads every active word without a server id in one request and
// marks the ones the server created as synced. Words the server skips as
// duplicates stay pending. BulkPush does not take the Sync guard.
func (s *NotebookSync) BulkPush(ctx context.Context) (BulkResult, error) {
	active, err := s.notebook.ActiveWords(ctx)
	if err != nil {
		return BulkResult{}, fmt.Errorf("read active words: %w", err)
	}

	var unsynced []models.Word
	for _, w := range active {
		if w.ServerID == "" {
			unsynced = append(unsynced, w)
		}
	}
	if len(unsynced) == 0 {
		return BulkResult{}, nil
	}

	req := api.BulkCreateNotebookRequest{Entries: make([]api.CreateNotebookEntryRequest, 0, len(unsynced))}
	for _, w := range unsynced {
		req.Entries = append(req.Entries, toRemoteEntry(w))
	}

	resp, err := s.remote.BulkCreate(ctx, req)
	if err != nil {
		s.log.Error(ctx, "bulk push failed", "words", len(unsynced), "error", err)
		return BulkResult{}, fmt.Errorf("bulk create: %w", err)
	}

	for _, r := range resp.Data.Entries {
		if r.Status != api.BulkStatusCreated {
			continue
		}
		for _, w := range unsynced {
			if strings.EqualFold(w.Word, r.Word) {
				if err := s.notebook.MarkSynced(ctx, w.ID, r.ID); err != nil {
					return BulkResult{}, fmt.Errorf("mark %q synced: %w", w.Word, err)
				}
				break
			}
		}
	}

	res := BulkResult{Created: resp.Data.Created, Skipped: resp.Data.Skipped}
	s.log.Info(ctx, "bulk push complete", "created", res.Created, "skipped", res.Skipped)
	return res, nil
}

func toRemoteEntry(w models.Word) api.CreateNotebookEntryRequest {
	return api.CreateNotebookEntryRequest{
		Word:        w.Word,
		Translation: w.Translation,
		Source:      string(w.Source),
		Status:      string(w.Status),
	}
}

// toLocalWord converts a remote entry to a synced local word. With an
// existing local copy its id and local-only fields are kept.
func toLocalWord(e api.NotebookEntry, existing *models.Word) models.Word {
	source := models.Source(e.Source)
	if !source.Valid() {
		source = models.SourceGoogle
	}
	status, ok := models.ParseStatus(e.Status)
	if !ok {
		status = models.StatusNew
	}

	w := models.Word{
		ServerID:    e.ID,
		Word:        e.Word,
		Translation: e.Translation,
		Source:      source,
		Status:      status,
		SavedAt:     e.CreatedAt.UnixMilli(),
		UpdatedAt:   e.UpdatedAt.UnixMilli(),
		SyncStatus:  models.SyncStatusSynced,
	}
	if e.DeletedAt != nil {
		ms := e.DeletedAt.UnixMilli()
		w.DeletedAt = &ms
	}
	if existing != nil {
		w.ID = existing.ID
		w.Pronunciation = existing.Pronunciation
		w.Definition = existing.Definition
		w.Examples = existing.Examples
	}
	return w
}
