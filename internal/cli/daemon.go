package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/khanhkom/engz/internal/messaging"
	"github.com/segmentio/encoding/json"
	"golang.org/x/sync/errgroup"
)

// RunDaemon syncs every SyncInterval and serves background messages on
// DaemonAddr until ctx is done.
func (a *App) RunDaemon(ctx context.Context) error {
	a.log.Info(ctx, "Starting daemon...", "sync_interval", a.config.SyncInterval, "address", a.config.DaemonAddr)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.syncLoop(ctx, a.config.SyncInterval)
		return nil
	})
	g.Go(func() error {
		return messaging.NewServer(a.config.DaemonAddr, a.router, a.log).Run(ctx)
	})

	err := g.Wait()
	a.log.Info(context.Background(), "Daemon stopped")
	return err
}

// syncLoop runs a sync right away and then on every tick. A tick that finds
// a sync in progress is skipped.
func (a *App) syncLoop(ctx context.Context, interval time.Duration) {
	a.syncOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if a.sync.Syncing() {
				continue
			}
			a.syncOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) syncOnce(ctx context.Context) {
	authed, err := a.auth.IsAuthenticated(ctx)
	if err != nil || !authed {
		return
	}
	stats, err := a.sync.Sync(ctx)
	if err != nil {
		a.log.Warn(ctx, "periodic sync failed", "error", err)
		return
	}
	a.log.Debug(ctx, "periodic sync done", "pushed", stats.Pushed, "pulled", stats.Pulled, "deleted", stats.Deleted, "errors", stats.Errors)
}

// messageFor maps "send" arguments to a background message.
func messageFor(args []string) (messaging.Message, error) {
	if len(args) == 0 {
		return messaging.Message{}, errors.New("usage: send sync|bulk|lookup <word> [lang]")
	}
	switch args[0] {
	case "sync":
		return messaging.Message{Type: messaging.TypeSyncNotebook}, nil
	case "bulk":
		return messaging.Message{Type: messaging.TypeBulkSyncNotebook}, nil
	case "lookup":
		if len(args) < 2 {
			return messaging.Message{}, errors.New("usage: send lookup <word> [lang]")
		}
		payload := map[string]any{"word": args[1]}
		if len(args) > 2 {
			payload["targetLang"] = args[2]
		}
		return messaging.Message{Type: messaging.TypeFetchDictionaries, Payload: payload}, nil
	}
	return messaging.Message{}, fmt.Errorf("unknown message %q", args[0])
}

// Send delivers one message to the daemon at addr and prints the data of
// the response as JSON.
func Send(ctx context.Context, addr string, args []string, out io.Writer) error {
	msg, err := messageFor(args)
	if err != nil {
		return err
	}

	c, err := messaging.Dial(addr)
	if err != nil {
		return err
	}
	defer c.Close()

	resp, err := c.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("daemon at %s: %w", addr, err)
	}
	if !resp.Success {
		return errors.New(resp.Error)
	}

	b, err := json.MarshalIndent(resp.Data, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, strings.TrimSpace(string(b)))
	return err
}
