// Package sqlite implements storage.Area on a single SQLite table.
//
// Every write stores the value together with a revision number that grows
// across the whole table. A background poller reads rows whose revision is
// newer than the last one it saw and reports them to watchers, so two
// processes sharing the database file observe each other's writes.
// Deletions are only reported to watchers of the deleting process.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/khanhkom/engz/internal/dbx"
	"github.com/khanhkom/engz/internal/logging"
	"github.com/khanhkom/engz/internal/storage"
	"github.com/khanhkom/engz/internal/storage/sqlite/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// DefaultPollInterval is used when no interval is configured.
const DefaultPollInterval = time.Second

// Area is a storage.Area backed by the kv table.
type Area struct {
	db           *sql.DB
	ownsDB       bool
	log          logging.Logger
	pollInterval time.Duration

	watchers storage.WatcherSet
	closed   atomic.Bool

	pollOnce     sync.Once
	lastRevision int64
	stop         chan struct{}
	done         chan struct{}
}

// Option configures an Area.
type Option func(*Area)

func WithPollInterval(d time.Duration) Option {
	return func(a *Area) { a.pollInterval = d }
}

func WithLogger(l logging.Logger) Option {
	return func(a *Area) { a.log = l }
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Open opens the database at dsn with the modernc driver, migrates it and
// returns an area that closes the database on Close.
func Open(ctx context.Context, dsn string, opts ...Option) (*Area, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	a := NewArea(db, opts...)
	a.ownsDB = true
	return a, nil
}

// NewArea wraps an already migrated database.
func NewArea(db *sql.DB, opts ...Option) *Area {
	a := &Area{
		db:           db,
		log:          logging.NewNop(),
		pollInterval: DefaultPollInterval,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Area) mapErr(err error) error {
	if errors.Is(err, sql.ErrConnDone) || a.closed.Load() {
		return storage.ErrContextInvalidated
	}
	return err
}

func (a *Area) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if a.closed.Load() {
		return nil, false, storage.ErrContextInvalidated
	}

	var value []byte
	err := a.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get kv[%s]: %w", key, a.mapErr(err))
	}
	return value, true, nil
}

func (a *Area) Set(ctx context.Context, key string, value []byte) error {
	if a.closed.Load() {
		return storage.ErrContextInvalidated
	}

	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var rev int64
		if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(revision), 0) + 1 FROM kv`).Scan(&rev); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO kv (key, value, revision) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, revision = excluded.revision
		`, key, value, rev)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to set kv[%s]: %w", key, a.mapErr(err))
	}

	a.watchers.Notify(key, value)
	return nil
}

func (a *Area) Delete(ctx context.Context, key string) error {
	if a.closed.Load() {
		return storage.ErrContextInvalidated
	}

	res, err := a.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, a.mapErr(err))
	}
	if n, _ := res.RowsAffected(); n > 0 {
		a.watchers.Notify(key, nil)
	}
	return nil
}

// Keys lists the stored keys.
func (a *Area) Keys(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list kv: %w", a.mapErr(err))
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan kv row: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate kv rows: %w", err)
	}
	return keys, nil
}

// Watch registers fn and starts the revision poller on first use.
func (a *Area) Watch(key string, fn func(value []byte)) func() {
	cancel := a.watchers.Add(key, fn)
	if a.pollInterval > 0 {
		a.pollOnce.Do(a.startPolling)
	}
	return cancel
}

func (a *Area) startPolling() {
	ctx := context.Background()
	if err := a.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(revision), 0) FROM kv`).Scan(&a.lastRevision); err != nil {
		a.log.Warn(ctx, "failed to read current revision", "error", err)
	}

	go func() {
		defer close(a.done)

		ticker := time.NewTicker(a.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := a.poll(ctx); err != nil && !a.closed.Load() {
					a.log.Warn(ctx, "kv poll failed", "error", err)
				}
			case <-a.stop:
				return
			}
		}
	}()
}

type change struct {
	key   string
	value []byte
}

// poll reports rows written since the previous poll, in revision order.
func (a *Area) poll(ctx context.Context) error {
	rows, err := a.db.QueryContext(ctx,
		`SELECT key, value, revision FROM kv WHERE revision > ? ORDER BY revision`, a.lastRevision)
	if err != nil {
		return err
	}

	var changes []change
	last := a.lastRevision
	for rows.Next() {
		var c change
		var rev int64
		if err := rows.Scan(&c.key, &c.value, &rev); err != nil {
			rows.Close()
			return err
		}
		changes = append(changes, c)
		last = rev
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	a.lastRevision = last
	for _, c := range changes {
		a.watchers.Notify(c.key, c.value)
	}
	return nil
}

// Close stops the poller and, for areas created by Open, closes the
// database. Later calls fail with storage.ErrContextInvalidated.
func (a *Area) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}

	started := true
	a.pollOnce.Do(func() { started = false })
	close(a.stop)
	if started {
		<-a.done
	}

	if a.ownsDB {
		return a.db.Close()
	}
	return nil
}
