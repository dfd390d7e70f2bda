// Package cli is the engz command: an interactive shell over the local
// notebook, one-shot commands and the background daemon that syncs
// periodically and answers messages over gRPC.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/auth"
	"github.com/khanhkom/engz/internal/backup"
	"github.com/khanhkom/engz/internal/config"
	"github.com/khanhkom/engz/internal/dictionary"
	"github.com/khanhkom/engz/internal/filex"
	"github.com/khanhkom/engz/internal/history"
	"github.com/khanhkom/engz/internal/logging"
	"github.com/khanhkom/engz/internal/messaging"
	"github.com/khanhkom/engz/internal/notebook"
	"github.com/khanhkom/engz/internal/services"
	"github.com/khanhkom/engz/internal/settings"
	"github.com/khanhkom/engz/internal/storage"
	"github.com/khanhkom/engz/internal/storage/sqlite"
)

type App struct {
	config *config.Config
	log    logging.Logger
	reader *bufio.Reader
	out    io.Writer

	area     storage.Area
	auth     *auth.Store
	notebook *notebook.Store
	history  *history.Store
	settings *settings.Store

	client   *api.Client
	account  *services.AccountService
	sync     *services.NotebookSync
	recorder *services.HistoryRecorder
	engines  []dictionary.Engine
	router   *messaging.Router
	backup   *backup.Service
}

// NewApp opens the local database at cfg.DatabasePath and wires every
// service on top of it.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(cfg.DatabasePath); err != nil {
		return nil, err
	}

	db, err := sqlite.Open(ctx, cfg.DatabasePath,
		sqlite.WithPollInterval(cfg.StoragePollInterval),
		sqlite.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	var area storage.Area = db
	if cfg.VaultPassphrase != "" {
		sealed, err := storage.NewSealedArea(ctx, db, []byte(cfg.VaultPassphrase), auth.StorageKey)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("error opening vault: %w", err)
		}
		area = sealed
	}

	app := newApp(cfg, area, log, os.Stdin, os.Stdout)

	if cfg.BackupEnabled() {
		objects, err := backup.NewS3Store(ctx, backup.S3Options{
			Bucket:    cfg.BackupBucket,
			Region:    cfg.BackupRegion,
			Endpoint:  cfg.BackupEndpoint,
			AccessKey: cfg.BackupAccessKey,
			SecretKey: cfg.BackupSecretKey,
		})
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.backup = backup.NewService(objects, app.notebook, log)
	}

	return app, nil
}

func newApp(cfg *config.Config, area storage.Area, log logging.Logger, in io.Reader, out io.Writer) *App {
	if log == nil {
		log = logging.NewNop()
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	authStore := auth.Open(area)
	nb := notebook.Open(area)
	hist := history.Open(area)

	client := api.New(authStore,
		api.WithBaseURL(cfg.APIBaseURL),
		api.WithAPIKey(cfg.APIKey),
		api.WithHTTPClient(httpClient),
		api.WithLogger(log),
	)

	syncer := services.NewNotebookSync(nb, authStore, client.Notebook(), log)
	engines := []dictionary.Engine{dictionary.NewGoogle(dictionary.WithGoogleHTTPClient(httpClient))}

	return &App{
		config:   cfg,
		log:      log,
		reader:   bufio.NewReader(in),
		out:      out,
		area:     area,
		auth:     authStore,
		notebook: nb,
		history:  hist,
		settings: settings.Open(area),
		client:   client,
		account:  services.NewAccountService(client.Auth(), authStore, log),
		sync:     syncer,
		recorder: services.NewHistoryRecorder(hist, authStore, client.History(), log),
		engines:  engines,
		router:   messaging.NewRouter(syncer, engines, log),
	}
}

// Close stops the stores and closes the database.
func (a *App) Close() error {
	a.auth.Close()
	a.notebook.Close()
	a.history.Close()
	a.settings.Close()
	return a.area.Close()
}

// Run starts the REPL when args is empty, the daemon for "daemon" and
// otherwise runs args as a single command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.Root(ctx)
		return nil
	}
	if args[0] == "daemon" {
		return a.RunDaemon(ctx)
	}
	return a.Execute(ctx, args)
}

// Root runs the interactive shell on the app's input.
func (a *App) Root(ctx context.Context) {
	printlnFn("EngZ notebook (type 'help' for commands)")
	runREPL(ctx, a, func() string { return a.status(ctx) }, a.reader)
}

func (a *App) status(ctx context.Context) string {
	st, err := a.auth.State(ctx)
	if err != nil || !st.IsAuthenticated || st.User == nil {
		return "(offline)"
	}
	return "(" + st.User.Email + ")"
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
