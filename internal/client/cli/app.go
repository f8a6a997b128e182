package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/fieldportal/internal/client/access"
	"github.com/dmitrijs2005/fieldportal/internal/client/api"
	"github.com/dmitrijs2005/fieldportal/internal/client/config"
	"github.com/dmitrijs2005/fieldportal/internal/client/guard"
	"github.com/dmitrijs2005/fieldportal/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/fieldportal/internal/client/state"
	"github.com/dmitrijs2005/fieldportal/internal/client/storage"
	"github.com/dmitrijs2005/fieldportal/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	api     api.Client
	session *state.SessionStore
	tenants *state.TenantStore
	subs    *state.SubscriptionStore
	browser *browser
	reader  *bufio.Reader
	out     io.Writer

	modeMu sync.Mutex
	mode   Mode
}

// NewApp opens the credential database and builds the API client and
// stores. An empty DatabasePath keeps the session token in memory only.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	var (
		db    *sql.DB
		creds credentials.Repository = credentials.NewMemoryRepository()
	)
	if c.DatabasePath != "" {
		var err error
		db, err = storage.Open(ctx, c.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("error initializing database: %w", err)
		}
		creds = credentials.NewSQLiteRepository(db)
	}

	client, err := api.NewHTTPClient(c.APIBaseURL, c.RequestTimeout, logger)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, err
	}

	a := newApp(c, client, creds, logger, os.Stdin, os.Stdout)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, client api.Client, creds credentials.Repository, logger logging.Logger, in io.Reader, out io.Writer) *App {
	if logger == nil {
		logger = logging.Nop()
	}
	session := state.NewSessionStore(client, creds, logger)
	tenants := state.NewTenantStore(client, session, logger)
	subs := state.NewSubscriptionStore(client, session, logger)

	stores := guard.Stores{SessionStore: session, TenantStore: tenants, SubscriptionStore: subs}

	return &App{
		config:  c,
		logger:  logger,
		api:     client,
		session: session,
		tenants: tenants,
		subs:    subs,
		browser: newBrowser(stores, access.Paths(c.Paths), out, logger),
		reader:  bufio.NewReader(in),
		out:     out,
	}
}

// Run restores the session, starts the background watchers and serves the
// REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "fieldportal CLI (type 'help' for commands)")
	a.bootstrap(ctx)

	go a.session.WatchExpiry(ctx, a.config.ExpiryCheckInterval)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

// bootstrap restores the stored session and loads what it can see.
func (a *App) bootstrap(ctx context.Context) {
	err := a.session.Load(ctx)
	switch {
	case err == nil:
		a.setMode(ModeOnline)
	case errors.Is(err, api.ErrUnavailable):
		a.setMode(ModeOffline)
		fmt.Fprintln(a.out, "Warning:", api.Describe(err))
	default:
		fmt.Fprintln(a.out, "Warning:", api.Describe(err))
	}

	if err := a.loadOrganization(ctx); err != nil {
		fmt.Fprintln(a.out, "Warning:", api.Describe(err))
	}
}

// loadOrganization fetches the tenant and the subscription side by side.
// Both always run to completion; the first error is returned.
func (a *App) loadOrganization(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return a.tenants.Load(ctx) })
	g.Go(func() error { return a.subs.Load(ctx) })
	return g.Wait()
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().Session.IsAuthenticated
}

func (a *App) currentMode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

func (a *App) getStatus() string {
	s := ""
	if snap := a.session.Snapshot(); snap.Session.IsAuthenticated {
		s = fmt.Sprintf("%s %s ", snap.Session.Email, snap.Session.Role)
	}
	if m := a.currentMode(); m != "" {
		s += string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// StartOnlineStatusWatcher pings the backend every interval and tracks
// whether it is reachable. It blocks until ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// Close releases the stores and the database.
func (a *App) Close() {
	a.browser.Close()
	a.tenants.Close()
	a.subs.Close()
	a.session.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "closing database", "error", err)
		}
	}
}
