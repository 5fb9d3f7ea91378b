package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pbaille/superlinks/internal/catalog"
	"github.com/pbaille/superlinks/internal/config"
	"github.com/pbaille/superlinks/internal/fetcher"
	"github.com/pbaille/superlinks/internal/logging"
	"github.com/pbaille/superlinks/internal/session"
	"github.com/pbaille/superlinks/internal/store"
)

var (
	configPath  string
	catalogFlag string
	dbFlag      string
	logLevel    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "superlinks",
		Short:         "Personal link catalog with pins, favorites and local edits",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/superlinks/config.toml)")
	rootCmd.PersistentFlags().StringVar(&catalogFlag, "catalog", "", "catalog document path or URL")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "overlay database path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(lensesCmd())
	rootCmd.AddCommand(idCmd("pin", "Pin an item so it is always shown", (*session.Session).Pin))
	rootCmd.AddCommand(idCmd("unpin", "Remove a pin", (*session.Session).Unpin))
	rootCmd.AddCommand(idCmd("fav", "Add an item to favorites", (*session.Session).Favorite))
	rootCmd.AddCommand(idCmd("unfav", "Remove an item from favorites", (*session.Session).Unfavorite))
	rootCmd.AddCommand(idCmd("delete", "Hide an item everywhere until restored", (*session.Session).Delete))
	rootCmd.AddCommand(idCmd("restore", "Undo a delete", (*session.Session).Restore))
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(reorderCmd())
	rootCmd.AddCommand(filterCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCSVCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if catalogFlag != "" {
		cfg.Catalog.Source = catalogFlag
	}
	if dbFlag != "" {
		cfg.Store.Path = dbFlag
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func (a *app) openStore() (*store.Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(a.cfg.Store.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(a.cfg.Store.Path)
}

func (a *app) fetcher() *fetcher.Client {
	return fetcher.New(time.Duration(a.cfg.Catalog.TimeoutSeconds) * time.Second)
}

func (a *app) openSession(ctx context.Context, st *store.Store) (*session.Session, error) {
	f := a.fetcher()
	return session.Open(ctx, session.Options{
		Catalog: catalog.NewCache(a.cfg.Catalog.Source, f, a.logger),
		Store:   st,
		Quotas:  a.cfg.SelectionQuotas(),
		Titles:  f,
		Logger:  a.logger,
	})
}

// withSession runs fn against a session backed by the configured store.
func withSession(ctx context.Context, fn func(*app, *session.Session, *store.Store) error) error {
	return runSession(ctx, false, fn)
}

// withWriter is withSession for commands that change the overlay. It holds
// the store's writer lock for the whole command so a running server cannot
// overwrite the change from its in-memory copy.
func withWriter(ctx context.Context, fn func(*app, *session.Session, *store.Store) error) error {
	return runSession(ctx, true, fn)
}

func runSession(ctx context.Context, write bool, fn func(*app, *session.Session, *store.Store) error) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()

	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if write {
		lock, err := lockStore(st.Path())
		if err != nil {
			return err
		}
		defer lock.Unlock()
	}

	sess, err := a.openSession(ctx, st)
	if err != nil {
		return err
	}
	return fn(a, sess, st)
}

// lockStore takes the writer lock, pointing at the API when a server holds it.
func lockStore(dbPath string) (*flock.Flock, error) {
	lock, err := store.Lock(dbPath)
	if errors.Is(err, store.ErrLocked) {
		return nil, fmt.Errorf("%w: a server is probably running, send the change through its HTTP API instead", err)
	}
	return lock, err
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
