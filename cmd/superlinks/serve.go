package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pbaille/superlinks/internal/api"
	"github.com/pbaille/superlinks/internal/catalog"
	"github.com/pbaille/superlinks/internal/store"
)

func serveCmd() *cobra.Command {
	var addr string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.close()

			if addr == "" {
				addr = a.cfg.API.Bind
			}
			watch = watch || a.cfg.Catalog.Watch

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			lock, err := store.Lock(st.Path())
			if err != nil {
				return err
			}
			defer lock.Unlock()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sess, err := a.openSession(ctx, st)
			if err != nil {
				return err
			}

			var watcher *catalog.Watcher
			if watch {
				if catalog.IsRemote(a.cfg.Catalog.Source) {
					a.logger.Warn("catalog watching needs a local file, ignoring", zap.String("source", a.cfg.Catalog.Source))
				} else {
					watcher, err = catalog.NewWatcher(a.cfg.Catalog.Source, catalog.DefaultDebounce, func(ctx context.Context) {
						sess.Reload(ctx)
					}, a.logger)
					if err != nil {
						return err
					}
				}
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return api.New(sess, addr, a.cfg.API.AllowedOrigins, a.logger).Run(ctx)
			})
			if watcher != nil {
				g.Go(func() error { return watcher.Run(ctx) })
			}

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the catalog when its file changes")
	return cmd
}
