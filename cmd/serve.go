package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/extract-chat/internal/config"
	"github.com/sells-group/extract-chat/internal/session"
	"github.com/sells-group/extract-chat/internal/web"
)

const shutdownTimeout = 10 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat web UI and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		store := session.NewStore()
		handler, err := buildHandler(cfg, store)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		return runServer(ctx, srv, store, cfg.Session)
	},
}

func buildHandler(c *config.Config, store *session.Store) (http.Handler, error) {
	srv, err := web.New(store, newExtractService(c), web.Options{
		CookieName:     c.Session.CookieName,
		AllowedOrigins: c.Server.AllowedOrigins,
	})
	if err != nil {
		return nil, eris.Wrap(err, "build web server")
	}
	return srv.Handler(), nil
}

// runServer serves until ctx is cancelled, evicting idle sessions in the
// background, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, store *session.Store, sc config.SessionConfig) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	})

	if sc.IdleTTLMinutes > 0 && sc.JanitorIntervalS > 0 {
		g.Go(func() error {
			return store.RunJanitor(gctx,
				time.Duration(sc.JanitorIntervalS)*time.Second,
				time.Duration(sc.IdleTTLMinutes)*time.Minute,
			)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
