package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appconfig "github.com/manthysbr/ianfluencer/internal/config"
	"github.com/manthysbr/ianfluencer/pkg/kernel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the job scheduler and the admin API (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd)
	},
}

func runServer(cmd *cobra.Command) error {
	logger := newLogger(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger.Info("starting ianfluencer", append([]any{"version", version}, appconfig.Summary(cfg)...)...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	g, gCtx := errgroup.WithContext(ctx)

	apiServer := kernel.NewServer(kernel.Deps{
		Logger:         logger,
		Scheduler:      a.scheduler,
		Generator:      a.generator,
		Store:          a.repo,
		EventBus:       a.eventBus,
		Runs:           a.repo,
		JobContext:     gCtx,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return gCtx
		},
	}

	g.Go(func() error {
		return a.scheduler.Run(gCtx)
	})

	g.Go(func() error {
		logger.Info("starting admin api server", "addr", cfg.HTTP.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "api server failed")
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
