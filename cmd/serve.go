package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mallkisapan.io/garden/config"
	"mallkisapan.io/garden/handlers"
	"mallkisapan.io/garden/pkg/garden"
	"mallkisapan.io/garden/pkg/metrics"
	"mallkisapan.io/garden/pkg/storage"
	"mallkisapan.io/garden/routes"
)

const shutdownTimeout = 10 * time.Second

func serveCommand(a *app, info BuildInfo) *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, info, seed)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "replace all data with demo data before serving")
	return cmd
}

func (a *app) serve(ctx context.Context, info BuildInfo, seed bool) error {
	if err := config.Migrations(a.db); err != nil {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	if seed {
		if err := config.RunAllSeeding(a.db, time.Now(), a.log); err != nil {
			return err
		}
	}

	m, err := metrics.New()
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	svc := garden.NewServices(a.db, garden.Options{
		FlowRate: a.settings.IrrigationFlowRate,
		Recorder: m,
	})
	opts := routes.Options{
		AllowedOrigins: []string{a.settings.FrontendURL},
		Metrics:        m,
		Log:            a.log,
	}
	if !a.settings.UseGCS {
		opts.UploadDir = a.settings.UploadDir
	}

	srv := &http.Server{
		Addr:              ":" + a.settings.Port,
		Handler:           routes.RegisterRoutes(handlers.New(svc, store, a.log), opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting",
			zap.String("port", a.settings.Port),
			zap.String("version", info.Version),
			zap.String("build_time", info.BuildTime))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) openStore(ctx context.Context) (storage.Store, func(), error) {
	if a.settings.UseGCS {
		gcs, err := storage.NewGCS(ctx, a.settings.GCSBucket, a.settings.GCSCredentials)
		if err != nil {
			return nil, nil, err
		}
		return gcs, func() { _ = gcs.Close() }, nil
	}
	local, err := storage.NewLocal(a.settings.UploadDir, "/uploads")
	if err != nil {
		return nil, nil, err
	}
	return local, func() {}, nil
}
