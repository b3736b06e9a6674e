package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexkibler/sticker-nester/internal/api"
	"github.com/alexkibler/sticker-nester/internal/config"
	"github.com/alexkibler/sticker-nester/pkg/job"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP nesting API",
		Long: `Serve starts the HTTP API. Small requests are answered inline;
large requests run as background jobs that clients poll for.

Configuration is read from a TOML file when --config is given, with
built-in defaults otherwise. The listen address can be overridden with
--addr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			store, closeStore, err := openStore(ctx, cfg.Store)
			if err != nil {
				return err
			}
			defer closeStore()

			ctrl, err := job.NewController(job.Config{
				Store:          store,
				AsyncThreshold: cfg.Jobs.AsyncThreshold,
				TTL:            cfg.Jobs.TTL.Duration,
				Timeout:        cfg.Jobs.Timeout.Duration,
				Logger:         logger,
			})
			if err != nil {
				return err
			}
			ctrl.StartJanitor(ctx, cfg.Jobs.CleanupInterval.Duration)

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api.NewServer(ctrl, cfg.Engine, logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Listening", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown failed: %w", err)
			}
			if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

// openStore builds the configured job store. The returned func releases
// backend resources and is safe to call even for the memory store.
func openStore(ctx context.Context, cfg config.StoreConfig) (job.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		store, err := job.NewRedisStore(ctx, job.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return job.NewMemoryStore(), func() {}, nil
	}
}
