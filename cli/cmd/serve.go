package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fluxbase-eu/identityswitcher/internal/api"
	"github.com/fluxbase-eu/identityswitcher/internal/cache"
	"github.com/fluxbase-eu/identityswitcher/internal/config"
	"github.com/fluxbase-eu/identityswitcher/internal/directory"
	"github.com/fluxbase-eu/identityswitcher/internal/observability"
	"github.com/fluxbase-eu/identityswitcher/internal/session"
	"github.com/fluxbase-eu/identityswitcher/internal/switcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the identity switcher HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load configuration")
			return err
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL())
	if err != nil {
		return err
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConnections)
	poolCfg.MaxConnLifetime = cfg.Database.ConnLifetime

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("Database unreachable")
		return err
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	sessions := session.NewService(session.NewPgRepository(db), cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)
	svc := switcher.NewService(
		directory.NewPgUserRepository(db),
		directory.NewPgProfileRepository(db),
		directory.NewPgRoleRepository(db),
		cache.NewRedisCache(redisClient),
		sessions,
	)

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	server := api.NewServer(cfg, svc, sessions, metrics)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- server.Shutdown() }()
	select {
	case err := <-done:
		return err
	case <-shutdownCtx.Done():
		return shutdownCtx.Err()
	}
}
