// Command openmart-proxy exposes the OpenMart lead search over a local HTTP
// API with shared caching and rate limiting.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/openmart-client/internal/config"
	"github.com/Sternrassler/openmart-client/pkg/cache"
	"github.com/Sternrassler/openmart-client/pkg/client"
	"github.com/Sternrassler/openmart-client/pkg/logging"
	"github.com/Sternrassler/openmart-client/pkg/ratelimit"
	"github.com/Sternrassler/openmart-client/pkg/search"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	opts := config.DefaultOptions()
	opts.ConfigFile = *configFile

	cfg, err := config.Load(opts)
	if err != nil {
		logger := logging.NewLogger(logging.ComponentProxy)
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Log.Level),
		Pretty:  cfg.Log.Pretty,
		Output:  os.Stderr,
		Service: "openmart-proxy",
	})
	logger := logging.NewLogger(logging.ComponentProxy)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Proxy stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	clientCfg := cfg.ClientConfig()

	var redisClient *redis.Client
	if cfg.RedisEnabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

		if cfg.Cache.Enabled {
			clientCfg.Cache = cache.NewManager(redisClient)
		}
	} else {
		logger.Warn().Msg("No Redis configured: caching disabled, rate-limit state kept in memory")
	}
	clientCfg.RateLimiter = ratelimit.NewTracker(redisClient, logger)

	c, err := client.New(clientCfg)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := &server{
		search: search.NewService(c),
		redis:  redisClient,
		logger: logger,

		corsOrigins: cfg.CORSOrigins,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Str("base_url", cfg.BaseURL).Msg("Starting OpenMart proxy")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
