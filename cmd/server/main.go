package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"

	"github.com/engmostafaayman001-hub/markode-ai/internal/ai"
	"github.com/engmostafaayman001-hub/markode-ai/internal/collab"
	"github.com/engmostafaayman001-hub/markode-ai/internal/config"
	"github.com/engmostafaayman001-hub/markode-ai/internal/database"
	"github.com/engmostafaayman001-hub/markode-ai/internal/logging"
	"github.com/engmostafaayman001-hub/markode-ai/internal/metrics"
	"github.com/engmostafaayman001-hub/markode-ai/internal/redis"
	"github.com/engmostafaayman001-hub/markode-ai/internal/server"
	"github.com/engmostafaayman001-hub/markode-ai/internal/version"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *goredis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	if err := client.Ping(ctx); err != nil {
		slog.Error("Redis ping failed", "error", err)
		os.Exit(1)
	}
	return client.Underlying()
}

func runGracefulShutdown(srv *server.Server, hub *collab.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		hub.Stop()
		close(done)
	}()

	return done
}

func main() {
	_ = godotenv.Load()
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	buildInfo := version.Get()
	metrics.BuildInfo.WithLabelValues(buildInfo.Version, buildInfo.Commit, buildInfo.BuildTime, buildInfo.GoVersion).Set(1)

	pool := setupDB(cfg)
	defer pool.Close()

	deps := server.Dependencies{
		Users:         database.NewUserRepo(pool),
		Projects:      database.NewProjectRepo(pool),
		Templates:     database.NewTemplateRepo(pool),
		Collaborators: database.NewCollaboratorRepo(pool),
		Analytics:     database.NewAnalyticsRepo(pool),
		Postgres:      pool,
	}

	// Redis is optional; without it AI requests are simply not rate limited.
	if cfg.RedisURL != "" {
		redisClient := setupRedis(context.Background(), cfg)
		defer func() { _ = redisClient.Close() }()
		deps.Redis = redisClient
		deps.AILimiter = redis.NewAIRateLimiter(redisClient, clock, cfg.AIRequestsPerMinute)
	} else {
		slog.Warn("REDIS_URL not set, AI rate limiting disabled")
	}

	chatModel, err := ai.NewChatModel(context.Background(), cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if err != nil {
		slog.Error("Failed to create chat model", "error", err)
		os.Exit(1)
	}
	deps.Generator = ai.NewService(chatModel)

	hub := collab.NewHub(clock, int(cfg.WSMaxConnections))
	deps.Hub = hub

	srv := server.NewServer(cfg, deps)

	done := runGracefulShutdown(srv, hub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
