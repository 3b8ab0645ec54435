package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/engmostafaayman001-hub/markode-ai/internal/collab"
	"github.com/engmostafaayman001-hub/markode-ai/internal/config"
	"github.com/engmostafaayman001-hub/markode-ai/internal/domain"
	apperrors "github.com/engmostafaayman001-hub/markode-ai/internal/errors"
)

const (
	sessionName       = "markod_session"
	sessionKeyUserID  = "user_id"
	sessionMaxAgeDays = 7
)

// redisHealthChecker is a minimal interface for Redis health checks.
type redisHealthChecker interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

// postgresHealthChecker is a minimal interface for PostgreSQL health checks.
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

// Dependencies bundles everything the HTTP layer talks to. Fakes slot in
// for unit tests.
type Dependencies struct {
	Users         domain.UserRepository
	Projects      domain.ProjectRepository
	Templates     domain.TemplateRepository
	Collaborators domain.CollaboratorRepository
	Analytics     domain.AnalyticsRepository
	Generator     domain.CodeGenerator
	AILimiter     domain.AIRateLimiter // nil means no AI rate limiting
	Hub           *collab.Hub
	Postgres      postgresHealthChecker
	Redis         redisHealthChecker // nil means Redis is not configured
}

type Server struct {
	echo         *echo.Echo
	config       *config.Config
	deps         Dependencies
	sessionStore *sessions.CookieStore
	connLimits   *ConnectionLimits
	startTime    time.Time
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(apperrors.Middleware())

	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * sessionMaxAgeDays,
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}

	srv := &Server{
		echo:         e,
		config:       cfg,
		deps:         deps,
		sessionStore: sessionStore,
		connLimits: NewConnectionLimits(
			cfg.WSMaxConnections,
			cfg.WSMaxConnectionsPerIP,
			cfg.WSConnectionsPerSec,
			cfg.WSConnectionBurst,
		),
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
