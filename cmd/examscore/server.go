package main

import (
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/ehr/examscore/internal/config"
	"github.com/ehr/examscore/internal/domain/exam"
	"github.com/ehr/examscore/internal/domain/scores"
	"github.com/ehr/examscore/internal/platform/auth"
	"github.com/ehr/examscore/internal/platform/cdshooks"
	"github.com/ehr/examscore/internal/platform/db"
	"github.com/ehr/examscore/internal/platform/middleware"
	"github.com/ehr/examscore/internal/platform/telemetry"
	"github.com/ehr/examscore/internal/scoring"
)

// serverDeps carries the optional infrastructure of the server. A nil pool
// keeps the calculation audit in memory.
type serverDeps struct {
	pool *pgxpool.Pool
	repo scores.CalculationRepository
}

func newServer(cfg *config.Config, logger zerolog.Logger, deps serverDeps) (*echo.Echo, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("missing input policy: %w", err)
	}
	calc := scoring.NewCalculator(policy)

	metrics := telemetry.NewCollector()
	repo := deps.repo
	if repo == nil {
		if deps.pool != nil {
			repo = scores.NewCalculationRepoPG(deps.pool)
			metrics.Registry().MustRegister(telemetry.NewPoolCollector(deps.pool))
		} else {
			repo = scores.NewMemoryRepo(scores.DefaultMemoryCapacity)
		}
	}

	scoreSvc := scores.NewService(calc, repo, metrics)
	examSvc := exam.NewService(calc, scoreSvc, metrics)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(metrics.MetricsMiddleware())
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	if cfg.IsDev() && cfg.AuthSigningKey == "" && cfg.AuthIssuer == "" {
		logger.Warn().Msg("development auth: unauthenticated requests run as admin")
		e.Use(auth.DevAuthMiddleware(auth.AuthSkipper))
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			JWKSURL:    cfg.AuthJWKSURL,
			SigningKey: []byte(cfg.AuthSigningKey),
			Skipper:    auth.AuthSkipper,
		}))
	}

	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           middleware.DefaultRateLimitConfig().IdleTTL,
	}))
	e.Use(middleware.Audit(logger, scoreSvc))

	apiV1 := e.Group("/api/v1")
	scores.NewHandler(scoreSvc).RegisterRoutes(apiV1)
	exam.NewHandler(examSvc).RegisterRoutes(apiV1)

	hooks := cdshooks.NewHandler()
	exam.RegisterCDS(hooks, examSvc, logger)
	hooks.RegisterRoutes(e)

	e.GET("/metrics", metrics.Handler())
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	var pinger db.Pinger
	var stats func() *db.PoolStats
	if deps.pool != nil {
		pinger = deps.pool
		stats = func() *db.PoolStats { return db.GetPoolStats(deps.pool) }
	}
	e.GET("/health/db", db.HealthHandler(pinger, stats))

	return e, nil
}
