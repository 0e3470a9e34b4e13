package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/config"
	pgrepo "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/repo/postgres"
	redrepo "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/repo/redis"
	authsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/auth"
	ratesvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/rate"
	reportsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/reports"
	trustsvc "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/services/trust"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	trustRepo := pgrepo.NewTrustRepo(pool)
	trustLogRepo := pgrepo.NewTrustLogRepo(pool)
	trustMetricsRepo := pgrepo.NewTrustMetricsRepo(pool)
	reportRepo := pgrepo.NewReportRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	rateLimiter := ratesvc.NewLimiter(rateRepo, cfg.Trust.ReportsPerHour, cfg.Trust.ReportsPerDay)
	trustService := trustsvc.NewService(trustsvc.Dependencies{
		Pool:       pool,
		TrustStore: trustRepo,
		LogStore:   trustLogRepo,
		Reports:    reportRepo,
	})
	reportService := reportsvc.NewService(reportsvc.Dependencies{
		ReportStore: reportRepo,
		Ledger:      trustService,
		Penalties:   trustLogRepo,
		RateLimiter: rateLimiter,
	}, reportsvc.Config{
		ResolvedDelta:       cfg.Trust.ResolvedDelta,
		RejectedDelta:       cfg.Trust.RejectedDelta,
		AppealAcceptedDelta: cfg.Trust.AppealAcceptedDelta,
		AppealRejectedDelta: cfg.Trust.AppealRejectedDelta,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		JWTManager:       jwtManager,
		TrustService:     trustService,
		ReportService:    reportService,
		TrustLogRepo:     trustLogRepo,
		TrustMetricsRepo: trustMetricsRepo,
		Logger:           log,
		Config:           cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
