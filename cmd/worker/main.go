package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/config"
	"github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/infra/logger"
	metricsjob "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/jobs/metrics"
	pgrepo "github.com/dibyajyoti-chakrabarti/reportmitra-backend/internal/repo/postgres"
)

func main() {
	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	job := metricsjob.New(pgrepo.NewTrustMetricsRepo(pool), cfg.Metrics.RollupLookback, log)

	interval := cfg.Metrics.RollupInterval
	if interval <= 0 {
		interval = time.Hour
	}

	log.Info("trust metrics worker started", zap.Duration("interval", interval))

	if err := job.Run(ctx); err != nil {
		log.Error("trust metrics rollup failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("trust metrics worker stopped")
			return
		case <-ticker.C:
			if err := job.Run(ctx); err != nil {
				log.Error("trust metrics rollup failed", zap.Error(err))
			}
		}
	}
}
