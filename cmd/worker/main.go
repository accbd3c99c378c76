package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/tu-usuario/inventory-ledger/internal/application/reports"
	"github.com/tu-usuario/inventory-ledger/internal/infrastructure/postgres"
	"github.com/tu-usuario/inventory-ledger/internal/jobs"
	"github.com/tu-usuario/inventory-ledger/pkg/config"
	"github.com/tu-usuario/inventory-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("cron", cfg.Ledger.SnapshotCron).
		Msg("iniciando worker de snapshots")

	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("el worker requiere REDIS_ADDR para la cola de jobs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	reportRepo := postgres.NewReportRepository(pool)
	snapshotRepo := postgres.NewSnapshotRepository(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	snapshotUC := reports.NewSnapshotUseCase(reportRepo, int64(cfg.Ledger.LowStockThreshold))

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Snapshot:     snapshotUC,
		Snapshots:    snapshotRepo,
		Catalog:      catalogRepo,
		SnapshotCron: cfg.Ledger.SnapshotCron,
		Logger:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("construir worker")
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("worker finalizado con error")
	}
	log.Info().Msg("worker detenido")
}
