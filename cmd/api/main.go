package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/tu-usuario/inventory-ledger/internal/application/ledger"
	"github.com/tu-usuario/inventory-ledger/internal/application/reports"
	"github.com/tu-usuario/inventory-ledger/internal/infrastructure/audit"
	"github.com/tu-usuario/inventory-ledger/internal/infrastructure/postgres"
	"github.com/tu-usuario/inventory-ledger/internal/infrastructure/rediscache"
	httpRouter "github.com/tu-usuario/inventory-ledger/internal/interfaces/http"
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
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Side-cache opcional: sin REDIS_ADDR el ledger opera directo contra la DB.
	var cache ledger.QueryCache
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		cache = rediscache.NewCache(redisClient, time.Duration(cfg.Redis.CacheTTLSec)*time.Second)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("side-cache Redis habilitado")
	}

	txRunner := postgres.NewTxRunner(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	positionRepo := postgres.NewStockPositionRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)

	auditEmitter := audit.NewLogEmitter(log)
	engine := ledger.NewMovementEngine(txRunner, catalogRepo, auditEmitter, cache, log)
	historyUC := ledger.NewHistoryUseCase(movementRepo, positionRepo, cache)
	snapshotUC := reports.NewSnapshotUseCase(reportRepo, int64(cfg.Ledger.LowStockThreshold))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Engine:    engine,
		History:   historyUC,
		Snapshot:  snapshotUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
