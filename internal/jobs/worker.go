package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/tu-usuario/inventory-ledger/internal/application/reports"
	"github.com/tu-usuario/inventory-ledger/internal/domain/repository"
	"github.com/tu-usuario/inventory-ledger/pkg/logger"
)

// Worker envuelve el servidor asynq y el scheduler del snapshot diario.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// WorkerConfig dependencias para arrancar el worker.
type WorkerConfig struct {
	RedisOpts    asynq.RedisClientOpt
	Snapshot     *reports.SnapshotUseCase
	Snapshots    repository.SnapshotRepository
	Catalog      repository.CatalogRepository
	SnapshotCron string // expresión cron del fanout diario, en UTC
	Logger       *logger.Logger
}

// NewWorker construye el worker con sus handlers y, si hay cron configurado,
// el scheduler que dispara el fanout.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})
	client := asynq.NewClient(cfg.RedisOpts)

	h := &handlers{
		snapshot:  cfg.Snapshot,
		snapshots: cfg.Snapshots,
		catalog:   cfg.Catalog,
		client:    client,
		log:       cfg.Logger,
	}
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskSnapshotFanout, h.handleSnapshotFanout)
	mux.HandleFunc(TaskDailySnapshot, h.handleDailySnapshot)

	var scheduler *asynq.Scheduler
	if cfg.SnapshotCron != "" {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		if _, err := scheduler.Register(cfg.SnapshotCron, NewSnapshotFanoutTask(), asynq.Queue(QueueDefault)); err != nil {
			return nil, fmt.Errorf("registrar cron de snapshot: %w", err)
		}
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: cfg.Logger}, nil
}

// Run procesa jobs hasta que el contexto se cancele.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: sin configurar")
	}
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}

type handlers struct {
	snapshot  *reports.SnapshotUseCase
	snapshots repository.SnapshotRepository
	catalog   repository.CatalogRepository
	client    *asynq.Client
	log       *logger.Logger
}

// handleSnapshotFanout encola un snapshot por empresa con el mismo instante de
// corte. Si una empresa falla al encolarse, las demás siguen; el fallo queda
// en el log y la tarea no se reintenta completa.
func (h *handlers) handleSnapshotFanout(ctx context.Context, _ *asynq.Task) error {
	asOf := time.Now().UTC()
	companyIDs, err := h.catalog.ListCompanyIDs(ctx)
	if err != nil {
		return fmt.Errorf("fanout: listar empresas: %w", err)
	}
	for _, companyID := range companyIDs {
		task, err := NewDailySnapshotTask(DailySnapshotPayload{CompanyID: companyID, AsOf: asOf})
		if err != nil {
			h.log.Warn().Err(err).Str("company_id", companyID).Msg("no se pudo construir la tarea de snapshot")
			continue
		}
		if _, err := h.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
			h.log.Warn().Err(err).Str("company_id", companyID).Msg("no se pudo encolar el snapshot")
		}
	}
	h.log.Info().Int("companies", len(companyIDs)).Time("as_of", asOf).Msg("fanout de snapshots encolado")
	return nil
}

// handleDailySnapshot computa y persiste el snapshot de la empresa del payload.
func (h *handlers) handleDailySnapshot(ctx context.Context, t *asynq.Task) error {
	var payload DailySnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.CompanyID == "" {
		return asynq.SkipRetry
	}
	if payload.AsOf.IsZero() {
		payload.AsOf = time.Now().UTC()
	}

	snapshot, err := h.snapshot.ComputeDailySnapshot(ctx, payload.CompanyID, payload.AsOf)
	if err != nil {
		return fmt.Errorf("snapshot de %s: %w", payload.CompanyID, err)
	}
	if err := h.snapshots.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("guardar snapshot de %s: %w", payload.CompanyID, err)
	}
	h.log.Info().
		Str("company_id", payload.CompanyID).
		Time("as_of", payload.AsOf).
		Msg("snapshot diario persistido")
	return nil
}
