package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/inventory-ledger/internal/application/ledger"
	"github.com/tu-usuario/inventory-ledger/internal/application/reports"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine    *ledger.MovementEngine
	History   *ledger.HistoryUseCase
	Snapshot  *reports.SnapshotUseCase
	JWTSecret string
}

// Router registra las rutas de la API. Todo el ledger es protegido: las
// mutaciones exigen además un rol operativo (admin o bodeguero); la lectura
// la permite cualquier rol autenticado.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	protected := api.Group("/ledger", AuthMiddleware(deps.JWTSecret))

	movementHandler := NewMovementHandler(deps.Engine)
	mutate := RequireRole("admin", "bodeguero")
	protected.Post("/purchases", mutate, movementHandler.ApplyPurchase)
	protected.Post("/sales", mutate, movementHandler.ApplySale)
	protected.Post("/transfers", mutate, movementHandler.ApplyTransfer)

	historyHandler := NewHistoryHandler(deps.History)
	protected.Get("/movements", historyHandler.ListMovements)

	snapshotHandler := NewSnapshotHandler(deps.Snapshot)
	protected.Get("/snapshot", snapshotHandler.GetSnapshot)
}
