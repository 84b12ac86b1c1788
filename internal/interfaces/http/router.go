package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/picking-api/internal/application/issues"
	"github.com/jhoicas/picking-api/internal/application/ledger"
	"github.com/jhoicas/picking-api/internal/application/picking"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	PickingUC    *picking.PickingUseCase
	ResolutionUC *issues.ResolutionUseCase
	AppendUC     *ledger.AppendMovementUseCase
	Projector    *ledger.Projector
	ProductRepo  repository.ProductRepository
	StockRepo    repository.StockRepository
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Toda la API es protegida: la identidad del token aporta el operario
	// (user_id) y la empresa (company_id) de cada operación.
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Picking (protegido)
	pickingGroup := protected.Group("/picking")
	pickingHandler := NewPickingHandler(deps.PickingUC)
	pickingGroup.Post("/jobs", pickingHandler.Start)
	pickingGroup.Get("/jobs/:id", pickingHandler.GetJob)
	pickingGroup.Post("/jobs/:id/pause", pickingHandler.Pause)
	pickingGroup.Post("/jobs/:id/resume", pickingHandler.Resume)
	pickingGroup.Post("/jobs/:id/finish", pickingHandler.Finish)
	pickingGroup.Put("/lines/:id", pickingHandler.RecordLineOutcome)

	// Novedades de picking (protegido)
	issuesHandler := NewIssuesHandler(deps.ResolutionUC)
	pickingGroup.Get("/jobs/:id/issues", issuesHandler.GetIssueReport)
	protected.Post("/orders/:id/issues/resolve", issuesHandler.ApplyResolution)

	// Libro de movimientos y saldos (protegido)
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.AppendUC, deps.Projector)
	stockGroup.Post("/movements", stockHandler.RegisterMovement)
	stockGroup.Get("/movements", stockHandler.ListMovements)
	stockGroup.Get("/products/:id/balance", stockHandler.GetCurrentBalance)
	stockGroup.Get("/products/:id/balances", stockHandler.GetBalances)

	// Catálogo de solo lectura (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductRepo, deps.StockRepo)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/interchangeable", productHandler.ListInterchangeable)
}
