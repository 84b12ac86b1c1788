package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/picking-api/internal/application/dto"
	"github.com/jhoicas/picking-api/internal/application/ledger"
	"github.com/jhoicas/picking-api/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP del libro de movimientos y los
// reportes de saldos (protegido).
type StockHandler struct {
	appendUC  *ledger.AppendMovementUseCase
	projector *ledger.Projector
}

// NewStockHandler construye el handler.
func NewStockHandler(appendUC *ledger.AppendMovementUseCase, projector *ledger.Projector) *StockHandler {
	return &StockHandler{appendUC: appendUC, projector: projector}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de stock
// @Description  Acepta tipos canónicos o los strings legados del sistema
//
//	anterior ("entrada_compra", "salida_manual", ...); se normalizan al entrar.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, type, quantity, unit_cost (entradas por compra)"
// @Success      201   {object}  dto.StockMovementDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/movements [post]
func (h *StockHandler) RegisterMovement(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	reference := entity.NoReference()
	if in.ReferenceKind != "" {
		reference = entity.MovementReference{Kind: in.ReferenceKind, ID: in.ReferenceID}
	}
	movement, err := h.appendUC.Append(c.Context(), ledger.AppendInput{
		CompanyID:    companyID,
		ProductID:    in.ProductID,
		Type:         in.Type,
		Quantity:     in.Quantity,
		UnitCost:     in.UnitCost,
		Reference:    reference,
		FromLocation: in.FromLocation,
		ToLocation:   in.ToLocation,
		Notes:        in.Notes,
		ActorID:      userID,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewStockMovementDTO(movement))
}

// ListMovements godoc
// @Summary      Listar movimientos de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  true   "Producto (UUID)"
// @Param        from        query  string  false  "Desde (RFC3339)"
// @Param        to          query  string  false  "Hasta (RFC3339)"
// @Param        limit       query  int     false  "Límite (default 50)"
// @Param        offset      query  int     false  "Offset"
// @Success      200  {array}   dto.StockMovementDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	productID := c.Query("product_id")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id requerido"})
	}
	from, to, err := parseTimeRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "rango de fechas inválido (RFC3339)"})
	}
	movements, err := h.appendUC.Query(c.Context(), ledger.QueryInput{
		CompanyID: companyID,
		ProductID: productID,
		From:      from,
		To:        to,
		Limit:     c.QueryInt("limit", 50),
		Offset:    c.QueryInt("offset", 0),
	})
	if err != nil {
		return domainError(c, err)
	}
	out := make([]dto.StockMovementDTO, 0, len(movements))
	for _, m := range movements {
		out = append(out, dto.NewStockMovementDTO(m))
	}
	return c.JSON(out)
}

// GetBalances godoc
// @Summary      Reporte de saldos de un producto
// @Description  Devuelve por movimiento el par saldo anterior / posterior.
//
//	Si el historial produce un saldo imposible la respuesta se marca
//	inconsistent en lugar de fallar.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "Producto (UUID)"
// @Param        from  query  string  false  "Desde (RFC3339)"
// @Param        to    query  string  false  "Hasta (RFC3339)"
// @Success      200  {object}  dto.BalanceReportResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/balances [get]
func (h *StockHandler) GetBalances(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	from, to, err := parseTimeRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "rango de fechas inválido (RFC3339)"})
	}
	report, err := h.projector.ReconstructBalances(c.Context(), companyID, c.Params("id"), from, to)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.NewBalanceReportResponse(report))
}

// GetCurrentBalance godoc
// @Summary      Existencia vigente de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Producto (UUID)"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/balance [get]
func (h *StockHandler) GetCurrentBalance(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	balance, err := h.projector.CurrentBalance(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": c.Params("id"), "on_hand": balance})
}

func parseTimeRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if s := c.Query("from"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	return from, to, nil
}
