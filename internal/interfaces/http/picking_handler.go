package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/picking-api/internal/application/dto"
	"github.com/jhoicas/picking-api/internal/application/picking"
)

// PickingHandler maneja las peticiones HTTP del ciclo de picking (protegido).
type PickingHandler struct {
	uc *picking.PickingUseCase
}

// NewPickingHandler construye el handler.
func NewPickingHandler(uc *picking.PickingUseCase) *PickingHandler {
	return &PickingHandler{uc: uc}
}

// Start godoc
// @Summary      Iniciar picking de una orden
// @Description  Crea un job con una línea por línea de la orden y la bloquea
//
//	contra ediciones. Si ya hay un job activo para la orden lo devuelve.
//
// @Tags         picking
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartPickingRequest  true  "order_id"
// @Success      201   {object}  dto.PickingJobResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/picking/jobs [post]
func (h *PickingHandler) Start(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.StartPickingRequest
	if err := c.BodyParser(&in); err != nil || in.OrderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	job, err := h.uc.Start(c.Context(), companyID, in.OrderID, userID)
	if err != nil {
		return domainError(c, err)
	}
	_, items, err := h.uc.GetJob(c.Context(), companyID, job.ID)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewPickingJobResponse(job, items))
}

// GetJob godoc
// @Summary      Consultar un picking job con sus líneas
// @Tags         picking
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del job"
// @Success      200  {object}  dto.PickingJobResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/picking/jobs/{id} [get]
func (h *PickingHandler) GetJob(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	job, items, err := h.uc.GetJob(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.NewPickingJobResponse(job, items))
}

// Pause godoc
// @Summary      Pausar un picking job
// @Description  Única cancelación en vuelo soportada; idempotente y siempre
//
//	segura (aún no hay escrituras al libro de movimientos).
//
// @Tags         picking
// @Security     Bearer
// @Param        id  path  string  true  "ID del job"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/picking/jobs/{id}/pause [post]
func (h *PickingHandler) Pause(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if err := h.uc.Pause(c.Context(), companyID, c.Params("id")); err != nil {
		return domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Resume godoc
// @Summary      Reanudar un picking job pausado
// @Tags         picking
// @Security     Bearer
// @Param        id  path  string  true  "ID del job"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/picking/jobs/{id}/resume [post]
func (h *PickingHandler) Resume(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if err := h.uc.Resume(c.Context(), companyID, c.Params("id")); err != nil {
		return domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordLineOutcome godoc
// @Summary      Registrar el resultado de una línea de picking
// @Description  fulfilled/substituted validan disponibilidad contra la
//
//	existencia vigente. No escribe al libro: la descarga ocurre en el finish.
//
// @Tags         picking
// @Security     Bearer
// @Accept       json
// @Param        id    path  string  true  "ID de la línea"
// @Param        body  body  dto.LineOutcomeRequest  true  "status, quantity, substitute_product_id, notes"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/picking/lines/{id} [put]
func (h *PickingHandler) RecordLineOutcome(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.LineOutcomeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	err := h.uc.RecordLineOutcome(c.Context(), picking.LineOutcomeInput{
		CompanyID:           companyID,
		LineID:              c.Params("id"),
		Status:              in.Status,
		Quantity:            in.Quantity,
		SubstituteProductID: in.SubstituteProductID,
		Notes:               in.Notes,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Finish godoc
// @Summary      Finalizar un picking job
// @Description  Revalida disponibilidad y descarga todas las líneas alistadas
//
//	al libro de movimientos en una sola transacción (todo o nada).
//
// @Tags         picking
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del job"
// @Success      200  {object}  dto.PickingJobResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/picking/jobs/{id}/finish [post]
func (h *PickingHandler) Finish(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	job, err := h.uc.Finish(c.Context(), companyID, c.Params("id"), userID)
	if err != nil {
		return domainError(c, err)
	}
	_, items, err := h.uc.GetJob(c.Context(), companyID, job.ID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(dto.NewPickingJobResponse(job, items))
}
