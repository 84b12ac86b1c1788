package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/picking-api/internal/application/dto"
	"github.com/jhoicas/picking-api/internal/application/issues"
)

// IssuesHandler maneja las peticiones HTTP del reporte de novedades y su
// resolución (protegido).
type IssuesHandler struct {
	resolutionUC *issues.ResolutionUseCase
}

// NewIssuesHandler construye el handler.
func NewIssuesHandler(resolutionUC *issues.ResolutionUseCase) *IssuesHandler {
	return &IssuesHandler{resolutionUC: resolutionUC}
}

// GetIssueReport godoc
// @Summary      Reporte de novedades de un picking terminado
// @Description  Agrupa las líneas por faltante, avería y parcial, con los
//
//	candidatos de sustitución (mismo código de intercambio, con stock).
//
// @Tags         novedades
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Picking job (UUID)"
// @Success      200  {object}  entity.IssueReport
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/picking/jobs/{id}/issues [get]
func (h *IssuesHandler) GetIssueReport(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	report, err := h.resolutionUC.BuildIssueReport(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(report)
}

// ApplyResolution godoc
// @Summary      Resolver las novedades de una orden
// @Description  Aplica una decisión por línea (keep, remove, substitute,
//
//	adjust_quantity), recalcula los totales, limpia el reporte y deja la
//	orden elegible para un picking nuevo. Todo o nada.
//
// @Tags         novedades
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "Orden (UUID)"
// @Param        body  body  dto.ApplyResolutionRequest  true  "Decisiones"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/issues/resolve [post]
func (h *IssuesHandler) ApplyResolution(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ApplyResolutionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	decisions := make([]issues.Decision, 0, len(in.Decisions))
	for _, d := range in.Decisions {
		decisions = append(decisions, issues.Decision{
			LineItemID:          d.LineItemID,
			Action:              d.Action,
			SubstituteProductID: d.SubstituteProductID,
			Quantity:            d.Quantity,
		})
	}
	if err := h.resolutionUC.ApplyResolution(c.Context(), companyID, c.Params("id"), decisions); err != nil {
		return domainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
