package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/picking-api/internal/application/dto"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// ProductHandler maneja las lecturas de catálogo que consumen los operarios
// de picking (protegido). El catálogo es de solo lectura en esta API: las
// altas y ediciones viven en el backoffice.
type ProductHandler struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
}

// NewProductHandler construye el handler.
func NewProductHandler(productRepo repository.ProductRepository, stockRepo repository.StockRepository) *ProductHandler {
	return &ProductHandler{productRepo: productRepo, stockRepo: stockRepo}
}

// GetByID godoc
// @Summary      Obtener producto por ID
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	product, err := h.productRepo.GetByID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if product == nil || product.CompanyID != companyID {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	}
	return c.JSON(dto.NewProductResponse(product))
}

// List godoc
// @Summary      Listar productos de la empresa
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 50)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/products [get]
func (h *ProductHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	products, err := h.productRepo.ListByCompany(companyID, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, dto.NewProductResponse(p))
	}
	return c.JSON(out)
}

// ListInterchangeable godoc
// @Summary      Sustitutos disponibles para un producto
// @Description  Productos con el mismo código de intercambio y existencia
//
//	mayor a cero. El producto consultado queda excluido.
//
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}   dto.SubstituteCandidateDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/interchangeable [get]
func (h *ProductHandler) ListInterchangeable(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	product, err := h.productRepo.GetByID(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	if product == nil || product.CompanyID != companyID {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	}
	out := make([]dto.SubstituteCandidateDTO, 0)
	if product.InterchangeCode == "" {
		return c.JSON(out)
	}
	candidates, err := h.productRepo.FindInterchangeable(companyID, product.InterchangeCode, product.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	for _, p := range candidates {
		stock, err := h.stockRepo.Get(companyID, p.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
		if stock == nil || !stock.Quantity.GreaterThan(decimal.Zero) {
			continue
		}
		out = append(out, dto.SubstituteCandidateDTO{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Available: stock.Quantity,
		})
	}
	return c.JSON(out)
}
