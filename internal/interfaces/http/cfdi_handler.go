package http

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cfdi-sellador/internal/application/billing"
	"github.com/jhoicas/cfdi-sellador/internal/application/dto"
	"github.com/jhoicas/cfdi-sellador/internal/domain"
)

// CFDIHandler maneja las peticiones HTTP de sellado y timbrado (protegido).
type CFDIHandler struct {
	uc *billing.CFDIUseCase
}

// NewCFDIHandler construye el handler.
func NewCFDIHandler(uc *billing.CFDIUseCase) *CFDIHandler {
	return &CFDIHandler{uc: uc}
}

// Seal sella un comprobante con el CSD del emisor.
// POST /api/cfdi
func (h *CFDIHandler) Seal(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.SealCFDIRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Seal(c.UserContext(), companyID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Stamp envía el CFDI sellado al PAC.
// POST /api/cfdi/:id/stamp
func (h *CFDIHandler) Stamp(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.uc.Stamp(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID obtiene un CFDI con su XML vigente.
// GET /api/cfdi/:id
func (h *CFDIHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.uc.Get(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List lista los CFDI de la empresa.
// GET /api/cfdi?limit=20&offset=0
func (h *CFDIHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "limit y offset deben ser enteros"})
	}
	out, err := h.uc.List(c.UserContext(), companyID, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DownloadPDF devuelve la representación impresa.
// GET /api/cfdi/:id/pdf
func (h *CFDIHandler) DownloadPDF(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	data, filename, err := h.uc.DownloadPDF(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	resp := dto.ErrorResponse{Message: err.Error()}
	if stage, ok := billing.FailedStage(err); ok {
		resp.Stage = string(stage)
	}
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		status, resp.Code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrNotFound):
		status, resp.Code, resp.Message = fiber.StatusNotFound, "NOT_FOUND", "CFDI no encontrado"
	case errors.Is(err, domain.ErrForbidden):
		status, resp.Code, resp.Message = fiber.StatusForbidden, "FORBIDDEN", "acceso denegado"
	case errors.Is(err, domain.ErrConflict):
		status, resp.Code = fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidParty),
		errors.Is(err, domain.ErrIncompleteDocument),
		errors.Is(err, domain.ErrDocumentFrozen):
		status, resp.Code = fiber.StatusUnprocessableEntity, "VALIDATION"
	case errors.Is(err, domain.ErrStamp), errors.Is(err, domain.ErrPACAuth):
		status, resp.Code = fiber.StatusBadGateway, "PAC_ERROR"
	case errors.Is(err, context.DeadlineExceeded):
		status, resp.Code = fiber.StatusGatewayTimeout, "PAC_TIMEOUT"
	case errors.Is(err, domain.ErrCertificateParse),
		errors.Is(err, domain.ErrKeyLoad),
		errors.Is(err, domain.ErrTransform),
		errors.Is(err, domain.ErrSigning):
		resp.Code = "CSD_ERROR"
	default:
		resp.Code = "INTERNAL"
	}
	return c.Status(status).JSON(resp)
}
