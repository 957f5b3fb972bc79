package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cfdi-sellador/internal/application/billing"
	"github.com/jhoicas/cfdi-sellador/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CFDIUC    *billing.CFDIUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	writers := RequireRole(jwt.RoleAdmin, jwt.RoleEmisor)
	readers := RequireRole(jwt.RoleAdmin, jwt.RoleEmisor, jwt.RoleAuditor)

	// CFDI
	cfdis := protected.Group("/cfdi")
	cfdiHandler := NewCFDIHandler(deps.CFDIUC)
	cfdis.Post("/", writers, cfdiHandler.Seal)
	cfdis.Get("/", readers, cfdiHandler.List)
	cfdis.Get("/:id", readers, cfdiHandler.GetByID)
	cfdis.Post("/:id/stamp", writers, cfdiHandler.Stamp)
	cfdis.Get("/:id/pdf", readers, cfdiHandler.DownloadPDF)
}
