package handler

import (
	"github.com/DanielCifuentes1997/AiVi-bot/internal/middleware"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/service"
	"github.com/gofiber/fiber/v3"
)

// DocumentHandler handles RUT creation and updates.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

// Register sets up document routes.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Post("/create_rut", middleware.RequireSession(), h.CreateRUT)
	router.Post("/update_rut", middleware.RequireSession(), h.UpdateRUT)
}

// CreateRUT fills a fresh copy of the template with the posted fields.
func (h *DocumentHandler) CreateRUT(c fiber.Ctx) error {
	values := map[string]any{}
	if err := c.Bind().JSON(&values); err != nil {
		return badRequest(c, "invalid request")
	}

	if _, err := h.documents.Create(c.Context(), middleware.GetSession(c), values); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "message": "RUT creado correctamente."})
}

type updateRequest struct {
	Field string  `json:"field" validate:"required"`
	Value *string `json:"value" validate:"required"`
}

// UpdateRUT rewrites a single field of the existing RUT.
func (h *DocumentHandler) UpdateRUT(c fiber.Ctx) error {
	var body updateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := validateStruct(body); err != nil {
		return badRequest(c, "Faltan datos")
	}

	if err := h.documents.Update(c.Context(), middleware.GetSession(c), body.Field, *body.Value); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success", "message": "RUT actualizado."})
}
