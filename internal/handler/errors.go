package handler

import (
	"errors"
	"log/slog"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
	"github.com/gofiber/fiber/v3"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

// Client-facing messages stay in Spanish, as the assistant does.
var errorTable = []errorMapping{
	{port.ErrNoActiveSession, fiber.StatusUnauthorized, "No hay sesión activa"},
	{port.ErrInvalidImage, fiber.StatusBadRequest, "Imagen inválida"},
	{port.ErrNoUsableFace, fiber.StatusBadRequest, "No se encontró cara clara"},
	{port.ErrDuplicateIdentity, fiber.StatusConflict, "La cédula o el email ya están registrados."},
	{port.ErrInvalidRating, fiber.StatusBadRequest, "La calificación debe estar entre 1 y 5"},
	{port.ErrNoDocument, fiber.StatusNotFound, "Usuario sin RUT para actualizar"},
	{port.ErrInvalidField, fiber.StatusBadRequest, "Campo inválido"},
	{port.ErrFieldNotFound, fiber.StatusInternalServerError, "Campo no encontrado en el PDF"},
	{port.ErrIdentityNotFound, fiber.StatusNotFound, "Usuario no encontrado"},
	{port.ErrAssistantUnavailable, fiber.StatusServiceUnavailable, "Modelo IA no configurado"},
	{port.ErrUpstream, fiber.StatusBadGateway, "Error al contactar un servicio externo"},
	{port.ErrStorage, fiber.StatusInternalServerError, "Error de almacenamiento"},
}

// writeError maps a service error to an HTTP status and JSON body.
func writeError(c fiber.Ctx, err error) error {
	for _, m := range errorTable {
		if errors.Is(err, m.err) {
			if m.status >= fiber.StatusInternalServerError {
				slog.Error("request failed", "path", c.Path(), "error", err)
			}
			return c.Status(m.status).JSON(fiber.Map{"error": m.message, "detail": err.Error()})
		}
	}
	slog.Error("unhandled error", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}
