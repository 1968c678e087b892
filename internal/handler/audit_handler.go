package handler

import (
	"context"
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/gofiber/fiber/v3"
)

// AuditLister reads back persisted audit records.
type AuditLister interface {
	ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error)
}

// AuditHandler handles audit log endpoints for operators.
type AuditHandler struct {
	store AuditLister
	token string
}

// NewAuditHandler creates a new audit handler guarded by a static bearer token.
func NewAuditHandler(store AuditLister, token string) *AuditHandler {
	return &AuditHandler{store: store, token: token}
}

// Register sets up audit routes.
func (h *AuditHandler) Register(router fiber.Router) {
	audit := router.Group("/audit", h.requireToken)
	audit.Get("/logs", h.ListLogs)
}

func (h *AuditHandler) requireToken(c fiber.Ctx) error {
	got := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
	if h.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	return c.Next()
}

// ListLogs returns audit logs with optional filtering.
func (h *AuditHandler) ListLogs(c fiber.Ctx) error {
	limitStr := c.Query("limit", "100")
	limit, _ := strconv.Atoi(limitStr)
	action := c.Query("action", "")

	logs, err := h.store.ListAuditLogs(c.Context(), limit, action)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"count": len(logs),
	})
}
