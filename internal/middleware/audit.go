package middleware

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/gofiber/fiber/v3"
)

// AuditWriter defines how audit records are persisted.
type AuditWriter interface {
	WriteAudit(identityID, action, resource, details, ip, userAgent string) error
}

// routeActions classifies the routes that change identity or document state.
var routeActions = map[string]string{
	"/login_vision":  domain.AuditActionLogin,
	"/logout":        domain.AuditActionLogout,
	"/register_user": domain.AuditActionRegister,
	"/create_rut":    domain.AuditActionDocument,
	"/update_rut":    domain.AuditActionDocument,
	"/rate_chat":     domain.AuditActionRating,
}

func auditAction(path string) string {
	if action, ok := routeActions[path]; ok {
		return action
	}
	return domain.AuditActionHTTPRequest
}

// AuditMiddleware records every request with the identity of its session.
func AuditMiddleware(writer AuditWriter) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Capture request data BEFORE handler execution (Fiber reuses context objects)
		method := c.Method()
		path := string([]byte(c.Path()))
		ip := c.IP()
		userAgent := string([]byte(c.Get("User-Agent")))

		identityID := "anonymous"
		if sess := GetSession(c); sess != nil {
			identityID = sess.IdentityID
		}

		err := c.Next()

		// Login replaces the session after the handler ran; logout clears it.
		if sess := GetSession(c); sess != nil {
			identityID = sess.IdentityID
		}

		details := map[string]interface{}{
			"method":      method,
			"path":        path,
			"status":      c.Response().StatusCode(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		detailsJSON, _ := json.Marshal(details)

		go func() {
			if writeErr := writer.WriteAudit(
				identityID,
				auditAction(path),
				path,
				string(detailsJSON),
				ip,
				userAgent,
			); writeErr != nil {
				slog.Error("failed to write audit log", "error", writeErr)
			}
		}()

		return err
	}
}
