package middleware

import (
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
	"github.com/gofiber/fiber/v3"
)

const (
	localSession = "session"
	localToken   = "session_token"
)

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration // 0 = browser session
}

// Write sets the session cookie to token. A positive MaxAge restarts the
// browser-side expiry on every call.
func (cc CookieConfig) Write(c fiber.Ctx, token string) {
	ck := &fiber.Cookie{
		Name:     cc.Name,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   cc.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
	if cc.MaxAge > 0 {
		ck.MaxAge = int(cc.MaxAge.Seconds())
	} else {
		ck.SessionOnly = true
	}
	c.Cookie(ck)
}

// Expire tells the browser to drop the session cookie.
func (cc CookieConfig) Expire(c fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     cc.Name,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   cc.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

// SessionConfig holds session middleware configuration.
type SessionConfig struct {
	Store  port.SessionStore
	Cookie CookieConfig
}

// SessionMiddleware resolves the session cookie and injects the live session
// into the request context. Tokens without a live session are ignored, so a
// client can never get a token of its choosing adopted. Each request on a
// live session re-issues the cookie, keeping its lifetime in step with the
// server-side idle timer.
func SessionMiddleware(cfg SessionConfig) fiber.Handler {
	return func(c fiber.Ctx) error {
		token := c.Cookies(cfg.Cookie.Name)
		if token == "" {
			return c.Next()
		}

		sess, err := cfg.Store.Get(token)
		if err != nil {
			return c.Next()
		}
		SetSession(c, sess)
		cfg.Cookie.Write(c, sess.Token)
		return c.Next()
	}
}

// RequireSession rejects requests without a live session.
func RequireSession() fiber.Handler {
	return func(c fiber.Ctx) error {
		if GetSession(c) == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "No hay sesión activa",
			})
		}
		return c.Next()
	}
}

// GetSession extracts the session snapshot from Fiber locals.
func GetSession(c fiber.Ctx) *domain.Session {
	s, ok := c.Locals(localSession).(*domain.Session)
	if !ok {
		return nil
	}
	return s
}

// SessionToken returns the token of the live session, if any.
func SessionToken(c fiber.Ctx) string {
	t, _ := c.Locals(localToken).(string)
	return t
}

// SetSession replaces the session seen by later middleware in this request.
// A nil session clears it.
func SetSession(c fiber.Ctx, sess *domain.Session) {
	if sess == nil {
		c.Locals(localSession, nil)
		c.Locals(localToken, nil)
		return
	}
	c.Locals(localSession, sess)
	c.Locals(localToken, sess.Token)
}
