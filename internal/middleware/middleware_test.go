package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/session"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/domain"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditRecord struct {
	identityID, action, resource string
}

type recordingWriter struct {
	ch chan auditRecord
}

func (w *recordingWriter) WriteAudit(identityID, action, resource, details, ip, userAgent string) error {
	w.ch <- auditRecord{identityID: identityID, action: action, resource: resource}
	return nil
}

func (w *recordingWriter) next(t *testing.T) auditRecord {
	t.Helper()
	select {
	case r := <-w.ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("audit record not written")
		return auditRecord{}
	}
}

const cookie = "aivi_session"

func newApp(t *testing.T) (*fiber.App, *session.MemoryStore, *recordingWriter) {
	t.Helper()
	store := session.NewMemoryStore(0)
	writer := &recordingWriter{ch: make(chan auditRecord, 8)}

	app := fiber.New()
	app.Use(SessionMiddleware(SessionConfig{Store: store, Cookie: CookieConfig{Name: cookie, MaxAge: time.Hour}}))
	app.Use(AuditMiddleware(writer))

	app.Get("/private", RequireSession(), func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": GetSession(c).DisplayName, "token": SessionToken(c)})
	})
	app.Get("/logout", func(c fiber.Ctx) error {
		store.Destroy(SessionToken(c))
		SetSession(c, nil)
		return c.SendStatus(fiber.StatusOK)
	})
	app.Post("/login_vision", func(c fiber.Ctx) error {
		sess, err := store.Create("", "123", "Ana")
		if err != nil {
			return err
		}
		SetSession(c, sess)
		return c.SendStatus(fiber.StatusOK)
	})
	return app, store, writer
}

func withCookie(req *http.Request, token string) *http.Request {
	req.AddCookie(&http.Cookie{Name: cookie, Value: token})
	return req
}

func TestRequireSession(t *testing.T) {
	app, store, writer := newApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/private", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, auditRecord{"anonymous", domain.AuditActionHTTPRequest, "/private"}, writer.next(t))

	resp, err = app.Test(withCookie(httptest.NewRequest(http.MethodGet, "/private", nil), "stale"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	writer.next(t)

	sess, err := store.Create("tok-1", "123", "Ana")
	require.NoError(t, err)
	resp, err = app.Test(withCookie(httptest.NewRequest(http.MethodGet, "/private", nil), sess.Token))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, auditRecord{"123", domain.AuditActionHTTPRequest, "/private"}, writer.next(t))
}

func TestSessionCookieRefresh(t *testing.T) {
	app, store, writer := newApp(t)
	app.Get("/token", func(c fiber.Ctx) error {
		return c.SendString(SessionToken(c))
	})

	resp, err := app.Test(withCookie(httptest.NewRequest(http.MethodGet, "/token", nil), "unknown"))
	require.NoError(t, err)
	writer.next(t)
	assert.Empty(t, resp.Cookies())
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, string(body), "unknown tokens are not exposed to handlers")

	sess, err := store.Create("", "123", "Ana")
	require.NoError(t, err)
	resp, err = app.Test(withCookie(httptest.NewRequest(http.MethodGet, "/private", nil), sess.Token))
	require.NoError(t, err)
	writer.next(t)
	require.Len(t, resp.Cookies(), 1)
	refreshed := resp.Cookies()[0]
	assert.Equal(t, cookie, refreshed.Name)
	assert.Equal(t, sess.Token, refreshed.Value)
	assert.Equal(t, int(time.Hour.Seconds()), refreshed.MaxAge)
	assert.True(t, refreshed.HttpOnly)
}

func TestSessionOnlyCookie(t *testing.T) {
	store := session.NewMemoryStore(0)
	app := fiber.New()
	app.Use(SessionMiddleware(SessionConfig{Store: store, Cookie: CookieConfig{Name: cookie}}))
	app.Get("/", func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	sess, err := store.Create("", "123", "Ana")
	require.NoError(t, err)
	resp, err := app.Test(withCookie(httptest.NewRequest(http.MethodGet, "/", nil), sess.Token))
	require.NoError(t, err)
	require.Len(t, resp.Cookies(), 1)
	assert.Zero(t, resp.Cookies()[0].MaxAge)
	assert.True(t, resp.Cookies()[0].Expires.IsZero())
}

func TestAuditActionsFollowSessionChanges(t *testing.T) {
	app, store, writer := newApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/login_vision", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, auditRecord{"123", domain.AuditActionLogin, "/login_vision"}, writer.next(t))

	sess, err := store.Create("tok-2", "456", "Luis")
	require.NoError(t, err)
	resp, err = app.Test(withCookie(httptest.NewRequest(http.MethodGet, "/logout", nil), sess.Token))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, auditRecord{"456", domain.AuditActionLogout, "/logout"}, writer.next(t))

	_, err = store.Get(sess.Token)
	assert.Error(t, err)
}

func TestAuditAction(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/register_user", domain.AuditActionRegister},
		{"/create_rut", domain.AuditActionDocument},
		{"/update_rut", domain.AuditActionDocument},
		{"/rate_chat", domain.AuditActionRating},
		{"/chat", domain.AuditActionHTTPRequest},
		{"/", domain.AuditActionHTTPRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, auditAction(tt.path))
		})
	}
}
