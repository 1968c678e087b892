package handler

import (
	"errors"

	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/face"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/middleware"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/port"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/service"
	"github.com/gofiber/fiber/v3"
)

// IdentityHandler handles face login, registration, status and logout.
type IdentityHandler struct {
	identities *service.IdentityService
	documents  *service.DocumentService
	cookie     middleware.CookieConfig
}

// NewIdentityHandler creates a new identity handler.
func NewIdentityHandler(identities *service.IdentityService, documents *service.DocumentService, cookie middleware.CookieConfig) *IdentityHandler {
	return &IdentityHandler{identities: identities, documents: documents, cookie: cookie}
}

// Register sets up identity routes.
func (h *IdentityHandler) Register(router fiber.Router) {
	router.Post("/login_vision", h.LoginVision)
	router.Post("/register_user", h.RegisterUser)
	router.Get("/get_user_status", middleware.RequireSession(), h.UserStatus)
	router.Get("/logout", h.Logout)
}

type loginRequest struct {
	Image string `json:"image" validate:"required"`
}

// LoginVision matches the submitted face and opens a session on success.
func (h *IdentityHandler) LoginVision(c fiber.Ctx) error {
	var body loginRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := validateStruct(body); err != nil {
		return badRequest(c, "No se proporcionó imagen")
	}

	img, err := face.DecodeImage(body.Image)
	if err != nil {
		return writeError(c, err)
	}

	res, err := h.identities.Login(c.Context(), middleware.SessionToken(c), img)
	if err != nil {
		if errors.Is(err, port.ErrNoFaceDetected) {
			return c.JSON(fiber.Map{"status": "no_face_detected"})
		}
		return writeError(c, err)
	}

	if res.Session != nil {
		h.cookie.Write(c, res.Session.Token)
		middleware.SetSession(c, res.Session)
	}

	return c.JSON(fiber.Map{
		"status":    "face_analyzed",
		"user_id":   res.IdentityID,
		"user_name": res.DisplayName,
	})
}

type registerRequest struct {
	Name   string   `json:"name"   validate:"required"`
	Cedula string   `json:"cedula" validate:"required"`
	Email  string   `json:"email"  validate:"required,email"`
	Images []string `json:"images" validate:"required,min=1,dive,required"`
}

// RegisterUser enrolls a new identity from several face images.
func (h *IdentityHandler) RegisterUser(c fiber.Ctx) error {
	var body registerRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := validateStruct(body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Faltan datos",
			"detail": err.Error(),
		})
	}

	images := make([][]byte, 0, len(body.Images))
	for _, raw := range body.Images {
		img, err := face.DecodeImage(raw)
		if err != nil {
			return writeError(c, err)
		}
		images = append(images, img)
	}

	identity, err := h.identities.Register(c.Context(), service.Enrollment{
		Name:       body.Name,
		ExternalID: body.Cedula,
		Email:      body.Email,
		Images:     images,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Usuario " + identity.DisplayName + " registrado.",
	})
}

// UserStatus reports whether the current identity has a RUT document.
func (h *IdentityHandler) UserStatus(c fiber.Ctx) error {
	sess := middleware.GetSession(c)

	has, err := h.documents.Status(c.Context(), sess.IdentityID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"has_rut": has})
}

// Logout destroys the session and expires the cookie.
func (h *IdentityHandler) Logout(c fiber.Ctx) error {
	h.identities.Logout(middleware.SessionToken(c))
	middleware.SetSession(c, nil)
	h.cookie.Expire(c)

	return c.JSON(fiber.Map{"status": "success", "message": "Sesión cerrada."})
}
