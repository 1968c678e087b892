package handler

import (
	"github.com/DanielCifuentes1997/AiVi-bot/internal/adapter/markdown"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/middleware"
	"github.com/DanielCifuentes1997/AiVi-bot/internal/service"
	"github.com/gofiber/fiber/v3"
)

// ChatHandler handles assistant turns and chat ratings.
type ChatHandler struct {
	chat    *service.ChatService
	ratings *service.RatingService
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, ratings *service.RatingService) *ChatHandler {
	return &ChatHandler{chat: chat, ratings: ratings}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	router.Post("/chat", middleware.RequireSession(), h.Chat)
	router.Post("/rate_chat", middleware.RequireSession(), h.RateChat)
}

type chatRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// Chat runs one assistant turn and returns the reply as HTML.
func (h *ChatHandler) Chat(c fiber.Ctx) error {
	var body chatRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := validateStruct(body); err != nil {
		return badRequest(c, "No se recibió pregunta")
	}

	turn, err := h.chat.Turn(c.Context(), middleware.SessionToken(c), body.Prompt)
	if err != nil {
		return writeError(c, err)
	}

	html, err := markdown.ToHTML(turn.Response)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(fiber.Map{
		"response":  html,
		"sentiment": turn.Sentiment,
	})
}

type rateRequest struct {
	Rating int `json:"rating" validate:"required"`
}

// RateChat stores a 1-5 rating and flushes the transcript.
func (h *ChatHandler) RateChat(c fiber.Ctx) error {
	var body rateRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request")
	}
	if err := validateStruct(body); err != nil {
		return badRequest(c, "No se recibió calificación")
	}

	if _, err := h.ratings.Rate(c.Context(), middleware.SessionToken(c), body.Rating); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"status": "success"})
}
