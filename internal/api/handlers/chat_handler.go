package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/internal/chat"
	"github.com/softtechniques/softbot/internal/memory"
	"github.com/softtechniques/softbot/pkg/logger"
)

type ChatHandler struct {
	engine *chat.Engine
	memory *memory.Store
}

func NewChatHandler(engine *chat.Engine, mem *memory.Store) *ChatHandler {
	return &ChatHandler{
		engine: engine,
		memory: mem,
	}
}

// HandleChat processes one widget message. The engine never errors, so
// this always answers 200 with a response payload.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse chat request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	response := h.engine.Chat(c.Context(), req.SessionID, req.Message)
	return c.JSON(response)
}

func (h *ChatHandler) ListSessions(c *fiber.Ctx) error {
	sessions := h.memory.Sessions()
	return c.JSON(fiber.Map{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (h *ChatHandler) GetSession(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	summary, ok := h.memory.Summary(sessionID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	return c.JSON(fiber.Map{
		"summary": summary,
		"history": h.memory.History(sessionID),
	})
}

func (h *ChatHandler) DeleteSession(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	if !h.memory.Clear(sessionID) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	logger.Info("Session cleared", zap.String("session_id", sessionID))
	return c.JSON(fiber.Map{
		"status": "cleared",
	})
}
