package controllers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"order-assistant/assistant"
	"order-assistant/middlewares"
	"order-assistant/store"
)

// ChatService is the part of assistant.Service the handlers use.
type ChatService interface {
	Chat(ctx context.Context, message, sessionID string) assistant.Reply
	Status(ctx context.Context, sessionID string) (*assistant.StatusReport, error)
}

type ChatController struct {
	svc ChatService
}

func NewChatController(svc ChatService) *ChatController {
	return &ChatController{svc: svc}
}

type SendMessageRequest struct {
	Message   string `json:"message" validate:"required,max=1000"`
	SessionID string `json:"session_id" validate:"max=191"`
}

type StatusQuery struct {
	SessionID string `query:"session_id" json:"session_id" validate:"required,max=191"`
}

// SendMessage runs one chat turn. A missing session_id starts a new session.
func (cc *ChatController) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := middlewares.BindAndValidate(c, &req); err != nil {
		return err
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply := cc.svc.Chat(c.UserContext(), req.Message, req.SessionID)
	return c.JSON(reply)
}

func (cc *ChatController) GetStatus(c *fiber.Ctx) error {
	var q StatusQuery
	if err := middlewares.QueryAndValidate(c, &q); err != nil {
		return err
	}

	report, err := cc.svc.Status(c.UserContext(), q.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(fiber.Map{"status": "not_found"})
	}
	if err != nil {
		return err
	}
	return c.JSON(report)
}

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
