package controller

import (
	"contact-assistant-be/internal/dto"
	"contact-assistant-be/internal/pkg/serverutils"
	"contact-assistant-be/internal/service"
	internalWS "contact-assistant-be/internal/websocket"
	"contact-assistant-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateThread(ctx *fiber.Ctx) error
	ListThreads(ctx *fiber.Ctx) error
	GetMessages(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	DeleteThread(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	hub     *internalWS.Hub
	auth    fiber.Handler
}

func NewChatController(service service.IChatService, hub *internalWS.Hub, auth fiber.Handler) IChatController {
	return &chatController{service: service, hub: hub, auth: auth}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(c.auth)
	h.Post("/threads", c.CreateThread)
	h.Get("/threads", c.ListThreads)
	h.Get("/threads/:id/messages", c.GetMessages)
	h.Post("/threads/:id/messages", c.SendMessage)
	h.Delete("/threads/:id", c.DeleteThread)

	if c.hub != nil {
		r.Get("/ws", c.auth, c.upgrade, websocket.New(c.serveWs))
	}
}

func (c *chatController) CreateThread(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateThreadRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateThread(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create thread", res))
}

func (c *chatController) ListThreads(ctx *fiber.Ctx) error {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.ListThreads(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get threads", res))
}

func (c *chatController) GetMessages(ctx *fiber.Ctx) error {
	userId, threadId, err := userAndThread(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.GetMessages(ctx.Context(), userId, threadId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get messages", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	userId, threadId, err := userAndThread(ctx)
	if err != nil {
		return err
	}

	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), userId, threadId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) DeleteThread(ctx *fiber.Ctx) error {
	userId, threadId, err := userAndThread(ctx)
	if err != nil {
		return err
	}

	if err := c.service.DeleteThread(ctx.Context(), userId, threadId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete thread", nil))
}

func (c *chatController) upgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	userId, err := userIdFrom(ctx)
	if err != nil {
		return err
	}
	ctx.Locals("ws_user_id", userId)
	return ctx.Next()
}

func (c *chatController) serveWs(conn *websocket.Conn) {
	userId, ok := conn.Locals("ws_user_id").(uuid.UUID)
	if !ok {
		conn.Close()
		return
	}
	internalWS.ServeWs(c.hub, conn, userId)
}

func userIdFrom(ctx *fiber.Ctx) (uuid.UUID, error) {
	raw, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindForbidden, "auth", err)
	}
	return userId, nil
}

func userAndThread(ctx *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	userId, err := userIdFrom(ctx)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	threadId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, apperr.Newf(apperr.KindValidation, "chat", "invalid thread id %q", ctx.Params("id"))
	}
	return userId, threadId, nil
}
