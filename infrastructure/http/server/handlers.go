package server

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
)

// bind decodes and validates a JSON body. Failures are invalid input.
func (h *Handlers) bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}
	if err := h.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handlers) createChannel(c *fiber.Ctx) error {
	var request CreateChannelRequest
	if err := h.bind(c, &request); err != nil {
		return fail(c, err)
	}
	channel, err := h.service.CreateChannel(request.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toChannelResponse(channel))
}

func (h *Handlers) listChannels(c *fiber.Ctx) error {
	channels, err := h.service.ListChannels(c.Query("username"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toChannelResponses(channels))
}

func (h *Handlers) deleteChannel(c *fiber.Ctx) error {
	if err := h.service.DeleteChannel(c.Params("name")); err != nil {
		return fail(c, err)
	}
	return c.JSON(MessageResponse{Message: "Channel deleted successfully"})
}

func (h *Handlers) joinChannel(c *fiber.Ctx) error {
	var request MembershipRequest
	if err := h.bind(c, &request); err != nil {
		return fail(c, err)
	}
	if err := h.service.JoinChannel(request.Name, request.Username); err != nil {
		return fail(c, err)
	}
	return c.JSON(MessageResponse{Message: fmt.Sprintf("Joined channel: %s", request.Name)})
}

func (h *Handlers) quitChannel(c *fiber.Ctx) error {
	var request MembershipRequest
	if err := h.bind(c, &request); err != nil {
		return fail(c, err)
	}
	if err := h.service.QuitChannel(request.Name, request.Username); err != nil {
		return fail(c, err)
	}
	return c.JSON(MessageResponse{Message: fmt.Sprintf("User %s quit channel: %s", request.Username, request.Name)})
}

func (h *Handlers) filterChannels(c *fiber.Ctx) error {
	channels, err := h.service.FilterChannels(c.Params("filter"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(toChannelResponses(channels))
}

func (h *Handlers) channelUsers(c *fiber.Ctx) error {
	users, err := h.service.ChannelUsers(c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(UsersResponse{Users: lo.Ternary(users == nil, []string{}, users)})
}

func (h *Handlers) onlineUsers(c *fiber.Ctx) error {
	return c.JSON(UsersResponse{Users: h.service.OnlineUsers()})
}

func (h *Handlers) getMessages(c *fiber.Ctx) error {
	messages, err := h.service.GetMessages(c.Params("channelName"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(lo.Map(messages, func(message domain.Message, _ int) ChatMessageResponse {
		return toMessageResponse(message)
	}))
}

func (h *Handlers) postMessage(c *fiber.Ctx) error {
	var request PostMessageRequest
	if err := h.bind(c, &request); err != nil {
		return fail(c, err)
	}
	message, err := h.service.PostMessage(request.Sender, request.Text, request.Channel)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMessageResponse(message))
}
