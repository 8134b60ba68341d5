package server

import (
	"chat-hub/domain"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type CreateChannelRequest struct {
	Name string `json:"name" validate:"required"`
}

type MembershipRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
}

type PostMessageRequest struct {
	Sender  string `json:"sender" validate:"required"`
	Text    string `json:"text" validate:"required"`
	Channel string `json:"channel" validate:"required"`
}

type ChannelResponse struct {
	Name      string    `json:"name"`
	IsPrivate bool      `json:"isPrivate"`
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"createdAt"`
}

type UsersResponse struct {
	Users []string `json:"users"`
}

type ChatMessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Text      string    `json:"text"`
	Channel   string    `json:"channel"`
	IsPrivate bool      `json:"isPrivate"`
	Timestamp time.Time `json:"timestamp"`
}

func toChannelResponse(channel domain.Channel) ChannelResponse {
	return ChannelResponse{
		Name:      channel.Name,
		IsPrivate: channel.IsPrivate,
		Users:     lo.Ternary(channel.Members == nil, []string{}, channel.Members),
		CreatedAt: channel.CreatedAt,
	}
}

func toChannelResponses(channels []domain.Channel) []ChannelResponse {
	return lo.Map(channels, func(channel domain.Channel, _ int) ChannelResponse {
		return toChannelResponse(channel)
	})
}

func toMessageResponse(message domain.Message) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        message.ID,
		Sender:    message.Sender,
		Recipient: message.Recipient,
		Text:      message.Text,
		Channel:   message.Channel,
		IsPrivate: message.IsPrivate,
		Timestamp: message.Timestamp,
	}
}
