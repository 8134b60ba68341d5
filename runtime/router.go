package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	"log/slog"
	"time"
)

// Router validates, persists and records chat messages.
// It never talks to connections: delivery belongs to the gateway.
type Router struct {
	log       *slog.Logger
	messages  repositories.IMessageRepository
	directory *Directory
	censor    contract.Censor
	now       func() time.Time
}

func NewRouter(log *slog.Logger, messages repositories.IMessageRepository, directory *Directory, censor contract.Censor) *Router {
	return &Router{log: log, messages: messages, directory: directory, censor: censor, now: time.Now}
}

func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

// Broadcast stores a message for a channel and appends it to the channel's entries.
// A channel that does not exist still gets the standalone message.
func (r *Router) Broadcast(sender, text, channel string) (domain.Message, error) {
	if sender == "" || text == "" || channel == "" {
		return domain.Message{}, errors.ErrEmptyField
	}
	message, err := r.messages.SaveMessage(domain.Message{
		Sender:    sender,
		Text:      r.moderate(text),
		Channel:   channel,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		return domain.Message{}, errors.Persistence("save message", err)
	}
	if err := r.directory.Append(channel, message.Entry()); err != nil {
		if !errors.Is(err, errors.ErrChannelNotFound) {
			return domain.Message{}, err
		}
		r.log.Debug("Message stored for an unknown channel", "channel", channel, "sender", sender)
	}
	return message, nil
}

// SendPrivate stores a message in the private channel of sender and recipient,
// creating that channel on first use.
func (r *Router) SendPrivate(sender, recipient, text string) (domain.Message, error) {
	if sender == "" || recipient == "" || text == "" {
		return domain.Message{}, errors.ErrEmptyField
	}
	channel, err := r.directory.GetOrCreatePrivateChannel(sender, recipient)
	if err != nil {
		return domain.Message{}, err
	}
	message, err := r.messages.SaveMessage(domain.Message{
		Sender:    sender,
		Recipient: recipient,
		Text:      r.moderate(text),
		Channel:   channel.Name,
		IsPrivate: true,
		Timestamp: r.now().UTC(),
	})
	if err != nil {
		return domain.Message{}, errors.Persistence("save private message", err)
	}
	if err := r.directory.Append(channel.Name, message.Entry()); err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// History returns the messages of a channel in the order they were stored.
func (r *Router) History(channel string) ([]domain.Message, error) {
	messages, err := r.messages.FindMessagesByChannel(channel)
	if err != nil {
		return nil, errors.Persistence("find messages", err)
	}
	if messages == nil {
		return []domain.Message{}, nil
	}
	return messages, nil
}

func (r *Router) moderate(text string) string {
	if r.censor == nil {
		return text
	}
	return r.censor.Censor(text)
}
