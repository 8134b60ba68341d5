package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"context"
	"fmt"
	"log/slog"
)

// Gateway is the connection-scoped protocol handler.
// It turns inbound commands into calls on presence, directory and router,
// and publishes the resulting events.
type Gateway struct {
	log       *slog.Logger
	presence  *Presence
	directory *Directory
	router    *Router
	registry  *Registry
	publisher contract.Publisher
}

func NewGateway(log *slog.Logger, presence *Presence, directory *Directory, router *Router,
	registry *Registry, publisher contract.Publisher) *Gateway {
	return &Gateway{
		log:       log,
		presence:  presence,
		directory: directory,
		router:    router,
		registry:  registry,
		publisher: publisher,
	}
}

// Connect attaches a new connection and returns its id.
func (g *Gateway) Connect(sink contract.EventSink) string {
	connID := g.registry.Attach(sink)
	g.log.Debug("Connection attached", "connection", connID)
	return connID
}

// Dispatch handles one inbound command of a connection.
// Work started here is never cancelled by the connection going away.
func (g *Gateway) Dispatch(ctx context.Context, connID string, cmd domain.Command) error {
	ctx = context.WithoutCancel(ctx)
	switch c := cmd.(type) {
	case domain.SetUsernameCommand:
		return g.setUsername(connID, c)
	case domain.JoinChannelCommand:
		return g.joinChannel(ctx, connID, c)
	case domain.LeaveChannelCommand:
		return g.leaveChannel(ctx, connID, c)
	case domain.SendMessageCommand:
		return g.sendMessage(ctx, c)
	case domain.PrivateMessageCommand:
		return g.privateMessage(ctx, connID, c)
	case domain.DisconnectCommand:
		return g.Disconnect(ctx, connID)
	default:
		return fmt.Errorf("%w: unknown command %T", errors.ErrInvalidInput, cmd)
	}
}

func (g *Gateway) setUsername(connID string, cmd domain.SetUsernameCommand) error {
	previous, _ := g.presence.Lookup(connID)
	if err := g.presence.Register(connID, cmd.Nickname); err != nil {
		g.log.Debug("Username refused", "connection", connID, "username", cmd.Nickname, "error", err)
		return err
	}
	if previous != "" && previous != cmd.Nickname {
		g.renameMember(connID, previous, cmd.Nickname)
	}
	g.log.Info("Username set", "connection", connID, "username", cmd.Nickname)
	return nil
}

// renameMember moves the public channel memberships of a renamed connection to its new nickname.
// Private channels keep the old nickname: their name is derived from it.
func (g *Gateway) renameMember(connID, previous, nickname string) {
	for _, group := range g.registry.Groups(connID) {
		channel, err := g.directory.Find(group)
		if err != nil || channel.IsPrivate || !channel.HasMember(previous) {
			continue
		}
		if err := g.directory.RemoveMember(group, previous); err != nil {
			g.log.Warn("Unable to remove renamed member", "channel", group, "username", previous, "error", err)
			continue
		}
		if err := g.directory.AddMember(group, nickname); err != nil {
			g.log.Warn("Unable to add renamed member", "channel", group, "username", nickname, "error", err)
		}
	}
}

func (g *Gateway) joinChannel(ctx context.Context, connID string, cmd domain.JoinChannelCommand) error {
	if cmd.Nickname == "" || cmd.Channel == "" {
		return nil
	}
	err := g.directory.AddMember(cmd.Channel, cmd.Nickname)
	switch {
	case errors.Is(err, errors.ErrChannelNotFound):
		// The delivery group of an unknown channel can still be joined
		g.log.Debug("Joining an unknown channel", "channel", cmd.Channel, "username", cmd.Nickname)
	case err != nil:
		return err
	}

	g.registry.Join(connID, cmd.Channel)
	if err := g.presence.SetActiveChannel(cmd.Nickname, cmd.Channel); err != nil {
		g.log.Debug("Active channel not tracked", "username", cmd.Nickname, "error", err)
	}
	g.publisher.Publish(ctx, event.NewEnvelope(
		event.ToGroup(cmd.Channel),
		event.SystemNotice(cmd.Channel, domain.JoinedNotice(cmd.Nickname)),
	))
	return nil
}

func (g *Gateway) leaveChannel(ctx context.Context, connID string, cmd domain.LeaveChannelCommand) error {
	if cmd.Nickname == "" || cmd.Channel == "" {
		return nil
	}
	g.registry.Leave(connID, cmd.Channel)
	if active, ok := g.presence.ActiveChannel(cmd.Nickname); ok && active == cmd.Channel {
		g.presence.ClearActiveChannel(cmd.Nickname)
	}
	if err := g.directory.RemoveMember(cmd.Channel, cmd.Nickname); err != nil && !errors.Is(err, errors.ErrNotFound) {
		g.log.Warn("Unable to remove member", "channel", cmd.Channel, "username", cmd.Nickname, "error", err)
	}
	g.publisher.Publish(ctx, event.NewEnvelope(
		event.ToGroup(cmd.Channel),
		event.SystemNotice(cmd.Channel, domain.LeftNotice(cmd.Nickname)),
	))
	return nil
}

func (g *Gateway) sendMessage(ctx context.Context, cmd domain.SendMessageCommand) error {
	message, err := g.router.Broadcast(cmd.Sender, cmd.Text, cmd.Channel)
	if err != nil {
		g.log.Warn("Message not sent", "channel", cmd.Channel, "sender", cmd.Sender, "error", err)
		return nil
	}
	g.publisher.Publish(ctx, event.NewEnvelope(
		event.ToGroup(message.Channel),
		event.MessagePosted{Sender: message.Sender, Text: message.Text, Channel: message.Channel},
	))
	return nil
}

func (g *Gateway) privateMessage(ctx context.Context, connID string, cmd domain.PrivateMessageCommand) error {
	message, err := g.router.SendPrivate(cmd.Sender, cmd.Recipient, cmd.Text)
	if err != nil {
		g.log.Warn("Private message not sent", "sender", cmd.Sender, "recipient", cmd.Recipient, "error", err)
		return nil
	}
	g.registry.Join(connID, message.Channel)
	if recipientConn, err := g.presence.LookupConnection(cmd.Recipient); err == nil {
		g.registry.Join(recipientConn, message.Channel)
		g.publisher.Publish(ctx, event.NewEnvelope(
			event.ToConnection(recipientConn),
			event.ChannelJoinRequested{Username: cmd.Recipient, ChannelName: message.Channel},
		))
	} else {
		g.log.Debug("Recipient offline", "recipient", cmd.Recipient)
	}
	g.publisher.Publish(ctx, event.NewEnvelope(
		event.ToGroup(message.Channel),
		event.MessagePosted{Sender: message.Sender, Text: message.Text, Channel: message.Channel, IsPrivate: true},
	))
	return nil
}

// Disconnect releases everything a connection holds. It is safe to call more than once:
// only the first call announces the departure.
func (g *Gateway) Disconnect(ctx context.Context, connID string) error {
	ctx = context.WithoutCancel(ctx)
	groups := g.registry.Detach(connID)
	nickname, err := g.presence.Lookup(connID)
	if err != nil {
		g.log.Debug("Anonymous connection closed", "connection", connID, "groups", len(groups))
		return nil
	}
	active, hasActive := g.presence.ActiveChannel(nickname)
	if _, err := g.presence.Unregister(connID); err != nil {
		return nil
	}

	if hasActive {
		g.releaseMembership(active, nickname)
		g.publisher.Publish(ctx, event.NewEnvelope(
			event.ToGroup(active),
			event.SystemNotice(active, domain.DisconnectedNotice(nickname)),
		))
	}
	g.publisher.Publish(ctx, event.NewEnvelope(event.ToAll(), event.UserDisconnected{Username: nickname}))
	g.log.Info("User disconnected", "connection", connID, "username", nickname)
	return nil
}

// releaseMembership drops nickname from a public channel.
// Private members are kept: a private channel cannot be joined back once left.
func (g *Gateway) releaseMembership(channel, nickname string) {
	current, err := g.directory.Find(channel)
	if err == nil && current.IsPrivate {
		return
	}
	if err := g.directory.RemoveMember(channel, nickname); err != nil && !errors.Is(err, errors.ErrNotFound) {
		g.log.Warn("Unable to remove member", "channel", channel, "username", nickname, "error", err)
	}
}

// Online lists the nicknames currently bound to a connection.
func (g *Gateway) Online() []string {
	return g.presence.Online()
}

// UpdateNotifier tells every connection that the channel listing changed.
type UpdateNotifier struct {
	publisher contract.Publisher
}

func NewUpdateNotifier(publisher contract.Publisher) *UpdateNotifier {
	return &UpdateNotifier{publisher: publisher}
}

func (n *UpdateNotifier) ChannelsChanged() {
	n.publisher.Publish(context.Background(), event.NewEnvelope(event.ToAll(), event.ChannelsUpdated{}))
}
