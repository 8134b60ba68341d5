// Package event defines the outbound events pushed to connections and the envelope
// describing who should receive them.
package event

import (
	"chat-hub/domain"
	"fmt"
)

type Event interface {
	Name() string
}

// MessagePosted is the "message" event: chat lines and system notices alike.
type MessagePosted struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Channel   string `json:"channel,omitempty"`
	IsPrivate bool   `json:"isPrivate,omitempty"`
}

// ChannelJoinRequested asks a client to subscribe to a channel it was pulled into.
type ChannelJoinRequested struct {
	Username    string `json:"username"`
	ChannelName string `json:"channelName"`
}

type UserDisconnected struct {
	Username string `json:"username"`
}

// ChannelsUpdated signals listing UIs to refresh; it carries no payload.
type ChannelsUpdated struct{}

func (MessagePosted) Name() string        { return "message" }
func (ChannelJoinRequested) Name() string { return "joinChannel" }
func (UserDisconnected) Name() string     { return "userDisconnected" }
func (ChannelsUpdated) Name() string      { return "channelUpdate" }

type TargetKind int

const (
	TargetGroup TargetKind = iota
	TargetConnection
	TargetAll
)

// Target designates the receivers of an envelope: a delivery group, one connection or everyone.
type Target struct {
	Kind TargetKind
	ID   string
}

func ToGroup(channel string) Target {
	return Target{Kind: TargetGroup, ID: channel}
}

func ToConnection(connID string) Target {
	return Target{Kind: TargetConnection, ID: connID}
}

func ToAll() Target {
	return Target{Kind: TargetAll}
}

func (t Target) String() string {
	switch t.Kind {
	case TargetGroup:
		return fmt.Sprintf("channel.%s", t.ID)
	case TargetConnection:
		return fmt.Sprintf("connection.%s", t.ID)
	default:
		return "all"
	}
}

type Envelope struct {
	Target Target
	Event  Event
}

func NewEnvelope(target Target, e Event) Envelope {
	return Envelope{Target: target, Event: e}
}

func SystemNotice(channel, text string) MessagePosted {
	return MessagePosted{Sender: domain.SystemSender, Text: text, Channel: channel}
}
