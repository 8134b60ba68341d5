// Package domain contains core concepts of the chat system.
// This file defines Message events and related rules.
// Messages are immutable once created.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SystemSender signs the notices emitted by the server itself.
const SystemSender = "System"

// Message represents an immutable chat event.
type Message struct {
	ID        uuid.UUID
	Sender    string
	Recipient string // only set on private messages
	Text      string
	Channel   string
	IsPrivate bool
	Timestamp time.Time
}

// ChannelEntry is the tuple appended to a channel's own message sequence.
type ChannelEntry struct {
	Sender    string
	Text      string
	Timestamp time.Time
}

func (m Message) Entry() ChannelEntry {
	return ChannelEntry{Sender: m.Sender, Text: m.Text, Timestamp: m.Timestamp}
}

func JoinedNotice(nickname string) string {
	return fmt.Sprintf("%s has joined the channel", nickname)
}

func LeftNotice(nickname string) string {
	return fmt.Sprintf("%s has left the channel", nickname)
}

func DisconnectedNotice(nickname string) string {
	return fmt.Sprintf("%s has disconnected", nickname)
}
