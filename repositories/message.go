//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	SaveMessage(message domain.Message) (domain.Message, error)
	FindMessagesByChannel(channel string) ([]domain.Message, error)
}

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
	seq           *badger.Sequence
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) (*MessageRepository, error) {
	seq, err := db.GetSequence([]byte(messageSequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages, seq: seq}, nil
}

type DiskMessage struct {
	ID        uuid.UUID `json:"id"`
	Sender    string    `json:"sender"`
	Recipient string    `json:"recipient,omitempty"`
	Text      string    `json:"text"`
	Channel   string    `json:"channel"`
	IsPrivate bool      `json:"isPrivate"`
	At        int64     `json:"at"`
}

// SaveMessage persists a message in BadgerDB and returns it with its ID set.
// The key is formatted as "msg:{hex(channel)}:{sequence padded to 19 digits}" so a
// prefix scan returns messages in the order they were persisted, whatever their timestamps.
func (m *MessageRepository) SaveMessage(message domain.Message) (domain.Message, error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	seq, err := m.seq.Next()
	if err != nil {
		return domain.Message{}, err
	}
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}
	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sequencedKey(messagePrefix, message.Channel, seq), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// FindMessagesByChannel returns the messages of a channel, oldest first.
// When limitMessages is set only the most recent ones are kept.
func (m *MessageRepository) FindMessagesByChannel(channel string) ([]domain.Message, error) {
	var diskMessages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := scopedPrefix(messagePrefix, channel)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Walk backwards from the newest key so the limit keeps the latest messages
		for it.Seek(append(slices.Clone(prefix), lastSequence...)); it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(diskMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			err := it.Item().Value(func(val []byte) error {
				var message DiskMessage
				if err := json.Unmarshal(val, &message); err != nil {
					return err
				}
				diskMessages = append(diskMessages, message)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Reverse(diskMessages)
	return lo.Map(diskMessages, func(item DiskMessage, _ int) domain.Message {
		return toMessage(item)
	}), nil
}

// Close releases the leased sequence range.
func (m *MessageRepository) Close() error {
	return m.seq.Release()
}

func fromMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:        message.ID,
		Sender:    message.Sender,
		Recipient: message.Recipient,
		Text:      message.Text,
		Channel:   message.Channel,
		IsPrivate: message.IsPrivate,
		At:        unixNano(message.Timestamp),
	}
}

func toMessage(disk DiskMessage) domain.Message {
	return domain.Message{
		ID:        disk.ID,
		Sender:    disk.Sender,
		Recipient: disk.Recipient,
		Text:      disk.Text,
		Channel:   disk.Channel,
		IsPrivate: disk.IsPrivate,
		Timestamp: time.Unix(0, disk.At).UTC(),
	}
}
