//go:generate go run go.uber.org/mock/mockgen -source=channel.go -destination=../mocks/mock_channel_repository.go -package=mocks
package repositories

import (
	"chat-hub/domain"
	"chat-hub/errors"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IChannelRepository interface {
	CreateChannel(channel domain.Channel) error
	FindChannel(name string) (domain.Channel, error)
	ListChannels(query func(channel domain.Channel) bool) ([]domain.Channel, error)
	UpdateChannel(name string, fn func(channel domain.Channel) (domain.Channel, error)) (domain.Channel, error)
	EnsureChannel(channel domain.Channel, merge func(existing domain.Channel) (domain.Channel, error)) (domain.Channel, bool, error)
	DeleteChannel(name string) error
	AppendToChannel(name string, entry domain.ChannelEntry) error
	ChannelEntries(name string) ([]domain.ChannelEntry, error)
}

type ChannelRepository struct {
	db  *badger.DB
	log *slog.Logger
	seq *badger.Sequence
}

func NewChannelRepository(db *badger.DB, log *slog.Logger) (*ChannelRepository, error) {
	seq, err := db.GetSequence([]byte(entrySequenceKey), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("entry sequence: %w", err)
	}
	return &ChannelRepository{db: db, log: log, seq: seq}, nil
}

// DiskChannel is the stored form of a channel document.
type DiskChannel struct {
	Name      string   `json:"name"`
	IsPrivate bool     `json:"isPrivate"`
	Users     []string `json:"users"`
	CreatedAt int64    `json:"createdAt"`
}

type DiskEntry struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	At     int64  `json:"at"`
}

// CreateChannel stores a new channel document.
// The existence check and the write share one transaction, so two concurrent
// creations of the same name cannot both succeed.
func (r *ChannelRepository) CreateChannel(channel domain.Channel) error {
	return update(r.db, func(txn *badger.Txn) error {
		if _, err := txn.Get(channelKey(channel.Name)); err == nil {
			return errors.ErrDuplicateChannel
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return setChannel(txn, channel)
	})
}

func (r *ChannelRepository) FindChannel(name string) (domain.Channel, error) {
	var channel domain.Channel
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		channel, err = getChannel(txn, name)
		return err
	})
	return channel, err
}

// ListChannels scans every channel document and keeps those accepted by query.
// A nil query keeps everything.
func (r *ChannelRepository) ListChannels(query func(channel domain.Channel) bool) ([]domain.Channel, error) {
	var channels []domain.Channel
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(channelPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				channel, err := decodeChannel(val)
				if err != nil {
					return err
				}
				if query == nil || query(channel) {
					channels = append(channels, channel)
				}
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
	if channels == nil {
		return []domain.Channel{}, nil
	}
	domain.SortChannels(channels)
	return channels, nil
}

// UpdateChannel applies fn to the stored channel inside a single transaction.
// An error returned by fn aborts the update and is returned unchanged.
func (r *ChannelRepository) UpdateChannel(name string, fn func(channel domain.Channel) (domain.Channel, error)) (domain.Channel, error) {
	var updated domain.Channel
	err := update(r.db, func(txn *badger.Txn) error {
		current, err := getChannel(txn, name)
		if err != nil {
			return err
		}
		updated, err = fn(current)
		if err != nil {
			return err
		}
		updated.Name = current.Name
		return setChannel(txn, updated)
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return updated, nil
}

// EnsureChannel is an upsert: it stores channel when the name is free, otherwise
// it stores merge(existing). An error returned by merge aborts the upsert and is returned unchanged.
// The boolean reports whether a document was created.
func (r *ChannelRepository) EnsureChannel(channel domain.Channel, merge func(existing domain.Channel) (domain.Channel, error)) (domain.Channel, bool, error) {
	var (
		result  domain.Channel
		created bool
	)
	err := update(r.db, func(txn *badger.Txn) error {
		existing, err := getChannel(txn, channel.Name)
		switch {
		case errors.Is(err, errors.ErrChannelNotFound):
			result, created = channel, true
		case err != nil:
			return err
		default:
			created = false
			if result, err = merge(existing); err != nil {
				return err
			}
		}
		return setChannel(txn, result)
	})
	if err != nil {
		return domain.Channel{}, false, err
	}
	return result, created, nil
}

// DeleteChannel removes the channel document and its appended entries.
// Messages stored by the message repository are kept.
func (r *ChannelRepository) DeleteChannel(name string) error {
	return update(r.db, func(txn *badger.Txn) error {
		if _, err := getChannel(txn, name); err != nil {
			return err
		}
		var keys [][]byte
		prefix := scopedPrefix(entryPrefix, name)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		r.log.Debug("Deleting channel document", "channel", name, "entries", len(keys))
		return txn.Delete(channelKey(name))
	})
}

// AppendToChannel adds an entry to the channel's own message sequence.
// It fails with ErrChannelNotFound when no such channel document exists.
func (r *ChannelRepository) AppendToChannel(name string, entry domain.ChannelEntry) error {
	seq, err := r.seq.Next()
	if err != nil {
		return err
	}
	bytes, err := json.Marshal(DiskEntry{Sender: entry.Sender, Text: entry.Text, At: unixNano(entry.Timestamp)})
	if err != nil {
		return err
	}
	return update(r.db, func(txn *badger.Txn) error {
		if _, err := getChannel(txn, name); err != nil {
			return err
		}
		return txn.Set(sequencedKey(entryPrefix, name, seq), bytes)
	})
}

func (r *ChannelRepository) ChannelEntries(name string) ([]domain.ChannelEntry, error) {
	var entries []DiskEntry
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := scopedPrefix(entryPrefix, name)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var entry DiskEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				entries = append(entries, entry)
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
	return lo.Map(entries, func(item DiskEntry, _ int) domain.ChannelEntry {
		return domain.ChannelEntry{Sender: item.Sender, Text: item.Text, Timestamp: time.Unix(0, item.At).UTC()}
	}), nil
}

// Close releases the leased sequence range.
func (r *ChannelRepository) Close() error {
	return r.seq.Release()
}

func getChannel(txn *badger.Txn, name string) (domain.Channel, error) {
	item, err := txn.Get(channelKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Channel{}, errors.ErrChannelNotFound
	}
	if err != nil {
		return domain.Channel{}, err
	}
	var channel domain.Channel
	err = item.Value(func(val []byte) error {
		channel, err = decodeChannel(val)
		return err
	})
	return channel, err
}

func setChannel(txn *badger.Txn, channel domain.Channel) error {
	bytes, err := json.Marshal(fromChannel(channel))
	if err != nil {
		return err
	}
	return txn.Set(channelKey(channel.Name), bytes)
}

func decodeChannel(val []byte) (domain.Channel, error) {
	var disk DiskChannel
	if err := json.Unmarshal(val, &disk); err != nil {
		return domain.Channel{}, err
	}
	return toChannel(disk), nil
}

func fromChannel(channel domain.Channel) DiskChannel {
	return DiskChannel{
		Name:      channel.Name,
		IsPrivate: channel.IsPrivate,
		Users:     lo.Ternary(channel.Members == nil, []string{}, channel.Members),
		CreatedAt: unixNano(channel.CreatedAt),
	}
}

func toChannel(disk DiskChannel) domain.Channel {
	return domain.Channel{
		Name:      disk.Name,
		IsPrivate: disk.IsPrivate,
		Members:   lo.Ternary(disk.Users == nil, []string{}, disk.Users),
		CreatedAt: time.Unix(0, disk.CreatedAt).UTC(),
	}
}
