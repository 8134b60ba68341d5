package runtime

import (
	"chat-hub/contract"
	"chat-hub/domain"
	"chat-hub/errors"
	"chat-hub/repositories"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Directory owns the channel catalog and its membership rules.
// Every mutation goes through a single repository transaction.
type Directory struct {
	log        *slog.Logger
	repository repositories.IChannelRepository
	notifier   contract.DirectoryNotifier
	group      singleflight.Group
	now        func() time.Time
}

func NewDirectory(log *slog.Logger, repository repositories.IChannelRepository, notifier contract.DirectoryNotifier) *Directory {
	return &Directory{log: log, repository: repository, notifier: notifier, now: time.Now}
}

func (d *Directory) WithClock(now func() time.Time) *Directory {
	d.now = now
	return d
}

func (d *Directory) Create(name string, isPrivate bool, members []string) (domain.Channel, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Channel{}, errors.ErrEmptyField
	}
	channel := domain.NewChannel(name, isPrivate, members, d.now().UTC())
	if err := d.repository.CreateChannel(channel); err != nil {
		return domain.Channel{}, storeError("create channel", err)
	}
	d.log.Info("Channel created", "channel", name, "private", isPrivate)
	d.changed()
	return channel, nil
}

// Delete removes a public channel. Private conversations are never deleted.
func (d *Directory) Delete(name string) error {
	channel, err := d.Find(name)
	if err != nil {
		return err
	}
	if channel.IsPrivate {
		return errors.ErrAccessDenied
	}
	if err := d.repository.DeleteChannel(name); err != nil {
		return storeError("delete channel", err)
	}
	d.log.Info("Channel deleted", "channel", name)
	d.changed()
	return nil
}

func (d *Directory) Find(name string) (domain.Channel, error) {
	channel, err := d.repository.FindChannel(name)
	if err != nil {
		return domain.Channel{}, storeError("find channel", err)
	}
	return channel, nil
}

func (d *Directory) Members(name string) ([]string, error) {
	channel, err := d.Find(name)
	if err != nil {
		return nil, err
	}
	return channel.Members, nil
}

// ListVisibleTo returns public channels, plus the private ones username belongs to.
func (d *Directory) ListVisibleTo(username string) ([]domain.Channel, error) {
	channels, err := d.repository.ListChannels(func(channel domain.Channel) bool {
		return channel.VisibleTo(username)
	})
	if err != nil {
		return nil, storeError("list channels", err)
	}
	return channels, nil
}

func (d *Directory) ListByNameFilter(substring string, caseInsensitive bool) ([]domain.Channel, error) {
	channels, err := d.repository.ListChannels(func(channel domain.Channel) bool {
		return channel.MatchesFilter(substring, caseInsensitive)
	})
	if err != nil {
		return nil, storeError("filter channels", err)
	}
	return channels, nil
}

// AddMember is idempotent. Outsiders cannot enter a private channel.
func (d *Directory) AddMember(name, username string) error {
	if name == "" || username == "" {
		return errors.ErrEmptyField
	}
	added := false
	_, err := d.repository.UpdateChannel(name, func(channel domain.Channel) (domain.Channel, error) {
		if channel.HasMember(username) {
			return channel, nil
		}
		if channel.IsPrivate {
			return domain.Channel{}, errors.ErrAccessDenied
		}
		added = true
		return channel.WithMember(username), nil
	})
	if err != nil {
		return storeError("add member", err)
	}
	if added {
		d.log.Debug("Member added", "channel", name, "username", username)
		d.changed()
	}
	return nil
}

func (d *Directory) RemoveMember(name, username string) error {
	if name == "" || username == "" {
		return errors.ErrEmptyField
	}
	_, err := d.repository.UpdateChannel(name, func(channel domain.Channel) (domain.Channel, error) {
		if !channel.HasMember(username) {
			return domain.Channel{}, errors.ErrNotAMember
		}
		return channel.WithoutMember(username), nil
	})
	if err != nil {
		return storeError("remove member", err)
	}
	d.log.Debug("Member removed", "channel", name, "username", username)
	d.changed()
	return nil
}

// GetOrCreatePrivateChannel returns the conversation of a and b, creating it on first use.
// Concurrent calls for the same pair share one store upsert.
func (d *Directory) GetOrCreatePrivateChannel(a, b string) (domain.Channel, error) {
	if a == "" || b == "" {
		return domain.Channel{}, errors.ErrEmptyField
	}
	name := domain.PrivateChannelName(a, b)
	result, err, _ := d.group.Do(name, func() (any, error) {
		fresh := domain.NewChannel(name, true, []string{a, b}, d.now().UTC())
		var before int
		channel, created, err := d.repository.EnsureChannel(fresh, func(existing domain.Channel) (domain.Channel, error) {
			// A public channel never carries private messages, whatever its name
			if !existing.IsPrivate {
				return domain.Channel{}, errors.ErrPublicNameTaken
			}
			before = len(existing.Members)
			return existing.WithMember(a).WithMember(b), nil
		})
		if err != nil {
			return domain.Channel{}, storeError("ensure private channel", err)
		}
		if created {
			d.log.Info("Private channel created", "channel", name)
		}
		if created || len(channel.Members) != before {
			d.changed()
		}
		return channel, nil
	})
	if err != nil {
		return domain.Channel{}, err
	}
	return result.(domain.Channel), nil
}

func (d *Directory) Append(name string, entry domain.ChannelEntry) error {
	if err := d.repository.AppendToChannel(name, entry); err != nil {
		return storeError("append to channel", err)
	}
	return nil
}

func (d *Directory) changed() {
	if d.notifier != nil {
		d.notifier.ChannelsChanged()
	}
}

// storeError keeps taxonomy errors as they are and wraps anything else as a persistence failure.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, errors.ErrInvalidInput),
		errors.Is(err, errors.ErrConflict),
		errors.Is(err, errors.ErrNotFound),
		errors.Is(err, errors.ErrAccessDenied),
		errors.Is(err, errors.ErrPersistence):
		return err
	default:
		return errors.Persistence(op, err)
	}
}
