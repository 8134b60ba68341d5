package runtime

import (
	"chat-hub/errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Presence tracks which nickname is bound to which live connection, and the
// channel each nickname currently has open.
type Presence struct {
	mu             sync.RWMutex
	log            *slog.Logger
	byConnection   map[string]string // connID -> nickname
	byNickname     map[string]string // nickname -> connID
	activeChannels map[string]string // nickname -> channel
}

func NewPresence(log *slog.Logger) *Presence {
	return &Presence{
		log:            log,
		byConnection:   make(map[string]string),
		byNickname:     make(map[string]string),
		activeChannels: make(map[string]string),
	}
}

// Register binds nickname to connID.
// Registering a connection that already holds another nickname renames it.
func (p *Presence) Register(connID, nickname string) error {
	if strings.TrimSpace(nickname) == "" {
		return errors.ErrInvalidNickname
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if owner, ok := p.byNickname[nickname]; ok {
		if owner == connID {
			return nil
		}
		return errors.ErrNicknameTaken
	}
	if previous, ok := p.byConnection[connID]; ok {
		delete(p.byNickname, previous)
		if channel, ok := p.activeChannels[previous]; ok {
			delete(p.activeChannels, previous)
			p.activeChannels[nickname] = channel
		}
		p.log.Debug("Nickname changed", "connection", connID, "from", previous, "to", nickname)
	}
	p.byConnection[connID] = nickname
	p.byNickname[nickname] = connID
	return nil
}

func (p *Presence) SetActiveChannel(nickname, channel string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byNickname[nickname]; !ok {
		return errors.ErrUserNotFound
	}
	p.activeChannels[nickname] = channel
	return nil
}

func (p *Presence) ClearActiveChannel(nickname string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeChannels, nickname)
}

func (p *Presence) ActiveChannel(nickname string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	channel, ok := p.activeChannels[nickname]
	return channel, ok
}

func (p *Presence) LookupConnection(nickname string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok := p.byNickname[nickname]
	if !ok {
		return "", errors.ErrUserNotFound
	}
	return connID, nil
}

func (p *Presence) Lookup(connID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	nickname, ok := p.byConnection[connID]
	if !ok {
		return "", errors.ErrConnectionNotFound
	}
	return nickname, nil
}

// Unregister releases the nickname held by connID along with its active channel.
func (p *Presence) Unregister(connID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	nickname, ok := p.byConnection[connID]
	if !ok {
		return "", errors.ErrConnectionNotFound
	}
	delete(p.byConnection, connID)
	delete(p.byNickname, nickname)
	delete(p.activeChannels, nickname)
	return nickname, nil
}

func (p *Presence) Online() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	nicknames := make([]string, 0, len(p.byNickname))
	for nickname := range p.byNickname {
		nicknames = append(nicknames, nickname)
	}
	sort.Strings(nicknames)
	return nicknames
}
