package runtime

import (
	"chat-hub/domain/event"
	"chat-hub/repositories"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published envelope, in order.
type recordingPublisher struct {
	mu        sync.Mutex
	envelopes []event.Envelope
}

func (p *recordingPublisher) Publish(_ context.Context, e event.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, e)
}

func (p *recordingPublisher) all() []event.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Envelope(nil), p.envelopes...)
}

// without drops the channel listing refreshes, which most scenarios don't care about.
func (p *recordingPublisher) withoutUpdates() []event.Envelope {
	var result []event.Envelope
	for _, e := range p.all() {
		if _, ok := e.Event.(event.ChannelsUpdated); !ok {
			result = append(result, e)
		}
	}
	return result
}

func (p *recordingPublisher) count(name string) int {
	n := 0
	for _, e := range p.all() {
		if e.Event.Name() == name {
			n++
		}
	}
	return n
}

type core struct {
	presence  *Presence
	directory *Directory
	router    *Router
	registry  *Registry
	gateway   *Gateway
	published *recordingPublisher
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newCore(t *testing.T) core {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	channels, err := repositories.NewChannelRepository(db, log)
	require.NoError(t, err)
	messages, err := repositories.NewMessageRepository(db, log, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = channels.Close()
		_ = messages.Close()
	})

	published := &recordingPublisher{}
	registry := NewRegistry()
	directory := NewDirectory(log, channels, NewUpdateNotifier(published)).WithClock(func() time.Time { return fixedNow })
	router := NewRouter(log, messages, directory, nil).WithClock(func() time.Time { return fixedNow })
	presence := NewPresence(log)
	return core{
		presence:  presence,
		directory: directory,
		router:    router,
		registry:  registry,
		gateway:   NewGateway(log, presence, directory, router, registry, published),
		published: published,
	}
}
