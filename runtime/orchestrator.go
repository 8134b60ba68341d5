// Package runtime holds the live state of the chat: who is connected, which channels exist,
// how messages are routed and how events reach connections.
package runtime

import (
	"chat-hub/contract"
	"chat-hub/repositories"
	"chat-hub/runtime/workers"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type OrchestratorConfig struct {
	BufferSize        int
	SinkTimeout       time.Duration
	HeartbeatInterval time.Duration
	LimitMessages     *int
	Censor            contract.Censor
	PermanentSinks    []contract.EventSink
}

// Orchestrator builds the routing core on top of a Badger database and runs
// its background workers under a supervisor.
type Orchestrator struct {
	mu                sync.Mutex
	log               *slog.Logger
	supervisor        contract.ISupervisor
	channelRepository *repositories.ChannelRepository
	messageRepository *repositories.MessageRepository
	registry          *Registry
	presence          *Presence
	directory         *Directory
	router            *Router
	gateway           *Gateway
	fanout            *workers.EventFanout
	heartbeatInterval time.Duration
}

func NewOrchestrator(log *slog.Logger, db *badger.DB, supervisor contract.ISupervisor, cfg OrchestratorConfig) (*Orchestrator, error) {
	channelRepository, err := repositories.NewChannelRepository(db, log)
	if err != nil {
		return nil, err
	}
	messageRepository, err := repositories.NewMessageRepository(db, log, cfg.LimitMessages)
	if err != nil {
		_ = channelRepository.Close()
		return nil, err
	}

	registry := NewRegistry()
	fanout := workers.NewEventFanout(log, registry, cfg.BufferSize, cfg.SinkTimeout, cfg.PermanentSinks...)
	directory := NewDirectory(log, channelRepository, NewUpdateNotifier(fanout))
	router := NewRouter(log, messageRepository, directory, cfg.Censor)
	presence := NewPresence(log)

	return &Orchestrator{
		log:               log,
		supervisor:        supervisor,
		channelRepository: channelRepository,
		messageRepository: messageRepository,
		registry:          registry,
		presence:          presence,
		directory:         directory,
		router:            router,
		gateway:           NewGateway(log, presence, directory, router, registry, fanout),
		fanout:            fanout,
		heartbeatInterval: cfg.HeartbeatInterval,
	}, nil
}

func (o *Orchestrator) Gateway() *Gateway     { return o.gateway }
func (o *Orchestrator) Directory() *Directory { return o.directory }
func (o *Orchestrator) Router() *Router       { return o.router }

// Start registers the workers and blocks until the supervisor stops.
func (o *Orchestrator) Start(ctx context.Context) {
	o.mu.Lock()
	o.supervisor.Add(o.fanout)
	if o.heartbeatInterval > 0 {
		o.supervisor.Add(workers.NewHeartbeatWorker(o.log, o.registry, o.heartbeatInterval))
	}
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers")
	o.supervisor.Run(ctx)
}

// Stop cancels the supervised workers.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
}

// Close releases the store sequences. The database itself belongs to the caller.
func (o *Orchestrator) Close() error {
	errMessages := o.messageRepository.Close()
	errChannels := o.channelRepository.Close()
	if errMessages != nil {
		return errMessages
	}
	return errChannels
}
