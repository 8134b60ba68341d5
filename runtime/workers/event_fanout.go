package workers

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"chat-hub/errors"
	"context"
	"log/slog"
	"slices"
	"time"
)

// EventFanout delivers outbound envelopes to the sinks their target resolves to,
// plus every permanent sink.
//
// Delivery is sequential: a connection receives events in the order they were published.
// It is best effort, with no retries and no durability.
type EventFanout struct {
	log            *slog.Logger
	events         chan event.Envelope
	registry       contract.IRegistry
	permanentSinks []contract.EventSink
	sinkTimeout    time.Duration
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry, bufferSize int, sinkTimeout time.Duration,
	permanentSinks ...contract.EventSink) *EventFanout {
	return &EventFanout{
		log:            log,
		events:         make(chan event.Envelope, bufferSize),
		registry:       registry,
		permanentSinks: permanentSinks,
		sinkTimeout:    sinkTimeout,
	}
}

// Publish enqueues an envelope. It waits for room in the buffer at most sinkTimeout,
// then drops the envelope.
func (w *EventFanout) Publish(ctx context.Context, e event.Envelope) {
	timer := time.NewTimer(w.sinkTimeout)
	defer timer.Stop()
	select {
	case w.events <- e:
	case <-ctx.Done():
		w.log.Debug("Context done, envelope not published", "event", e.Event.Name())
	case <-timer.C:
		w.log.Warn("Fanout buffer full, dropping envelope", "event", e.Event.Name(), "target", e.Target.String())
	}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case e := <-w.events:
			w.Deliver(ctx, e)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Deliver hands the envelope to each resolved sink, one after the other.
// A slow sink is given up on after sinkTimeout.
func (w *EventFanout) Deliver(ctx context.Context, e event.Envelope) {
	sinks := slices.Concat(w.resolve(e.Target), w.permanentSinks)
	for _, sink := range sinks {
		if err := w.consume(ctx, sink, e); err != nil {
			w.log.Debug("Sink failed", "event", e.Event.Name(), "target", e.Target.String(), "error", err)
		}
	}
}

func (w *EventFanout) resolve(target event.Target) []contract.EventSink {
	switch target.Kind {
	case event.TargetGroup:
		return w.registry.GetSinksForGroup(target.ID)
	case event.TargetConnection:
		if sink, ok := w.registry.GetSink(target.ID); ok {
			return []contract.EventSink{sink}
		}
		return nil
	default:
		return w.registry.GetAllSinks()
	}
}

func (w *EventFanout) consume(ctx context.Context, sink contract.EventSink, e event.Envelope) error {
	sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sink.Consume(sinkCtx, e)
	}()
	select {
	case err := <-done:
		return err
	case <-sinkCtx.Done():
		return errors.ErrSinkTimeout
	}
}
