package sink

import (
	"chat-hub/domain/event"
	"context"
	"log/slog"
)

// LogSink traces every outbound envelope at debug level.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Consume(_ context.Context, e event.Envelope) error {
	switch evt := e.Event.(type) {
	case event.MessagePosted:
		s.log.Debug("Outbound message", "target", e.Target.String(), "sender", evt.Sender, "private", evt.IsPrivate)
	default:
		s.log.Debug("Outbound event", "target", e.Target.String(), "event", e.Event.Name())
	}
	return nil
}
