package sink

import (
	"chat-hub/domain/event"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// Conn is the part of *nats.Conn the relay needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

var _ Conn = (*nats.Conn)(nil)

// RelayFrame is the JSON body published for every envelope.
type RelayFrame struct {
	Event  string      `json:"event"`
	Target string      `json:"target"`
	Data   event.Event `json:"data"`
}

// NatsSink relays every outbound envelope to a NATS subject, so other processes
// can observe the traffic of this routing authority.
type NatsSink struct {
	conn   Conn
	prefix string
	log    *slog.Logger
}

func NewNatsSink(conn Conn, prefix string, log *slog.Logger) *NatsSink {
	return &NatsSink{conn: conn, prefix: prefix, log: log}
}

// Subject is "<prefix>.channel.<name>", "<prefix>.connection.<id>" or "<prefix>.all".
func (s *NatsSink) Subject(target event.Target) string {
	return fmt.Sprintf("%s.%s", s.prefix, target.String())
}

func (s *NatsSink) Consume(ctx context.Context, e event.Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(RelayFrame{Event: e.Event.Name(), Target: e.Target.String(), Data: e.Event})
	if err != nil {
		return err
	}
	if err := s.conn.Publish(s.Subject(e.Target), data); err != nil {
		s.log.Warn("Relay publish failed", "subject", s.Subject(e.Target), "error", err)
		return err
	}
	return nil
}

// Connect dials the NATS server with the reconnect behaviour the relay expects.
func Connect(url string, log *slog.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("chat-hub"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Info("NATS reconnected", "url", conn.ConnectedUrl())
		}),
	)
}
