//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"chat-hub/domain/event"
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives outbound envelopes: one per live connection, plus permanent relays.
type EventSink interface {
	Consume(ctx context.Context, e event.Envelope) error
}

// IRegistry resolves delivery targets into sinks.
type IRegistry interface {
	GetSinksForGroup(group string) []EventSink
	GetSink(connID string) (EventSink, bool)
	GetAllSinks() []EventSink
	Count() int
}

type Publisher interface {
	Publish(ctx context.Context, e event.Envelope)
}

type PublisherFunc func(ctx context.Context, e event.Envelope)

func (f PublisherFunc) Publish(ctx context.Context, e event.Envelope) { f(ctx, e) }

// DirectoryNotifier is told whenever the channel listing changes.
type DirectoryNotifier interface {
	ChannelsChanged()
}

type Censor interface {
	Censor(text string) string
}
