package workers

import (
	"chat-hub/contract"
	"chat-hub/domain/event"
	"chat-hub/mocks"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventFanout_Deliver_To_Group_And_Permanent_Sinks(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	roomSink := mocks.NewMockEventSink(ctrl)
	permanentSink := mocks.NewMockEventSink(ctrl)

	fanout := NewEventFanout(log, mockRegistry, 10, time.Second, permanentSink)
	envelope := event.NewEnvelope(event.ToGroup("general"), event.SystemNotice("general", "Alice has joined the channel"))

	// Given two connections are in the group
	mockRegistry.EXPECT().GetSinksForGroup("general").Return([]contract.EventSink{roomSink, roomSink}).Times(1)
	// Then both connections and the permanent sink consume the envelope
	roomSink.EXPECT().Consume(gomock.Any(), envelope).Return(nil).Times(2)
	permanentSink.EXPECT().Consume(gomock.Any(), envelope).Return(nil).Times(1)

	// When the envelope is delivered
	fanout.Deliver(context.Background(), envelope)
}

func TestEventFanout_Deliver_To_Connection(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)
	fanout := NewEventFanout(slog.Default(), mockRegistry, 10, time.Second)
	envelope := event.NewEnvelope(event.ToConnection("c1"), event.ChannelJoinRequested{Username: "Bob", ChannelName: "Alice-Bob"})

	mockRegistry.EXPECT().GetSink("c1").Return(sink, true)
	sink.EXPECT().Consume(gomock.Any(), envelope).Return(nil).Times(1)
	fanout.Deliver(context.Background(), envelope)

	// An unknown connection resolves to nobody
	mockRegistry.EXPECT().GetSink("c2").Return(nil, false)
	fanout.Deliver(context.Background(), event.NewEnvelope(event.ToConnection("c2"), event.ChannelsUpdated{}))
}

func TestEventFanout_Deliver_To_All(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink1 := mocks.NewMockEventSink(ctrl)
	sink2 := mocks.NewMockEventSink(ctrl)
	fanout := NewEventFanout(slog.Default(), mockRegistry, 10, time.Second)
	envelope := event.NewEnvelope(event.ToAll(), event.UserDisconnected{Username: "Alice"})

	mockRegistry.EXPECT().GetAllSinks().Return([]contract.EventSink{sink1, sink2})
	sink1.EXPECT().Consume(gomock.Any(), envelope).Return(nil)
	sink2.EXPECT().Consume(gomock.Any(), envelope).Return(nil)

	fanout.Deliver(context.Background(), envelope)
}

func TestEventFanout_SinkTimeout(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	slowSink := mocks.NewMockEventSink(ctrl)
	fastSink := mocks.NewMockEventSink(ctrl)

	sinkTimeout := 20 * time.Millisecond
	fanout := NewEventFanout(slog.Default(), mockRegistry, 10, sinkTimeout)
	envelope := event.NewEnvelope(event.ToGroup("general"), event.ChannelsUpdated{})

	mockRegistry.EXPECT().GetSinksForGroup("general").Return([]contract.EventSink{slowSink, fastSink})
	// Given a sink waiting for its context to end
	slowSink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.Envelope) error {
			<-ctx.Done()
			return ctx.Err()
		})
	fastSink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil)

	// When delivering
	start := time.Now()
	fanout.Deliver(context.Background(), envelope)

	// Then the slow sink does not hold the others back for long
	req.Less(time.Since(start), 500*time.Millisecond)
}

func TestEventFanout_Run_Preserves_Publish_Order(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	sink := mocks.NewMockEventSink(ctrl)
	fanout := NewEventFanout(slog.Default(), mockRegistry, 10, time.Second)

	var (
		mu       sync.Mutex
		received []string
	)
	mockRegistry.EXPECT().GetSinksForGroup("general").Return([]contract.EventSink{sink}).AnyTimes()
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, e event.Envelope) error {
			mu.Lock()
			defer mu.Unlock()
			received = append(received, e.Event.(event.MessagePosted).Text)
			return nil
		}).Times(3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- fanout.Run(ctx) }()

	for _, text := range []string{"one", "two", "three"} {
		fanout.Publish(ctx, event.NewEnvelope(event.ToGroup("general"), event.MessagePosted{Sender: "Alice", Text: text, Channel: "general"}))
	}

	req.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 3
	}, time.Second, 5*time.Millisecond)
	cancel()
	req.NoError(<-done)
	req.Equal([]string{"one", "two", "three"}, received)
}

func TestEventFanout_Publish_Drops_When_Full(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	fanout := NewEventFanout(slog.Default(), mocks.NewMockIRegistry(ctrl), 1, 10*time.Millisecond)

	envelope := event.NewEnvelope(event.ToAll(), event.ChannelsUpdated{})
	fanout.Publish(context.Background(), envelope)

	// Nobody drains the buffer, the second envelope is dropped instead of blocking forever
	start := time.Now()
	fanout.Publish(context.Background(), envelope)
	req.Less(time.Since(start), 500*time.Millisecond)
	req.Len(fanout.events, 1)
}
