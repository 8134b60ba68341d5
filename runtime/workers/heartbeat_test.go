package workers

import (
	"chat-hub/mocks"
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shirou/gopsutil/process"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHeartbeatWorker_Sample(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockRegistry.EXPECT().Count().Return(3)

	p, err := process.NewProcess(int32(os.Getpid()))
	req.NoError(err)

	stats, err := NewHeartbeatWorker(slog.Default(), mockRegistry, time.Second).Sample(p)

	req.NoError(err)
	req.Positive(stats.RSS)
	req.Equal(3, stats.Connections)
}

func TestHeartbeatWorker_Stops_With_Context(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	mockRegistry := mocks.NewMockIRegistry(ctrl)
	mockRegistry.EXPECT().Count().Return(0).AnyTimes()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewHeartbeatWorker(slog.Default(), mockRegistry, 10*time.Millisecond).Run(ctx)
	req.NoError(err)
}
