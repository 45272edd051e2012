package lifecycle

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	startErr error
	stopped  int32
	done     chan struct{}
}

func newFakeService(startErr error) *fakeService {
	return &fakeService{startErr: startErr, done: make(chan struct{})}
}

func (f *fakeService) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}

	select {
	case <-ctx.Done():
	case <-f.done:
	}

	return nil
}

func (f *fakeService) Stop(context.Context) error {
	if atomic.CompareAndSwapInt32(&f.stopped, 0, 1) {
		close(f.done)
	}

	return nil
}

func TestRunServerStopsOnCancel(t *testing.T) {
	svc := newFakeService(nil)

	ctx, cancel := context.WithCancel(context.Background())

	result := make(chan error, 1)

	go func() {
		result <- RunServer(ctx, &ServerOptions{
			ServiceName:    "iotdash",
			Service:        svc,
			GRPCHealthAddr: "127.0.0.1:0",
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("RunServer did not return")
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.stopped))
}

func TestRunServerReturnsServiceError(t *testing.T) {
	boom := errors.New("listen failed")
	svc := newFakeService(boom)

	err := RunServer(context.Background(), &ServerOptions{ServiceName: "iotdash", Service: svc})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), atomic.LoadInt32(&svc.stopped))
}
