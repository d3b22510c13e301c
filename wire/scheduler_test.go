package wire

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerDispatchBeforeFrames(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	err := s.Dispatch(context.Background(), Msg{Type: MsgTypePingRequest})
	require.NoError(t, err)

	msg := <-s.Messages()
	require.Equal(t, MsgTypePingRequest, msg.Type)
}

func TestSchedulerDispatchAfterFrames(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	s.HandleFrame()

	err := s.Dispatch(context.Background(), Msg{Type: MsgTypePingRequest})
	require.NoError(t, err)

	select {
	case <-s.Messages():
		t.Fatal("message was delivered before the frame tick")
	default:
	}

	s.HandleFrame()

	msg := <-s.Messages()
	require.Equal(t, MsgTypePingRequest, msg.Type)
}

func TestSchedulerFrameKeepsOrder(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	s.HandleFrame()

	ctx := context.Background()
	require.NoError(t, s.Dispatch(ctx, Msg{Type: MsgTypeElementAddRequest}))
	require.NoError(t, s.Dispatch(ctx, Msg{Type: MsgTypeElementDeleteRequest}))

	s.HandleFrame()

	require.Equal(t, MsgTypeElementAddRequest, (<-s.Messages()).Type)
	require.Equal(t, MsgTypeElementDeleteRequest, (<-s.Messages()).Type)
}

func TestSchedulerFrameWithoutConsumer(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	s.HandleFrame()

	ctx := context.Background()
	for i := 0; i < schedulerChanSize+1; i++ {
		require.NoError(t, s.Dispatch(ctx, Msg{Type: MsgTypePingRequest}))
	}
	require.NoError(t, s.Dispatch(ctx, Msg{Type: MsgTypeElementAddRequest}))

	done := make(chan struct{})
	go func() {
		s.HandleFrame()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("frame handling blocked with no consumer draining messages")
	}

	for i := 0; i < schedulerChanSize; i++ {
		require.Equal(t, MsgTypePingRequest, (<-s.Messages()).Type)
	}

	// The overflow is released on the next frame, in order.
	s.HandleFrame()
	require.Equal(t, MsgTypePingRequest, (<-s.Messages()).Type)
	require.Equal(t, MsgTypeElementAddRequest, (<-s.Messages()).Type)
}

func TestSchedulerDispatchCanceled(t *testing.T) {
	s := NewScheduler()
	defer s.Close()

	for i := 0; i < schedulerChanSize; i++ {
		require.NoError(t, s.Dispatch(context.Background(), Msg{}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Dispatch(ctx, Msg{})
	require.Error(t, err)
}
