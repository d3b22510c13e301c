package wire

import (
	"context"
	"sync"
)

const schedulerChanSize = 512

// Dispatcher queues received messages for handling.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Msg) error

	// HandleFrame flushes queued messages. After the first call the
	// scheduler stops delivering immediately and batches everything
	// until the next frame.
	HandleFrame()
}

// Consumer exposes dispatched messages to the handling loop.
type Consumer interface {
	Messages() <-chan Msg
}

// Scheduler relays messages to the handling loop. Until frame handling
// starts, messages flow through as they arrive. Once a frame tick has
// occurred, inbound messages are held and released one batch per frame,
// which pins scene mutations to the frame cadence.
type Scheduler struct {
	msgs chan Msg

	mutex   sync.Mutex
	framed  bool
	pending []Msg
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		msgs: make(chan Msg, schedulerChanSize),
	}
}

func (s *Scheduler) Dispatch(ctx context.Context, msg Msg) error {
	s.mutex.Lock()
	if s.framed {
		s.pending = append(s.pending, msg)
		s.mutex.Unlock()
		return nil
	}
	s.mutex.Unlock()

	select {
	case s.msgs <- msg:
		return nil

	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleFrame runs on the scene's shared frame-dispatch goroutine, so
// the flush must never block: when the handling loop stops draining
// Messages, the remainder is put back and retried on the next frame.
func (s *Scheduler) HandleFrame() {
	s.mutex.Lock()
	s.framed = true
	pending := s.pending
	s.pending = nil
	s.mutex.Unlock()

	for i, msg := range pending {
		select {
		case s.msgs <- msg:

		default:
			remainder := append([]Msg{}, pending[i:]...)

			s.mutex.Lock()
			s.pending = append(remainder, s.pending...)
			s.mutex.Unlock()
			return
		}
	}
}

func (s *Scheduler) Messages() <-chan Msg {
	return s.msgs
}

func (s *Scheduler) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.pending = nil
}
