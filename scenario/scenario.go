// Package scenario provides a builder to script client-side message
// exchanges against a dragnet server in tests.
package scenario

import (
	"context"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/dragnetlabs/dragnet/wire"
	"golang.org/x/net/websocket"
)

// ErrScenarioMsgSkip is returned by a receive handler to ignore a
// message and wait for the next one.
var ErrScenarioMsgSkip = errors.New("scenario message skipped")

// Handler handles a received message. Returning ErrScenarioMsgSkip
// makes the scenario wait for another message.
type Handler func(wire.Msg) error

// Scenario is a sequence of send and receive steps that are executed in
// order by Run.
type Scenario struct {
	conn  *websocket.Conn
	steps []func(context.Context) error
}

func NewScenario(conn *websocket.Conn) *Scenario {
	return &Scenario{conn: conn}
}

// Send queues the sending of the message built by newMsg.
func (s *Scenario) Send(newMsg func() any) *Scenario {
	s.steps = append(s.steps, func(ctx context.Context) error {
		msg, err := wire.MsgFromAny(newMsg())
		if err != nil {
			return errors.New("encoding scenario message failed").Wrap(err)
		}

		if _, err := wire.Send(s.conn, msg); err != nil {
			return errors.New("sending scenario message failed").Wrap(err)
		}
		return nil
	})
	return s
}

// Receive queues the reception of a message that passes all the given
// handlers. Messages skipped by a handler are discarded and reception
// continues with the next message.
func (s *Scenario) Receive(handlers ...Handler) *Scenario {
	s.steps = append(s.steps, func(ctx context.Context) error {
	receive:
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			msg, _, err := wire.Receive(s.conn)
			if err != nil {
				return errors.New("receiving scenario message failed").Wrap(err)
			}

			for _, h := range handlers {
				err := h(msg)
				if errors.Is(err, ErrScenarioMsgSkip) {
					continue receive
				}
				if err != nil {
					return err
				}
			}
			return nil
		}
	})
	return s
}

// Run executes the scenario steps in order, stopping at the first
// error. Receives honor ctx's deadline.
func (s *Scenario) Run(ctx context.Context) error {
	if deadline, ok := ctx.Deadline(); ok {
		if err := s.conn.SetDeadline(deadline); err != nil {
			return errors.New("setting scenario deadline failed").Wrap(err)
		}
	}

	for _, step := range s.steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// FilterByType skips messages that are not of one of the given types.
func FilterByType(types ...wire.MsgType) Handler {
	return func(msg wire.Msg) error {
		for _, t := range types {
			if msg.Type == t {
				return nil
			}
		}
		return ErrScenarioMsgSkip
	}
}

// FilterByRequestID skips messages that do not carry the given request
// id.
func FilterByRequestID(id uint32) Handler {
	return func(msg wire.Msg) error {
		var res wire.Response
		if err := msg.DataTo(&res); err != nil {
			return ErrScenarioMsgSkip
		}
		if res.RequestID != id {
			return ErrScenarioMsgSkip
		}
		return nil
	}
}
