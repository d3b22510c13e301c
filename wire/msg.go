// Package wire defines the dragnet websocket protocol: JSON messages
// wrapped in a typed envelope, plus the send/receive and scheduling
// plumbing used by the connection handler.
package wire

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	ErrTypeSceneNotJoined = "scene_not_joined"
	ErrTypeMsgSkip        = "msg_skip"
)

// ErrModuleMsgSkip is returned by modules for message types they do not
// handle.
var ErrModuleMsgSkip = errors.New("message skipped").WithType(ErrTypeMsgSkip)

// MsgType identifies a protocol message. Module-specific types are
// declared in the module packages.
type MsgType string

const (
	MsgTypeUnspecified               MsgType = ""
	MsgTypePingRequest               MsgType = "ping_request"
	MsgTypePingResponse              MsgType = "ping_response"
	MsgTypeErrorResponse             MsgType = "error_response"
	MsgTypeSyncClock                 MsgType = "sync_clock"
	MsgTypeSceneJoinRequest          MsgType = "scene_join_request"
	MsgTypeSceneJoinResponse         MsgType = "scene_join_response"
	MsgTypeSceneState                MsgType = "scene_state"
	MsgTypeParticipantJoinBroadcast  MsgType = "participant_join_broadcast"
	MsgTypeParticipantLeaveBroadcast MsgType = "participant_leave_broadcast"
	MsgTypeElementAddRequest         MsgType = "element_add_request"
	MsgTypeElementAddResponse        MsgType = "element_add_response"
	MsgTypeElementAddBroadcast       MsgType = "element_add_broadcast"
	MsgTypeElementDeleteRequest      MsgType = "element_delete_request"
	MsgTypeElementDeleteResponse     MsgType = "element_delete_response"
	MsgTypeElementDeleteBroadcast    MsgType = "element_delete_broadcast"
	MsgTypeElementUpdateBox          MsgType = "element_update_box"
	MsgTypeElementUpdateBoxBroadcast MsgType = "element_update_box_broadcast"
	MsgTypeCustomMessage             MsgType = "custom_message"
	MsgTypeCustomMessageBroadcast    MsgType = "custom_message_broadcast"
)

// ErrorCode qualifies an ErrorResponse.
type ErrorCode string

const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeNotFound            ErrorCode = "not_found"
	ErrorCodeUnauthorized        ErrorCode = "unauthorized"
	ErrorCodeConflict            ErrorCode = "conflict"
	ErrorCodeTooLarge            ErrorCode = "too_large"
	ErrorCodeServerTooBusy       ErrorCode = "server_too_busy"
	ErrorCodeSceneAlreadyJoined  ErrorCode = "scene_already_joined"
	ErrorCodeInternalServerError ErrorCode = "internal_server_error"
)

// Msg is a received or outgoing message: its envelope type and the raw
// JSON payload.
type Msg struct {
	Type MsgType
	Data []byte
}

// DataTo unmarshals the payload into v.
func (m Msg) DataTo(v any) error {
	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("unmarshaling message failed").
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

func (m Msg) TypeString() string {
	return string(m.Type)
}

// MsgFromAny marshals v and reads its envelope type back, so senders
// never have to state the type twice.
func MsgFromAny(v any) (Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Msg{}, errors.New("marshaling message failed").Wrap(err)
	}

	var env struct {
		Type MsgType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Msg{}, errors.New("reading message envelope failed").Wrap(err)
	}

	return Msg{Type: env.Type, Data: data}, nil
}

// Sender sends a message and returns the payload size in bytes.
type Sender func(Msg) (int, error)

// Receiver receives the next message and returns the payload size in
// bytes.
type Receiver func() (Msg, int, error)

// ResponseSender is handed to handlers and modules to push messages to
// the connected client.
type ResponseSender interface {
	// Marshals v and queues it for sending. Marshal failures are logged
	// and dropped.
	Send(v any)

	// Queues an already-encoded message for sending.
	SendMsg(Msg)
}

// Send writes msg to conn as a single text frame.
func Send(conn *websocket.Conn, msg Msg) (int, error) {
	if err := websocket.Message.Send(conn, string(msg.Data)); err != nil {
		return 0, errors.New("sending websocket message failed").
			WithTag("msg_type", msg.Type).
			Wrap(err)
	}
	return len(msg.Data), nil
}

// Receive reads the next text frame from conn and decodes its envelope.
func Receive(conn *websocket.Conn) (Msg, int, error) {
	var data string
	if err := websocket.Message.Receive(conn, &data); err != nil {
		return Msg{}, 0, errors.New("receiving websocket message failed").Wrap(err)
	}

	var env struct {
		Type MsgType `json:"type"`
	}
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return Msg{}, 0, errors.New("decoding message envelope failed").Wrap(err)
	}

	return Msg{Type: env.Type, Data: []byte(data)}, len(data), nil
}
