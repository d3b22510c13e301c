package emblem

import (
	"time"

	"github.com/dragnetlabs/dragnet/wire"
)

const (
	MsgTypeEmblemSetRequest      wire.MsgType = "emblem_set_request"
	MsgTypeEmblemSetResponse     wire.MsgType = "emblem_set_response"
	MsgTypeEmblemSetBroadcast    wire.MsgType = "emblem_set_broadcast"
	MsgTypeEmblemRemoveRequest   wire.MsgType = "emblem_remove_request"
	MsgTypeEmblemRemoveResponse  wire.MsgType = "emblem_remove_response"
	MsgTypeEmblemRemoveBroadcast wire.MsgType = "emblem_remove_broadcast"
	MsgTypeEmblemState           wire.MsgType = "emblem_state"
)

// Emblem is a named display attribute attached to an element, for
// example an outline style clients apply to selected elements.
type Emblem struct {
	ElementID     uint32 `json:"element_id"`
	ParticipantID uint32 `json:"participant_id"`
	Name          string `json:"name"`
	Data          []byte `json:"data,omitempty"`
}

type SetRequest struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	ElementID uint32       `json:"element_id"`
	Name      string       `json:"name"`
	Data      []byte       `json:"data,omitempty"`
}

type SetResponse struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
}

type SetBroadcast struct {
	Type            wire.MsgType `json:"type"`
	Timestamp       time.Time    `json:"timestamp"`
	OriginTimestamp time.Time    `json:"origin_timestamp"`
	Emblem          *Emblem      `json:"emblem"`
}

type RemoveRequest struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	ElementID uint32       `json:"element_id"`
	Name      string       `json:"name"`
}

type RemoveResponse struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
}

type RemoveBroadcast struct {
	Type            wire.MsgType `json:"type"`
	Timestamp       time.Time    `json:"timestamp"`
	OriginTimestamp time.Time    `json:"origin_timestamp"`
	ElementID       uint32       `json:"element_id"`
	Name            string       `json:"name"`
}

// State is sent to joining participants so they can render existing
// emblems.
type State struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Emblems   []*Emblem    `json:"emblems"`
}
