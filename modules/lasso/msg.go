package lasso

import (
	"time"

	"github.com/dragnetlabs/dragnet/wire"
)

const (
	MsgTypeLassoSetRequest     wire.MsgType = "lasso_set_request"
	MsgTypeLassoSetResponse    wire.MsgType = "lasso_set_response"
	MsgTypeLassoClearRequest   wire.MsgType = "lasso_clear_request"
	MsgTypeLassoClearResponse  wire.MsgType = "lasso_clear_response"
	MsgTypeLassoRegionRequest  wire.MsgType = "lasso_region_request"
	MsgTypeLassoRegionResponse wire.MsgType = "lasso_region_response"
	MsgTypeLassoDelta          wire.MsgType = "lasso_delta"
	MsgTypeLassoDeltaBroadcast wire.MsgType = "lasso_delta_broadcast"
)

// SetRequest sets the sender's selection rectangle. Deltas against it
// are computed once per frame until it is cleared or replaced.
type SetRequest struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	Rect      wire.Box     `json:"rect"`
}

type SetResponse struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
}

type ClearRequest struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
}

type ClearResponse struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
}

// RegionRequest asks for the element ids currently intersecting rect,
// without touching the sender's tracked selection.
type RegionRequest struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	RequestID uint32       `json:"request_id"`
	Rect      wire.Box     `json:"rect"`
}

type RegionResponse struct {
	Type       wire.MsgType `json:"type"`
	Timestamp  time.Time    `json:"timestamp"`
	RequestID  uint32       `json:"request_id"`
	ElementIDs []uint32     `json:"element_ids"`
}

// Delta reports the selection changes computed on a frame tick.
type Delta struct {
	Type      wire.MsgType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Entered   []uint32     `json:"entered,omitempty"`
	Exited    []uint32     `json:"exited,omitempty"`
	Selected  []uint32     `json:"selected"`
}

// DeltaBroadcast mirrors another participant's Delta so peers can render
// their selection.
type DeltaBroadcast struct {
	Type          wire.MsgType `json:"type"`
	Timestamp     time.Time    `json:"timestamp"`
	ParticipantID uint32       `json:"participant_id"`
	Entered       []uint32     `json:"entered,omitempty"`
	Exited        []uint32     `json:"exited,omitempty"`
	Selected      []uint32     `json:"selected"`
}
