package wire

import (
	"time"

	"github.com/dragnetlabs/dragnet/geom"
)

// Request is the common shape of client requests.
type Request struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
}

// Response is the common shape of request acknowledgements.
type Response struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
}

type ErrorResponse struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id,omitempty"`
	Code      ErrorCode `json:"code"`
}

type SyncClock struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Box mirrors geom.Box on the wire.
type Box struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

func BoxFromGeom(b geom.Box) Box {
	return Box{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY}
}

func (b Box) Geom() geom.Box {
	return geom.NewBox(b.MinX, b.MinY, b.MaxX, b.MaxY)
}

type Element struct {
	ID            uint32 `json:"id"`
	ParticipantID uint32 `json:"participant_id"`
	Box           Box    `json:"box"`
	Dynamic       bool   `json:"dynamic,omitempty"`
}

type Participant struct {
	ID uint32 `json:"id"`
}

type SceneJoinRequest struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
	SceneID   string    `json:"scene_id,omitempty"`
}

type SceneJoinResponse struct {
	Type          MsgType   `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     uint32    `json:"request_id"`
	SceneID       string    `json:"scene_id"`
	SceneUUID     string    `json:"scene_uuid"`
	ParticipantID uint32    `json:"participant_id"`
}

type SceneState struct {
	Type         MsgType        `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	Participants []*Participant `json:"participants,omitempty"`
	Elements     []*Element     `json:"elements,omitempty"`
}

type ParticipantJoinBroadcast struct {
	Type            MsgType   `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	OriginTimestamp time.Time `json:"origin_timestamp"`
	ParticipantID   uint32    `json:"participant_id"`
}

type ParticipantLeaveBroadcast struct {
	Type            MsgType   `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	OriginTimestamp time.Time `json:"origin_timestamp"`
	ParticipantID   uint32    `json:"participant_id"`
}

type ElementAddRequest struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
	Box       Box       `json:"box"`
	Persist   bool      `json:"persist,omitempty"`
	Dynamic   bool      `json:"dynamic,omitempty"`
}

type ElementAddResponse struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
	ElementID uint32    `json:"element_id"`
}

type ElementAddBroadcast struct {
	Type            MsgType   `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	OriginTimestamp time.Time `json:"origin_timestamp"`
	Element         *Element  `json:"element"`
}

type ElementDeleteRequest struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
	ElementID uint32    `json:"element_id"`
}

type ElementDeleteResponse struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RequestID uint32    `json:"request_id"`
}

type ElementDeleteBroadcast struct {
	Type            MsgType   `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	OriginTimestamp time.Time `json:"origin_timestamp"`
	ElementID       uint32    `json:"element_id"`
}

// ElementUpdateBox is fire and forget: it carries no request id and gets
// no response.
type ElementUpdateBox struct {
	Type      MsgType   `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ElementID uint32    `json:"element_id"`
	Box       Box       `json:"box"`
}

type ElementUpdateBoxBroadcast struct {
	Type            MsgType   `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	OriginTimestamp time.Time `json:"origin_timestamp"`
	ElementID       uint32    `json:"element_id"`
	Box             Box       `json:"box"`
}

type CustomMessage struct {
	Type           MsgType   `json:"type"`
	Timestamp      time.Time `json:"timestamp"`
	Body           []byte    `json:"body"`
	ParticipantIDs []uint32  `json:"participant_ids,omitempty"`
}

type CustomMessageBroadcast struct {
	Type            MsgType   `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	OriginTimestamp time.Time `json:"origin_timestamp"`
	ParticipantID   uint32    `json:"participant_id"`
	Body            []byte    `json:"body"`
}
