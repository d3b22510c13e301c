package models

import (
	"github.com/dragnetlabs/dragnet/wire"
)

// A scene participant.
type Participant struct {
	ID        uint32
	Responder wire.ResponseSender

	elementIDs map[uint32]struct{}
}

func (p *Participant) AddElement(e *Element) {
	if p.elementIDs == nil {
		p.elementIDs = make(map[uint32]struct{})
	}
	p.elementIDs[e.ID] = struct{}{}
}

func (p *Participant) RemoveElement(e *Element) {
	delete(p.elementIDs, e.ID)
}

func (p *Participant) ElementIDs() map[uint32]struct{} {
	return p.elementIDs
}

func (p *Participant) ToWire() *wire.Participant {
	return &wire.Participant{
		ID: p.ID,
	}
}

func ParticipantsToWire(participants []*Participant) []*wire.Participant {
	res := make([]*wire.Participant, len(participants))
	for i, p := range participants {
		res[i] = p.ToWire()
	}
	return res
}
