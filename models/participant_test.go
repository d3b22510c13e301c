package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParticipantAddElement(t *testing.T) {
	p := Participant{
		ID: 1,
	}

	e := &Element{
		ID:            1,
		ParticipantID: 1,
	}

	p.AddElement(e)
	require.Len(t, p.ElementIDs(), 1)
}

func TestParticipantRemoveElement(t *testing.T) {
	p := Participant{
		ID: 1,
	}

	e := &Element{
		ID:            1,
		ParticipantID: 1,
	}

	p.AddElement(e)
	require.Len(t, p.ElementIDs(), 1)

	p.RemoveElement(e)
	require.Empty(t, p.ElementIDs())
}

func TestParticipantToWire(t *testing.T) {
	p := Participant{
		ID: 1,
	}

	wp := p.ToWire()
	require.Equal(t, p.ID, wp.ID)
}

func TestParticipantsToWire(t *testing.T) {
	participants := []*Participant{
		{
			ID: 1,
		},
		{
			ID: 2,
		},
	}

	wireParticipants := ParticipantsToWire(participants)
	require.Len(t, wireParticipants, 2)
}
