package modules

import (
	"context"

	"github.com/dragnetlabs/dragnet/models"
	"github.com/dragnetlabs/dragnet/wire"
)

// Module is the interface that describes a module that extends dragnet
// capabilities.
type Module interface {
	// Returns the module name.
	Name() string

	// Initializes the module.
	Init(*models.Scene, *models.Participant)

	// Handles a given message. Modules are free to decide whether they handle a
	// message.
	//
	// Returning wire.ErrModuleMsgSkip indicates that handling a message was
	// skipped.
	//
	// Any other returned errors causes the current WebSocket client to be
	// disconnected.
	HandleMsg(context.Context, wire.ResponseSender, wire.Msg) error

	// Handles a client disconnection.
	HandleDisconnect()
}
