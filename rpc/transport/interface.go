package transport

import (
	"context"
	"net"

	"github.com/ValentinKolb/synthd/rpc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// CommandHandleFunc is called by the server transport for every successful
// receive. session is the connection the bytes arrived on and cmd the decoded
// text of that single receive.
type CommandHandleFunc func(session *Session, cmd string)

// IServerTransport is the interface for the listener side of the stream server
type IServerTransport interface {
	// RegisterHandler registers the function that receives every command.
	// It must be called before Serve.
	RegisterHandler(handler CommandHandleFunc)
	// Bind creates the listener and returns the bound address
	Bind(config common.ServerConfig) (net.Addr, error)
	// Serve accepts connections until ctx is cancelled or the listener fails.
	// It returns nil after a shutdown through ctx.
	Serve(ctx context.Context) error
	// Slot returns the slot holding the active connection
	Slot() *ConnSlot
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientConnector opens connections to a stream server
type IClientConnector interface {
	// Connect establishes a connection to the configured endpoint
	Connect(config common.ClientConfig) (net.Conn, error)
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}
