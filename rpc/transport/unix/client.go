package unix

import (
	"github.com/ValentinKolb/synthd/rpc/common"
	"github.com/ValentinKolb/synthd/rpc/transport"
	"github.com/ValentinKolb/synthd/rpc/transport/base"
	"net"
)

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(config common.ClientConfig) (net.Conn, error) {
	return base.Dial("unix", config)
}

// NewUnixClientConnector creates a connector for Unix socket endpoints
func NewUnixClientConnector() transport.IClientConnector {
	return &clientConnector{}
}
