package tcp

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ValentinKolb/synthd/rpc/common"
	"github.com/ValentinKolb/synthd/rpc/transport"
	"github.com/ValentinKolb/synthd/rpc/transport/base"
)

// ErrNotLoopback is returned by Listen for an endpoint that is reachable from
// other hosts while remote clients are not allowed
var ErrNotLoopback = errors.New("endpoint is not a loopback address")

// serverConnector listens on a TCP endpoint and tunes the accepted sockets
type serverConnector struct{}

func (c *serverConnector) GetName() string {
	return "tcp"
}

// Listen binds the endpoint. The stream protocol has no authentication, so a
// wildcard or external address needs Transport.AllowRemote.
func (c *serverConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	endpoint := config.Transport.Endpoint
	loopback, err := isLoopback(endpoint)
	if err != nil {
		return nil, err
	}
	if !loopback {
		if !config.Transport.AllowRemote {
			return nil, fmt.Errorf("%w: %s (use a 127.0.0.1 or [::1] address or allow remote clients)", ErrNotLoopback, endpoint)
		}
		base.Logger.Warningf("Stream endpoint %s accepts remote clients without authentication", endpoint)
	}

	listener, err := net.Listen("tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", endpoint, err)
	}
	return listener, nil
}

// isLoopback resolves endpoint and reports whether it only binds a loopback
// interface. An empty host binds every interface and is not loopback.
func isLoopback(endpoint string) (bool, error) {
	host, _, err := net.SplitHostPort(endpoint)
	if err != nil {
		return false, fmt.Errorf("invalid tcp endpoint %q: %w", endpoint, err)
	}
	if host == "" {
		return false, nil
	}
	addr, err := net.ResolveTCPAddr("tcp", endpoint)
	if err != nil {
		return false, fmt.Errorf("failed to resolve %q: %w", endpoint, err)
	}
	return addr.IP.IsLoopback(), nil
}

// socketOption applies one setting to an accepted connection
type socketOption struct {
	name  string
	apply func(*net.TCPConn) error
}

// socketOptions returns the settings of cfg that differ from the system defaults
func socketOptions(cfg common.TransportConfig) []socketOption {
	opts := []socketOption{{"nodelay", func(c *net.TCPConn) error { return c.SetNoDelay(cfg.TCPNoDelay) }}}

	if cfg.WriteBufferSize > 0 {
		opts = append(opts, socketOption{"write buffer", func(c *net.TCPConn) error { return c.SetWriteBuffer(cfg.WriteBufferSize) }})
	}
	if cfg.ReadBufferSize > 0 {
		opts = append(opts, socketOption{"read buffer", func(c *net.TCPConn) error { return c.SetReadBuffer(cfg.ReadBufferSize) }})
	}
	if cfg.TCPKeepAliveSec > 0 {
		period := time.Duration(cfg.TCPKeepAliveSec) * time.Second
		opts = append(opts, socketOption{"keepalive", func(c *net.TCPConn) error {
			return c.SetKeepAliveConfig(net.KeepAliveConfig{Enable: true, Idle: period, Interval: period})
		}})
	}
	if cfg.TCPLingerSec >= 0 {
		opts = append(opts, socketOption{"linger", func(c *net.TCPConn) error { return c.SetLinger(cfg.TCPLingerSec) }})
	}
	return opts
}

// UpgradeConnection applies the socket options of config.Transport. Other
// connection types are left untouched.
func (c *serverConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	for _, opt := range socketOptions(config.Transport) {
		if err := opt.apply(tcpConn); err != nil {
			return fmt.Errorf("failed to set %s: %w", opt.name, err)
		}
	}
	return nil
}

// NewTCPServerTransport creates the TCP server transport
func NewTCPServerTransport() transport.IServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}
