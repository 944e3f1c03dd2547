package base

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/synthd/rpc/common"
	"github.com/ValentinKolb/synthd/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"io"
	"net"
	"sync"
	"time"
)

var Logger = logger.GetLogger("transport")

var (
	connectionsTotal  = metrics.NewCounter(`synthd_connections_total`)
	replacedTotal     = metrics.NewCounter(`synthd_connections_replaced_total`)
	acceptErrorsTotal = metrics.NewCounter(`synthd_accept_errors_total`)
	receivesTotal     = metrics.NewCounter(`synthd_receives_total`)
	receivedBytes     = metrics.NewCounter(`synthd_received_bytes_total`)
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport accepts one client at a time and forwards every receive to
// the registered handler
type serverTransport struct {
	connector IServerConnector
	handler   transport.CommandHandleFunc
	config    common.ServerConfig
	listener  net.Listener
	slot      *transport.ConnSlot

	// receive loops still running, waited for on shutdown
	receivers sync.WaitGroup
}

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport using the given connector
func NewBaseServerTransport(connector IServerConnector) transport.IServerTransport {
	return &serverTransport{
		connector: connector,
		slot:      &transport.ConnSlot{},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.CommandHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Slot() *transport.ConnSlot {
	return t.slot
}

func (t *serverTransport) Bind(config common.ServerConfig) (net.Addr, error) {
	t.config = config

	listener, err := t.connector.Listen(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}
	t.listener = listener

	Logger.Infof("Listening for %s clients on %s", t.connector.GetName(), listener.Addr())
	return listener.Addr(), nil
}

func (t *serverTransport) Serve(ctx context.Context) error {
	if t.listener == nil {
		return errors.New("transport is not bound")
	}
	if t.handler == nil {
		return errors.New("no command handler registered")
	}

	// closing the listener unblocks Accept
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.listener.Close()
		case <-stop:
		}
	}()

	defer func() {
		t.slot.Close()
		t.receivers.Wait()
	}()

	var backoff time.Duration
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				if ctx.Err() != nil {
					Logger.Infof("Stopped accepting %s clients", t.connector.GetName())
					return nil
				}
				return fmt.Errorf("listener closed: %w", err)
			}

			acceptErrorsTotal.Inc()
			Logger.Errorf("Accept error: %v", err)

			if backoff == 0 {
				backoff = minAcceptBackoff
			} else if backoff *= 2; backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
			Logger.Warningf("Failed to apply socket options: %v", err)
		}

		session := transport.NewSession(conn)
		connectionsTotal.Inc()
		Logger.Infof("Client connected from %s (session %s)", conn.RemoteAddr(), session.ShortID())

		if old := t.slot.Swap(session); old != nil {
			replacedTotal.Inc()
			Logger.Infof("Session %s replaced by session %s, closing it", old.ShortID(), session.ShortID())
			_ = old.Close()
		}

		t.receivers.Add(1)
		go t.handleConnection(session)
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection reads commands from one connection until it is closed.
// Every successful read is one command.
func (t *serverTransport) handleConnection(session *transport.Session) {
	defer t.receivers.Done()
	defer func() {
		t.slot.Clear(session)
		_ = session.Close()
	}()

	buf := make([]byte, common.ReceiveBufferSize)
	for {
		n, err := session.Conn.Read(buf)
		if n > 0 {
			receivesTotal.Inc()
			receivedBytes.Add(n)
			t.handler(session, decodeCommand(buf[:n]))
		}

		switch {
		case err == io.EOF:
			Logger.Infof("Connection closed by client (session %s)", session.ShortID())
			return
		case errors.Is(err, net.ErrClosed):
			Logger.Debugf("Connection of session %s was closed locally", session.ShortID())
			return
		case err != nil:
			Logger.Warningf("Receive error on session %s: %v", session.ShortID(), err)
			return
		case n == 0:
			Logger.Infof("Empty receive on session %s, closing it", session.ShortID())
			return
		}
	}
}
