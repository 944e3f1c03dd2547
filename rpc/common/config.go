package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	// DefaultEndpoint is the loopback endpoint the server listens on
	DefaultEndpoint = "127.0.0.1:8090"
	// ReceiveBufferSize is the size of the buffer used for one receive. Every
	// successful read is treated as one command.
	ReceiveBufferSize = 1024
)

// --------------------------------------------------------------------------
// Server configuration struct
// --------------------------------------------------------------------------

// TransportConfig holds the socket level settings
type TransportConfig struct {
	// Endpoint is the host:port to listen on
	Endpoint string

	// AllowRemote permits tcp endpoints that are not bound to loopback
	AllowRemote bool

	// TCP tuning applied to every accepted connection
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
	ReadBufferSize  int
	WriteBufferSize int
}

// ServerConfig holds all configuration parameters of the streaming server
type ServerConfig struct {
	Transport TransportConfig

	// MaxPending bounds the command queue, 0 means unbounded
	MaxPending int

	// WriteTimeout is the deadline for writing one complete response, 0 disables it
	WriteTimeout time.Duration

	// SceneFile is the path of the YAML scene description (empty = built in scene)
	SceneFile string

	// StatusEndpoint is the address of the HTTP status server (empty = disabled)
	StatusEndpoint string

	// Logging configuration
	LogLevel string
	LogDir   string
}

// DefaultServerConfig returns a configuration with the default endpoint and
// an unbounded queue
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Transport: TransportConfig{
			Endpoint:     DefaultEndpoint,
			TCPNoDelay:   true,
			TCPLingerSec: -1,
		},
		LogLevel: "info",
	}
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	orDisabled := func(v string) string {
		if v == "" {
			return "disabled"
		}
		return v
	}

	addSection("Stream Server")
	addField("Endpoint", c.Transport.Endpoint)
	addField("Receive Buffer", fmt.Sprintf("%d bytes", ReceiveBufferSize))
	if c.MaxPending > 0 {
		addField("Max Pending Commands", strconv.Itoa(c.MaxPending))
	} else {
		addField("Max Pending Commands", "unbounded")
	}
	if c.WriteTimeout > 0 {
		addField("Write Timeout", c.WriteTimeout.String())
	} else {
		addField("Write Timeout", "disabled")
	}

	addSection("TCP")
	addField("Allow Remote", strconv.FormatBool(c.Transport.AllowRemote))
	addField("No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
	addField("Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("Linger", fmt.Sprintf("%d sec", c.Transport.TCPLingerSec))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.ReadBufferSize))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))

	addSection("Scene")
	if c.SceneFile == "" {
		addField("Scene File", "built in")
	} else {
		addField("Scene File", c.SceneFile)
	}

	addSection("Status Server")
	addField("Endpoint", orDisabled(c.StatusEndpoint))

	addSection("Logging")
	addField("Log Level", c.LogLevel)
	addField("Log Directory", orDisabled(c.LogDir))

	return sb.String()
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the parameters of a stream client
type ClientConfig struct {
	Endpoint string
	Timeout  time.Duration
	// MaxFrameSize limits every length prefix read from the server, 0 = unlimited
	MaxFrameSize uint32
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", c.Timeout.String())
	addField("Max Frame Size", fmt.Sprintf("%d bytes", c.MaxFrameSize))

	return sb.String()
}
