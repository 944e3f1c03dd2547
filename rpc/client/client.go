package client

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/ValentinKolb/synthd/lib/pose"
	"github.com/ValentinKolb/synthd/rpc/common"
	"github.com/ValentinKolb/synthd/rpc/framing"
	"github.com/ValentinKolb/synthd/rpc/serializer"
	"github.com/ValentinKolb/synthd/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("client")

// ErrProtocol is returned when the server sends something that does not
// follow the response layout
var ErrProtocol = errors.New("protocol error")

// ErrClientBroken is returned by Fetch after an earlier request failed. The
// stream position is unknown at that point, so the connection is closed.
var ErrClientBroken = errors.New("client connection is broken")

// Response is the decoded answer to one command
type Response struct {
	Index  int32
	Pose   pose.Sample
	Images [][]byte
}

// Client sends indices to a stream server and decodes the responses.
// Requests are serialized; a client can be shared between goroutines.
type Client struct {
	mu         sync.Mutex
	config     common.ClientConfig
	conn       net.Conn
	decoder    *framing.Decoder
	serializer serializer.IPoseSerializer

	// broken is the error that ended the connection, nil while it is usable
	broken error
}

// NewClient connects to the server configured in config
//
// Usage:
//
//	c, err := client.NewClient(config, tcp.NewTCPClientConnector())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	resp, err := c.Fetch(42)
func NewClient(config common.ClientConfig, connector transport.IClientConnector) (*Client, error) {
	conn, err := connector.Connect(config)
	if err != nil {
		return nil, err
	}
	Logger.Infof("Connected to %s (%s)", config.Endpoint, connector.GetName())

	return &Client{
		config:     config,
		conn:       conn,
		decoder:    framing.NewDecoder(conn, config.MaxFrameSize),
		serializer: serializer.NewJSONSerializer(),
	}, nil
}

// Fetch sends index as one command and waits for the complete response. Any
// error leaves the client broken; later calls fail with ErrClientBroken.
func (c *Client) Fetch(index int32) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return nil, fmt.Errorf("%w: %v", ErrClientBroken, c.broken)
	}

	if c.config.Timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.config.Timeout))
		defer c.conn.SetDeadline(time.Time{})
	}

	start := time.Now()
	if _, err := c.conn.Write([]byte(strconv.FormatInt(int64(index), 10))); err != nil {
		return nil, c.fail(fmt.Errorf("failed to send index %d: %w", index, err))
	}

	resp, err := c.readResponse()
	if err != nil {
		return nil, c.fail(err)
	}
	resp.Index = index
	Logger.Debugf("Fetched index %d with %d image(s) in %s", index, len(resp.Images), time.Since(start))
	return resp, nil
}

// readResponse decodes one response up to and including the EOT marker
func (c *Client) readResponse() (*Response, error) {
	resp := &Response{}

	doc, err := c.decoder.ReadPayload(framing.TagJSON)
	if err != nil {
		return nil, wrapProtocol("pose payload", err)
	}
	if err := c.serializer.Deserialize(doc, &resp.Pose); err != nil {
		return nil, fmt.Errorf("%w: invalid pose document: %v", ErrProtocol, err)
	}

	if err := c.decoder.ExpectMarker(framing.MarkerStartCameras); err != nil {
		return nil, wrapProtocol("camera block", err)
	}
	count, err := c.decoder.ReadUint32()
	if err != nil {
		return nil, wrapProtocol("camera count", err)
	}

	// the count is only a hint, the image loop ends at END_CAMERAS
	for {
		marker, err := c.decoder.ReadMarker()
		if err != nil {
			return nil, wrapProtocol("camera block", err)
		}
		if marker == framing.MarkerEndCameras {
			break
		}
		if marker != framing.StartMarker(framing.TagImage) {
			return nil, fmt.Errorf("%w: unexpected marker %q in camera block", ErrProtocol, marker)
		}
		img, err := c.decoder.ReadPayloadBody(framing.TagImage)
		if err != nil {
			return nil, wrapProtocol("image payload", err)
		}
		resp.Images = append(resp.Images, img)
	}
	if uint32(len(resp.Images)) != count {
		Logger.Warningf("Server announced %d image(s) but sent %d", count, len(resp.Images))
	}

	if err := c.decoder.ExpectMarker(framing.MarkerEOT); err != nil {
		return nil, wrapProtocol("end of transmission", err)
	}
	return resp, nil
}

// fail marks the client as broken and closes the connection. It returns err.
func (c *Client) fail(err error) error {
	c.broken = err
	if cerr := c.conn.Close(); cerr != nil {
		Logger.Debugf("Closing %s after an error: %v", c.config.Endpoint, cerr)
	}
	Logger.Warningf("Connection to %s is unusable: %v", c.config.Endpoint, err)
	return err
}

// Close closes the connection. It is a no-op for a broken client, whose
// connection is already closed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken != nil {
		return nil
	}
	c.broken = net.ErrClosed
	return c.conn.Close()
}

func wrapProtocol(what string, err error) error {
	if errors.Is(err, framing.ErrUnexpectedMarker) || errors.Is(err, framing.ErrFrameTooLarge) {
		return fmt.Errorf("%w: %s: %v", ErrProtocol, what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
