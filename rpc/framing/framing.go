package framing

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// --------------------------------------------------------------------------
// Protocol constants
// --------------------------------------------------------------------------

const (
	// TagJSON is the payload tag of the pose document
	TagJSON = "JSON"
	// TagImage is the payload tag of one camera image
	TagImage = "IMAGE"

	MarkerStartCameras = "START_CAMERAS"
	MarkerEndCameras   = "END_CAMERAS"
	MarkerEOT          = "EOT"

	startPrefix = "START_"
	endPrefix   = "END_"
)

var (
	// ErrUnexpectedMarker is returned when the stream does not contain the expected marker
	ErrUnexpectedMarker = errors.New("unexpected marker")
	// ErrFrameTooLarge is returned when a length prefix exceeds the configured limit
	ErrFrameTooLarge = errors.New("frame too large")
)

// StartMarker returns the marker that opens a payload with the given tag
func StartMarker(tag string) string { return startPrefix + tag }

// EndMarker returns the marker that closes a payload with the given tag
func EndMarker(tag string) string { return endPrefix + tag }

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// appendMarker appends the length prefixed marker to buf
func appendMarker(buf []byte, name string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(name)))
	return append(buf, name...)
}

// WriteMarker writes a marker: 4 bytes length (uint32, big endian) + ASCII bytes
func WriteMarker(w io.Writer, name string) error {
	_, err := w.Write(appendMarker(make([]byte, 0, 4+len(name)), name))
	return err
}

// WriteUint32 writes n as 4 bytes big endian
func WriteUint32(w io.Writer, n uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	_, err := w.Write(buf[:])
	return err
}

// WritePayload writes a tagged payload with the format:
//   - marker START_<tag>
//   - 4 bytes: data length (uint32, big endian)
//   - N bytes: data
//   - marker END_<tag>
//
// Header, data and trailer are handed to the writer as one vectored write.
func WritePayload(w io.Writer, tag string, data []byte) error {
	start := StartMarker(tag)
	end := EndMarker(tag)

	header := make([]byte, 0, 8+len(start))
	header = appendMarker(header, start)
	header = binary.BigEndian.AppendUint32(header, uint32(len(data)))

	trailer := appendMarker(make([]byte, 0, 4+len(end)), end)

	b := net.Buffers{header, data, trailer}
	_, err := b.WriteTo(w)
	return err
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// Decoder reads markers and payloads from a stream
type Decoder struct {
	r io.Reader
	// MaxFrameSize limits every length prefix. 0 disables the check.
	MaxFrameSize uint32
	hdr          [4]byte
}

// NewDecoder creates a decoder reading from r
func NewDecoder(r io.Reader, maxFrameSize uint32) *Decoder {
	return &Decoder{r: r, MaxFrameSize: maxFrameSize}
}

// ReadUint32 reads 4 bytes big endian
func (d *Decoder) ReadUint32() (uint32, error) {
	if _, err := io.ReadFull(d.r, d.hdr[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(d.hdr[:]), nil
}

// readBlock reads a length prefixed block
func (d *Decoder) readBlock() ([]byte, error) {
	n, err := d.ReadUint32()
	if err != nil {
		return nil, err
	}
	if d.MaxFrameSize > 0 && n > d.MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFrameTooLarge, n, d.MaxFrameSize)
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadMarker reads the next marker
func (d *Decoder) ReadMarker() (string, error) {
	b, err := d.readBlock()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ExpectMarker reads the next marker and fails if it is not name
func (d *Decoder) ExpectMarker(name string) error {
	got, err := d.ReadMarker()
	if err != nil {
		return err
	}
	if got != name {
		return fmt.Errorf("%w: got %q, want %q", ErrUnexpectedMarker, got, name)
	}
	return nil
}

// ReadPayload reads a complete payload with the given tag
func (d *Decoder) ReadPayload(tag string) ([]byte, error) {
	if err := d.ExpectMarker(StartMarker(tag)); err != nil {
		return nil, err
	}
	return d.ReadPayloadBody(tag)
}

// ReadPayloadBody reads data and end marker of a payload whose start marker
// was already consumed
func (d *Decoder) ReadPayloadBody(tag string) ([]byte, error) {
	data, err := d.readBlock()
	if err != nil {
		return nil, err
	}
	if err := d.ExpectMarker(EndMarker(tag)); err != nil {
		return nil, err
	}
	return data, nil
}
