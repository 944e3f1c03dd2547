package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// --------------------------------------------------------------------------
// Session (one accepted connection)
// --------------------------------------------------------------------------

// Session wraps an accepted connection with an id used in logs and stats
type Session struct {
	ID     string
	Conn   net.Conn
	Opened time.Time

	closeOnce sync.Once
	closeErr  error
}

// NewSession wraps conn in a session with a fresh id
func NewSession(conn net.Conn) *Session {
	return &Session{
		ID:     uuid.New().String(),
		Conn:   conn,
		Opened: time.Now(),
	}
}

// Close closes the underlying connection. Calling it more than once is safe.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.Conn.Close()
	})
	return s.closeErr
}

// ShortID returns the first eight characters of the id
func (s *Session) ShortID() string {
	if len(s.ID) < 8 {
		return s.ID
	}
	return s.ID[:8]
}

// --------------------------------------------------------------------------
// ConnSlot (the single active connection)
// --------------------------------------------------------------------------

// ConnSlot holds at most one active session. The listener swaps new sessions
// in, the dispatcher loads the current one once per command.
type ConnSlot struct {
	current atomic.Pointer[Session]
}

// Load returns the active session or nil
func (c *ConnSlot) Load() *Session {
	return c.current.Load()
}

// Swap stores s as the active session and returns the previous one
func (c *ConnSlot) Swap(s *Session) *Session {
	return c.current.Swap(s)
}

// Clear removes s from the slot if it is still the active session
func (c *ConnSlot) Clear(s *Session) bool {
	return c.current.CompareAndSwap(s, nil)
}

// Close closes and removes the active session, if any
func (c *ConnSlot) Close() {
	if s := c.current.Swap(nil); s != nil {
		_ = s.Close()
	}
}
