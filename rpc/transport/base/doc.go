// Package base provides the protocol independent part of the stream server
// transport. Protocol specific packages (tcp, unix) only supply a connector
// that creates the listener and tunes accepted connections.
//
// Connection policy:
//
//   - One active client. The accept loop runs on its own goroutine; every
//     accepted connection is wrapped in a transport.Session and swapped into
//     the transport.ConnSlot. A previously active session is closed.
//
//   - Every connection gets a receive goroutine that reads into a 1024 byte
//     buffer. Each successful read is decoded as UTF-8 and handed to the
//     registered handler as one command. The per-receive boundary is the
//     command boundary; there is no inbound length prefix.
//
//   - EOF, an empty read or a read error end the receive loop. The slot is
//     cleared only if it still holds that session.
//
//   - Accept errors are logged and the loop continues with a short backoff.
//     Closing the listener through the Serve context ends the loop.
//
// The transport never writes to a connection. Responses are written by the
// dispatcher through the session found in the slot.
package base
