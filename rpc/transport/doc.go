// Package transport defines the contracts between the network side of the
// stream server and the dispatcher.
//
// Key Components:
//
//   - IServerTransport: binds a listener, accepts one client at a time and
//     passes every receive to a CommandHandleFunc.
//
//   - Session and ConnSlot: the active connection and the atomic slot that
//     holds it. The listener swaps sessions in and clears them when their
//     receive loop ends; the dispatcher loads the session once per command.
//
//   - IClientConnector: opens a connection to a server (tcp, unix).
package transport
