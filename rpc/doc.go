// Package rpc contains the network side of synthd: the stream server, its
// client and the pieces they share.
//
// The package is organized into several subpackages:
//
//   - common: configuration structures and the logging setup.
//
//   - framing: the length prefixed markers and tagged payloads of the stream
//     protocol.
//
//   - transport: listener and connector abstractions with tcp and unix
//     implementations.
//
//   - serializer: pose encodings (JSON on the wire, a fixed size binary record
//     for files).
//
//   - server: the command queue consumer that samples poses, captures images
//     and writes the responses.
//
//   - client: a client that sends indices and decodes the responses.
//
//   - status: the optional HTTP status server.
package rpc
