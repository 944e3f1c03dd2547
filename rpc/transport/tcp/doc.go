// Package tcp implements the TCP connector of the stream server and client.
// The server connector binds to the configured endpoint (by default the
// loopback address 127.0.0.1:8090) and applies the TCP options of
// common.TransportConfig (no delay, buffer sizes, keep-alive, linger) to every
// accepted connection.
package tcp
