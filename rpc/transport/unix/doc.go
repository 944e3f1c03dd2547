// Package unix implements the Unix domain socket connector of the stream
// server and client. It serves local consumers (e.g. a training process on the
// same machine) without the TCP stack; the endpoint is a socket path and a
// stale socket file is removed before binding.
package unix
