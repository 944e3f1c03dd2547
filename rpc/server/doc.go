// Package server implements the stream server: it accepts one client at a
// time, queues every receive as a command and answers each command with a
// sampled pose and one image per camera.
//
// Key Components:
//
//   - Server: wires a transport.IServerTransport to the command queue and the
//     dispatcher. Serve runs until the context is cancelled.
//
//   - Dispatcher: the single consumer of the queue. For every command it parses
//     the index, applies the pose sampler and, if a client is connected, writes
//     the response:
//
//     Payload("JSON", pose) | START_CAMERAS | count | Payload("IMAGE", png)... | END_CAMERAS | EOT
//
//   - Stats: counters and stage timers, exposed through Stats and in
//     Prometheus text format through WritePrometheus.
//
// Commands that do not parse as a non negative 32 bit integer are dropped.
// The pose of a valid command is applied even when no client is connected.
// A failed write drops the connection; a failed capture sends an empty image
// so the declared camera count stays correct.
//
// Usage Example:
//
//	s, err := server.NewServer(config, scene.Default(), tcp.NewTCPServerTransport())
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := s.Serve(ctx); err != nil {
//		log.Fatal(err)
//	}
package server
