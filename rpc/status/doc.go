// Package status implements an optional HTTP server that exposes the state of
// a running stream server. It never writes to the stream connection and never
// changes the live pose.
//
// Routes:
//
//	GET /health                 liveness
//	GET /metrics                Prometheus text format
//	GET /api/v1/stats           counters, stage timers and image sizes (JSON)
//	GET /api/v1/scene           the active scene (YAML)
//	GET /api/v1/pose/:index     the pose of index sampled against the initial transform
//	GET /api/v1/pose/summary    axis statistics, query parameters from and count
package status
