// Package framing implements the marker framed response stream sent to the
// client after every command.
//
// A marker is a length prefixed ASCII name:
//
//	+----------------+------------------+
//	| len (uint32 BE)| name (len bytes) |
//	+----------------+------------------+
//
// A payload is wrapped in START_<tag> and END_<tag> markers:
//
//	marker START_<tag> | len (uint32 BE) | data | marker END_<tag>
//
// One response looks like this:
//
//	payload JSON (pose document)
//	marker START_CAMERAS
//	camera count (uint32 BE)
//	payload IMAGE (once per camera, in declared order)
//	marker END_CAMERAS
//	marker EOT
//
// The writers are used by the server, the Decoder by the client and tests.
package framing
