// Package fetch implements the fetch command, a client that stores the poses
// and images of a running stream server on disk.
package fetch
