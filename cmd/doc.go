// Package cmd implements the command-line interface of synthd.
//
// The package is organized into several subpackages:
//
//   - serve: starts the stream server and the optional status server
//   - fetch: a client that stores poses and images of a running server on disk
//   - pose: samples poses locally, useful to check a scene file
//   - util: shared flag and configuration helpers (internal use)
//
// Flags can also be set through environment variables with the SYNTHD_
// prefix or in a .env file. See synthd --help for a list of all commands.
package cmd
