// Package common provides configuration structures and utilities shared
// across the streaming server, the client and the command line tools.
//
// Key Components:
//
//   - ServerConfig: endpoint, TCP tuning, queue bound, write timeout, scene
//     file, status endpoint and logging settings of the server. String()
//     renders a sectioned summary that is logged at startup.
//
//   - ClientConfig: endpoint, timeout and frame size limit of a client.
//
//   - Logger: a logrus backed implementation of dragonboat's logger.ILogger.
//     Every package obtains its logger with logger.GetLogger(name); InitLoggers
//     installs the factory, the output (stdout plus an optional log file) and
//     the level of every named logger.
package common
