// Package logging provides the access/error logger pair used across
// this module, grounded on config/logger.go's log.Logger-based setup
// (UTC date+time flags, separate access/error streams) and on
// cache.Logger's minimal Printf-only interface for decoupling callers
// from the concrete *log.Logger type.
package logging

import (
	"io"
	"log"
	"os"
)

// Flags matches the teacher's log flag set: date, time, UTC.
const Flags = log.Ldate | log.Ltime | log.LUTC

// Logger is satisfied by *log.Logger. Components in this module accept
// this interface rather than the concrete type so tests can supply a
// recording fake.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Loggers bundles the access/error logger pair threaded through the
// filter, traversal, and transfer components.
type Loggers struct {
	Access Logger
	Error  Logger
}

// New builds a Loggers pair writing to stdout/stderr respectively. If
// accessLogLevel is "none", access logging is discarded.
func New(accessLogLevel string) Loggers {
	access := log.New(os.Stdout, "", Flags)
	if accessLogLevel == "none" {
		access.SetOutput(io.Discard)
	}
	return Loggers{
		Access: access,
		Error:  log.New(os.Stderr, "", Flags),
	}
}

// Discard returns a Loggers pair that writes nothing; useful in tests.
func Discard() Loggers {
	return Loggers{
		Access: log.New(io.Discard, "", 0),
		Error:  log.New(io.Discard, "", 0),
	}
}
