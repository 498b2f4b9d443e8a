// File: internal/monitor/log.go (complete file)

package monitor

import "github.com/decred/slog"

// log is disabled until the caller installs a logger with UseLogger.
var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}
