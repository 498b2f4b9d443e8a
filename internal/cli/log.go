// File: internal/cli/log.go (complete file)

package cli

import (
	"github.com/decred/slog"

	"github.com/baptistax/egressprobe/internal/api"
	"github.com/baptistax/egressprobe/internal/app"
	"github.com/baptistax/egressprobe/internal/leaks"
	"github.com/baptistax/egressprobe/internal/logging"
	"github.com/baptistax/egressprobe/internal/monitor"
	"github.com/baptistax/egressprobe/internal/probe"
)

var log = slog.Disabled

// useLoggers hands every package its subsystem logger.
func useLoggers() {
	log = logging.Logger(logging.SubsystemMain)
	app.UseLogger(logging.Logger(logging.SubsystemMain))
	probe.UseLogger(logging.Logger(logging.SubsystemProbe))
	leaks.UseLogger(logging.Logger(logging.SubsystemLeak))
	monitor.UseLogger(logging.Logger(logging.SubsystemMonitor))
	api.UseLogger(logging.Logger(logging.SubsystemAPI))
}
