// File: internal/logging/logging.go (complete file)

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// Subsystem tags.
const (
	SubsystemMain    = "EGPR"
	SubsystemProbe   = "PRBE"
	SubsystemLeak    = "LEAK"
	SubsystemMonitor = "MNTR"
	SubsystemAPI     = "APIS"
)

// logWriter sends every log line to stderr and, once Setup opened one, to the
// rotating log file.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stderr.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

var (
	backendLog = slog.NewBackend(logWriter{})
	logRotator *rotator.Rotator

	mu         sync.Mutex
	subsystems = map[string]slog.Logger{}
)

func init() {
	for _, tag := range []string{SubsystemMain, SubsystemProbe, SubsystemLeak, SubsystemMonitor, SubsystemAPI} {
		subsystems[tag] = backendLog.Logger(tag)
	}
}

// Logger returns the logger for a subsystem tag, creating it on first use.
func Logger(tag string) slog.Logger {
	mu.Lock()
	defer mu.Unlock()

	l, ok := subsystems[tag]
	if !ok {
		l = backendLog.Logger(tag)
		subsystems[tag] = l
	}
	return l
}

// Setup applies the level specification and, when logFile is set, starts
// writing to a rotating log file as well.
func Setup(levels, logFile string) error {
	if logFile != "" {
		if err := initLogRotator(logFile); err != nil {
			return err
		}
	}
	return SetLevels(levels)
}

// SetLevels accepts either a single level applied to every subsystem
// ("debug") or a comma separated list of SUBSYSTEM=level pairs
// ("PRBE=debug,LEAK=trace").
func SetLevels(spec string) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = "info"
	}

	if !strings.Contains(spec, "=") {
		lvl, ok := slog.LevelFromString(strings.ToLower(spec))
		if !ok {
			return fmt.Errorf("invalid log level %q", spec)
		}
		mu.Lock()
		for _, l := range subsystems {
			l.SetLevel(lvl)
		}
		mu.Unlock()
		return nil
	}

	for _, pair := range strings.Split(spec, ",") {
		fields := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(fields) != 2 {
			return fmt.Errorf("invalid log level pair %q", pair)
		}
		tag := strings.ToUpper(strings.TrimSpace(fields[0]))
		lvl, ok := slog.LevelFromString(strings.ToLower(strings.TrimSpace(fields[1])))
		if !ok {
			return fmt.Errorf("invalid log level %q for %s", fields[1], tag)
		}

		mu.Lock()
		l, known := subsystems[tag]
		mu.Unlock()
		if !known {
			return fmt.Errorf("unknown subsystem %q (supported: %s)", tag, strings.Join(Subsystems(), ", "))
		}
		l.SetLevel(lvl)
	}
	return nil
}

// Subsystems returns the known subsystem tags in sorted order.
func Subsystems() []string {
	mu.Lock()
	defer mu.Unlock()

	out := make([]string, 0, len(subsystems))
	for tag := range subsystems {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Close flushes and closes the log file, if any.
func Close() {
	if logRotator != nil {
		logRotator.Close()
	}
}

func initLogRotator(logFile string) error {
	if err := os.MkdirAll(filepath.Dir(logFile), 0o700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		return fmt.Errorf("failed to create file rotator: %w", err)
	}
	logRotator = r
	return nil
}
