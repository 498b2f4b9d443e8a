// File: internal/runctx/runctx.go (complete file)

package runctx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Context struct {
	RunID        string
	StartedAtUTC time.Time
	OutputDir    string
}

// New creates exports/run_<id> under baseDir. Two runs started within the
// same second get distinct directories.
func New(baseDir string) (*Context, error) {
	now := time.Now().UTC()
	base := now.Format("20060102_150405")

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}

	runID := base
	for i := 2; ; i++ {
		outDir := filepath.Join(baseDir, fmt.Sprintf("run_%s", runID))
		err := os.Mkdir(outDir, 0o755)
		if err == nil {
			return &Context{
				RunID:        runID,
				StartedAtUTC: now,
				OutputDir:    outDir,
			}, nil
		}
		if !errors.Is(err, os.ErrExist) || i > 100 {
			return nil, err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

// Path returns name inside the run directory.
func (c *Context) Path(name string) string {
	return filepath.Join(c.OutputDir, name)
}
