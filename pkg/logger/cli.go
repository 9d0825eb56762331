package logger

import (
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// NewCLI creates a colorized logger for human-facing command output.
// Service-style logging goes through NewLogger; this one is for the
// terminal.
func NewCLI(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}

	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: false,
		TimeFormat:      time.Kitchen,
		Prefix:          "noema",
	})
}
