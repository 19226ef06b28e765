// Package logging builds the logrus logger shared by all components.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Levels accepted by ParseLevel, most verbose first.
var Levels = []string{"trace", "debug", "info", "warn", "error"}

// New returns a text logger writing to w. quiet raises the level to error
// whatever level says.
func New(w io.Writer, level logrus.Level, quiet bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		TimestampFormat:        "15:04:05",
		DisableLevelTruncation: true,
	})
	if quiet {
		level = logrus.ErrorLevel
	}
	l.SetLevel(level)
	return l
}

// ParseLevel accepts the names in Levels, case-insensitively.
func ParseLevel(s string) (logrus.Level, error) {
	return logrus.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
}
