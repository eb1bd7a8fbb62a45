// Package log provides the loggers used across patch packages.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/sirupsen/logrus"
)

var debug bool

// Logger is a global interface for patch loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
}

func init() {
	var err error
	debug, err = strconv.ParseBool(os.Getenv("PATCH_DEBUG"))
	if err != nil {
		debug = false
	}
}

// GetLogger returns a new logger instance.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// Integrity reports a violated internal invariant. These are
// implementation bugs rather than user mistakes, so they are logged
// loudly together with the caller location and execution continues.
func Integrity(l Logger, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if _, file, line, ok := runtime.Caller(1); ok {
		msg = fmt.Sprintf("%s:%d: %s", filepath.Base(file), line, msg)
	}
	if e, ok := l.(*logrus.Logger); ok {
		e.WithField("integrity", true).Warn(msg)
		return
	}
	l.Warn(msg)
}

// Silent is a logger that discards everything.
type Silent struct{}

// Debug does nothing.
func (Silent) Debug(...interface{}) {}

// Info does nothing.
func (Silent) Info(...interface{}) {}

// Warn does nothing.
func (Silent) Warn(...interface{}) {}
