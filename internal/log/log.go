package log

import (
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var logger = newLogger("rummikub")

func newLogger(prefix string) *log.Logger {
	l := log.New(os.Stderr)
	l.SetPrefix(prefix)
	l.SetReportTimestamp(true)
	l.SetTimeFormat(time.DateTime)
	l.SetLevel(log.InfoLevel)
	return l
}

// InitLog replaces the process logger. Call once at startup before any
// goroutine logs.
func InitLog(appName string, logLevel string) {
	// stdout keeps IDE consoles from colouring every line as an error
	l := log.New(os.Stdout)
	l.SetPrefix(appName)
	l.SetReportTimestamp(true)
	l.SetTimeFormat(time.DateTime)
	l.SetReportCaller(true)
	l.SetCallerOffset(1)
	l.SetLevel(parseLevel(logLevel))
	logger = l
}

// SetLevel changes the level of the running logger.
func SetLevel(logLevel string) {
	logger.SetLevel(parseLevel(logLevel))
}

func parseLevel(logLevel string) log.Level {
	switch strings.ToLower(strings.TrimSpace(logLevel)) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func Fatal(format string, args ...any) {
	if len(args) == 0 {
		logger.Fatal(format)
	} else {
		logger.Fatalf(format, args...)
	}
}

func Info(format string, args ...any) {
	if len(args) == 0 {
		logger.Info(format)
	} else {
		logger.Infof(format, args...)
	}
}

func Warn(format string, args ...any) {
	if len(args) == 0 {
		logger.Warn(format)
	} else {
		logger.Warnf(format, args...)
	}
}

func Error(format string, args ...any) {
	if len(args) == 0 {
		logger.Error(format)
	} else {
		logger.Errorf(format, args...)
	}
}

func Debug(format string, args ...any) {
	if len(args) == 0 {
		logger.Debug(format)
	} else {
		logger.Debugf(format, args...)
	}
}
