package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Output sink shared by all loggers
// --------------------------------------------------------------------------

// logSink serializes writes of all loggers, so concurrent lines never interleave.
// Output goes to stderr by default to keep command output on stdout machine readable.
var logSink = struct {
	mu sync.Mutex
	w  io.Writer
}{w: os.Stderr}

// SetLogOutput redirects the output of all loggers and returns the previous writer
func SetLogOutput(w io.Writer) io.Writer {
	logSink.mu.Lock()
	defer logSink.mu.Unlock()
	prev := logSink.w
	logSink.w = w
	return prev
}

// --------------------------------------------------------------------------
// Named logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// levelTags maps the levels that produce output to their column text
var levelTags = map[logger.LogLevel]string{
	logger.ERROR:   "ERROR",
	logger.WARNING: "WARN",
	logger.INFO:    "INFO",
	logger.DEBUG:   "DEBUG",
}

// namedLogger writes "date time | LEVEL | name | message" lines.
// The level may be changed by InitLoggers while other goroutines are logging.
type namedLogger struct {
	name  string
	level atomic.Int32
}

func (l *namedLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *namedLogger) enabled(level logger.LogLevel) bool {
	return logger.LogLevel(l.level.Load()) >= level
}

func (l *namedLogger) write(level logger.LogLevel, format string, args []interface{}) {
	if !l.enabled(level) {
		return
	}
	line := fmt.Sprintf("%s %-5s | %-15s | %s\n",
		time.Now().Format("2006/01/02 15:04:05"), levelTags[level], l.name, fmt.Sprintf(format, args...))

	logSink.mu.Lock()
	defer logSink.mu.Unlock()
	_, _ = io.WriteString(logSink.w, line)
}

func (l *namedLogger) Debugf(format string, args ...interface{}) {
	l.write(logger.DEBUG, format, args)
}

func (l *namedLogger) Infof(format string, args ...interface{}) {
	l.write(logger.INFO, format, args)
}

func (l *namedLogger) Warningf(format string, args ...interface{}) {
	l.write(logger.WARNING, format, args)
}

func (l *namedLogger) Errorf(format string, args ...interface{}) {
	l.write(logger.ERROR, format, args)
}

// Panicf always panics, a CRITICAL condition is never filtered
func (l *namedLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.write(logger.ERROR, "%s", []interface{}{msg})
	panic(msg)
}

// CreateLogger implements the dragonboat logger.Factory. New loggers start at WARNING.
func CreateLogger(pkgName string) logger.ILogger {
	l := &namedLogger{name: pkgName}
	l.SetLevel(logger.WARNING)
	return l
}

// --------------------------------------------------------------------------
// Levels
// --------------------------------------------------------------------------

// ParseLogLevel converts a level name (debug, info, warn, error) to logger.LogLevel.
// The empty string selects WARNING.
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch name := strings.ToLower(strings.TrimSpace(level)); name {
	case "", "warn", "warning":
		return logger.WARNING, nil
	default:
		for lvl, tag := range levelTags {
			if strings.ToLower(tag) == name {
				return lvl, nil
			}
		}
	}
	return logger.WARNING, NewError(ErrCInvalidConfiguration,
		fmt.Sprintf("invalid log level: %s. must be one of debug, info, warn, error", level), nil)
}

// loggerNames are all loggers used by this module
var loggerNames = []string{"rpc", "transport/rpc", "dict", "server"}

// InitLoggers installs the logger factory and sets the level of all loggers of this module
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)
	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
