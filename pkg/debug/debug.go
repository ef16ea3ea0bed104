/*
 * Package debug provides leveled diagnostic logging for the agent.
 *
 * Logging is disabled by default and enabled through the DEBUG environment
 * variable so that a production agent stays quiet on its error stream. The
 * minimum level is controlled by LOG_LEVEL (DEBUG, INFO, WARNING, ERROR).
 *
 * All output goes to stderr. Stdout is reserved for the coordinator
 * protocol and must never carry log lines.
 */
package debug

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

var levelNames = map[LogLevel]string{
	LevelDebug:   "DEBUG",
	LevelInfo:    "INFO",
	LevelWarning: "WARNING",
	LevelError:   "ERROR",
}

var (
	// IsEnabled reports whether debug logging is active
	IsEnabled bool

	// CurrentLevel is the minimum level that will be logged
	CurrentLevel LogLevel

	logger *log.Logger
	mu     sync.Mutex
)

func init() {
	logger = log.New(os.Stderr, "", 0)
	Reinitialize()
}

// Reinitialize re-reads DEBUG and LOG_LEVEL from the environment. Called
// again after configuration loading so flag/.env overrides take effect.
func Reinitialize() {
	debugEnv := strings.ToLower(os.Getenv("DEBUG"))
	IsEnabled = debugEnv == "true" || debugEnv == "1"

	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		CurrentLevel = LevelDebug
	case "WARNING":
		CurrentLevel = LevelWarning
	case "ERROR":
		CurrentLevel = LevelError
	default:
		CurrentLevel = LevelInfo
	}
}

// Log writes a message at the given level if logging is enabled and the
// level passes the current threshold.
func Log(level LogLevel, format string, args ...interface{}) {
	if !IsEnabled || level < CurrentLevel {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	caller := "???:0"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	mu.Lock()
	defer mu.Unlock()
	logger.Printf("[%s] [%s] [%s] %s", timestamp, levelNames[level], caller, msg)
}

// Debug logs a message at DEBUG level
func Debug(format string, args ...interface{}) {
	Log(LevelDebug, format, args...)
}

// Info logs a message at INFO level
func Info(format string, args ...interface{}) {
	Log(LevelInfo, format, args...)
}

// Warning logs a message at WARNING level
func Warning(format string, args ...interface{}) {
	Log(LevelWarning, format, args...)
}

// Error logs a message at ERROR level
func Error(format string, args ...interface{}) {
	Log(LevelError, format, args...)
}
