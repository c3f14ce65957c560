package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Context key for storing logger
type contextKey string

const loggerContextKey contextKey = "dpf-version-logger"

// LogFileName is the file written in the configured log directory
const LogFileName = "dpf-version.log"

// levels lists the accepted level names in order of increasing severity
var levels = []struct {
	name  string
	level logrus.Level
}{
	{"debug", logrus.DebugLevel},
	{"info", logrus.InfoLevel},
	{"warning", logrus.WarnLevel},
	{"error", logrus.ErrorLevel},
}

// LevelNames returns the accepted level names, most verbose first
func LevelNames() []string {
	names := make([]string, 0, len(levels))
	for _, l := range levels {
		names = append(names, l.name)
	}
	return names
}

// ParseLogLevel maps a case-insensitive level name to its logrus level.
// Unknown names return logrus.InfoLevel together with an error.
func ParseLogLevel(level string) (logrus.Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(level))
	for _, l := range levels {
		if l.name == normalized {
			return l.level, nil
		}
	}
	return logrus.InfoLevel, fmt.Errorf("invalid log level '%s'. Valid levels are: %s", level, strings.Join(LevelNames(), ", "))
}

// ValidateLogLevel reports whether level is one of LevelNames
func ValidateLogLevel(level string) error {
	_, err := ParseLogLevel(level)
	return err
}

// SetupLogger creates a logger with the given level and stores it in the context.
// Logs go to stderr so that reports printed on stdout stay clean; when logDir is set
// they are also appended to dpf-version.log in that directory.
func SetupLogger(ctx context.Context, level, logDir string) context.Context {
	return WithLogger(ctx, NewLogger(os.Stderr, level, logDir))
}

// NewLogger builds the logger SetupLogger installs, writing to out
func NewLogger(out io.Writer, level, logDir string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := ParseLogLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v. Using 'info' level as default.\n", err)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	logger.SetReportCaller(true)

	prettifier := func(f *runtime.Frame) (string, string) {
		filename := filepath.Base(f.File)
		return fmt.Sprintf("[%s:%d]", filename, f.Line), ""
	}
	if isRunningInCI() {
		// CI log viewers add their own timestamps
		logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
			DisableColors:    true,
			CallerPrettyfier: prettifier,
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat:  "2006-01-02 15:04:05",
			FullTimestamp:    true,
			CallerPrettyfier: prettifier,
		})
	}

	writers := []io.Writer{out}
	if logDir != "" {
		if fileWriter, err := openLogFile(logDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup log file in directory '%s': %v. Logging to console only.\n", logDir, err)
		} else {
			writers = append(writers, fileWriter)
		}
	}
	logger.SetOutput(io.MultiWriter(writers...))

	return logger
}

// isRunningInCI detects CI runners through the conventional CI variable
func isRunningInCI() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("CI")))
	return v == "true" || v == "1" || os.Getenv("GITHUB_ACTIONS") == "true"
}

// openLogFile opens dpf-version.log in logDir for appending, creating both as needed
func openLogFile(logDir string) (io.Writer, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", logDir, err)
	}

	logFilePath := filepath.Join(logDir, LogFileName)
	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", logFilePath, err)
	}
	return file, nil
}

// WithLogger returns a copy of ctx carrying logger
func WithLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// GetLoggerFromContext returns the logger installed by WithLogger, or a fresh default logger
func GetLoggerFromContext(ctx context.Context) *logrus.Logger {
	if l, ok := ctx.Value(loggerContextKey).(*logrus.Logger); ok {
		return l
	}
	return logrus.New()
}

// GetCurrentLogLevel returns the name of the context logger's level, or "unknown"
func GetCurrentLogLevel(ctx context.Context) string {
	current := GetLoggerFromContext(ctx).GetLevel()
	for _, l := range levels {
		if l.level == current {
			return l.name
		}
	}
	return "unknown"
}

// IsDebugEnabled reports whether the context logger emits debug entries
func IsDebugEnabled(ctx context.Context) bool {
	return GetLoggerFromContext(ctx).IsLevelEnabled(logrus.DebugLevel)
}
