package common

import (
	"bytes"
	"fmt"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/sirupsen/logrus"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LoggerNames lists every named logger of the application
var LoggerNames = []string{"transport", "server", "capture", "client", "status", "queue", "scene"}

// LogFileName is the name of the log file created inside the log directory
const LogFileName = "synthd.log"

// backend is the logrus instance shared by every named logger. Level filtering
// happens per named logger, so the backend accepts everything.
var backend = newBackend()

func newBackend() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&SimpleFormatter{TimestampFormat: "2006/01/02 15:04:05.000000"})
	l.SetOutput(os.Stdout)
	return l
}

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// synthdLogger implements the ILogger interface on top of logrus
type synthdLogger struct {
	level logger.LogLevel
	entry *logrus.Entry
}

func (l *synthdLogger) SetLevel(level logger.LogLevel) {
	l.level = level
}

func (l *synthdLogger) Debugf(format string, args ...interface{}) {
	if l.level >= logger.DEBUG {
		l.entry.Debugf(format, args...)
	}
}

func (l *synthdLogger) Infof(format string, args ...interface{}) {
	if l.level >= logger.INFO {
		l.entry.Infof(format, args...)
	}
}

func (l *synthdLogger) Warningf(format string, args ...interface{}) {
	if l.level >= logger.WARNING {
		l.entry.Warnf(format, args...)
	}
}

func (l *synthdLogger) Errorf(format string, args ...interface{}) {
	if l.level >= logger.ERROR {
		l.entry.Errorf(format, args...)
	}
}

func (l *synthdLogger) Panicf(format string, args ...interface{}) {
	if l.level >= logger.CRITICAL {
		panic(fmt.Sprintf(format, args...))
	}
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// CreateLogger implements the dragonboat logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return &synthdLogger{
		level: logger.INFO,
		entry: backend.WithField(pkgField, pkgName),
	}
}

// --------------------------------------------------------------------------
// Formatter
// --------------------------------------------------------------------------

const pkgField = "pkg"

// SimpleFormatter formats log lines like the standard log package
// Example: 2025/04/06 17:30:00.000000 [INF] server | message key=value
type SimpleFormatter struct {
	TimestampFormat string
}

// Format implements the logrus.Formatter interface
func (f *SimpleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestampFormat := f.TimestampFormat
	if timestampFormat == "" {
		timestampFormat = "2006/01/02 15:04:05.000000"
	}

	b.WriteString(entry.Time.Format(timestampFormat))
	b.WriteString(" ")

	// [DEB], [INF], [WAR], [ERR]
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 3 {
		level = level[:3]
	}
	fmt.Fprintf(b, "[%s] ", level)

	if pkg, ok := entry.Data[pkgField]; ok {
		fmt.Fprintf(b, "%v | ", pkg)
	}
	b.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			if k != pkgField {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
		}
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// setLogOutput writes to stdout and, if logDir is set, also to logDir/synthd.log
func setLogOutput(logDir string) error {
	if logDir == "" {
		backend.SetOutput(os.Stdout)
		return nil
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory '%s': %w", logDir, err)
	}
	path := filepath.Join(logDir, LogFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file '%s': %w", path, err)
	}
	backend.SetOutput(io.MultiWriter(os.Stdout, file))
	return nil
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers installs the logrus backed factory and sets the level of every named logger
func InitLoggers(level string, logDir string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	if err := setLogOutput(logDir); err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)

	for _, name := range LoggerNames {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
