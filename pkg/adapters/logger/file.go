package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"

	"github.com/user/camsync/pkg/ports"
)

// FileOptions configures rotated file logging.
type FileOptions struct {
	Path       string
	Level      ports.LogLevel
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// FileLogger writes structured text lines through logrus. Messages are kept
// untranslated so log files read the same in every locale.
type FileLogger struct {
	entry *logrus.Entry
}

// NewFile creates a logger that appends to opts.Path, rotating with
// lumberjack. The returned io.Closer closes the log file.
func NewFile(opts FileOptions, fields map[string]interface{}) (*FileLogger, io.Closer, error) {
	if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	out := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB, // megabytes
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays, // days
		Compress:   true,
	}
	return NewFileWriter(out, opts.Level, fields), out, nil
}

// NewFileWriter creates a FileLogger on an arbitrary writer.
func NewFileWriter(w io.Writer, level ports.LogLevel, fields map[string]interface{}) *FileLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrusLevel(level))
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		DisableColors:   true,
	})
	return &FileLogger{entry: l.WithFields(logrus.Fields(fields))}
}

func (l *FileLogger) Debug(msg string, args ...interface{}) {
	l.entry.Debugf(msg, args...)
}

func (l *FileLogger) Info(msg string, args ...interface{}) {
	l.entry.Infof(msg, args...)
}

func (l *FileLogger) Warn(msg string, args ...interface{}) {
	l.entry.Warnf(msg, args...)
}

func (l *FileLogger) Error(msg string, args ...interface{}) {
	l.entry.Errorf(msg, args...)
}

// WithComponent returns a logger carrying a component field.
func (l *FileLogger) WithComponent(component string) ports.Logger {
	return &FileLogger{entry: l.entry.WithField("component", component)}
}

func logrusLevel(level ports.LogLevel) logrus.Level {
	switch level {
	case ports.LevelDebug:
		return logrus.DebugLevel
	case ports.LevelInfo:
		return logrus.InfoLevel
	case ports.LevelWarn:
		return logrus.WarnLevel
	case ports.LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.PanicLevel
	}
}

var _ ports.Logger = (*FileLogger)(nil)
