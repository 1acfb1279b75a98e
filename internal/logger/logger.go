/**
 * @description
 * Leveled logger for the DataDash backend.
 * Info/Warn/Debug go to stdout and Error/Fatal go to stderr so hosted log
 * collectors don't label routine output as errors.
 *
 * @dependencies
 * - github.com/sirupsen/logrus
 * - gopkg.in/natefinch/lumberjack.v2 (optional file rotation)
 */

package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields aliases logrus.Fields so callers don't import logrus directly.
type Fields = logrus.Fields

var (
	// InfoLogger writes to stdout
	InfoLogger *logrus.Logger
	// ErrorLogger writes to stderr
	ErrorLogger *logrus.Logger
)

func init() {
	InfoLogger = newLogger(os.Stdout)
	ErrorLogger = newLogger(os.Stderr)
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Configure applies the level and optional rotating log file.
// An unknown level falls back to info.
func Configure(level, file string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	InfoLogger.SetLevel(lvl)
	ErrorLogger.SetLevel(lvl)

	if file == "" {
		InfoLogger.SetOutput(os.Stdout)
		ErrorLogger.SetOutput(os.Stderr)
		return
	}

	rotating := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100, // megabytes
		MaxBackups: 7,
		MaxAge:     28, // days
		Compress:   true,
	}
	InfoLogger.SetOutput(io.MultiWriter(os.Stdout, rotating))
	ErrorLogger.SetOutput(io.MultiWriter(os.Stderr, rotating))
}

// Debug logs a debug message to stdout
func Debug(format string, v ...interface{}) {
	InfoLogger.Debug(fmt.Sprintf(format, v...))
}

// Info logs an info message to stdout
func Info(format string, v ...interface{}) {
	InfoLogger.Info(fmt.Sprintf(format, v...))
}

// Warn logs a warning to stdout
func Warn(format string, v ...interface{}) {
	InfoLogger.Warn(fmt.Sprintf(format, v...))
}

// Error logs an error message to stderr
func Error(format string, v ...interface{}) {
	ErrorLogger.Error(fmt.Sprintf(format, v...))
}

// Fatal logs an error and exits
func Fatal(format string, v ...interface{}) {
	ErrorLogger.Fatal(fmt.Sprintf(format, v...))
}

// WithFields returns a structured entry on the stdout logger.
func WithFields(fields Fields) *logrus.Entry {
	return InfoLogger.WithFields(fields)
}
