// Package logger is the exchange's structured logger. Messages carry the
// calling function name and the process id; context maps become fields.
package logger

import (
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levels = map[LogLevel]logrus.Level{
	DEBUG: logrus.DebugLevel,
	INFO:  logrus.InfoLevel,
	WARN:  logrus.WarnLevel,
	ERROR: logrus.ErrorLevel,
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR (any case) to a level, defaulting
// to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	}
	return INFO
}

// Logger wraps a logrus logger with the package's map-based API
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a text logger on stdout at minLevel
func NewLogger(minLevel LogLevel) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	base.SetLevel(levels[minLevel])
	return &Logger{entry: base.WithField("pid", os.Getpid())}
}

var defaultLogger = NewLogger(INFO)

// getFunctionName extracts the calling function name
func getFunctionName(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	name := runtime.FuncForPC(pc).Name()
	if idx := strings.LastIndex(name, "."); idx != -1 {
		return name[idx+1:]
	}
	return name
}

func (l *Logger) log(level LogLevel, message string, context []map[string]interface{}) {
	lv := levels[level]
	if !l.entry.Logger.IsLevelEnabled(lv) {
		return
	}
	fields := logrus.Fields{"func": getFunctionName(3)} // log -> Info/... -> caller
	if len(context) > 0 {
		for k, v := range context[0] {
			fields[k] = v
		}
	}
	l.entry.WithFields(fields).Log(lv, message)
}

func (l *Logger) Debug(message string, context ...map[string]interface{}) {
	l.log(DEBUG, message, context)
}

func (l *Logger) Info(message string, context ...map[string]interface{}) {
	l.log(INFO, message, context)
}

func (l *Logger) Warn(message string, context ...map[string]interface{}) {
	l.log(WARN, message, context)
}

func (l *Logger) Error(message string, context ...map[string]interface{}) {
	l.log(ERROR, message, context)
}

// Package-level convenience functions using the default logger. They call
// log directly so the caller depth matches the methods.

func Debug(message string, context ...map[string]interface{}) {
	defaultLogger.log(DEBUG, message, context)
}

func Info(message string, context ...map[string]interface{}) {
	defaultLogger.log(INFO, message, context)
}

func Warn(message string, context ...map[string]interface{}) {
	defaultLogger.log(WARN, message, context)
}

func Error(message string, context ...map[string]interface{}) {
	defaultLogger.log(ERROR, message, context)
}

// SetMinLevel sets the minimum log level for the default logger
func SetMinLevel(level LogLevel) {
	defaultLogger.entry.Logger.SetLevel(levels[level])
}

// SetJSON switches the default logger to JSON lines
func SetJSON(enabled bool) {
	if enabled {
		defaultLogger.entry.Logger.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	defaultLogger.entry.Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetOutput redirects the default logger
func SetOutput(w io.Writer) {
	defaultLogger.entry.Logger.SetOutput(w)
}
