// Package logger wraps logrus with the small, level-named API the rest
// of this module calls into, so callers never import logrus directly.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// SetLevel parses and applies a level name (e.g. "debug", "warn"),
// ignoring unrecognized values.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return
	}
	log.SetLevel(parsed)
}

func Debug(args ...interface{})                 { log.Debug(args...) }
func Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }
func Info(args ...interface{})                  { log.Info(args...) }
func Infof(format string, args ...interface{})  { log.Infof(format, args...) }
func Warn(args ...interface{})                  { log.Warn(args...) }
func Warnf(format string, args ...interface{})  { log.Warnf(format, args...) }
func Error(args ...interface{})                 { log.Error(args...) }
func Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }
func Fatal(args ...interface{})                 { log.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { log.Fatalf(format, args...) }

// WithField returns a logrus entry carrying one structured field, for
// callers that want a couple of fields attached to a single log line.
func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

// LogSecurityEvent records a validator decision at a level proportional
// to its severity: info for safe files, warn for low/medium, error for
// high/critical. Callers pass already-formatted fields.
func LogSecurityEvent(fileName string, threatLevel string, isSafe bool, confidence float64) {
	entry := log.WithFields(logrus.Fields{
		"file":        fileName,
		"threatLevel": threatLevel,
		"isSafe":      isSafe,
		"confidence":  confidence,
	})
	switch threatLevel {
	case "CRITICAL", "HIGH":
		entry.Error("security validation flagged file")
	case "MEDIUM", "LOW":
		entry.Warn("security validation flagged file")
	default:
		entry.Info("security validation passed")
	}
}
