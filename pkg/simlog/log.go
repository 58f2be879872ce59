// Package simlog provides the package-level logger shared by every
// simulator component.
package simlog

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the global logger instance.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// SetLevel sets the logging level from a string ("debug", "info", ...).
func SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetOutput sets the log output destination.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches the logger to JSON output.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
}

// WithField returns a logger with a field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithFields returns a logger with multiple fields.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithRouter returns a logger annotated with a router id.
func WithRouter(router uint64) *logrus.Entry {
	return Logger.WithField("router", router)
}

// WithPrefix returns a logger annotated with a prefix.
func WithPrefix(prefix interface{ String() string }) *logrus.Entry {
	return Logger.WithField("prefix", prefix.String())
}

// WithEvent returns a logger annotated with an event kind.
func WithEvent(kind string) *logrus.Entry {
	return Logger.WithField("event", kind)
}
