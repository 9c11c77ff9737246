package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the logging surface used across the service.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New builds a logger writing to stdout. Production uses JSON output.
func New(level, env string) Logger {
	l := logrus.New()

	if env == "production" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	l.SetLevel(parseLevel(level))
	l.SetOutput(os.Stdout)

	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// NewWithWriter builds a JSON logger writing to w.
func NewWithWriter(level string, w io.Writer) Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(parseLevel(level))
	l.SetOutput(w)

	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// Discard returns a logger that drops everything. Handy as a default.
func Discard() Logger {
	return NewWithWriter("panic", io.Discard)
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Infof(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Warnf(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Errorf(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *logrusLogger) Fatalf(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}
