package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Setup creates a configured logrus.Logger with the given log level.
// An unknown level is reported and replaced by info.
func Setup(levelStr string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	logger.SetLevel(logrus.InfoLevel)

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		logger.Warnf("Invalid log level '%s', using default 'info'. Error: %v", levelStr, err)
		return logger
	}
	logger.SetLevel(level)
	logger.Debugf("Log level set to: %s", level.String())
	return logger
}

// Discard returns an entry that drops everything; handy for library callers that do not log.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
