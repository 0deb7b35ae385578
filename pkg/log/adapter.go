package log

import "github.com/sirupsen/logrus"

// BadgerLogger implements the badger.Logger interface on top of a logrus entry
type BadgerLogger struct {
	entry *logrus.Entry
}

// NewBadgerLogger wraps entry so BadgerDB messages land in the application log.
// Badger is chatty at Info level, so its Info output is demoted to Debug.
func NewBadgerLogger(entry *logrus.Entry) *BadgerLogger {
	return &BadgerLogger{entry: entry}
}

func (l *BadgerLogger) Errorf(f string, v ...interface{})   { l.entry.Errorf(f, v...) }
func (l *BadgerLogger) Warningf(f string, v ...interface{}) { l.entry.Warnf(f, v...) }
func (l *BadgerLogger) Infof(f string, v ...interface{})    { l.entry.Debugf(f, v...) }
func (l *BadgerLogger) Debugf(f string, v ...interface{})   { l.entry.Tracef(f, v...) }
