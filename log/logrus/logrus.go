// Package loglogrus adapts a logrus entry to the cachalot Logger port.
package loglogrus

import (
	"github.com/sirupsen/logrus"

	"github.com/Tinkoff/cachalot"
)

type Logger struct{ E *logrus.Entry }

var _ cachalot.Logger = Logger{}

func (l Logger) Debug(msg string, f cachalot.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}

func (l Logger) Info(msg string, f cachalot.Fields) {
	l.E.WithFields(logrus.Fields(f)).Info(msg)
}

func (l Logger) Warn(msg string, f cachalot.Fields) {
	l.E.WithFields(logrus.Fields(f)).Warn(msg)
}

func (l Logger) Error(msg string, f cachalot.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}
