// Package logrus exposes a logrus logger through logger.Logger
package logrus

import (
	"io"
	"os"

	"github.com/raykavin/pricewatch/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Adapter wraps a logrus entry so derived loggers keep their fields
type Adapter struct {
	*logrus.Entry
	out io.Writer // restored when logging is enabled again
}

// New builds a logrus logger with text or JSON formatting
func New(level string, json bool, out io.Writer) (*Adapter, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = os.Stdout
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &Adapter{Entry: logrus.NewEntry(l), out: out}, nil
}

func (a *Adapter) WithField(key string, value any) logger.Logger {
	return &Adapter{Entry: a.Entry.WithField(key, value), out: a.out}
}

func (a *Adapter) WithFields(fields map[string]any) logger.Logger {
	return &Adapter{Entry: a.Entry.WithFields(fields), out: a.out}
}

func (a *Adapter) WithError(err error) logger.Logger {
	return &Adapter{Entry: a.Entry.WithError(err), out: a.out}
}

func (a *Adapter) SetLevel(level logger.Level) {
	if level == logger.Disabled {
		a.Logger.SetOutput(io.Discard)
		return
	}
	if a.out != nil {
		a.Logger.SetOutput(a.out)
	}

	switch level {
	case logger.TraceLevel:
		a.Logger.SetLevel(logrus.TraceLevel)
	case logger.DebugLevel:
		a.Logger.SetLevel(logrus.DebugLevel)
	case logger.WarnLevel:
		a.Logger.SetLevel(logrus.WarnLevel)
	case logger.ErrorLevel:
		a.Logger.SetLevel(logrus.ErrorLevel)
	case logger.FatalLevel:
		a.Logger.SetLevel(logrus.FatalLevel)
	case logger.PanicLevel:
		a.Logger.SetLevel(logrus.PanicLevel)
	default:
		a.Logger.SetLevel(logrus.InfoLevel)
	}
}

func (a *Adapter) GetLevel() logger.Level {
	switch a.Logger.GetLevel() {
	case logrus.TraceLevel:
		return logger.TraceLevel
	case logrus.DebugLevel:
		return logger.DebugLevel
	case logrus.InfoLevel:
		return logger.InfoLevel
	case logrus.WarnLevel:
		return logger.WarnLevel
	case logrus.ErrorLevel:
		return logger.ErrorLevel
	case logrus.FatalLevel:
		return logger.FatalLevel
	case logrus.PanicLevel:
		return logger.PanicLevel
	}
	return logger.NoLevel
}
