package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevel adalah level logging yang dipakai oleh seluruh node.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

var (
	log  *logrus.Logger
	once sync.Once
)

func initLogger() {
	once.Do(func() {
		log = logrus.New()
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
		log.Out = os.Stdout
		log.SetLevel(logrus.InfoLevel)
	})
}

// GetLogger mengembalikan logrus.Logger yang mendasari facade ini.
func GetLogger() *logrus.Logger {
	initLogger()
	return log
}

// SetLevel mengubah level minimum yang dicetak.
func SetLevel(level LogLevel) {
	GetLogger().SetLevel(toLogrusLevel(level))
}

// SetOutput mengalihkan output log (dipakai oleh test).
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

func toLogrusLevel(level LogLevel) logrus.Level {
	switch level {
	case DEBUG:
		return logrus.DebugLevel
	case INFO:
		return logrus.InfoLevel
	case WARNING:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	case FATAL:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

// WithFields membuat entry dengan field terstruktur.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return GetLogger().WithFields(fields)
}

func Debug(args ...interface{}) {
	GetLogger().Debug(args...)
}

func Debugf(format string, args ...interface{}) {
	GetLogger().Debugf(format, args...)
}

func Info(args ...interface{}) {
	GetLogger().Info(args...)
}

func Infof(format string, args ...interface{}) {
	GetLogger().Infof(format, args...)
}

func Warning(args ...interface{}) {
	GetLogger().Warn(args...)
}

func Warningf(format string, args ...interface{}) {
	GetLogger().Warnf(format, args...)
}

func Error(args ...interface{}) {
	GetLogger().Error(args...)
}

func Errorf(format string, args ...interface{}) {
	GetLogger().Errorf(format, args...)
}

func Fatal(args ...interface{}) {
	GetLogger().Fatal(args...)
}

func Fatalf(format string, args ...interface{}) {
	GetLogger().Fatalf(format, args...)
}
