package database

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// Logger adapts logrus to gorm's logger interface.
type Logger struct {
	entry *logrus.Entry
	level gormlogger.LogLevel
}

func NewLogger(base *logrus.Logger) *Logger {
	return &Logger{
		entry: base.WithField("component", "gorm"),
		level: levelFor(base.GetLevel()),
	}
}

func levelFor(level logrus.Level) gormlogger.LogLevel {
	switch {
	case level >= logrus.DebugLevel:
		return gormlogger.Info
	case level >= logrus.WarnLevel:
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

func (l *Logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *Logger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.entry.WithContext(ctx).Infof(msg, args...)
	}
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.entry.WithContext(ctx).Warnf(msg, args...)
	}
}

func (l *Logger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.entry.WithContext(ctx).Errorf(msg, args...)
	}
}

func (l *Logger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	entry := l.entry.WithContext(ctx).WithFields(logrus.Fields{
		"elapsed": elapsed.String(),
		"rows":    rows,
	})

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		entry.WithError(err).Error(sql)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		entry.Warn("slow query: " + sql)
	case l.level >= gormlogger.Info:
		entry.Debug(sql)
	}
}
