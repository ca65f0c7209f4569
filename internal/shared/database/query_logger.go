package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"clientregistry/pkg/logger"
)

// queryLogger sends gorm's output through the application logger.
type queryLogger struct {
	log   *logger.Logger
	level gormlogger.LogLevel
}

func NewQueryLogger(log *logger.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return &queryLogger{log: log, level: level}
}

func (q *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *q
	c.level = level
	return &c
}

func (q *queryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if q.level >= gormlogger.Info {
		q.log.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (q *queryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if q.level >= gormlogger.Warn {
		q.log.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (q *queryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if q.level >= gormlogger.Error {
		q.log.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

// Trace logs failed statements at Error and above, and every statement at Info.
// A missing row is an expected outcome, not a failure.
func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && q.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, _ := fc()
		q.log.LogDBQuery(ctx, sql, elapsed, err)
	case q.level >= gormlogger.Info:
		sql, _ := fc()
		q.log.LogDBQuery(ctx, sql, elapsed, nil)
	}
}
