package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// zapLogger routes gorm's logging through zap. Statements are logged at
// debug; slow statements and errors other than ErrRecordNotFound at warn.
type zapLogger struct {
	log  *zap.Logger
	slow time.Duration
}

func (l *zapLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return l }

func (l *zapLogger) Info(_ context.Context, msg string, args ...any) {
	l.log.Info(fmt.Sprintf(msg, args...))
}

func (l *zapLogger) Warn(_ context.Context, msg string, args ...any) {
	l.log.Warn(fmt.Sprintf(msg, args...))
}

func (l *zapLogger) Error(_ context.Context, msg string, args ...any) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

func (l *zapLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.log.Warn("query failed", zap.Error(err), zap.String("sql", sql),
			zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	case elapsed > l.slow:
		sql, rows := fc()
		l.log.Warn("slow query", zap.String("sql", sql),
			zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	case l.log.Core().Enabled(zap.DebugLevel):
		sql, rows := fc()
		l.log.Debug("query", zap.String("sql", sql),
			zap.Int64("rows", rows), zap.Duration("elapsed", elapsed))
	}
}
