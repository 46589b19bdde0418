package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger routes GORM's statement log through the application slog logger,
// so SQL lines carry the request id and trace id of the handler that issued them.
type GormLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

// NewGormLogger returns a GORM logger writing through l at the given level.
func NewGormLogger(l *slog.Logger, level logger.LogLevel) *GormLogger {
	return &GormLogger{log: l, level: level, slow: slowQueryThreshold}
}

// LogMode returns a copy at the new level.
func (g *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	cp := *g
	cp.level = level
	return &cp
}

func (g *GormLogger) printf(ctx context.Context, at logger.LogLevel, lvl slog.Level, msg string, data []any) {
	if g.level >= at {
		g.log.Log(ctx, lvl, fmt.Sprintf(msg, data...))
	}
}

func (g *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (g *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (g *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	g.printf(ctx, logger.Error, slog.LevelError, msg, data)
}

// Trace logs failed statements, slow statements and, at Info, every statement.
// Missing rows are expected (404 lookups) and never logged as errors.
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := g.slow > 0 && elapsed > g.slow

	var (
		lvl slog.Level
		msg string
	)
	switch {
	case failed && g.level >= logger.Error:
		lvl, msg = slog.LevelError, "GORM query error"
	case slow && g.level >= logger.Warn:
		lvl, msg = slog.LevelWarn, "GORM slow query"
	case g.level >= logger.Info:
		lvl, msg = slog.LevelInfo, "GORM query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []any{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if failed {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	g.log.Log(ctx, lvl, msg, attrs...)
}
