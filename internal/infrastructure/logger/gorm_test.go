package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func sqlFunc(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Options(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)
	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreRecordNotFoundError)

	warn, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, warn.logLevel)
	assert.Equal(t, gormlogger.Info, gl.logLevel)
}

func TestGormLogger_Trace(t *testing.T) {
	lockSQL := `SELECT * FROM "inventory_items" WHERE (department, name) IN (('LAB','Reagent A')) FOR UPDATE`

	tests := []struct {
		name      string
		level     gormlogger.LogLevel
		begin     time.Time
		err       error
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{
			name:      "normal query at info",
			level:     gormlogger.Info,
			begin:     time.Now(),
			wantLevel: zapcore.DebugLevel,
			wantMsg:   "SQL Query",
		},
		{
			name:      "slow lock wait",
			level:     gormlogger.Warn,
			begin:     time.Now().Add(-time.Second),
			wantLevel: zapcore.WarnLevel,
			wantMsg:   "SLOW SQL >= 200ms",
		},
		{
			name:      "error",
			level:     gormlogger.Error,
			begin:     time.Now(),
			err:       errors.New("deadlock detected"),
			wantLevel: zapcore.ErrorLevel,
			wantMsg:   "SQL Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, recorded := newObservedGormLogger(tt.level)
			gl.Trace(context.Background(), tt.begin, sqlFunc(lockSQL, 1), tt.err)

			entries := recorded.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			assert.Equal(t, tt.wantMsg, entries[0].Message)
			assert.Equal(t, lockSQL, entries[0].ContextMap()["sql"])
		})
	}
}

func TestGormLogger_Trace_Suppressed(t *testing.T) {
	t.Run("silent", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", 1), errors.New("boom"))
		assert.Zero(t, recorded.Len())
	})

	t.Run("record not found", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Error)
		gl.Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("plain query below info", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn)
		gl.Trace(context.Background(), time.Now(), sqlFunc("SELECT 1", 1), nil)
		assert.Zero(t, recorded.Len())
	})
}

func TestGormLogger_Trace_CarriesRequestID(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Info)
	ctx := WithRequestID(context.Background(), "req-42")

	gl.Trace(ctx, time.Now(), sqlFunc("SELECT 1", 1), nil)

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "req-42", recorded.All()[0].ContextMap()["request_id"])
}

func TestGormLogger_Messages(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Warn)
	ctx := context.Background()

	gl.Info(ctx, "connected to %s", "hms")
	gl.Warn(ctx, "pool at %d%%", 90)
	gl.Error(ctx, "migration %s failed", "0003")

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "pool at 90%", entries[0].Message)
	assert.Equal(t, "migration 0003 failed", entries[1].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Info,
		"debug":   gormlogger.Info,
		"unknown": gormlogger.Warn,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, MapGormLogLevel(in))
		})
	}
}

var _ gormlogger.Interface = (*GormLogger)(nil)
