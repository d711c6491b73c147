package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
}

func TestGormLogger_Trace(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)
	ctx := WithRequestID(context.Background(), "req-5")
	stmt := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(ctx, time.Now(), stmt, nil)
	assert.Equal(t, 0, recorded.Len(), "fast statements are not logged at warn")

	gl.Trace(ctx, time.Now(), stmt, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, recorded.Len(), "record not found is not an error")

	gl.Trace(ctx, time.Now(), stmt, errors.New("disk I/O error"))
	entries := recorded.FilterMessage("SQL error").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "req-5", entries[0].ContextMap()["request_id"])
	}

	gl.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Equal(t, 1, recorded.FilterMessage("Slow SQL").Len())

	debug := gl.LogMode(gormlogger.Info)
	debug.Trace(ctx, time.Now(), stmt, nil)
	assert.Equal(t, 1, recorded.FilterMessage("SQL").Len())
}
