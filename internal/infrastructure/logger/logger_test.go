package logger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	"github.com/slotbook/backend/internal/domain/shared"
)

func TestNew_TeesExtraCores(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	log, err := New(&Config{Level: "error", Format: "json", Output: "stderr"}, core)
	require.NoError(t, err)

	log.Info("visible only to the extra core")
	assert.Equal(t, 1, recorded.Len())
}

func TestNew_StampsServiceAndVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	log, err := New(&Config{Level: "info", Format: "json", Output: path, Service: "slotbook-api", Version: "1.4.0"})
	require.NoError(t, err)

	log.Info("booting")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"service":"slotbook-api"`)
	assert.Contains(t, string(raw), `"version":"1.4.0"`)
}

func TestNew_RejectsUnwritableOutput(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "api.log")})
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("nonsense"))
}

func TestL_EnrichesFromContext(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	ctx := WithContext(context.Background(), zap.New(core))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithMerchantID(ctx, "m-1")
	ctx = WithIdentityID(ctx, "id-1")

	L(ctx).Info("hello")

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "m-1", fields["merchant_id"])
	assert.Equal(t, "id-1", fields["identity_id"])
	assert.NotContains(t, fields, "trace_id")
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Empty(t, GetTraceID(context.Background()))
}

func TestGormLogger_Trace(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))
	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)
	assert.Equal(t, 0, recorded.Len(), "record not found is ignored")

	gl.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "SQL Error", recorded.All()[0].Message)

	gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	require.Equal(t, 2, recorded.Len())
	assert.Equal(t, "Slow SQL", recorded.All()[1].Message)

	gl.LogMode(gormlogger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	assert.Equal(t, 2, recorded.Len())

	elevated := shared.WithElevatedAccess(context.Background())
	gl.Trace(elevated, time.Now(), sql, errors.New("duplicate key"))
	require.Equal(t, 3, recorded.Len())
	assert.Equal(t, true, recorded.All()[2].ContextMap()["elevated"])
	assert.NotContains(t, recorded.All()[1].ContextMap(), "elevated")
}

func TestGormLogger_SlowNotFoundStillWarns(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(10*time.Millisecond))

	gl.Trace(context.Background(), time.Now().Add(-time.Second),
		func() (string, int64) { return "SELECT * FROM merchants WHERE slug = 'x'", 0 },
		gormlogger.ErrRecordNotFound)

	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "Slow SQL", recorded.All()[0].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
