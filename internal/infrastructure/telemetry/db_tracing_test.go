package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type tracedCounter struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:50"`
}

func openTracedDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedCounter{}))
	return db
}

func TestNewDBTracingPlugin_Defaults(t *testing.T) {
	p := NewDBTracingPlugin(DBTracingConfig{Enabled: true}, zap.NewNop())
	assert.Equal(t, 200*time.Millisecond, p.config.SlowQueryThresh)
	assert.Equal(t, "postgresql", p.config.DBSystem)
}

func TestDBTracingPlugin_Disabled(t *testing.T) {
	db := openTracedDB(t)
	p := NewDBTracingPlugin(DefaultDBTracingConfig(), zap.NewNop())
	require.NoError(t, p.RegisterOtelGorm(db))
	assert.NoError(t, db.Create(&tracedCounter{Name: "A"}).Error)
}

func TestDBTracingPlugin_RecordsSpans(t *testing.T) {
	db := openTracedDB(t)
	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))
	core, logs := observer.New(zapcore.WarnLevel)

	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	cfg.DBSystem = "sqlite"
	cfg.SlowQueryThresh = time.Nanosecond
	cfg.TracerProvider = tp
	require.NoError(t, NewDBTracingPlugin(cfg, zap.New(core)).RegisterOtelGorm(db))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&tracedCounter{Name: "A"}).Error)
	var got tracedCounter
	require.NoError(t, db.WithContext(ctx).First(&got).Error)
	assert.Equal(t, "A", got.Name)

	ended := recorder.Ended()
	assert.GreaterOrEqual(t, len(ended), 2)
	assert.GreaterOrEqual(t, logs.FilterMessage("Slow query").Len(), 2)

	for _, span := range ended {
		slow := false
		for _, kv := range span.Attributes() {
			if kv.Key == "db.slow_query" && kv.Value.AsBool() {
				slow = true
			}
		}
		assert.True(t, slow, "span %s has no db.slow_query attribute", span.Name())

		events := make([]string, 0, len(span.Events()))
		for _, ev := range span.Events() {
			events = append(events, ev.Name)
		}
		assert.Contains(t, events, "slow_query_warning")
	}
}

func TestDBTracingPlugin_DoubleRegistrationFails(t *testing.T) {
	db := openTracedDB(t)
	cfg := DefaultDBTracingConfig()
	cfg.Enabled = true
	p := NewDBTracingPlugin(cfg, zap.NewNop())
	require.NoError(t, p.RegisterOtelGorm(db))
	assert.Error(t, p.RegisterOtelGorm(db))
}
