package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/bocado-ai/gate/internal/config"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/logger"
)

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics()

	m.RecordAdmission("recommendations", false, "cooldown")
	m.RecordAdmission("recommendations", false, "cooldown")
	m.RecordAdmission("maps", true, "")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Admissions.WithLabelValues("recommendations", "rejected", "cooldown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Admissions.WithLabelValues("maps", "allowed", "")))

	m.RecordCacheAccess("profile", true)
	m.RecordCacheAccess("profile", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheAccess.WithLabelValues("profile", "hit")))

	m.RecordModelCall("En casa", true, 2*time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelCalls.WithLabelValues("En casa", "success")))

	m.RecordCleanup("history", 42)
	assert.Equal(t, 42.0, testutil.ToFloat64(m.CleanupDeleted.WithLabelValues("history")))

	m.RecordMapsCall("autocomplete", true, true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MapsCalls.WithLabelValues("autocomplete", "true", "success")))

	m.ActiveRequestsInc()
	m.ObserveRequest("/api/recommendations", "POST", 200, time.Second)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPActiveRequests))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/recommendations", "POST", "200")))

	n, err := testutil.GatherAndCount(m.Registry(), "bocado_persist_failures_total")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestZapLogger_LevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := newZapLogger(&config.LogConfig{Level: "info"}, &buf)

	l.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	ctx := context.WithValue(context.Background(), constants.ContextKeyRequestID, "req-1")
	l.WithComponent("limiter").Info(ctx, "hello", logger.String("api_key", "abcdefghijkl"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "limiter", entry["component"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "abcd***ijkl", entry["api_key"])

	derived := l.WithFields(logger.String("k", "v"))
	l.SetLevel(constants.LogLevelDebug)
	assert.Equal(t, constants.LogLevelDebug, derived.GetLevel())
	buf.Reset()
	derived.Debug(context.Background(), "now visible")
	assert.True(t, strings.Contains(buf.String(), "now visible"))
}

func TestTracingManager_Trace(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tm := NewTracingManagerWithProcessor(rec, logger.NewNoopLogger())
	defer tm.Shutdown(context.Background())

	var traceID string
	err := tm.Trace(context.Background(), "model.generate", func(ctx context.Context) error {
		traceID = TraceID(ctx)
		return stderrors.New("boom")
	})
	assert.Error(t, err)
	assert.NotEmpty(t, traceID)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "model.generate", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestTracingManager_Disabled(t *testing.T) {
	tm, err := NewTracingManager(config.TracingConfig{}, "test", logger.NewNoopLogger())
	require.NoError(t, err)
	assert.NoError(t, tm.Shutdown(context.Background()))
}
