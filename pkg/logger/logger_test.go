package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bocado-ai/gate/pkg/constants"
)

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(constants.LogLevelWarn, &buf)

	l.Debug(context.Background(), "debug")
	l.Info(context.Background(), "info")
	assert.Empty(t, buf.String())

	l.Warn(context.Background(), "warn")
	assert.Contains(t, buf.String(), `"message":"warn"`)

	buf.Reset()
	l.SetLevel(constants.LogLevelDebug)
	l.Debug(context.Background(), "debug")
	assert.Contains(t, buf.String(), `"level":"DEBUG"`)
}

func TestJSONLogger_DerivedLoggersShareLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(constants.LogLevelInfo, &buf)
	child := root.WithComponent("ratelimit")

	root.SetLevel(constants.LogLevelError)
	child.Info(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestJSONLogger_FieldsAndContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(constants.LogLevelDebug, &buf).WithComponent("cache").WithFields(String("domain", "profile"))

	ctx := context.WithValue(context.Background(), constants.ContextKeyRequestID, "req-1")
	l.Error(ctx, "boom", errors.New("backend down"), String("api_key", "abcdefghijkl"))

	var entry LogEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "cache", entry.Component)
	assert.Equal(t, "profile", entry.Fields["domain"])
	assert.Equal(t, "req-1", entry.Fields["request_id"])
	assert.Equal(t, "backend down", entry.Fields["error"])
	assert.Equal(t, "abcd***ijkl", entry.Fields["api_key"])
	assert.True(t, strings.HasPrefix(entry.Caller, "logger_test.go:"))
}

func TestSanitizeValue(t *testing.T) {
	assert.Equal(t, "***", SanitizeValue("token", "short"))
	assert.Equal(t, "***REDACTED***", SanitizeValue("Authorization", 42))
	assert.Equal(t, "visible", SanitizeValue("user", "visible"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, constants.LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, constants.LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, constants.LogLevelInfo, ParseLevel("nonsense"))
}
