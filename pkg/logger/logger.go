// Package logger provides structured logging for the recommendation gate.
// It defines the Logger interface used across packages, field helpers,
// sensitive-value masking and a dependency-free JSON implementation.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/bocado-ai/gate/pkg/constants"
)

// ================================================================================
// Logger Interface
// ================================================================================

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs a debug message
	Debug(ctx context.Context, message string, fields ...Field)

	// Info logs an informational message
	Info(ctx context.Context, message string, fields ...Field)

	// Warn logs a warning message
	Warn(ctx context.Context, message string, fields ...Field)

	// Error logs an error message
	Error(ctx context.Context, message string, err error, fields ...Field)

	// Fatal logs a fatal message and exits the application
	Fatal(ctx context.Context, message string, err error, fields ...Field)

	// WithFields creates a new logger with additional fields
	WithFields(fields ...Field) Logger

	// WithComponent creates a new logger for a specific component
	WithComponent(component string) Logger

	// SetLevel sets the logging level
	SetLevel(level constants.LogLevel)

	// GetLevel returns the current logging level
	GetLevel() constants.LogLevel
}

// ================================================================================
// Field Type for Structured Logging
// ================================================================================

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand constructor for Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func String(key string, value string) Field    { return Field{Key: key, Value: value} }
func Int(key string, value int) Field          { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field      { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field  { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field        { return Field{Key: key, Value: value} }
func Any(key string, value interface{}) Field  { return Field{Key: key, Value: value} }
func Time(key string, value time.Time) Field   { return Field{Key: key, Value: value.Format(time.RFC3339)} }
func Duration(key string, d time.Duration) Field { return Field{Key: key, Value: d.String()} }

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// ================================================================================
// Level Handling
// ================================================================================

// Rank orders log levels from most to least verbose
func Rank(level constants.LogLevel) int {
	switch level {
	case constants.LogLevelDebug:
		return 0
	case constants.LogLevelInfo:
		return 1
	case constants.LogLevelWarn:
		return 2
	case constants.LogLevelError:
		return 3
	case constants.LogLevelFatal:
		return 4
	default:
		return 1
	}
}

// ParseLevel converts a configuration string to a LogLevel, defaulting to info
func ParseLevel(s string) constants.LogLevel {
	switch constants.LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case constants.LogLevelDebug:
		return constants.LogLevelDebug
	case constants.LogLevelWarn, "warning":
		return constants.LogLevelWarn
	case constants.LogLevelError:
		return constants.LogLevelError
	case constants.LogLevelFatal:
		return constants.LogLevelFatal
	default:
		return constants.LogLevelInfo
	}
}

// ================================================================================
// JSON Logger Implementation
// ================================================================================

type jsonLogger struct {
	mu         *sync.Mutex
	level      *levelHolder
	output     io.Writer
	component  string
	baseFields []Field
}

type levelHolder struct {
	mu    sync.RWMutex
	level constants.LogLevel
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	SpanID    string                 `json:"span_id,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// NewLogger creates a JSON Logger writing to output
func NewLogger(level constants.LogLevel, output io.Writer) Logger {
	if output == nil {
		output = os.Stdout
	}
	return &jsonLogger{
		mu:     &sync.Mutex{},
		level:  &levelHolder{level: level},
		output: output,
	}
}

// NewDefaultLogger creates a logger with default settings (stdout, Info level)
func NewDefaultLogger() Logger {
	return NewLogger(constants.LogLevelInfo, os.Stdout)
}

func (l *jsonLogger) enabled(level constants.LogLevel) bool {
	return Rank(level) >= Rank(l.GetLevel())
}

func (l *jsonLogger) Debug(ctx context.Context, message string, fields ...Field) {
	if l.enabled(constants.LogLevelDebug) {
		l.log(ctx, constants.LogLevelDebug, message, fields...)
	}
}

func (l *jsonLogger) Info(ctx context.Context, message string, fields ...Field) {
	if l.enabled(constants.LogLevelInfo) {
		l.log(ctx, constants.LogLevelInfo, message, fields...)
	}
}

func (l *jsonLogger) Warn(ctx context.Context, message string, fields ...Field) {
	if l.enabled(constants.LogLevelWarn) {
		l.log(ctx, constants.LogLevelWarn, message, fields...)
	}
}

func (l *jsonLogger) Error(ctx context.Context, message string, err error, fields ...Field) {
	if !l.enabled(constants.LogLevelError) {
		return
	}
	if err != nil {
		fields = append(fields, Err(err))
	}
	l.log(ctx, constants.LogLevelError, message, fields...)
}

// Fatal always logs regardless of level
func (l *jsonLogger) Fatal(ctx context.Context, message string, err error, fields ...Field) {
	if err != nil {
		fields = append(fields, Err(err))
	}
	l.log(ctx, constants.LogLevelFatal, message, fields...)
	os.Exit(1)
}

func (l *jsonLogger) WithFields(fields ...Field) Logger {
	base := make([]Field, 0, len(l.baseFields)+len(fields))
	base = append(base, l.baseFields...)
	base = append(base, fields...)
	return &jsonLogger{mu: l.mu, level: l.level, output: l.output, component: l.component, baseFields: base}
}

func (l *jsonLogger) WithComponent(component string) Logger {
	return &jsonLogger{mu: l.mu, level: l.level, output: l.output, component: component, baseFields: l.baseFields}
}

// SetLevel is shared by all loggers derived from the same root
func (l *jsonLogger) SetLevel(level constants.LogLevel) {
	l.level.mu.Lock()
	l.level.level = level
	l.level.mu.Unlock()
}

func (l *jsonLogger) GetLevel() constants.LogLevel {
	l.level.mu.RLock()
	defer l.level.mu.RUnlock()
	return l.level.level
}

func (l *jsonLogger) log(ctx context.Context, level constants.LogLevel, message string, fields ...Field) {
	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     strings.ToUpper(string(level)),
		Component: l.component,
		Message:   message,
		Fields:    make(map[string]interface{}),
	}

	if ctx != nil {
		span := trace.SpanFromContext(ctx)
		if span.SpanContext().IsValid() {
			entry.TraceID = span.SpanContext().TraceID().String()
			entry.SpanID = span.SpanContext().SpanID().String()
		}
		for k, v := range ContextFields(ctx) {
			entry.Fields[k] = v
		}
	}

	if Rank(level) >= Rank(constants.LogLevelError) {
		entry.Caller = getCaller(3)
	}

	for _, field := range l.baseFields {
		entry.Fields[field.Key] = SanitizeValue(field.Key, field.Value)
	}
	for _, field := range fields {
		entry.Fields[field.Key] = SanitizeValue(field.Key, field.Value)
	}

	data, err := json.Marshal(entry)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		fmt.Fprintf(l.output, "[%s] %s: %s (marshal error: %v)\n", entry.Timestamp, entry.Level, message, err)
		return
	}
	fmt.Fprintln(l.output, string(data))
}

// ================================================================================
// Utility Functions
// ================================================================================

// ContextFields extracts request-scoped values stored by the HTTP middleware
func ContextFields(ctx context.Context) map[string]interface{} {
	out := make(map[string]interface{})
	if v, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && v != "" {
		out["request_id"] = v
	}
	if v, ok := ctx.Value(constants.ContextKeyUserID).(string); ok && v != "" {
		out["user_id"] = v
	}
	if v, ok := ctx.Value(constants.ContextKeyClientIP).(string); ok && v != "" {
		out["client_ip"] = v
	}
	return out
}

func getCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	if idx := strings.LastIndex(file, "/"); idx >= 0 {
		file = file[idx+1:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"admin_key",
	"authorization",
	"private_key",
}

// SanitizeValue masks values whose key looks like a credential
func SanitizeValue(key string, value interface{}) interface{} {
	keyLower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(keyLower, sensitive) {
			if str, ok := value.(string); ok && len(str) > 0 {
				return maskString(str)
			}
			return "***REDACTED***"
		}
	}
	return value
}

func maskString(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***" + s[len(s)-4:]
}

// ================================================================================
// Performance Logging
// ================================================================================

// StartOperation returns a func that logs the elapsed time of an operation.
// Operations slower than slow are logged as warnings.
func StartOperation(ctx context.Context, l Logger, operation string, slow time.Duration) func(...Field) {
	start := time.Now()
	return func(fields ...Field) {
		d := time.Since(start)
		all := append([]Field{
			String("operation", operation),
			Int64("duration_ms", d.Milliseconds()),
		}, fields...)
		if d > slow {
			l.Warn(ctx, "Slow operation detected", all...)
			return
		}
		l.Debug(ctx, "Operation completed", all...)
	}
}
