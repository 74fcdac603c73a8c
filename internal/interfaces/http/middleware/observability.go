// Package middleware holds the gin middleware of the HTTP API.
package middleware

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/bocado-ai/gate/internal/application/dto"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
	"github.com/bocado-ai/gate/pkg/logger"
)

// HTTPMetrics records per-request metrics. *monitoring.Metrics implements it.
type HTTPMetrics interface {
	ActiveRequestsInc()
	ActiveRequestsDec()
	ObserveRequest(path, method string, status int, d time.Duration)
}

// RequestContext assigns a request id and resolves the client IP, storing
// both on the gin context and the request context.
func RequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(constants.HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}

		c.Set(string(constants.ContextKeyRequestID), id)
		c.Set(string(constants.ContextKeyClientIP), ip)
		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, id)
		ctx = context.WithValue(ctx, constants.ContextKeyClientIP, ip)
		c.Request = c.Request.WithContext(ctx)
		c.Header(constants.HeaderRequestID, id)
		c.Next()
	}
}

// Logging logs one line per request.
func Logging(log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []logger.Field{
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Int64("latency_ms", time.Since(start).Milliseconds()),
		}
		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error(c.Request.Context(), "Request failed", c.Errors.Last(), fields...)
		case status >= 400:
			log.Warn(c.Request.Context(), "Request rejected", fields...)
		default:
			log.Info(c.Request.Context(), "Request processed", fields...)
		}
	}
}

// Recovery turns a panic into a 500 envelope.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error(c.Request.Context(), "Panic recovered", stderrors.New("panic"), logger.String("panic", fmt.Sprint(r)))
				dto.SendError(c, errors.ErrInternal("Internal server error"))
			}
		}()
		c.Next()
	}
}

// Observability starts a server span per request and records request totals,
// durations and in-flight requests.
func Observability(tracer trace.Tracer, metrics HTTPMetrics) gin.HandlerFunc {
	propagator := propagation.TraceContext{}
	return func(c *gin.Context) {
		start := time.Now()
		metrics.ActiveRequestsInc()
		defer metrics.ActiveRequestsDec()

		ctx := propagator.Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, c.Request.Method+" "+c.FullPath(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		// Route template keeps label cardinality low.
		path := c.FullPath()
		if path == "" {
			path = "not_found"
		}
		status := c.Writer.Status()
		metrics.ObserveRequest(path, c.Request.Method, status, time.Since(start))

		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", path),
			attribute.Int("http.status_code", status),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}
	}
}
