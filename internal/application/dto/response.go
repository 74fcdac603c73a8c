// Package dto provides data transfer objects and the response envelope of the
// HTTP API.
package dto

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bocado-ai/gate/internal/infrastructure/monitoring"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      *ErrorDTO   `json:"error,omitempty"`
	RetryAfter int         `json:"retryAfter,omitempty"`
	TraceID    string      `json:"trace_id,omitempty"`
	Timestamp  int64       `json:"timestamp"`
}

// ErrorDTO describes a failure.
type ErrorDTO struct {
	Code        string            `json:"code"`
	Message     string            `json:"message"`
	Description string            `json:"description,omitempty"`
	Details     map[string]string `json:"details,omitempty"`
}

// SuccessResponse creates a success envelope.
func SuccessResponse(data interface{}, traceID string) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		TraceID:   traceID,
		Timestamp: time.Now().Unix(),
	}
}

// ErrorResponse creates an error envelope. Errors that are not a GateError
// are reported as internal errors without leaking their text.
func ErrorResponse(err error, traceID string) (int, *APIResponse) {
	resp := &APIResponse{TraceID: traceID, Timestamp: time.Now().Unix()}

	gateErr, ok := errors.As(err)
	if !ok {
		resp.Error = &ErrorDTO{
			Code:    string(errors.CodeInternal),
			Message: "Internal server error",
		}
		return http.StatusInternalServerError, resp
	}

	resp.Error = &ErrorDTO{
		Code:        string(gateErr.Code()),
		Message:     errors.MessageOf(gateErr),
		Description: gateErr.Description(),
	}
	if details, ok := gateErr.Metadata()[errors.MetaDetails].(map[string]string); ok {
		resp.Error.Details = details
	}
	if retry, ok := errors.RetryAfterOf(gateErr); ok {
		resp.RetryAfter = retry
	}
	return gateErr.HTTPStatus(), resp
}

// SendSuccess writes a success envelope.
func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse(data, traceID(c)))
}

// SendError writes an error envelope and sets Retry-After for rate-limit
// rejections.
func SendError(c *gin.Context, err error) {
	status, resp := ErrorResponse(err, traceID(c))
	if resp.RetryAfter > 0 {
		c.Header(constants.HeaderRetryAfter, strconv.Itoa(resp.RetryAfter))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

func traceID(c *gin.Context) string {
	if id := monitoring.TraceID(c.Request.Context()); id != "" {
		return id
	}
	return c.GetString(string(constants.ContextKeyRequestID))
}
