package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/greenlight-backend/internal/observability"
	"github.com/yungbote/greenlight-backend/internal/pkg/ctxutil"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderTraceID   = "X-Trace-Id"
)

// RequestMeta assigns request and trace ids, preferring the caller's headers
// and then the active span.
func RequestMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		meta := &ctxutil.RequestMeta{
			RequestID: strings.TrimSpace(c.GetHeader(HeaderRequestID)),
			TraceID:   strings.TrimSpace(c.GetHeader(HeaderTraceID)),
		}
		if meta.RequestID == "" {
			meta.RequestID = uuid.NewString()
		}
		if meta.TraceID == "" {
			if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
				meta.TraceID = sc.TraceID().String()
			} else {
				meta.TraceID = meta.RequestID
			}
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestMeta(c.Request.Context(), meta))
		c.Header(HeaderRequestID, meta.RequestID)
		c.Header(HeaderTraceID, meta.TraceID)
		c.Next()
	}
}

// Observe records one log line and one latency sample per request. Board and
// curriculum routes also log the student or item they touched.
func Observe(log *logger.Logger, m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.ApiInflightInc()
		defer m.ApiInflightDec()
		c.Next()

		elapsed := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(status), elapsed)

		if log == nil {
			return
		}
		fields := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		}
		if meta := ctxutil.GetRequestMeta(c.Request.Context()); meta != nil {
			fields = append(fields, "request_id", meta.RequestID, "trace_id", meta.TraceID)
		}
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			fields = append(fields, "user_id", rd.UserID, "role", rd.Role)
		}
		if id := c.Param("id"); id != "" {
			fields = append(fields, "target_id", id)
		}
		if item := c.Param("itemId"); item != "" {
			fields = append(fields, "item_id", item)
		}
		if last := c.Errors.Last(); last != nil {
			fields = append(fields, "error", last.Err)
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Debug("request served", fields...)
		}
	}
}
