package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"summarease/utils/logger"
)

const (
	errorCodeAttr = attribute.Key("summarease.error.code")
	requestIDAttr = attribute.Key("summarease.request_id")
)

// SpanOutcomeMiddleware stamps the request span with the status and error
// code the client receives, the request id and the calling user. Echo runs
// the error handler only after the chain returns, so a returned error is
// resolved here through the same domain mapping.
// It must run after otelecho.Middleware, which creates the span.
func SpanOutcomeMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			ctx := c.Request().Context()
			span := trace.SpanFromContext(ctx)
			if !span.IsRecording() {
				return err
			}

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				var body ErrorResponse
				status, body = toResponse(err)
				span.SetAttributes(errorCodeAttr.String(body.Error.Code))
			}
			span.SetAttributes(semconv.HTTPResponseStatusCode(status))

			if id := logger.RequestIDFromContext(ctx); id != "" {
				span.SetAttributes(requestIDAttr.String(id))
			}
			if user, ok := UserFromContext(c); ok {
				span.SetAttributes(semconv.EnduserID(strconv.FormatInt(user.ID, 10)))
			}

			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
				if err != nil {
					span.RecordError(err)
				}
			}
			return err
		}
	}
}
