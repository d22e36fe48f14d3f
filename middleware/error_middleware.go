// ABOUTME: Centralized error handling middleware for Echo framework
// ABOUTME: Maps domain errors to HTTP statuses and hides internal details of 5xx responses
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"summarease/domain"
	"summarease/driver"
	"summarease/utils/logger"
)

const internalErrorMessage = "An unexpected error occurred. Please try again later."

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first matching sentinel wins.
var domainErrorMappings = []errorMapping{
	{domain.ErrInputTooLong, http.StatusUnprocessableEntity, "INPUT_TOO_LONG"},
	{domain.ErrEmptyInput, http.StatusUnprocessableEntity, "EMPTY_INPUT"},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
	{domain.ErrInsufficientCredits, http.StatusBadRequest, "INSUFFICIENT_CREDITS"},
	{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{domain.ErrJobNotFound, http.StatusNotFound, "NOT_FOUND"},
	{domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{domain.ErrArchiveDisabled, http.StatusNotFound, "ARCHIVE_DISABLED"},
	{driver.ErrArchiveObjectNotFound, http.StatusNotFound, "ARCHIVE_NOT_FOUND"},
	{domain.ErrServiceOverloaded, http.StatusServiceUnavailable, "SERVICE_OVERLOADED"},
}

// CustomHTTPErrorHandler creates the centralized HTTP error handler for Echo.
//
// Error handling priority:
// 1. domain sentinels - mapped status, the error text is returned for 4xx
// 2. echo.HTTPError - preserves Echo's status, message hidden for 5xx
// 3. Unknown errors - generic 500 response
func CustomHTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		ctx := c.Request().Context()
		requestID := logger.RequestIDFromContext(ctx)
		status, response := toResponse(err)

		if status >= http.StatusInternalServerError {
			log.ErrorContext(ctx, "request failed",
				"request_id", requestID,
				"status", status,
				"error", err)
		} else {
			log.WarnContext(ctx, "request rejected",
				"request_id", requestID,
				"status", status,
				"error", err)
		}

		if err := c.JSON(status, response); err != nil {
			log.ErrorContext(ctx, "failed to send error response",
				"request_id", requestID,
				"error", err)
		}
	}
}

func toResponse(err error) (int, ErrorResponse) {
	for _, m := range domainErrorMappings {
		if errors.Is(err, m.target) {
			msg := err.Error()
			if m.status >= http.StatusInternalServerError {
				msg = internalErrorMessage
			}
			return m.status, ErrorResponse{Error: ErrorDetail{
				Code:      m.code,
				Message:   msg,
				Retryable: isRetryableStatus(m.status),
			}}
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		if he.Code >= http.StatusInternalServerError {
			msg = internalErrorMessage
		}
		return he.Code, ErrorResponse{Error: ErrorDetail{
			Code:      "HTTP_ERROR",
			Message:   msg,
			Retryable: isRetryableStatus(he.Code),
		}}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: internalErrorMessage,
	}}
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
