// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	requestIDHeaderName = "x-request-id"

	IncomingRequestMessage  = "incoming request"
	RequestCompletedMessage = "request completed"
)

// requestFields describes a request in the diagnostics log.
type requestFields struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	UserAgent string `json:"userAgent,omitempty"`
	BodyBytes int    `json:"bodyBytes"`
}

// responseFields describes the outcome of a request in the diagnostics log.
type responseFields struct {
	StatusCode int `json:"statusCode"`
	BodyBytes  int `json:"bodyBytes"`
}

// RequestID returns the request id sent by the client, or a new random one.
func RequestID(c *fiber.Ctx) string {
	if requestID := c.Get(requestIDHeaderName); requestID != "" {
		return requestID
	}
	return uuid.NewString()
}

func requestOf(c *fiber.Ctx) requestFields {
	return requestFields{
		Method:    c.Method(),
		Path:      c.Path(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		BodyBytes: len(c.Body()),
	}
}

// responseOf reports the status the client will receive, taking into account
// errors returned by the handler that fiber turns into responses later.
func responseOf(c *fiber.Ctx, handlerErr error) responseFields {
	var fiberErr *fiber.Error
	if errors.As(handlerErr, &fiberErr) {
		return responseFields{StatusCode: fiberErr.Code, BodyBytes: len(fiberErr.Message)}
	}
	if handlerErr != nil {
		return responseFields{StatusCode: fiber.StatusInternalServerError, BodyBytes: len(handlerErr.Error())}
	}

	return responseFields{
		StatusCode: c.Response().StatusCode(),
		BodyBytes:  len(c.Response().Body()),
	}
}

// RequestMiddlewareLogger is a fiber middleware to log all requests.
// It logs the incoming request and, once completed, its status and latency.
// Requests whose path starts with one of excludedPrefix are not logged.
func RequestMiddlewareLogger(logger Logger, excludedPrefix []string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, prefix := range excludedPrefix {
			if strings.HasPrefix(c.Path(), prefix) {
				return c.Next()
			}
		}

		start := time.Now()
		requestID := RequestID(c)
		c.Set(requestIDHeaderName, requestID)

		requestLogger := logger.WithName("request").WithName(requestID)
		c.SetUserContext(WithContext(c.UserContext(), requestLogger))

		requestLogger.Trace(IncomingRequestMessage, "request", requestOf(c))
		err := c.Next()
		requestLogger.Info(RequestCompletedMessage,
			"request", requestOf(c),
			"response", responseOf(c, err),
			"responseTime", float64(time.Since(start).Microseconds())/1000,
		)

		return err
	}
}
