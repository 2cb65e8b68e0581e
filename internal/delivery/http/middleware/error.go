package middleware

import (
	"errors"
	"log"

	"haul-dispatch/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// AppError is the transport-facing error shape. Handlers translate usecase
// errors into these; Code is the machine-readable taxonomy entry, Data
// carries optional structured detail (e.g. matched_by_self).
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Data       interface{}
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, code, message string, data interface{}, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Code: code, Message: message, Data: data, Cause: cause}
}

type ErrorMiddleware struct{}

func NewErrorMiddleware() *ErrorMiddleware {
	return &ErrorMiddleware{}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered: %v", r)
				err = response.Error(c, fiber.StatusInternalServerError, response.CodeInternal, response.MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, code, msg, data := normalizeError(err)
		return response.Error(c, status, code, msg, data)
	}
}

func normalizeError(err error) (int, string, string, interface{}) {
	if err == nil {
		return fiber.StatusInternalServerError, response.CodeInternal, response.MessageInternalServerError, nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.StatusCode <= 0 || appErr.StatusCode >= 500 {
			return fiber.StatusInternalServerError, response.CodeInternal, response.MessageInternalServerError, nil
		}
		return appErr.StatusCode, appErr.Code, appErr.Message, appErr.Data
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 || status >= 500 {
			return fiber.StatusInternalServerError, response.CodeInternal, response.MessageInternalServerError, nil
		}
		return status, "", fiberErr.Message, nil
	}

	return fiber.StatusInternalServerError, response.CodeInternal, response.MessageInternalServerError, nil
}
