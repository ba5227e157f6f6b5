package serverutils

import (
	"errors"

	"contact-assistant-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the
// JSON error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status, body := ErrorToResponse(err)
		return ctx.Status(status).JSON(body)
	}
}

func ErrorToResponse(err error) (int, *ErrorBody) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		body := ErrorResponse(fiber.StatusBadRequest, "Validation failed")
		body.Kind = string(apperr.KindValidation)
		body.Errors = validationErr.Fields
		return fiber.StatusBadRequest, body
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError, ErrorResponse(fiber.StatusInternalServerError, "Internal server error")
	}

	status := StatusFor(appErr.Kind)
	message := appErr.Error()
	if status == fiber.StatusInternalServerError {
		message = "Internal server error"
	}
	body := ErrorResponse(status, message)
	body.Kind = string(appErr.Kind)
	return status, body
}

func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindForbidden:
		return fiber.StatusForbidden
	case apperr.KindConfig:
		return fiber.StatusServiceUnavailable
	case apperr.KindProvider, apperr.KindTransport, apperr.KindParse:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
