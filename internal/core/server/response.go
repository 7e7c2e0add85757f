package server

import (
	"errors"

	"parcel-tracker/internal/core/apperr"
	"parcel-tracker/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Success is always false.
	Success bool `json:"success"`
	// Message is the error description.
	Message string `json:"message"`
	// Errors holds field-level validation messages.
	Errors []string `json:"errors,omitempty"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"rayId,omitempty"`
}

// RayID returns the request id set by the requestid middleware.
func RayID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrDuplicateKey):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &fe):
		return fe.Code
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler writes the uniform error envelope. Internal details never
// reach the client; they are logged with the ray id instead.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	resp := ErrorResponse{
		Message: publicMessage(err, status),
		Errors:  apperr.Fields(err),
		RayID:   RayID(c),
	}

	if status >= fiber.StatusInternalServerError {
		logger.Get().Error("Request failed",
			zap.String("ray_id", resp.RayID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(resp)
}

func publicMessage(err error, status int) string {
	if status >= fiber.StatusInternalServerError {
		return "Internal server error"
	}
	if msg := apperr.Message(err); msg != "" {
		return msg
	}
	var fe *fiber.Error
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return "Validation failed"
	case errors.Is(err, apperr.ErrDuplicateKey):
		return "Duplicate value"
	case errors.Is(err, apperr.ErrUnauthorized):
		return "Not authorized"
	case errors.Is(err, apperr.ErrForbidden):
		return "Access denied"
	case errors.Is(err, apperr.ErrNotFound):
		return "Not found"
	case errors.As(err, &fe):
		return fe.Message
	default:
		return err.Error()
	}
}
