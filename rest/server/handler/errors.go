package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mensylisir/dockmcp/pkg/errors/classify"
)

// ErrorDetail is the machine readable form of a classified failure.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse is the body of every failed REST call.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// StatusFor maps a classified kind to the HTTP status it is reported with.
func StatusFor(kind classify.Kind) int {
	switch kind {
	case classify.InvalidArgument:
		return fiber.StatusBadRequest
	case classify.ContainerNotFound:
		return fiber.StatusNotFound
	case classify.ContainerNotRunning:
		return fiber.StatusConflict
	case classify.DaemonUnavailable, classify.RuntimeNotInstalled:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func writeError(c *fiber.Ctx, err error) error {
	ce := classify.Classify(err)
	status := StatusFor(ce.Kind)
	if ce.Code == classify.CodeTimeout {
		status = fiber.StatusGatewayTimeout
	}
	return c.Status(status).JSON(ErrorResponse{Error: ErrorDetail{
		Kind:    string(ce.Kind),
		Message: ce.Message,
		Code:    ce.Code,
	}})
}

// FiberErrorHandler renders errors returned by fiber itself (unknown route, bad method) in
// the same envelope as operation failures.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(ErrorResponse{Error: ErrorDetail{
			Kind:    string(classify.Unclassified),
			Message: fe.Message,
		}})
	}
	return writeError(c, err)
}
