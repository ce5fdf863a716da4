package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"marketplace/internal/apperr"
	applog "marketplace/internal/log"
)

const genericMessage = "Something went wrong. Please try again."

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    apperr.Code `json:"code"`
	Message string      `json:"message"`
}

func statusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeNotFound:
		return fiber.StatusNotFound
	case apperr.CodeBadRequest:
		return fiber.StatusBadRequest
	case apperr.CodeUnauthorized:
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

func codeOfStatus(status int) apperr.Code {
	switch {
	case status == fiber.StatusNotFound:
		return apperr.CodeNotFound
	case status == fiber.StatusUnauthorized || status == fiber.StatusForbidden:
		return apperr.CodeUnauthorized
	case status >= 400 && status < 500:
		return apperr.CodeBadRequest
	}
	return apperr.CodeInternal
}

// ErrorHandler renders every failure as {"error":{"code","message"}}. Internal
// errors are logged and replaced by a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var (
		status int
		detail errorDetail
		ae     *apperr.Error
		fe     *fiber.Error
	)
	switch {
	case errors.As(err, &ae):
		status = statusOf(ae.Code)
		detail = errorDetail{Code: ae.Code, Message: ae.Message}
	case errors.As(err, &fe):
		status = fe.Code
		detail = errorDetail{Code: codeOfStatus(fe.Code), Message: fe.Message}
	default:
		status = fiber.StatusInternalServerError
		detail = errorDetail{Code: apperr.CodeInternal}
	}

	if status >= fiber.StatusInternalServerError {
		applog.Error(c, "server.error", err, nil)
		detail.Message = genericMessage
	}
	return c.Status(status).JSON(errorBody{Error: detail})
}
