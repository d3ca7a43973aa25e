package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/pjt3591oo/chat-go/internal/httpx"
	"github.com/pjt3591oo/chat-go/internal/service"
)

// serviceError maps the service error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a plain 500 with the given code.
func serviceError(c *fiber.Ctx, err error, code string) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return httpx.NotFound(c, "not_found", "Not found")
	case errors.Is(err, service.ErrConflict):
		return httpx.Conflict(c, "conflict", "Concurrent update, please retry")
	case errors.Is(err, service.ErrInvalidInput):
		return httpx.BadRequest(c, "invalid_input", "Invalid input")
	default:
		return httpx.Internal(c, code)
	}
}
