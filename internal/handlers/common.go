package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sstracker/sstracker-backend/internal/services"
)

// authError maps the auth failure taxonomy onto HTTP statuses. Every body
// is {success:false, error:"…"}; unknown errors get a generic message so
// internals never leak to the client.
func authError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "something went wrong, please try again"

	switch {
	case errors.Is(err, services.ErrNotRegistered),
		errors.Is(err, services.ErrNoMobileNumber):
		status = fiber.StatusNotFound
		msg = err.Error()
	case errors.Is(err, services.ErrNoLiveOTP),
		errors.Is(err, services.ErrOTPExpired),
		errors.Is(err, services.ErrTooManyAttempts),
		errors.Is(err, services.ErrOTPMismatch):
		status = fiber.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, services.ErrSessionInvalid),
		errors.Is(err, services.ErrSessionExpired):
		status = fiber.StatusUnauthorized
		msg = err.Error()
	default:
		log.Printf("❌ Auth error: %v", err)
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(auth)
}

// maskMobile keeps the last 4 digits for display.
func maskMobile(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
