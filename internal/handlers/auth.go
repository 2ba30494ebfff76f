package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/sstracker/sstracker-backend/internal/services"
)

// AuthHandler exposes one principal class's login pipeline over HTTP. The
// consignor and transporter route groups are two instances of this handler.
type AuthHandler struct {
	auth     *services.AuthService
	sessions *services.SessionManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, sessions *services.SessionManager) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

type requestOTPBody struct {
	PhoneNumber string `json:"phone_number"`
	GSTNumber   string `json:"gst_number"`
}

type verifyOTPBody struct {
	PhoneNumber string `json:"phone_number"`
	OTPCode     string `json:"otp_code"`
	DeviceInfo  string `json:"device_info"`
}

// RequestOTP issues a login code to the account's registered mobile.
func (h *AuthHandler) RequestOTP(c *fiber.Ctx) error {
	var body requestOTPBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	key := body.PhoneNumber
	if key == "" {
		key = body.GSTNumber
	}
	if key == "" {
		return badRequest(c, "phone_number or gst_number is required")
	}

	issue, err := h.auth.RequestLoginOTP(key)
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent successfully",
		"sent_to": maskMobile(issue.Phone),
	})
}

// VerifyOTP checks the submitted code and, on success, returns the profile
// and a fresh session token.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var body verifyOTPBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if body.PhoneNumber == "" || body.OTPCode == "" {
		return badRequest(c, "phone_number and otp_code are required")
	}

	res, err := h.auth.VerifyLoginOTP(body.PhoneNumber, body.OTPCode, body.DeviceInfo)
	if err != nil {
		return authError(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"user":          res.Principal,
		"session_token": res.SessionToken,
	})
}

// Session validates the bearer token and returns the joined profile. The
// app calls this once at launch to skip the login screen.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"valid": false,
			"error": "missing session token",
		})
	}

	p, err := h.sessions.Validate(h.auth.Directory(), token)
	if err != nil {
		if errors.Is(err, services.ErrSessionInvalid) || errors.Is(err, services.ErrSessionExpired) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"valid": false,
				"error": err.Error(),
			})
		}
		log.Printf("❌ Session validation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"valid": false,
			"error": "session validation failed",
		})
	}

	return c.JSON(fiber.Map{
		"valid": true,
		"user":  p,
	})
}

// Logout revokes the bearer token. Idempotent: logging out twice succeeds.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return badRequest(c, "missing session token")
	}

	if err := h.sessions.Revoke(h.auth.Directory(), token); err != nil {
		log.Printf("❌ Logout failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "logout failed",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}

// TransporterLookupHandler previews a transporter by GST before the OTP is
// requested, so the login screen can show who is about to receive the code.
type TransporterLookupHandler struct {
	directory *services.TransporterDirectory
}

func NewTransporterLookupHandler(directory *services.TransporterDirectory) *TransporterLookupHandler {
	return &TransporterLookupHandler{directory: directory}
}

func (h *TransporterLookupHandler) Lookup(c *fiber.Ctx) error {
	var body requestOTPBody
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if body.GSTNumber == "" {
		return badRequest(c, "gst_number is required")
	}

	p, err := h.directory.LookupByKey(body.GSTNumber)
	if err != nil {
		return authError(c, err)
	}

	t, ok := h.directory.Transporter(p)
	if !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "unexpected principal type",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"transporter": fiber.Map{
			"transport_name":    t.TransportName,
			"city_name":         t.CityName,
			"gst_number":        t.GSTNumber,
			"branch_owner_name": t.BranchOwnerName,
			"mobile":            maskMobile(t.MobNumber),
			"has_mobile":        t.MobNumber != "",
		},
	})
}
