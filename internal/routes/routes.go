package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sstracker/sstracker-backend/internal/handlers"
	"github.com/sstracker/sstracker-backend/internal/middleware"
	"github.com/sstracker/sstracker-backend/internal/services"
	"github.com/sstracker/sstracker-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(
	app *fiber.App,
	store storage.Store,
	sessions *services.SessionManager,
	consignorAuth *services.AuthService,
	transporterAuth *services.AuthService,
	transporterDir *services.TransporterDirectory,
) {
	consignorHandler := handlers.NewAuthHandler(consignorAuth, sessions)
	transporterHandler := handlers.NewAuthHandler(transporterAuth, sessions)
	lookupHandler := handlers.NewTransporterLookupHandler(transporterDir)
	biltyHandler := handlers.NewBiltyHandler(store)

	api := app.Group("/api")
	auth := api.Group("/auth")

	consignor := auth.Group("/consignor")
	consignor.Post("/request-otp", consignorHandler.RequestOTP)
	consignor.Post("/verify-otp", consignorHandler.VerifyOTP)
	consignor.Get("/session", consignorHandler.Session)
	consignor.Post("/logout", consignorHandler.Logout)

	transporter := auth.Group("/transporter")
	transporter.Post("/lookup", lookupHandler.Lookup)
	transporter.Post("/request-otp", transporterHandler.RequestOTP)
	transporter.Post("/verify-otp", transporterHandler.VerifyOTP)
	transporter.Get("/session", transporterHandler.Session)
	transporter.Post("/logout", transporterHandler.Logout)

	// Shipment screens: either user class, valid session required.
	requireAny := middleware.RequireSession(sessions, consignorAuth.Directory(), transporterAuth.Directory())

	bilties := api.Group("/bilties", requireAny)
	bilties.Get("/stats", biltyHandler.Stats)
	bilties.Get("/", biltyHandler.List)
	bilties.Get("/:gr", biltyHandler.GetByGR)

	api.Get("/cities", requireAny, biltyHandler.Cities)
}
