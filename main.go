package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/sstracker/sstracker-backend/database"
	"github.com/sstracker/sstracker-backend/internal/jobs"
	"github.com/sstracker/sstracker-backend/internal/routes"
	"github.com/sstracker/sstracker-backend/internal/services"
	"github.com/sstracker/sstracker-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		err := godotenv.Load(".env")
		if err != nil {
			err = godotenv.Load("environments/.env.development")
			if err != nil {
				log.Println("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	// Initialize storage
	var store storage.Store

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		dbStore := storage.NewDatabaseStore(database.DB)

		log.Println("🔄 Running database migrations...")
		if err := dbStore.Migrate(); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = dbStore
		log.Println("✅ Using PostgreSQL database storage")
	}
	storage.SetStore(store)

	// Pick the OTP delivery channel: campaign template endpoint first,
	// Twilio WhatsApp as the alternate, dev log messenger as last resort.
	var messenger services.Messenger
	if whatsapp, err := services.NewWhatsAppService(); err == nil {
		messenger = whatsapp
		log.Println("✅ WhatsApp template channel configured")
	} else if twilioSvc, err := services.NewTwilioService(); err == nil {
		messenger = twilioSvc
		log.Println("✅ Twilio WhatsApp channel configured")
	} else {
		messenger = services.DevLogMessenger{}
		log.Println("⚠️  No OTP channel configured - codes will be logged")
	}

	strictDelivery := os.Getenv("OTP_DELIVERY_STRICT") == "true"
	if strictDelivery {
		log.Println("📌 Strict OTP delivery enabled - send failures fail the request")
	}

	// Auth pipelines: one per principal class, same machinery.
	sessions := services.NewSessionManager(store)
	consignorDir := services.NewConsignorDirectory(store)
	transporterDir := services.NewTransporterDirectory(store)
	consignorAuth := services.NewAuthService(store, consignorDir, messenger, sessions, strictDelivery)
	transporterAuth := services.NewAuthService(store, transporterDir, messenger, sessions, strictDelivery)

	// Sweep expired OTP records and sessions hourly.
	sweeper := jobs.NewSweeperJob(store, time.Hour)
	sweeper.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "SSTracker Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     "SSTracker Backend API",
			"version":     "1.0.0",
			"status":      "healthy",
			"environment": getEnvironment(),
			"storage":     getStorageType(),
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
		})
	})

	routes.SetupRoutes(app, store, sessions, consignorAuth, transporterAuth, transporterDir)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		sweeper.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 SSTracker Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func getEnvironment() string {
	if os.Getenv("INSTANCE_CONNECTION_NAME") != "" {
		return "Production (Cloud Run)"
	}
	return "Development (Local)"
}

func getStorageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
