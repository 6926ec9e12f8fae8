package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/turfbook/turfbook-backend/database"
	"github.com/turfbook/turfbook-backend/internal/jobs"
	"github.com/turfbook/turfbook-backend/internal/models"
	"github.com/turfbook/turfbook-backend/internal/routes"
	"github.com/turfbook/turfbook-backend/internal/services"
	"github.com/turfbook/turfbook-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		// Try multiple locations for .env file
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

	// Check if we should use memory store (for testing)
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		// Connect to database
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		// Run migrations
		log.Println("🔄 Running database migrations...")
		err := database.DB.AutoMigrate(
			&models.User{},
			&models.Venue{},
			&models.Court{},
			&models.Booking{},
			&models.Payment{},
			&models.Review{},
			&models.OTPCode{},
			&models.SupportTicket{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		// Use database store
		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL database storage")
	}

	// Set global instance
	storage.SetStore(store)

	// Initialize all services
	mailer := services.NewEmailService()
	sms := services.NewSMSService()
	otpService := services.NewOTPService(store, mailer)
	authService := services.NewAuthService(store, otpService)
	bookingService := services.NewBookingService(store, sms, mailer)
	paymentService := services.NewPaymentService(store, bookingService, mailer)
	reviewService := services.NewReviewService(store)
	analyticsService := services.NewAnalyticsService(store)

	if !paymentService.Configured() {
		log.Println("⚠️  Razorpay credentials not found - payment orders disabled")
	}

	// Initialize and start cleanup jobs
	cleanupJob := jobs.NewCleanupJob(store, otpService, sms, mailer)
	cleanupJob.Start()

	log.Println("✅ All services initialized and scheduled jobs started")

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "TurfBook Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
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
		AllowMethods: "GET, POST, PATCH, PUT, DELETE, OPTIONS",
	}))

	// Venue photos are served straight off disk
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	app.Static("/uploads", uploadDir)

	// Service overview endpoint with database status
	app.Get("/", func(c *fiber.Ctx) error {
		response := fiber.Map{
			"service":     "TurfBook Backend API",
			"version":     "1.0.0",
			"status":      "healthy",
			"environment": getEnvironment(),
			"storage":     getStorageType(),
			"payments": fiber.Map{
				"configured": paymentService.Configured(),
			},
			"sms": fiber.Map{
				"configured": sms.Enabled(),
			},
		}

		// Add database status if using database
		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			dbStatus := "connected"
			if err != nil {
				dbStatus = "error: " + err.Error()
			} else if err := sqlDB.Ping(); err != nil {
				dbStatus = "error: " + err.Error()
			}

			// Get counts
			var userCount, venueCount, bookingCount, reviewCount, otpCount int64
			database.DB.Model(&models.User{}).Count(&userCount)
			database.DB.Model(&models.Venue{}).Count(&venueCount)
			database.DB.Model(&models.Booking{}).Count(&bookingCount)
			database.DB.Model(&models.Review{}).Count(&reviewCount)
			database.DB.Model(&models.OTPCode{}).Count(&otpCount)

			response["database"] = fiber.Map{
				"status":   dbStatus,
				"users":    userCount,
				"venues":   venueCount,
				"bookings": bookingCount,
				"reviews":  reviewCount,
				"otps":     otpCount,
			}
		}

		response["scheduled_jobs"] = fiber.Map{
			"otp_purge":          "active",
			"booking_completion": "active",
			"booking_reminders":  "active",
		}

		return c.JSON(response)
	})

	// Health check endpoint for monitoring
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200

		// Check database if using it
		if os.Getenv("USE_MEMORY_STORE") != "true" && database.DB != nil {
			sqlDB, err := database.DB.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}

		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database": status == "healthy",
				"payments": paymentService.Configured(),
				"sms":      sms.Enabled(),
			},
		})
	})

	// Setup routes
	routes.SetupRoutes(app, store, &routes.Services{
		Auth:      authService,
		OTP:       otpService,
		Booking:   bookingService,
		Payment:   paymentService,
		Review:    reviewService,
		Analytics: analyticsService,
		Mailer:    mailer,
	})

	// Get port from environment or use default
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
		log.Println("⏹️  Stopping cleanup jobs...")
		cleanupJob.Stop()
		log.Println("⏹️  Shutting down server...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Println("========================================")
	log.Printf("🚀 TurfBook Backend starting on port %s", port)
	log.Printf("📊 Storage: %s", getStorageType())
	log.Printf("🌍 Environment: %s", getEnvironment())
	log.Printf("💳 Payments: %s", getPaymentStatus(paymentService))
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

func getPaymentStatus(p *services.PaymentService) string {
	if !p.Configured() {
		return "Not configured"
	}
	return "Configured"
}
