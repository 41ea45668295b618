package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/SonyaJane/dropped-kerb-mapper/internal/cache"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/config"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/database"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/geo"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/geocode"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/handlers"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/middleware"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/models"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/photos"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/queue"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/services"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/tiles"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/types"
	"github.com/SonyaJane/dropped-kerb-mapper/internal/utils"

	_ "github.com/SonyaJane/dropped-kerb-mapper/docs/api" // Swagger docs
)

// sweepInterval is how often due geocode retries are dispatched.
const sweepInterval = time.Minute

// @title Dropped Kerb Mapper API
// @version 1.0.0
// @description Community reporting service for dropped kerb accessibility
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/SonyaJane/dropped-kerb-mapper

// @license.name MIT

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load .env if present
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Load region boundaries into memory for point-in-polygon lookups
	counties, localAuthorities, err := loadRegionIndexes(db)
	if err != nil {
		log.Fatalf("Failed to load region boundaries: %v", err)
	}
	log.Printf("Loaded %d counties and %d local authorities", counties.Len(), localAuthorities.Len())

	// Initialize Authorizer
	if err := services.InitAuthorizer(cfg, "http", "localhost:"+cfg.Port); err != nil {
		log.Fatalf("Failed to initialize authorizer: %v", err)
	}

	// Photo storage
	if cfg.CloudinaryURL == "" {
		log.Fatalf("CLOUDINARY_URL is required")
	}
	photoStore, err := photos.NewCloudinaryStore(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	if err != nil {
		log.Fatalf("Failed to create photo store: %v", err)
	}

	// Tile session token cache: redis when configured and reachable,
	// in-process otherwise
	var tokenCache cache.Cache = cache.NewMemory()
	if cfg.RedisAddr != "" {
		if client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); client != nil {
			tokenCache = cache.NewRedis(client)
			log.Printf("Using redis tile session cache at %s", cfg.RedisAddr)
		} else {
			log.Printf("Redis unreachable at %s, using in-process cache", cfg.RedisAddr)
		}
	}

	geocoder := geocode.NewClient(cfg.GeocoderURL, cfg.GeocoderCountryCodes)
	publisher := queue.NewAMQPPublisher(cfg.AMQPURL)
	reportService := services.NewReportService(db, counties, localAuthorities, geocoder, photoStore, publisher, cfg.GeocodeRetryDelay)
	tileProxy := tiles.NewProxy(cfg.OSMapsAPIKey, cfg.GoogleMapsAPIKey, tokenCache)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    32 * 1024 * 1024, // photo uploads
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("dropped_kerb_mapper")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API routes under /api
	api := app.Group("/api")

	// Version middleware
	api.Use(middleware.VersionMiddleware())

	// Create handlers
	reportHandler := &handlers.ReportHandler{Reports: reportService}
	tileHandler := &handlers.TileHandler{Proxy: tileProxy}
	healthHandler := &handlers.HealthHandler{Config: cfg, DB: db}

	// Health route (public)
	api.Get("/health", healthHandler.Health)

	// Report routes (all require user authentication)
	api.Post("/reports", middleware.AuthUser(), reportHandler.CreateReport)
	api.Get("/reports", middleware.AuthUser(), reportHandler.ListReports)
	api.Get("/reports/:id", middleware.AuthUser(), reportHandler.GetReport)
	api.Put("/reports/:id", middleware.AuthUser(), reportHandler.UpdateReport)
	api.Patch("/reports/:id/location", middleware.AuthUser(), reportHandler.UpdateReportLocation)
	api.Delete("/reports/:id", middleware.AuthUser(), reportHandler.DeleteReport)

	// Tile proxy routes (require user authentication; keys stay server-side)
	api.Get("/tiles/os/:z/:x/:y", middleware.AuthUser(), tileHandler.OSTile)
	api.Get("/tiles/satellite/:z/:x/:y", middleware.AuthUser(), tileHandler.SatelliteTile)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"status":    fiber.StatusNotFound,
			"message":   "[404] Resource Not Found",
			"ok":        false,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"url":       c.OriginalURL(),
		})
	})

	// Periodic sweep for due geocode retries
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n, err := reportService.SweepDueRetries(sweepCtx); err != nil {
					log.Printf("Geocode retry sweep failed: %v", err)
				} else if n > 0 {
					log.Printf("Dispatched %d geocode retries", n)
				}
			}
		}
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		stopSweep()
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// loadRegionIndexes reads the county and local authority boundaries from
// the database into in-memory lookup indexes.
func loadRegionIndexes(db *gorm.DB) (*geo.Index, *geo.Index, error) {
	var counties []models.County
	if err := db.Order("id").Find(&counties).Error; err != nil {
		return nil, nil, err
	}
	countyRegions := make([]geo.Region, 0, len(counties))
	for _, c := range counties {
		countyRegions = append(countyRegions, geo.Region{
			ID:       c.ID,
			Name:     c.Name,
			Boundary: c.Boundary.MultiPolygon,
		})
	}

	var authorities []models.LocalAuthority
	if err := db.Order("id").Find(&authorities).Error; err != nil {
		return nil, nil, err
	}
	authorityRegions := make([]geo.Region, 0, len(authorities))
	for _, a := range authorities {
		authorityRegions = append(authorityRegions, geo.Region{
			ID:       a.ID,
			Name:     a.Name,
			Boundary: a.Boundary.MultiPolygon,
		})
	}

	return geo.NewIndex(countyRegions), geo.NewIndex(authorityRegions), nil
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	// Check if it's a Fiber error
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	// Typed errors from middleware and handlers
	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	}

	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) {
		return utils.ValidationErrorResponse(c, validationErr.Fields)
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    code,
		"message":   message,
		"ok":        false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"url":       c.OriginalURL(),
		"type":      errorType,
	})
}
