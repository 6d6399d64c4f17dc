package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"eventhub/internal/config"
	"eventhub/internal/handlers"
	"eventhub/internal/kafka"
	"eventhub/internal/logger"
	"eventhub/internal/middleware"
	rediswrap "eventhub/internal/redis"
	"eventhub/internal/services"
	"eventhub/internal/storage"
)

// Global logger instance
var log *logger.Logger

func main() {
	log = logger.NewLogger()
	defer log.Close()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn("ENV", "Error loading .env file, using environment variables")
	}

	log.LogProcess("STARTUP", "EventHub booking core starting up...")
	log.Info("SYSTEM", "Initializing components...")

	cfg := config.Load()
	log.Info("CONFIG", "Configuration loaded successfully")

	log.LogProcess("DATABASE", "Initializing MongoDB connection...")
	store, err := storage.NewMongoStore(cfg.Mongo, log)
	if err != nil {
		log.Fatal("DATABASE", "Failed to initialize MongoDB: "+err.Error())
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store.Close(ctx)
	}()
	log.LogDatabase("INIT", "mongodb", "MongoDB storage initialized successfully")

	log.LogProcess("KAFKA", "Initializing Kafka producer...")
	kafkaProducer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MockMode, log)
	if err != nil {
		log.Fatal("KAFKA", "Failed to create Kafka producer: "+err.Error())
	}
	defer kafkaProducer.Close()
	log.LogKafka("INIT", "producer", "Kafka producer initialized successfully")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	paymentLocks := rediswrap.NewRedis(redisClient)
	log.LogProcess("SERVICE", "Redis lock client initialized")

	// Initialize services
	bookingService := services.NewBookingService(store, kafkaProducer, log, paymentLocks, cfg.Booking)
	catalogService := services.NewCatalogService(store, services.NewCombiner(cfg.Combination), log)
	notificationService := services.NewNotificationService(store, log)
	log.LogProcess("SERVICE", "Booking, catalog and notification services initialized")

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService)
	packageHandler := handlers.NewPackageHandler(catalogService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	log.LogProcess("HANDLER", "All handlers initialized")

	// Start Kafka consumer in background unless the producer is mocked
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if !cfg.Kafka.MockMode {
		log.LogProcess("KAFKA", "Initializing Kafka consumer...")
		kafkaConsumer, err := kafka.NewBookingConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			log.Fatal("KAFKA", "Failed to create Kafka consumer: "+err.Error())
		}
		defer kafkaConsumer.Close()

		go func() {
			log.LogKafka("START", "consumer", "Starting Kafka consumer goroutine")
			if err := kafkaConsumer.ConsumeBookingEvents(consumerCtx, notificationService.HandleBookingEvent); err != nil && err != context.Canceled {
				log.Error("KAFKA", "Consumer error: "+err.Error())
			}
		}()
	}

	router := setupRouter(cfg, store, bookingHandler, packageHandler, notificationHandler)
	log.LogProcess("ROUTER", "HTTP router configured")

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.LogProcess("SERVER", "Starting HTTP server on port "+cfg.Server.Port)
		log.Info("STARTUP", "🚀 EventHub booking core is ready to accept requests!")
		log.Info("STARTUP", "📊 Health check available at: http://localhost"+cfg.Server.Port+"/health")
		log.Info("STARTUP", "📦 Catalog API available at: http://localhost"+cfg.Server.Port+"/api/v1/packages/available")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "Server failed to start: "+err.Error())
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("SHUTDOWN", "Received shutdown signal, initiating graceful shutdown...")
	stopConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("SHUTDOWN", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SHUTDOWN", "✅ EventHub booking core shutdown completed successfully")
}

func setupRouter(cfg *config.Config, store storage.Store, bookingHandler *handlers.BookingHandler, packageHandler *handlers.PackageHandler, notificationHandler *handlers.NotificationHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.EnhancedLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	router.Use(middleware.RateLimit(log))
	router.Use(middleware.SecurityHeaders(log))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := store.HealthCheck(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
			log.Error("HEALTH", "Storage health check failed: "+err.Error())
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "eventhub-booking",
			"version":   "1.0.0",
		})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Public catalog routes
		packages := v1.Group("/packages")
		{
			packages.GET("/available", packageHandler.SearchPackages)
			packages.GET("/:id", packageHandler.GetPackage)
		}

		// Authenticated routes
		authed := v1.Group("")
		authed.Use(middleware.RequireAuth(cfg.Auth.JWTSecret, log))
		{
			bookings := authed.Group("/bookings")
			{
				bookings.POST("", bookingHandler.CreateBooking)
				bookings.GET("/user", bookingHandler.ListMyBookings)
				bookings.GET("/:id", bookingHandler.GetBooking)
				bookings.POST("/:id/payment", bookingHandler.RecordPayment)
				bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
			}

			provider := authed.Group("/provider")
			{
				provider.GET("/bookings", bookingHandler.ListProviderBookings)
				provider.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
				provider.POST("/bookings/:id/mark-paid", bookingHandler.MarkPaid)
				provider.GET("/stats", bookingHandler.ProviderStats)

				provider.GET("/packages", packageHandler.ListMyPackages)
				provider.POST("/packages", packageHandler.CreatePackage)
				provider.PUT("/packages/:id", packageHandler.UpdatePackage)
			}

			notifications := authed.Group("/notifications")
			{
				notifications.GET("", notificationHandler.ListNotifications)
				notifications.POST("/:id/read", notificationHandler.MarkRead)
				notifications.POST("/read-all", notificationHandler.MarkAllRead)
			}
		}
	}

	log.LogProcess("ROUTER", "All routes registered successfully")
	return router
}
