package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/botswanaservices/directory-backend/internal/authz"
	"github.com/botswanaservices/directory-backend/internal/config"
	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/handlers"
	"github.com/botswanaservices/directory-backend/internal/middleware"
	"github.com/botswanaservices/directory-backend/internal/services"
	"github.com/botswanaservices/directory-backend/pkg/geocode"
	"github.com/botswanaservices/directory-backend/pkg/jwt"
	"github.com/botswanaservices/directory-backend/pkg/mailer"
	"github.com/botswanaservices/directory-backend/pkg/storage"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Botswana Services Directory Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	businessRepo := database.NewBusinessRepository(db)
	categoryRepo := database.NewCategoryRepository(db)
	photoRepo := database.NewPhotoRepository(db)
	reviewRepo := database.NewReviewRepository(db)
	favoriteRepo := database.NewFavoriteRepository(db)
	bookingRepo := database.NewBookingRepository(db)
	promotionRepo := database.NewPromotionRepository(db)
	listingRepo := database.NewListingRepository(db)

	// Initialize collaborators
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	geocoder := geocode.NewClient(geocode.Config{
		BaseURL: cfg.Geocode.BaseURL,
		APIKey:  cfg.Geocode.APIKey,
		Timeout: cfg.Geocode.Timeout,
	})

	var photoStore storage.Store
	if cfg.Storage.Mode == "production" {
		photoStore = storage.NewClient(storage.Config{
			BaseURL:   cfg.Storage.BaseURL,
			Bucket:    cfg.Storage.Bucket,
			APIKey:    cfg.Storage.APIKey,
			PublicURL: cfg.Storage.PublicURL,
		})
		logger.Info("Photo storage in production mode")
	} else {
		photoStore = &storage.DevStore{PublicURL: cfg.Storage.PublicURL}
		logger.Info("Photo storage in development mode (uploads are logged, not stored)")
	}

	var mail mailer.Mailer
	if cfg.Mail.Mode == "production" {
		mail = mailer.NewClient(mailer.Config{
			APIURL:  cfg.Mail.APIURL,
			APIKey:  cfg.Mail.APIKey,
			From:    cfg.Mail.From,
			Timeout: cfg.Mail.Timeout,
		})
		logger.Info("Mailer in production mode")
	} else {
		mail = mailer.DevMailer{}
		logger.Info("Mailer in development mode (no email will be sent)")
	}

	// Initialize services
	auditService := services.NewAuditService(db)
	authService := services.NewAuthService(userRepo, jwtService, logger)
	rateLimitService := services.NewRateLimitService(services.RateLimitConfig{
		MaxRequests: cfg.RateLimit.Requests,
		Window:      cfg.RateLimit.Window,
	})
	businessService := services.NewBusinessService(
		db, businessRepo, categoryRepo, photoRepo, reviewRepo,
		geocoder, photoStore, mail, logger,
	)
	reviewService := services.NewReviewService(db, reviewRepo, businessRepo, businessService, logger)

	// Initialize and start cron service
	cronService := services.NewCronService(promotionRepo, rateLimitService, auditService)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	logger.Info("Services initialized")

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, auditService)
	directoryHandler := handlers.NewDirectoryHandler(
		businessRepo, categoryRepo, photoRepo, reviewRepo, promotionRepo, listingRepo,
	)
	businessHandler := handlers.NewBusinessHandler(businessService, businessRepo, bookingRepo)
	userHandler := handlers.NewUserHandler(
		userRepo, favoriteRepo, reviewRepo, bookingRepo, businessRepo, reviewService,
	)
	promotionHandler := handlers.NewPromotionHandler(promotionRepo, businessRepo)
	listingHandler := handlers.NewListingHandler(listingRepo, businessRepo)
	adminHandler := handlers.NewAdminHandler(businessRepo, userRepo, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Security.EnableRequestLog {
		router.Use(requestLogger(logger))
	}

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Authentication and path authorization run on every request. The policy
	// gate denies before any handler logic executes.
	policy := authz.Default()
	router.Use(middleware.Authenticate(jwtService, userRepo))
	router.Use(middleware.PolicyGate(policy))

	mutationLimiter := middleware.RateLimit(rateLimitService, auditService)

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Public authentication endpoints
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	// Public directory
	router.GET("/businesses", directoryHandler.ListBusinesses)
	router.GET("/businesses/:slug", directoryHandler.GetBusiness)
	router.GET("/businesses/:slug/reviews", directoryHandler.ListBusinessReviews)
	router.GET("/categories", directoryHandler.ListCategories)

	// Signed-in user dashboard
	dashboard := router.Group("/usersdashboard")
	{
		dashboard.GET("/profile", userHandler.GetProfile)
		dashboard.PUT("/profile", userHandler.UpdateProfile)
	}

	// Signed-in user actions (any authenticated role)
	user := router.Group("/user")
	{
		user.GET("/favorites", userHandler.ListFavorites)
		user.POST("/favorites/:businessId", mutationLimiter, userHandler.AddFavorite)
		user.DELETE("/favorites/:businessId", mutationLimiter, userHandler.RemoveFavorite)

		user.GET("/reviews", userHandler.ListReviews)
		user.POST("/reviews/:businessId", mutationLimiter, userHandler.CreateReview)
		user.DELETE("/reviews/:id", mutationLimiter, userHandler.DeleteReview)

		user.GET("/bookings", userHandler.ListBookings)
		user.POST("/bookings", userHandler.CreateBooking)
		user.DELETE("/bookings/:id", userHandler.CancelBooking)
	}

	// Business owner dashboard
	business := router.Group("/business")
	{
		business.GET("/profile", businessHandler.GetProfile)
		business.POST("/profile", businessHandler.CreateProfile)
		business.PUT("/profile", businessHandler.UpdateProfile)

		business.GET("/branches", businessHandler.ListBranches)
		business.POST("/branches", businessHandler.AddBranch)
		business.PUT("/branches/:id", businessHandler.UpdateBranch)
		business.DELETE("/branches/:id", businessHandler.DeleteBranch)

		business.POST("/photos/:id", businessHandler.UploadPhotos)
		business.DELETE("/photos/:id", businessHandler.DeletePhoto)

		business.GET("/bookings", businessHandler.ListBookings)
		business.PUT("/bookings/:id", businessHandler.UpdateBookingStatus)

		business.GET("/promotions", promotionHandler.List)
		business.POST("/promotions", promotionHandler.Create)
		business.PUT("/promotions/:id", promotionHandler.Update)
		business.DELETE("/promotions/:id", promotionHandler.Delete)

		business.GET("/listings", listingHandler.List)
		business.POST("/listings", listingHandler.Create)
		business.PUT("/listings/:id", listingHandler.Update)
		business.DELETE("/listings/:id", listingHandler.Delete)
	}

	// Admin console
	admin := router.Group(authz.AdminConsolePath)
	{
		admin.GET("/businesses", adminHandler.ListBusinesses)
		admin.PUT("/businesses/:id", adminHandler.UpdateBusiness)
		admin.DELETE("/businesses/:id", adminHandler.DeleteBusiness)
		admin.GET("/stats", adminHandler.Stats)
	}

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if principal, ok := middleware.GetPrincipal(c); ok {
			fields["user_id"] = principal.ID
			fields["role"] = principal.Role
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
