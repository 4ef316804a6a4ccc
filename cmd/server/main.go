package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldops/sales-crm/internal/api"
	"fieldops/sales-crm/internal/config"
	"fieldops/sales-crm/internal/notify"
	"fieldops/sales-crm/internal/otp"
	"fieldops/sales-crm/internal/repository/mongo"
	"fieldops/sales-crm/internal/service"
	"fieldops/sales-crm/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("Starting Sales CRM Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureClientIndexes(ctx, appDB.Collection("clients"))
		mongo.EnsureAreaIndexes(ctx, appDB.Collection("areas"))
		mongo.EnsureProductIndexes(ctx, appDB.Collection("products"))
		mongo.EnsureFeedbackIndexes(ctx, appDB.Collection("feedbacks"))
		log.Println("Index creation process completed.")
	}()

	// --- Redis (one-time login codes) ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("WARN: Redis unreachable at %s, OTP login disabled until it recovers: %v", cfg.Redis.Addr, err)
	}

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	clientRepo := mongo.NewMongoClientRepository(appDB)
	areaRepo := mongo.NewMongoAreaRepository(appDB)
	productRepo := mongo.NewMongoProductRepository(appDB)
	feedbackRepo := mongo.NewMongoFeedbackRepository(appDB)

	// --- OTP delivery ---
	otpStore := otp.NewRedisStore(rdb, cfg.OTP.TTL)
	senderChain := notify.NewChain(
		notify.NewWhatsAppSender(cfg.OTP.WhatsAppURL, cfg.OTP.APIKey, cfg.OTP.SenderID, nil),
		notify.NewSMSSender(cfg.OTP.SMSURL, cfg.OTP.APIKey, cfg.OTP.SenderID, nil),
	)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, otpStore, senderChain, cfg.JWT.Secret, cfg.JWT.Expiration)
	feedbackService := service.NewFeedbackService(feedbackRepo, clientRepo, fileStorage)
	directoryService := service.NewDirectoryService(clientRepo, productRepo, areaRepo, userRepo)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, feedbackService, directoryService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
