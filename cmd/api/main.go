package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redibo/rental-api/internal/config"
	"github.com/redibo/rental-api/internal/infrastructure/dynamo"
	"github.com/redibo/rental-api/internal/infrastructure/google"
	jwtinfra "github.com/redibo/rental-api/internal/infrastructure/jwt"
	s3infra "github.com/redibo/rental-api/internal/infrastructure/s3"
	"github.com/redibo/rental-api/internal/infrastructure/smtp"
	"github.com/redibo/rental-api/internal/infrastructure/sns"
	"github.com/redibo/rental-api/internal/infrastructure/sse"
	transporthttp "github.com/redibo/rental-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	// Google ID-token verifier (optional).
	var googleVerifier *google.Verifier
	if cfg.GoogleClientID != "" {
		googleVerifier = google.NewVerifier(cfg.GoogleClientID)
	} else {
		log.Println("WARN: GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	// Live event-stream registry with its keepalive pinger.
	registry := sse.NewRegistry()
	pingCtx, stopPinger := context.WithCancel(context.Background())
	registry.StartPinger(pingCtx, cfg.SSEPingInterval)

	deps := &transporthttp.Deps{
		UserRepo:         dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		NotificationRepo: dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications),
		VehicleRepo:      dynamo.NewVehicleRepo(dynamoClient, cfg.DynamoTables.Vehicles),
		ReservationRepo:  dynamo.NewReservationRepo(dynamoClient, cfg.DynamoTables.Reservations),
		RentalRepo:       dynamo.NewRentalRepo(dynamoClient, cfg.DynamoTables.Rentals),
		RatingRepo:       dynamo.NewRatingRepo(dynamoClient, cfg.DynamoTables.Ratings),
		VerificationRepo: dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications),
		S3Store:          s3Store,
		Mailer:           mailer,
		SMSSender:        smsSender,
		GoogleVerifier:   googleVerifier,
		JWTProvider:      jwtProvider,
		SSERegistry:      registry,
	}

	router := transporthttp.NewRouter(cfg, deps)

	// WriteTimeout stays zero: the event-stream endpoint holds its response
	// open indefinitely and a server-wide write deadline would sever it.
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.AppPort),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopPinger()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
