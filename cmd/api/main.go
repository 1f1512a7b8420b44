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
	"github.com/oli-store-api/internal/config"
	"github.com/oli-store-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/oli-store-api/internal/infrastructure/jwt"
	s3infra "github.com/oli-store-api/internal/infrastructure/s3"
	"github.com/oli-store-api/internal/infrastructure/sms"
	"github.com/oli-store-api/internal/infrastructure/smtp"
	"github.com/oli-store-api/internal/pkg/otpcode"
	transporthttp "github.com/oli-store-api/internal/transport/http"
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

	// Outbound SMS: the provider HTTP API by default, AWS SNS when selected.
	var smsSender sms.Sender = sms.NewHTTPSender(cfg)
	if cfg.SMSProvider == "sns" {
		if sender, err := sms.NewSNSSender(cfg); err == nil {
			smsSender = sender
		} else {
			log.Printf("WARN: SNS sender not available, falling back to HTTP: %v", err)
		}
	}

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		OtpRepo:     dynamo.NewOtpRepo(dynamoClient, cfg.DynamoTables.Otps),
		FileRepo:    dynamo.NewFileRepo(dynamoClient, cfg.DynamoTables.Files),
		S3Store:     s3Store,
		Mailer:      mailer,
		SMSSender:   smsSender,
		CodeGen:     otpcode.New(nil),
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
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
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
