package main

import (
	"fmt"
	"log"

	"invoscan/internal/config"
	"invoscan/internal/email/noop"
	"invoscan/internal/email/ses"
	"invoscan/internal/extractor/groq"
	"invoscan/internal/gst"
	"invoscan/internal/handler"
	"invoscan/internal/ocr/documentai"
	"invoscan/internal/port"
	"invoscan/internal/repository/postgres"
	"invoscan/internal/router"
	"invoscan/internal/service"
	s3storage "invoscan/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	invoiceRepo := postgres.NewInvoiceRepo(db)
	buyerRepo := postgres.NewBuyerRepo(db)
	subRepo := postgres.NewSubscriptionRepo(db)

	// Initialize storage and external clients
	s3Client, err := s3storage.NewS3Client(&cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	ocrClient := documentai.NewClient(&cfg.OCR)
	extractorClient := groq.NewExtractor(&cfg.Extractor)

	var emailSender port.EmailSender
	if cfg.Email.Provider == "ses" {
		emailSender, err = ses.NewSESSender(cfg.Email.Region, cfg.Email.FromAddress, cfg.Email.FromName, cfg.Email.FrontendURL)
		if err != nil {
			return fmt.Errorf("failed to initialize SES sender: %w", err)
		}
	} else {
		emailSender = noop.NewNoopSender()
	}

	// Initialize services
	validator := &gst.Validator{TotalTolerance: cfg.Validation.TotalTolerance}
	pipeline := service.NewPipeline(ocrClient, extractorClient, validator)
	authSvc := service.NewAuthService(userRepo, cfg.JWT)
	subSvc := service.NewSubscriptionService(subRepo)
	invoiceSvc := service.NewInvoiceService(
		invoiceRepo, userRepo, s3Client, pipeline, subSvc, emailSender,
		cfg.Upload.MaxFileSizeMB, cfg.Upload.MaxBatchSize, cfg.S3.PresignExpiry,
	)
	buyerSvc := service.NewBuyerService(buyerRepo)

	// Initialize handlers
	authH := handler.NewAuthHandler(authSvc)
	invoiceH := handler.NewInvoiceHandler(invoiceSvc)
	buyerH := handler.NewBuyerHandler(buyerSvc)
	subH := handler.NewSubscriptionHandler(subSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(authSvc, cfg.CORS.AllowedOrigins, authH, invoiceH, buyerH, subH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
