package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xelth-com/eckdocs/internal/ai"
	"github.com/xelth-com/eckdocs/internal/buildinfo"
	"github.com/xelth-com/eckdocs/internal/config"
	"github.com/xelth-com/eckdocs/internal/database"
	"github.com/xelth-com/eckdocs/internal/handlers"
	"github.com/xelth-com/eckdocs/internal/imagefetch"
	"github.com/xelth-com/eckdocs/internal/locks"
	"github.com/xelth-com/eckdocs/internal/logging"
	"github.com/xelth-com/eckdocs/internal/models"
	"github.com/xelth-com/eckdocs/internal/numbering"
	"github.com/xelth-com/eckdocs/internal/render"
	"github.com/xelth-com/eckdocs/internal/render/pdf"
	"github.com/xelth-com/eckdocs/internal/services/businesses"
	"github.com/xelth-com/eckdocs/internal/services/documents"
	"github.com/xelth-com/eckdocs/internal/services/templates"
	"github.com/xelth-com/eckdocs/internal/storage"
	"github.com/xelth-com/eckdocs/internal/theme"
	"github.com/xelth-com/eckdocs/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(os.Stdout, cfg.LogLevel, cfg.IsProduction())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 2. Initialize database (Detects Embedded vs External automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	// 3. Auto-Migrate Schema
	log.Info().Msg("🚀 Synchronizing database schema...")
	if err := db.Migrate(); err != nil {
		log.Warn().Err(err).Msg("⚠️ Migration warning")
	} else {
		log.Info().Msg("✅ Schema synchronized successfully")
	}

	// 4. Blob storage for templates and generated files
	blobs, filesDir, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	// 5. Numbering lock: Redis when configured so several instances share sequences
	var locker locks.Locker = locks.NewKeyedMutex()
	if cfg.Redis.Addr != "" {
		client, err := locks.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer client.Close()
		locker = locks.NewRedisLocker(client, cfg.Redis.LockTTL)
	}
	numbers := numbering.NewAllocator(numbering.NewGormStore(db.DB), locker, numbering.Config{
		Prefixes: map[models.DocumentType]string{
			models.DocumentTypeInvoice:   cfg.Documents.InvoicePrefix,
			models.DocumentTypeReceipt:   cfg.Documents.ReceiptPrefix,
			models.DocumentTypeQuotation: cfg.Documents.QuotationPrefix,
		},
		Scope: numbering.ParseScope(cfg.Documents.SequenceScope),
	})

	// 6. Render pipeline and services
	templateStore := templates.NewGormStore(db.DB)
	mergeOpts := render.DefaultMergeOptions()
	mergeOpts.NormalizeRuns = cfg.Documents.NormalizeTemplateRuns
	renderer := documents.NewRenderer(blobs, templateStore, imagefetch.New(cfg.Storage.ImageFetchTimeout), documents.RendererConfig{
		TemplatesContainer: cfg.Storage.TemplatesContainer,
		PreviewsContainer:  cfg.Storage.PreviewsContainer,
		Merge:              mergeOpts,
		PDF: pdf.Options{
			QRCode:        true,
			VerifyBaseURL: cfg.Documents.VerifyBaseURL,
		},
	})

	templateService := templates.NewService(templateStore, blobs, renderer, templates.Config{
		TemplatesContainer: cfg.Storage.TemplatesContainer,
		PreviewsContainer:  cfg.Storage.PreviewsContainer,
		DefaultCurrency:    cfg.Documents.DefaultCurrency,
	})

	documentService := documents.NewService(
		documents.NewGormStore(db.DB),
		numbers,
		theme.NewResolver(templateService),
		renderer,
		blobs,
		documents.Config{
			DefaultCurrency:     cfg.Documents.DefaultCurrency,
			DefaultLocale:       cfg.Documents.DefaultLocale,
			SignaturesContainer: cfg.Storage.SignaturesContainer,
		},
	)
	documentService.SetDefaultTemplates(templateService)

	// Voice extraction is optional
	if cfg.AI.GeminiAPIKey != "" {
		client, err := ai.NewGeminiClient(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ AI: Gemini client unavailable, voice documents disabled")
		} else {
			defer client.Close()
			documentService.SetExtractor(ai.NewGeminiExtractor(client))
			log.Info().Str("model", cfg.AI.GeminiModel).Msg("✅ AI: Voice extraction enabled")
		}
	} else {
		log.Info().Msg("AI: GEMINI_API_KEY not set, voice documents disabled")
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)
	documentService.SetNotifier(hub)

	// 7. Set up HTTP router
	router := handlers.NewRouter(db, cfg, handlers.Services{
		Documents:  documentService,
		Templates:  templateService,
		Businesses: businesses.NewService(businesses.NewGormStore(db.DB), cfg.Documents.DefaultCurrency),
		Hub:        hub,
		FilesDir:   filesDir,
	})

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage.Driver).Str("commit", buildinfo.Fields()["commit"]).Msg("🚀 Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	sig := <-shutdown
	log.Warn().Str("signal", sig.String()).Msg("⚠️  Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	stop()

	// Close database (this also stops embedded PostgreSQL)
	log.Info().Msg("🛑 Closing database connection...")
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Database close error")
	}

	log.Info().Msg("✅ Shutdown complete")
}
