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

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/meeting-scribe/pkg/validator"

	"github.com/johnquangdev/meeting-scribe/internal/adapter/handler"
	"github.com/johnquangdev/meeting-scribe/internal/adapter/repository"
	"github.com/johnquangdev/meeting-scribe/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-scribe/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-scribe/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-scribe/internal/metrics"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/insight"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/recording"
	"github.com/johnquangdev/meeting-scribe/internal/usecase/stream"
	pkgai "github.com/johnquangdev/meeting-scribe/pkg/ai"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
	"github.com/johnquangdev/meeting-scribe/pkg/invoker"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Run AutoMigrate only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		log.Println("🔄 Running GORM AutoMigrate (development only) ...")
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run AutoMigrate: %v", err)
		}
	} else {
		log.Println("🔄 Skipping GORM AutoMigrate; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	transcriptRepo := repository.NewTranscriptRepository(db)
	speakerRepo := repository.NewSpeakerRepository(db)
	insightRepo := repository.NewInsightRepository(db)
	recordingRepo := repository.NewRecordingRepository(db)
	jobRepo := repository.NewAIJobRepository(db)

	// Initialize Redis: session events fan out over pub/sub and status
	// snapshots outlive registry pruning. Without Redis both fall back to
	// in-process equivalents.
	log.Println("📦 Connecting to Redis...")
	var eventSink stream.EventSink
	var statusCache handler.StatusCache
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Printf("⚠️  Redis unavailable, falling back to in-memory status cache: %v", err)
		statusCache = cache.NewMemoryStatusCache(cache.NewMemoryStore(), cfg.Pipeline.SessionTTL)
	} else {
		defer redisClient.Close()
		eventSink = cache.NewRedisEventSink(redisClient, logger)
		statusCache = cache.NewRedisStatusCache(redisClient, cfg.Pipeline.SessionTTL)
	}

	// Initialize object storage
	log.Println("🪣 Connecting to MinIO...")
	store, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	// Initialize AI gateways
	log.Println("🤖 Initializing AI components...")
	inv := invoker.New(invoker.Config{
		MaxAttempts:  cfg.Pipeline.MaxAttempts,
		BaseDelay:    cfg.Pipeline.BaseDelay,
		PollInterval: cfg.Pipeline.PollInterval,
		MaxPolls:     cfg.Pipeline.MaxPolls,
	}, logger)
	speechGateway := pkgai.NewSpeechGateway(&cfg.Assembly, inv, logger)
	groqClient := pkgai.NewGroqClient(&cfg.Groq, inv)
	extractor := insight.NewExtractor(groqClient, insightRepo, &cfg.Groq, logger)

	// Initialize metrics
	m := metrics.NewMetrics()

	// Initialize stream pipeline
	log.Println("🎙️  Initializing stream pipeline...")
	broker := stream.NewBroker(eventSink, logger)
	buffer := stream.NewChunkBuffer(cfg.Pipeline.ChunkWindow, logger)
	normalizer := stream.NewNormalizer(cfg.Pipeline.SampleRate, cfg.Pipeline.TempDir, logger)
	assembler := stream.NewAssembler(transcriptRepo, speakerRepo, extractor, broker, &cfg.Pipeline, m, logger)

	// The sweeper is built after the registry; route temp-file release
	// signals through this indirection.
	var sweeper *stream.Sweeper
	tempDone := func(path string) {
		if sweeper != nil {
			sweeper.Release(path)
		}
	}

	pipeline := stream.NewPipeline(normalizer, speechGateway, assembler, store, tempDone, &cfg.Pipeline, m, logger)
	registry := stream.NewRegistry(buffer, pipeline, extractor, transcriptRepo, broker, &cfg.Pipeline, m, logger)
	sweeper = stream.NewSweeper(registry, &cfg.Pipeline, logger)

	if err := pipeline.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	if err := sweeper.Start(); err != nil {
		log.Fatalf("Failed to start sweeper: %v", err)
	}

	// Initialize batch recording service
	log.Println("📼 Initializing recording service...")
	recordingService := recording.NewService(
		recordingRepo,
		jobRepo,
		transcriptRepo,
		speakerRepo,
		store,
		speechGateway,
		extractor,
		&cfg.Assembly,
		m,
		logger,
	)

	// Initialize handlers
	log.Println("🚀 Initializing handlers...")
	streamHandler := handler.NewStreamHandler(registry, broker, logger)
	sessionHandler := handler.NewSessionHandler(registry, statusCache, logger)
	meetingHandler := handler.NewMeetingHandler(transcriptRepo, speakerRepo, insightRepo, recordingRepo, logger)
	recordingHandler := handler.NewRecordingHandler(recordingService, logger)
	webhookHandler := handler.NewAIWebhookHandler(recordingService, cfg.Assembly.WebhookSecret, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, streamHandler, sessionHandler, meetingHandler, recordingHandler, webhookHandler)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	sweeper.Stop()
	pipeline.Stop()

	log.Println("✅ Server stopped gracefully")
}
