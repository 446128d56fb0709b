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

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tablevox/agent/internal/adapter/handler"
	"github.com/tablevox/agent/internal/adapter/repository"
	"github.com/tablevox/agent/internal/infrastructure/audio"
	"github.com/tablevox/agent/internal/infrastructure/cache"
	"github.com/tablevox/agent/internal/infrastructure/database"
	"github.com/tablevox/agent/internal/infrastructure/external/remote"
	"github.com/tablevox/agent/internal/infrastructure/storage"
	"github.com/tablevox/agent/internal/usecase/analysis"
	captureUsecase "github.com/tablevox/agent/internal/usecase/capture"
	"github.com/tablevox/agent/internal/usecase/pipeline"
	"github.com/tablevox/agent/internal/usecase/recordings"
	"github.com/tablevox/agent/internal/usecase/recovery"
	pkgai "github.com/tablevox/agent/pkg/ai"
	"github.com/tablevox/agent/pkg/config"
	"github.com/tablevox/agent/pkg/identity"
	pkgvalidator "github.com/tablevox/agent/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Set-Cookie", "Cookie"},
		AllowCredentials: true,
	}))

	// Initialize the embedded recording store
	logger.Info("opening recording store", zap.String("path", cfg.Database.Path))
	db, err := database.NewSQLiteDB(cfg)
	if err != nil {
		log.Fatalf("Failed to open recording store: %v", err)
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate recording store: %v", err)
	}

	recordingRepo := repository.NewRecordingRepository(db)

	// Initialize object storage
	logger.Info("connecting to object storage", zap.String("endpoint", cfg.Storage.Endpoint))
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	// Initialize analysis components
	asmClient := aai.NewClient(cfg.Assembly.APIKey)
	llmClient := pkgai.NewLLMClient(&cfg.Analysis)
	analysisService := analysis.NewService(asmClient, llmClient, logger)

	// Initialize remote record backend client
	remoteClient := remote.NewClient(&cfg.Remote, logger)
	if !remoteClient.Enabled() {
		logger.Warn("remote record backend not configured, running standalone")
	}

	// Initialize the pipeline
	processor := pipeline.NewProcessor(recordingRepo, minioClient, analysisService, remoteClient, logger)
	inflight := pipeline.NewInFlight()
	dispatcher := pipeline.NewDispatcher(processor, inflight, logger)

	// Initialize the capture engine over the configured input device
	device := audio.NewFFmpegDevice(cfg.Capture.DeviceName, cfg.Capture.SampleRate)
	engine := captureUsecase.NewEngine(device, cfg.Capture.AmplitudeEvery, logger)
	captureService := captureUsecase.NewService(engine, recordingRepo, dispatcher, cfg.Server.RestaurantID, logger)
	recordingsService := recordings.NewService(recordingRepo, dispatcher, logger)

	// Identity manager for operator tokens, with a short validated-token
	// cache in front of it
	identityManager := identity.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	tokenCache := cache.NewTokenCache(time.Minute)

	// Setup router with handlers
	captureHandler := handler.NewCaptureHandler(captureService, logger)
	recordingsHandler := handler.NewRecordingsHandler(recordingsService, logger)
	router := handler.NewRouter(cfg, identityManager, tokenCache, captureHandler, recordingsHandler)
	router.Setup(e)

	// Kick off recovery: one run per process start, after the initial
	// delay, off the serving path.
	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	coordinator := recovery.NewCoordinator(
		recordingRepo,
		remoteClient,
		processor,
		inflight,
		cfg.Recovery,
		cfg.Server.RestaurantID,
		logger,
	)
	go coordinator.Run(rootCtx)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("starting agent",
			zap.String("addr", addr),
			zap.String("restaurant_id", cfg.Server.RestaurantID),
			zap.String("environment", cfg.Server.Environment),
		)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancelRoot()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Release the audio device before the listener closes so an operator
	// mid-recording does not leave the microphone held.
	if err := engine.Close(); err != nil {
		logger.Warn("capture engine close failed", zap.Error(err))
	}

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("agent stopped")
}
