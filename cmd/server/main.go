package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/artbox-backend/internal/config"
	"github.com/stemsi/artbox-backend/internal/database"
	"github.com/stemsi/artbox-backend/internal/handler"
	"github.com/stemsi/artbox-backend/internal/imageproc"
	"github.com/stemsi/artbox-backend/internal/live"
	"github.com/stemsi/artbox-backend/internal/logger"
	"github.com/stemsi/artbox-backend/internal/repository"
	"github.com/stemsi/artbox-backend/internal/router"
	"github.com/stemsi/artbox-backend/internal/service"
	"github.com/stemsi/artbox-backend/internal/storage"
	"github.com/stemsi/artbox-backend/internal/validator"
	"github.com/stemsi/artbox-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("storage", cfg.StorageBackend).
		Msg("Starting ArtBox Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Open Artwork Storage ──────────────────────────────────────────
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open artwork storage")
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	workRepo := repository.NewWorkRepository(pool)
	resourceRepo := repository.NewResourceRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	notifier := live.NewRedisNotifier(rdb, log)
	images := imageproc.New(imageproc.Options{
		MaxDimension: cfg.ImageMaxDimension,
		Quality:      cfg.ImageJPEGQuality,
		MaxBytes:     cfg.MaxImageBytes,
	})
	thumbQueue := worker.NewThumbnailQueue(rdb)

	authService := service.NewAuthService(cfg, userRepo, classRepo, service.NewRedisSessionStore(rdb), notifier, log)
	classService := service.NewClassService(classRepo, userRepo, log)
	taskService := service.NewTaskService(taskRepo, classService, notifier, log)
	workService := service.NewWorkService(workRepo, taskRepo, classRepo, images, store, thumbQueue, notifier, log)
	resourceService := service.NewResourceService(resourceRepo, workRepo, classService, images, store, notifier, log)
	viewService := service.NewViewService(classRepo, taskRepo, workRepo, userRepo, resourceRepo, notifier, log)
	importService := service.NewImportService(authService, classService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		Class:      handler.NewClassHandler(classService, importService, log),
		Task:       handler.NewTaskHandler(taskService, log),
		Submission: handler.NewSubmissionHandler(viewService, workService, log),
		View:       handler.NewViewHandler(viewService, log),
		Resource:   handler.NewResourceHandler(resourceService, log),
		Live:       handler.NewLiveHandler(viewService, log),
		Student:    handler.NewStudentHandler(taskService, workService, viewService, resourceService, cfg.MaxUploadBytes, log),
		Stream:     handler.NewStreamHandler(viewService, log, cfg.AllowedOrigins),
		System:     handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	thumbWorker := worker.NewThumbnailWorker(rdb, workRepo, store, images, notifier, cfg.ThumbnailSize, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		thumbWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests. Live streams end with their
	// request contexts.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for the queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
