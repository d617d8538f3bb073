// Package main runs the lecture notes HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lecturenotes/backend/config"
	"github.com/lecturenotes/backend/internal/courses"
	"github.com/lecturenotes/backend/internal/lectures"
	"github.com/lecturenotes/backend/internal/media"
	"github.com/lecturenotes/backend/internal/realtime"
	"github.com/lecturenotes/backend/internal/routes"
	"github.com/lecturenotes/backend/internal/summarization"
	"github.com/lecturenotes/backend/internal/transcription"
	"github.com/lecturenotes/backend/internal/units"
	"github.com/lecturenotes/backend/internal/worker"
	"github.com/lecturenotes/backend/pkg/database"
	"github.com/lecturenotes/backend/pkg/queue"
	"github.com/lecturenotes/backend/pkg/redis"
	"github.com/lecturenotes/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	switch {
	case errors.Is(err, redis.ErrDisabled):
		logger.Info("redis not configured; notifications are local and failed audio deletes are not retried")
	case err != nil:
		logger.Warn("redis disabled", zap.Error(err))
		rdb = nil
	default:
		defer rdb.Close()
	}

	audio, uploadDir, err := newAudioStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("audio store", zap.Error(err))
	}

	var hub *realtime.Hub
	if rdb != nil {
		redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, redisPubSub, redisPubSub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}

	// Entities
	courseRepo := courses.NewRepository(pool)
	unitRepo := units.NewRepository(pool)
	lectureRepo := lectures.NewRepository(pool)
	annotations := lectures.NewAnnotations(lectureRepo, hub, logger)

	// Audio
	mediaSvc := media.NewService(lectureRepo, audio, hub, logger)
	var cleanupProcessor *worker.CleanupProcessor
	if rdb != nil {
		jobQueue := queue.NewQueue(rdb.Client, logger)
		mediaSvc.SetCleanupQueue(jobQueue)
		cleanupProcessor = worker.NewCleanupProcessor(jobQueue, audio, logger)
	}

	// Transcription and summarization
	backend := transcription.NewCommandBackend(cfg.Transcription.Command, cfg.Transcription.Args...)
	transcriptionSvc := transcription.NewService(lectureRepo, annotations, audio, backend, logger)
	var summarizer *summarization.Summarizer
	if cfg.Summarization.Enabled() {
		summarizer = summarization.NewSummarizer(summarization.NewClient(cfg.Summarization), cfg.Summarization, logger)
	} else {
		logger.Warn("LLM_API_KEY not set; summarization disabled")
	}

	opts := routes.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		StaticDir:          cfg.Server.StaticDir,
	}
	if uploadDir != "" {
		opts.UploadDir = uploadDir
		opts.UploadURLPrefix = storage.DefaultURLPrefix
	}
	router := routes.NewRouter(routes.Handlers{
		Courses:       courses.NewHandler(courseRepo, logger),
		Units:         units.NewHandler(unitRepo, courseRepo, logger),
		Lectures:      lectures.NewHandler(lectureRepo, unitRepo, annotations, hub, logger),
		Media:         media.NewHandler(mediaSvc, int64(cfg.Server.MaxUploadMB)<<20, logger),
		Transcription: transcription.NewHandler(transcriptionSvc),
		Summarization: summarization.NewHandler(summarizer),
		Hub:           hub,
	}, opts, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (orphaned audio cleanup)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if cleanupProcessor != nil {
		go cleanupProcessor.Run(workerCtx)
		logger.Info("cleanup worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// newAudioStore returns the configured store and, for local storage, the
// directory to serve at /uploads.
func newAudioStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, string, error) {
	if cfg.Storage.Driver == config.StorageS3 {
		s3Store, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			Endpoint:             cfg.AWS.Endpoint,
			Bucket:               cfg.AWS.AudioBucket,
			TempDir:              cfg.Storage.TempDir,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		return s3Store, "", err
	}
	local, err := storage.NewLocal(cfg.Storage.UploadDir, storage.DefaultURLPrefix, logger)
	if err != nil {
		return nil, "", err
	}
	return local, local.Dir(), nil
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
