// Package main runs the smart CCTV backend HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/asmita-kamble/smart-cctv-app/config"
	"github.com/asmita-kamble/smart-cctv-app/internal/activities"
	"github.com/asmita-kamble/smart-cctv-app/internal/alerts"
	"github.com/asmita-kamble/smart-cctv-app/internal/allowedpersons"
	"github.com/asmita-kamble/smart-cctv-app/internal/analysis"
	"github.com/asmita-kamble/smart-cctv-app/internal/auth"
	"github.com/asmita-kamble/smart-cctv-app/internal/cameras"
	"github.com/asmita-kamble/smart-cctv-app/internal/dashboard"
	"github.com/asmita-kamble/smart-cctv-app/internal/media"
	"github.com/asmita-kamble/smart-cctv-app/internal/middleware"
	"github.com/asmita-kamble/smart-cctv-app/internal/realtime"
	"github.com/asmita-kamble/smart-cctv-app/internal/streaming"
	"github.com/asmita-kamble/smart-cctv-app/pkg/database"
	"github.com/asmita-kamble/smart-cctv-app/pkg/queue"
	"github.com/asmita-kamble/smart-cctv-app/pkg/redis"
	"github.com/asmita-kamble/smart-cctv-app/pkg/response"
	"github.com/asmita-kamble/smart-cctv-app/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Stream sessions
	streamManager := streaming.NewManager(streaming.Config{
		Dir:             cfg.Streaming.Dir,
		FFmpegPath:      cfg.Streaming.FFmpegPath,
		SegmentSeconds:  cfg.Streaming.SegmentSeconds,
		PlaylistSize:    cfg.Streaming.PlaylistSize,
		ManifestTimeout: cfg.Streaming.ManifestTimeout,
		StopGrace:       cfg.Streaming.StopGrace,
		IdleGrace:       cfg.Streaming.IdleGrace,
	}, logger)
	streamManager.SetNotifier(func(cameraID uuid.UUID, state streaming.State) {
		hub.BroadcastToCameraAndPublish(cameraID, realtime.EventStreamStatus, gin.H{
			"camera_id": cameraID,
			"state":     state,
		})
	})

	// Cameras
	cameraRepo := cameras.NewRepository(pool)
	cameraHandler := cameras.NewHandler(cameraRepo, streamManager, logger)
	streamHandler := streaming.NewHandler(streamManager, cameraRepo, logger)

	// Alerts and activities
	alertRepo := alerts.NewRepository(pool)
	alertHandler := alerts.NewHandler(alertRepo)
	activityRepo := activities.NewRepository(pool)
	activityHandler := activities.NewHandler(activityRepo)

	// Allowed persons
	personRepo := allowedpersons.NewRepository(pool)
	personHandler := allowedpersons.NewHandler(personRepo)

	// Analysis pipeline: repositories as sink, wrapped for live broadcast.
	extractor := analysis.NewExtractor(cfg.Analysis.FFmpegPath, cfg.Analysis.FrameInterval, cfg.Analysis.FrameDedupDistance, logger)
	sink := realtime.NewBroadcastSink(analysis.NewRepoSink(alertRepo, activityRepo), hub)
	pipeline := analysis.NewPipeline(extractor, sink, analysis.Options{
		MaskThreshold:     cfg.Analysis.MaskThreshold,
		SpoofThreshold:    cfg.Analysis.SpoofThreshold,
		ActivityThreshold: cfg.Analysis.ActivityThreshold,
		Concurrency:       cfg.Analysis.Concurrency,
		FrameInterval:     cfg.Analysis.FrameInterval,
		NominalFPS:        cfg.Analysis.NominalFPS,
	}, logger)

	// Media uploads
	mediaStore, err := media.NewStorage(cfg.Upload.Dir)
	if err != nil {
		logger.Fatal("media storage", zap.Error(err))
	}
	mediaRepo := media.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	mediaHandler := media.NewHandler(mediaRepo, mediaStore, cameraRepo, pipeline, jobQueue, cfg.Upload.MaxSizeBytes, logger)

	// Archive downloads need S3; the server still runs without it.
	if cfg.AWS.ArchiveBucket != "" {
		s3Store, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ArchiveBucket:        cfg.AWS.ArchiveBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 unavailable, archive downloads disabled", zap.Error(err))
		} else {
			mediaHandler.SetArchiveSigner(s3Store)
		}
	}

	// Dashboard
	dashboardHandler := dashboard.NewHandler(cameraRepo, alertRepo, activityRepo, streamManager)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin only)
		api.GET("/users", middleware.RequireRole("admin"), authHandler.List)

		// Cameras
		api.GET("/cameras", cameraHandler.List)
		api.POST("/cameras", cameraHandler.Create)
		api.GET("/cameras/:id", cameraHandler.GetByID)
		api.PUT("/cameras/:id", cameraHandler.Update)
		api.DELETE("/cameras/:id", cameraHandler.Delete)
		api.GET("/cameras/:id/media", mediaHandler.ListByCamera)

		// Live streams
		api.POST("/cameras/:id/stream/start", streamHandler.Start)
		api.POST("/cameras/:id/stream/stop", streamHandler.Stop)
		api.GET("/cameras/:id/stream/status", streamHandler.Status)
		api.GET("/cameras/:id/hls/playlist.m3u8", streamHandler.Playlist)
		api.GET("/cameras/:id/hls/:segment", streamHandler.Segment)

		// Media upload and analysis
		api.POST("/media/upload", mediaHandler.Upload)
		api.POST("/media/upload-image", mediaHandler.UploadImage)
		api.GET("/media/:id/file", mediaHandler.ServeFile)
		api.GET("/media/:id/archive-url", mediaHandler.ArchiveURL)

		// Alerts
		api.GET("/alerts", alertHandler.List)
		api.GET("/alerts/statistics", middleware.RequireRole("admin"), alertHandler.Stats)
		api.GET("/alerts/:id", alertHandler.GetByID)
		api.POST("/alerts/:id/resolve", alertHandler.Resolve)

		// Activities
		api.GET("/activities", activityHandler.List)
		api.GET("/activities/:id", activityHandler.GetByID)

		// Allowed persons
		api.GET("/allowed-persons", personHandler.List)
		api.POST("/allowed-persons", middleware.RequireRole("admin"), personHandler.Create)
		api.DELETE("/allowed-persons/:id", middleware.RequireRole("admin"), personHandler.Delete)

		// Dashboard
		api.GET("/dashboard/overview", middleware.RequireRole("admin"), dashboardHandler.Overview)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Idle stream reaper
	reaperCtx, reaperCancel := context.WithCancel(context.Background())
	defer reaperCancel()
	go streamManager.Run(reaperCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	reaperCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	streamManager.StopAll(shutdownCtx)
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
