package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/askdoc/askdoc/internal/ai"
	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/db"
	"github.com/askdoc/askdoc/internal/embedcache"
	"github.com/askdoc/askdoc/internal/filestore"
	"github.com/askdoc/askdoc/internal/handler"
	"github.com/askdoc/askdoc/internal/ingest"
	"github.com/askdoc/askdoc/internal/job"
	"github.com/askdoc/askdoc/internal/middleware"
	"github.com/askdoc/askdoc/internal/ratelimit"
	"github.com/askdoc/askdoc/internal/repo"
	"github.com/askdoc/askdoc/internal/schedule"
	"github.com/askdoc/askdoc/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "askdoc",
		Short: "askdoc backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run askdoc server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	userRepo := repo.NewUserRepo(conn)
	docRepo := repo.NewDocumentRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	embedder, err := ai.NewEmbedder(cfg.AI)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	if cfg.AI.CacheSize > 0 {
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.CacheSize, time.Duration(cfg.AI.CacheTTL)*time.Second)
	}

	extractor := ingest.NewPDFExtractor(cfg.Ingest.MaxPDFPages)
	ingestService := service.NewIngestService(docRepo, chunkRepo, store, extractor, embedder, ingest.ChunkConfig{
		ChunkSize:       cfg.Ingest.ChunkSize,
		ChunkOverlap:    cfg.Ingest.ChunkOverlap,
		MinChunkChars:   cfg.Ingest.MinChunkChars,
		MaxChunksPerDoc: cfg.Ingest.MaxChunksPerDoc,
	})
	runner, err := ingest.NewRunner(cfg.Ingest.WorkerPoolSize, ingestService.Run)
	if err != nil {
		return fmt.Errorf("init ingest runner: %w", err)
	}
	defer runner.Release()

	documentService := service.NewDocumentService(
		docRepo, chunkRepo, userRepo, store, runner,
		cfg.Ingest.MaxPDFMB,
		time.Duration(cfg.Ingest.UploadTTLSeconds)*time.Second,
	)
	userService := service.NewUserService(userRepo)

	limiter := ratelimit.NewLimiter(cfg.RateLimits)

	deps := handler.RouterDeps{
		Users:     handler.NewUserHandler(userService),
		Documents: handler.NewDocumentHandler(documentService),
		Ask:       handler.NewAskHandler(),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORS),
			gzip.Gzip(gzip.DefaultCompression),
			middleware.DemoGate(cfg.DemoKey),
			middleware.RateLimit(limiter, "/api/v1"),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	cleanup := job.NewStaleDocumentCleanupJob(docRepo, time.Duration(cfg.Schedule.StalePendingHours)*time.Hour)
	if err := scheduler.AddJob(cleanup, cfg.Schedule.StaleCleanupSpec); err != nil {
		return fmt.Errorf("schedule cleanup job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
