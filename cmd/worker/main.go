package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"

	"edtech/internal/config"
	"edtech/internal/database"
	"edtech/internal/export"
	"edtech/internal/mail"
	"edtech/internal/metrics"
	"edtech/internal/pdf"
	"edtech/internal/storage"
	"edtech/internal/tasks"
	"edtech/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	appLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(appLogger)

	db, err := database.InitDatabase(cfg.Database, logger.Warn)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	ctx := context.Background()

	storageClient, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			appLogger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	server := asynq.NewServer(asynq.RedisClientOpt{Addr: redisAddr}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})

	engine := export.NewEngine(pdf.NewLimitedPrinter(
		pdf.NewChromePrinter(cfg.PDF.BinPath, cfg.PDF.RenderTimeout, appLogger),
		cfg.PDF.MaxConcurrent,
	))
	exportHandler := worker.NewExportTaskHandler(database.NewCVStore(db), engine, storageClient, redisClient, appLogger)
	emailHandler := worker.NewEmailTaskHandler(mail.NewSMTPSender(cfg.Mail, appLogger), appLogger)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeCVExport, exportHandler)
	mux.Handle(tasks.TypeVerificationEmail, emailHandler)

	appLogger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)
	if err := server.Run(mux); err != nil {
		appLogger.Error("worker server stopped", slog.Any("error", err))
	}
}
