package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm/logger"

	"edtech/internal/api"
	"edtech/internal/auth"
	"edtech/internal/config"
	"edtech/internal/database"
	"edtech/internal/export"
	"edtech/internal/mail"
	"edtech/internal/pdf"
	"edtech/internal/storage"
)

func main() {
	cfg := config.MustLoad()

	appLogger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(appLogger)

	appLogger.Info("api bootstrapping",
		slog.String("db_host", cfg.Database.Host),
		slog.Int("db_port", cfg.Database.Port),
		slog.String("db_name", cfg.Database.Name),
		slog.String("db_sslmode", cfg.Database.SSLMode),
	)

	db, err := database.InitDatabase(cfg.Database, logger.Warn)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	appLogger.Info("database migrated")

	ctx := context.Background()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			appLogger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := queue.Close(); err != nil {
			appLogger.Error("close asynq client failed", slog.Any("error", err))
		}
	}()

	storageClient, err := storage.NewClient(ctx, cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	appLogger.Info("storage client ready", slog.String("bucket", cfg.MinIO.Bucket))

	tokens, err := auth.NewTokenService(cfg.Auth.SecretKey, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("init token service: %v", err)
	}
	signer, err := auth.NewVerificationSigner(cfg.Auth.SecretKey)
	if err != nil {
		log.Fatalf("init verification signer: %v", err)
	}

	accounts := database.NewAccountStore(db)
	manager := auth.NewManager(accounts, signer, mail.NewQueueNotifier(queue), cfg.Auth.VerificationLinkPrefix(), appLogger)
	engine := export.NewEngine(pdf.NewLimitedPrinter(
		pdf.NewChromePrinter(cfg.PDF.BinPath, cfg.PDF.RenderTimeout, appLogger),
		cfg.PDF.MaxConcurrent,
	))

	router := api.NewRouter(appLogger)
	api.RegisterRoutes(router, api.Deps{
		Accounts:   accounts,
		CVs:        database.NewCVStore(db),
		Courses:    database.NewCourseStore(db),
		Blogs:      database.NewBlogStore(db),
		Manager:    manager,
		Tokens:     tokens,
		Sessions:   api.NewRedisSessionStore(redisClient, cfg.Auth.LoginRateLimitPerHour, cfg.Auth.LoginLockThreshold, cfg.Auth.LoginLockTTL),
		Exporter:   engine,
		Queue:      queue,
		Signer:     storageClient,
		Subscriber: redisClient,
		Logger:     appLogger,

		PresignTTL:     cfg.MinIO.PresignTTL,
		CookieDomain:   cfg.Auth.CookieDomain,
		AllowedOrigins: cfg.API.AllowedOrigins(),
	})

	address := fmt.Sprintf(":%d", cfg.API.Port)
	appLogger.Info("api listening", slog.String("addr", address))
	if err := router.Run(address); err != nil {
		log.Fatalf("failed to start api server: %v", err)
	}
}
