package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Sajhaaan/salespilots-backup-sub003/internal/adapters/ai"
	apphttp "github.com/Sajhaaan/salespilots-backup-sub003/internal/adapters/http"
	"github.com/Sajhaaan/salespilots-backup-sub003/internal/adapters/messenger"
	"github.com/Sajhaaan/salespilots-backup-sub003/internal/adapters/postgres"
	redisRepo "github.com/Sajhaaan/salespilots-backup-sub003/internal/adapters/redis"
	"github.com/Sajhaaan/salespilots-backup-sub003/internal/config"
	"github.com/Sajhaaan/salespilots-backup-sub003/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := newLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zlog.Fatal("failed to parse Redis URL", zap.Error(err))
	}
	if cfg.RedisPassword != "" {
		redisOpts.Password = cfg.RedisPassword
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		zlog.Fatal("failed to connect to Redis", zap.Error(err))
	}
	zlog.Info("redis connection established")

	// PostgreSQL: pgxpool verifies connectivity before GORM takes over.
	dbpool, err := pgxpool.New(ctx, cfg.DBURL)
	if err != nil {
		zlog.Fatal("failed to create connection pool", zap.Error(err))
	}
	defer dbpool.Close()
	if err := dbpool.Ping(ctx); err != nil {
		zlog.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	zlog.Info("postgres connection established")

	repo, err := postgres.NewRepository(cfg.DBURL)
	if err != nil {
		zlog.Fatal("failed to initialize postgres repository", zap.Error(err))
	}

	sessionStore := redisRepo.NewRepository(rdb, cfg.SessionTTL)
	gateway := messenger.NewClient(cfg.MetaPageToken)
	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)

	matcher := service.NewMatcher(repo.ProductRepository(), zlog)
	flow := service.NewOrderFlow(repo.OrderRepository(), repo.CustomerRepository(), repo.PaymentAttemptRepository(), zlog)
	receipts := service.NewReceiptGenerator(cfg.ReceiptDir, zlog)
	payments := service.NewPaymentVerifier(
		repo.PaymentAttemptRepository(),
		repo.OrderRepository(),
		flow,
		gateway,
		aiClient,
		receipts,
		cfg.VisionTimeout,
		zlog,
	)
	responder := service.NewResponder(aiClient, cfg.AITimeout, zlog)

	pipeline := service.NewPipeline(service.PipelineParams{
		Businesses: repo.BusinessRepository(),
		Customers:  repo.CustomerRepository(),
		Messages:   repo.MessageRepository(),
		Products:   repo.ProductRepository(),
		Orders:     repo.OrderRepository(),
		Sessions:   sessionStore,
		Deduper:    sessionStore,
		Gateway:    gateway,
		Matcher:    matcher,
		Flow:       flow,
		Payments:   payments,
		Responder:  responder,
		Budget:     cfg.EventBudget,
		Logger:     zlog,
	})
	defer pipeline.Close()

	handler := apphttp.NewHandler(cfg.MetaVerifyToken, cfg.MetaAppSecret, pipeline, zlog)

	app := fiber.New(fiber.Config{
		AppName:      "SalesPilots API",
		ServerHeader: "Fiber",
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"project": "salespilots",
		})
	})
	app.Get("/webhook", handler.VerifyWebhook)
	app.Post("/webhook", handler.ReceiveEvents)

	addr := fmt.Sprintf(":%s", cfg.AppPort)
	zlog.Info("server starting", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
