package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"masterycourse/backend/catalog"
	"masterycourse/backend/config"
	"masterycourse/backend/discord"
	"masterycourse/backend/middleware"
	"masterycourse/backend/observability"
	"masterycourse/backend/repository"
	"masterycourse/backend/routes"
	"masterycourse/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, cfg, logger)

	// Initialize database
	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Fatal("Error initializing database", "error", err)
	}
	if err := utils.Migrate(db); err != nil {
		logger.Fatal("Error migrating database", "error", err)
	}

	if cfg.CatalogSeedPath != "" {
		seed, err := catalog.LoadSeed(cfg.CatalogSeedPath)
		if err != nil {
			logger.Fatal("Error loading catalog seed", "error", err)
		}
		modules, lessons, err := catalog.Apply(ctx, repository.NewCourseRepo(db, logger), seed)
		if err != nil {
			logger.Fatal("Error applying catalog seed", "error", err)
		}
		logger.Info("catalog seeded", "modules", modules, "lessons", lessons)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, rate limiting degraded", "error", err)
		}
		defer rdb.Close()
	}

	bot, err := discord.NewBot(cfg.Discord.BotToken, logger)
	if err != nil {
		logger.Fatal("Error creating discord bot", "error", err)
	}
	if err := bot.Connect(); err != nil {
		// Completions keep working without the bot; effects are skipped.
		logger.Error("discord bot connect failed", "error", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	app.Use(middleware.LoggingMiddleware(logger))
	if cfg.MetricsEnabled {
		app.Use(observability.Metrics())
	}

	// Setup routes
	progressService := routes.SetupRoutes(app, db, cfg, routes.Deps{Log: logger, Bot: bot, Redis: rdb})

	go func() {
		if err := app.Listen(":" + cfg.ServerPort); err != nil {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.DispatchTimeout+5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	progressService.Wait()
	if err := bot.Disconnect(); err != nil {
		logger.Warn("discord disconnect", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", "error", err)
	}
}
