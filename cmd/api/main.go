package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/softtechniques/softbot/internal/api/handlers"
	"github.com/softtechniques/softbot/internal/cache/redis"
	"github.com/softtechniques/softbot/internal/chat"
	"github.com/softtechniques/softbot/internal/insights"
	"github.com/softtechniques/softbot/internal/intent"
	"github.com/softtechniques/softbot/internal/knowledge"
	"github.com/softtechniques/softbot/internal/llm"
	"github.com/softtechniques/softbot/internal/memory"
	"github.com/softtechniques/softbot/internal/metrics"
	"github.com/softtechniques/softbot/internal/middleware/ratelimit"
	"github.com/softtechniques/softbot/internal/middleware/security"
	"github.com/softtechniques/softbot/internal/middleware/validation"
	"github.com/softtechniques/softbot/internal/notify"
	"github.com/softtechniques/softbot/internal/scheduling"
	"github.com/softtechniques/softbot/internal/storage/sqlite"
	"github.com/softtechniques/softbot/pkg/config"
	appLogger "github.com/softtechniques/softbot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Softbot API server")

	metrics.Init()

	analyticsDB, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to open analytics database", zap.Error(err))
	}
	defer analyticsDB.Close()

	var embeddingCache knowledge.EmbeddingCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(
			fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			cfg.Redis.Password,
			cfg.Redis.DB,
		)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		embeddingCache = redisClient
	}

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
	)

	store, err := knowledge.NewStore(cfg.Knowledge.PersistDir)
	if err != nil {
		appLogger.Fatal("Failed to load document store", zap.Error(err))
	}
	metrics.KnowledgeChunks.Set(float64(store.Count()))

	loader := knowledge.NewLoader(store, llmClient, embeddingCache,
		cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)

	scheduler, err := scheduling.NewScheduler(cfg.Scheduling.DataDir, cfg.Scheduling.Timezone)
	if err != nil {
		appLogger.Fatal("Failed to load consultation ledger", zap.Error(err))
	}

	audit, err := scheduling.NewAuditLog(cfg.Scheduling.DataDir, scheduler)
	if err != nil {
		appLogger.Fatal("Failed to load audit log", zap.Error(err))
	}
	scheduler.AddObserver(audit)

	var mailer notify.Mailer = notify.NoopMailer{}
	if cfg.SMTP.Username != "" && cfg.SMTP.Password != "" {
		mailer = notify.NewSMTPMailer(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.FromEmail,
		)
	} else {
		appLogger.Warn("SMTP credentials not set, email notifications disabled")
	}
	scheduler.AddObserver(notify.NewTeamNotifier(mailer, audit))

	analyzer := insights.NewAnalyzer(analyticsDB)
	mem := memory.NewStore()
	classifier := intent.NewClassifier()

	engine := chat.NewEngine(llmClient, llmClient, store, classifier, mem, analyzer, cfg.Knowledge.TopK)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:            appLogger.GetLogger(),
	})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxUploadSize: cfg.Server.BodyLimit,
		Logger:        appLogger.GetLogger(),
	}))

	chatHandler := handlers.NewChatHandler(engine, mem)
	knowledgeHandler := handlers.NewKnowledgeHandler(store, loader, llmClient, cfg.Knowledge.TopK)
	consultationHandler := handlers.NewConsultationHandler(scheduler)
	adminHandler := handlers.NewAdminHandler(audit, analyzer, analyticsDB)
	wsHandler := handlers.NewWebSocketHandler(engine)

	api := app.Group("/api/v1")

	api.Post("/chat", chatHandler.HandleChat)
	api.Get("/sessions", chatHandler.ListSessions)
	api.Get("/sessions/:id", chatHandler.GetSession)
	api.Delete("/sessions/:id", chatHandler.DeleteSession)

	api.Post("/knowledge/text", knowledgeHandler.AddText)
	api.Post("/knowledge/upload", knowledgeHandler.UploadFile)
	api.Get("/knowledge/search", knowledgeHandler.Search)
	api.Get("/knowledge/status", knowledgeHandler.Status)
	api.Post("/knowledge/initialize", knowledgeHandler.Initialize)

	api.Get("/consultations/slots", consultationHandler.AvailableSlots)
	api.Post("/consultations", consultationHandler.Schedule)
	api.Get("/consultations", consultationHandler.List)
	api.Get("/consultations/:id", consultationHandler.Get)
	api.Put("/consultations/:id/status", consultationHandler.UpdateStatus)
	api.Delete("/consultations/:id", consultationHandler.Delete)

	api.Get("/admin/logs/recent", adminHandler.RecentLogs)
	api.Get("/admin/logs/status/:status", adminHandler.LogsByStatus)
	api.Get("/admin/logs/range", adminHandler.LogsByDateRange)
	api.Post("/admin/logs/clear", adminHandler.ClearLogs)
	api.Get("/admin/stats", adminHandler.Stats)
	api.Get("/admin/team", adminHandler.ListTeam)
	api.Post("/admin/team", adminHandler.AddTeamMember)
	api.Delete("/admin/team/:email", adminHandler.RemoveTeamMember)

	api.Get("/analytics/stats", adminHandler.AnalyticsStats)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
			"chunks": store.Count(),
		})
	})

	app.Get("/metrics", metrics.Handler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	// Seed the knowledge base on first boot so the widget has something
	// to answer from.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := loader.Initialize(ctx); err != nil {
			appLogger.Warn("Knowledge base seeding failed", zap.Error(err))
		}
		metrics.KnowledgeChunks.Set(float64(store.Count()))
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
