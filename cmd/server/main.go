package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/numaras/salesagent-sub000/internal/config"
	"github.com/numaras/salesagent-sub000/internal/database"
	"github.com/numaras/salesagent-sub000/internal/router"
	"github.com/numaras/salesagent-sub000/internal/services"
	"github.com/numaras/salesagent-sub000/internal/services/ad_server"
	"github.com/numaras/salesagent-sub000/internal/services/approval"
	"github.com/numaras/salesagent-sub000/internal/services/auth"
	"github.com/numaras/salesagent-sub000/internal/services/creative_agent"
	"github.com/numaras/salesagent-sub000/internal/services/excel"
	"github.com/numaras/salesagent-sub000/internal/services/notification"
	"github.com/numaras/salesagent-sub000/internal/services/rabbitmq"
	"github.com/numaras/salesagent-sub000/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	configureLogging(cfg.LogLevel)

	utils.InitSentry(cfg.SentryDSN, cfg.Environment)
	defer utils.FlushSentry()

	store, err := database.OpenStore(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Creative agent format catalogs
	formatCache := newFormatCache(cfg)
	registry := creative_agent.NewRegistry(creative_agent.NewHTTPClient(cfg.CreativeAgent), formatCache)
	validator := creative_agent.NewValidator(registry, cfg.CreativeAgent.DefaultAgentURL)

	cacheWarmer := creative_agent.NewCacheWarmer(registry, cfg.CreativeAgent.FormatCacheTTL/2, cfg.CreativeAgent.DefaultAgentURL)
	cacheWarmer.Start()
	defer cacheWarmer.Stop()

	var rabbitMQService *rabbitmq.Service
	if cfg.RabbitMQ.Enabled() {
		rabbitMQService, err = rabbitmq.NewService(cfg.RabbitMQ.URL(), rabbitmq.QueueCreativeReviews, rabbitmq.QueueCreativeSyncJobs)
		if err != nil {
			logrus.Warnf("Failed to initialize RabbitMQ, background work runs in process: %v", err)
			rabbitMQService = nil
		} else {
			defer rabbitMQService.Close()
		}
	}

	notifier := notification.NewSlackNotifier(10 * time.Second)

	// AI review pipeline
	var reviewer approval.Reviewer = approval.NoopReviewer{}
	if cfg.Review.AgentURL != "" {
		reviewer = approval.NewHTTPReviewer(cfg.Review.AgentURL, cfg.Review.Timeout)
	} else {
		logrus.Info("REVIEW_AGENT_URL not set, ai-powered tenants fall back to human review")
	}
	reviewProcessor := approval.NewProcessor(store, reviewer, notifier)

	var reviewQueue approval.TaskQueue
	if rabbitMQService != nil {
		rabbitQueue := approval.NewRabbitQueue(rabbitMQService)
		if err := rabbitQueue.StartConsumer(reviewProcessor.Process); err != nil {
			logrus.Fatalf("Failed to start review consumer: %v", err)
		}
		reviewQueue = rabbitQueue
	} else {
		pool := approval.NewWorkerPool(cfg.Review.Workers, cfg.Review.QueueSize, reviewProcessor.Process)
		pool.Start()
		defer pool.Stop()
		reviewQueue = pool
	}

	// Core services
	workflowService := services.NewWorkflowService(store, notifier)
	auditService := services.NewAuditService(store)
	syncService := services.NewCreativeSyncService(
		store,
		validator,
		services.NewCreativeProcessor(validator, cfg.CreativeAgent.GeminiAPIKey),
		services.NewAssignmentService(store),
		workflowService,
		auditService,
		approval.NewDispatcher(store, reviewQueue),
	)
	updateService := services.NewMediaBuyUpdateService(store, ad_server.NewFactory(cfg.AdServer), workflowService, auditService, notifier)

	syncJobService := services.NewSyncJobService(store, syncService, rabbitMQService)
	if rabbitMQService != nil {
		if err := syncJobService.StartRabbitMQConsumer(); err != nil {
			logrus.Fatalf("Failed to start sync job consumer: %v", err)
		}
	}

	r := router.SetupRouter(&router.Dependencies{
		SyncService:     syncService,
		SyncJobService:  syncJobService,
		UpdateService:   updateService,
		AuditService:    auditService,
		ExcelService:    excel.NewExcelService(store, cfg.ExportsDir),
		TokenService:    auth.NewTokenService(store.Principals(), cfg.JWTSecret, cfg.TokenTTL),
		Registry:        registry,
		DefaultAgentURL: cfg.CreativeAgent.DefaultAgentURL,
	}, cfg.BasePath)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		logrus.Infof("API Health Check: http://localhost:%s/health", cfg.Port)
		logrus.Infof("Swagger UI: http://localhost:%s%s/swagger/index.html", cfg.Port, strings.TrimSuffix(cfg.BasePath, "/"))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	syncJobService.Wait()

	logrus.Info("Server exited properly")
}

// newFormatCache shares catalogs through Redis when REDIS_ADDR is set and
// keeps them in process otherwise
func newFormatCache(cfg *config.Config) creative_agent.FormatCache {
	if cfg.Redis.Addr == "" {
		return creative_agent.NewMemoryFormatCache(cfg.CreativeAgent.FormatCacheTTL)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logrus.Warnf("Redis unavailable, using in-process format cache: %v", err)
		client.Close()
		return creative_agent.NewMemoryFormatCache(cfg.CreativeAgent.FormatCacheTTL)
	}

	logrus.Infof("Format cache backed by Redis at %s", cfg.Redis.Addr)
	return creative_agent.NewRedisFormatCache(client, cfg.CreativeAgent.FormatCacheTTL)
}

func configureLogging(logLevel string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
