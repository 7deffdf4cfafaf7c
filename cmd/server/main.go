package main

import (
	"context"
	"log"
	"os"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/studio/api/handler"
	"github.com/fastygo/studio/internal/bootstrap"
	"github.com/fastygo/studio/internal/config"
	"github.com/fastygo/studio/internal/infrastructure/buffer"
	"github.com/fastygo/studio/internal/infrastructure/kafka"
	"github.com/fastygo/studio/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/studio/internal/infrastructure/redis"
	"github.com/fastygo/studio/internal/middleware"
	"github.com/fastygo/studio/internal/registry"
	"github.com/fastygo/studio/internal/router"
	"github.com/fastygo/studio/internal/services"
	"github.com/fastygo/studio/internal/services/lifecycle"
	"github.com/fastygo/studio/pkg/httpcontext"
	"github.com/fastygo/studio/pkg/logger"
	"github.com/fastygo/studio/repository"
	redisRepo "github.com/fastygo/studio/repository/redis"
	auditUC "github.com/fastygo/studio/usecase/audit"
	"github.com/fastygo/studio/usecase/document"
	promotionUC "github.com/fastygo/studio/usecase/promotion"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:       cfg.Logger.Level,
		Encoding:    cfg.Logger.Encoding,
		Service:     cfg.AppName,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	if cfg.JWT.Secret == "" {
		zapLogger.Fatal("JWT_SECRET is required")
	}

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, cancel, zapLogger)
	manager.Listen()

	storage, err := bootstrap.OpenStorage(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage unavailable", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	manager.Register("storage", func(ctx context.Context) error {
		storage.Close()
		return nil
	})

	var cache repository.DocumentCache
	var redisClient *goRedis.Client
	if cfg.Cache.Enabled {
		redisClient, err = redisInfra.NewClient(appCtx, cfg.Redis, cfg.AppName, zapLogger)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		cache = redisRepo.NewDocumentCache(redisClient, cfg.Cache.TTL)
		manager.RegisterCloser("redis", redisClient)
	}

	bufferStore, err := buffer.Open(cfg.Buffer.Path)
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.RegisterCloser("buffer", bufferStore)

	mon := monitor.New(storage.Driver, storage.Ping, redisClient, bufferStore, 10*time.Second, zapLogger)

	bufferProcessor := services.NewBufferProcessor(
		bufferStore,
		mon,
		storage.Versions,
		storage.Audits,
		zapLogger,
		services.ProcessorConfig{
			Interval:   cfg.Buffer.SyncInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
			Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
		},
	)
	mon.OnRecover(func() {
		ctx, cancel := context.WithTimeout(appCtx, cfg.Buffer.SyncInterval)
		defer cancel()
		if _, err := bufferProcessor.DrainAll(ctx, 10); err != nil {
			zapLogger.Error("buffer drain after recovery failed", zap.Error(err))
		}
	})
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})
	bufferProcessor.Start()
	manager.Register("buffer_processor", func(ctx context.Context) error {
		bufferProcessor.Stop(ctx)
		return nil
	})
	bufferBridge := services.NewBufferBridge(bufferProcessor)

	auditOpts := auditUC.Options{Buffer: bufferBridge, Environment: cfg.Environment}
	if publisher := kafka.NewPublisher(cfg.Kafka, zapLogger); publisher != nil {
		auditOpts.Sink = publisher
		manager.Go("kafka_publisher", func() error {
			return publisher.Run(appCtx)
		})
	}
	recorder := auditUC.NewRecorder(storage.Audits, auditOpts, zapLogger)

	stores := bootstrap.NewStores(document.Deps{
		Documents: storage.Documents,
		Versions:  storage.Versions,
		Tx:        storage.Tx,
		Audit:     recorder,
		Buffer:    bufferBridge,
		Cache:     cache,
		Logger:    zapLogger,
		Options: document.Options{
			AtomicWrites: cfg.Store.AtomicWrites,
			HistoryLimit: cfg.Store.HistoryLimit,
		},
	})
	promotions := promotionUC.New(storage.Promotions, storage.Documents, storage.Versions, recorder, cfg.Environment, zapLogger)

	reg, err := registry.Load(cfg.Registry.Path)
	if err != nil {
		zapLogger.Fatal("failed to load registry", zap.String("path", cfg.Registry.Path), zap.Error(err))
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout, cfg.HTTP.TrustProxy)

	handlers := router.Handlers{
		Documents: []router.DocumentRoutes{
			apiHandler.NewDocumentHandler(stores.Pages, ctxAdapter, zapLogger),
			apiHandler.NewDocumentHandler(stores.Dashboards, ctxAdapter, zapLogger),
			apiHandler.NewDocumentHandler(stores.Services, ctxAdapter, zapLogger),
			apiHandler.NewDocumentHandler(stores.Posts, ctxAdapter, zapLogger),
			apiHandler.NewDocumentHandler(stores.Industries, ctxAdapter, zapLogger),
			apiHandler.NewDocumentHandler(stores.Themes, ctxAdapter, zapLogger),
			apiHandler.NewDocumentHandler(stores.ContentTypes, ctxAdapter, zapLogger),
			apiHandler.NewDocumentHandler(stores.ContentEntries, ctxAdapter, zapLogger),
		},
		DashboardPreview: apiHandler.NewDashboardPreviewHandler(stores.Dashboards, ctxAdapter, zapLogger),
		Audit:            apiHandler.NewAuditHandler(recorder, ctxAdapter, zapLogger),
		Promotions:       apiHandler.NewPromotionHandler(promotions, ctxAdapter, zapLogger),
		Registry:         apiHandler.NewRegistryHandler(reg, ctxAdapter, zapLogger),
		Health:           apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	zapLogger.Info("server starting",
		zap.String("address", cfg.Address()),
		zap.String("storage", storage.Driver),
		zap.Bool("cache", cache != nil),
		zap.String("environment", cfg.Environment),
	)
	manager.Go("http_server", func() error {
		return server.ListenAndServe(cfg.Address())
	})
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
	if err := manager.Err(); err != nil {
		zapLogger.Sync()
		os.Exit(1)
	}
}
