package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"iot-anomaly-engine/analytics"
	"iot-anomaly-engine/cache"
	"iot-anomaly-engine/config"
	"iot-anomaly-engine/handlers"
	"iot-anomaly-engine/poller"
	"iot-anomaly-engine/thresholds"
)

func main() {
	cfg, v, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Хранилище настроек: Redis, иначе локальный SQLite
	var kv thresholds.KV
	var sink analytics.SummarySink
	if cfg.RedisEnabled {
		redisStore, err := cache.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("failed to connect to Redis",
				zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer redisStore.Close()
		logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))
		kv = redisStore
		sink = redisStore
	} else {
		sqliteStore, err := cache.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("failed to open settings database",
				zap.String("path", cfg.SQLitePath), zap.Error(err))
		}
		defer sqliteStore.Close()
		logger.Info("using SQLite settings store", zap.String("path", cfg.SQLitePath))
		kv = sqliteStore
	}

	// Повреждённая сохранённая конфигурация уже залогирована внутри
	// и заменена значениями по умолчанию
	store, err := thresholds.NewStore(ctx, kv, logger)
	if store == nil {
		logger.Fatal("failed to load threshold configuration", zap.Error(err))
	}

	pipeline := analytics.NewPipeline(
		analytics.Detectors(cfg.EwmaAlpha, cfg.EwmaLambda, cfg.HampelWindow))
	engine := analytics.NewEngine(pipeline, store, sink, logger, handlers.CountAnomalies)

	hub := handlers.NewStreamHub(logger)
	engine.SetSummaryHook(hub.Broadcast)

	readingHandler := handlers.NewReadingHandler(engine, store, logger)

	r := mux.NewRouter()
	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	r.HandleFunc("/readings", readingHandler.HandleIngest).Methods("POST")
	r.HandleFunc("/series", readingHandler.HandleSeries).Methods("GET")
	r.HandleFunc("/anomalies", readingHandler.HandleAnomalies).Methods("GET")
	r.HandleFunc("/anomalies/context", readingHandler.HandleContext).Methods("GET")
	r.HandleFunc("/thresholds", readingHandler.HandleThresholds).Methods("GET")
	r.HandleFunc("/thresholds/mode", readingHandler.HandleSetMode).Methods("PUT")
	r.HandleFunc("/thresholds/custom", readingHandler.HandleSetCustom).Methods("PUT")
	r.HandleFunc("/ws", hub.HandleStream)

	r.Path("/metrics").Handler(promhttp.Handler())

	if cfg.PollEnabled {
		p := poller.New(cfg.PollURL, cfg.PollInterval, engine, logger)
		go p.Run(ctx)
	}

	srv := &http.Server{
		Addr:           cfg.ServerAddr,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Ожидание сигнала для graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
