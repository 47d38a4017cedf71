package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yitao-mall/stock-engine/internal/adapter/handler"
	"github.com/yitao-mall/stock-engine/internal/adapter/messaging"
	"github.com/yitao-mall/stock-engine/internal/adapter/storage"
	"github.com/yitao-mall/stock-engine/internal/config"
	"github.com/yitao-mall/stock-engine/internal/core/service"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logger.Fatal("failed to open mysql", zap.Error(err))
	}
	db.SetMaxOpenConns(cfg.MySQLMaxConns)
	db.SetMaxIdleConns(cfg.MySQLMaxConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		logger.Fatal("failed to ping mysql", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	logger.Info("connected to redis")

	// Adapters
	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	publisher := messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)

	// Services
	seckillService := service.NewSeckillService(
		mysqlAdapter, mysqlAdapter, mysqlAdapter, redisAdapter, publisher, logger)
	purchaseService := service.NewPurchaseService(mysqlAdapter, seckillService, logger)

	// Preheat the fast-path cache from the ledger before taking traffic.
	if err := seckillService.Rebuild(ctx); err != nil {
		logger.Fatal("failed to preheat seckill cache", zap.Error(err))
	}
	logger.Info("seckill cache preheated")

	// HTTP server
	httpHandler := handler.NewHTTPHandler(seckillService, purchaseService, redisAdapter)
	mux := http.NewServeMux()
	mux.HandleFunc("/health", httpHandler.HealthCheck)
	mux.HandleFunc("/api/seckill", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			httpHandler.ListSeckill(w, r)
			return
		}
		httpHandler.Admit(w, r)
	})
	mux.HandleFunc("/api/seckill/stock", httpHandler.SeckillStock)
	mux.HandleFunc("/api/purchase", httpHandler.Purchase)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	if err := publisher.Close(); err != nil {
		logger.Warn("failed to close kafka writer", zap.Error(err))
	}
	rdb.Close()
	db.Close()
	logger.Info("connections closed")
}
