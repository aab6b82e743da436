package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stockroom/internal/auction"
	"stockroom/internal/commons"
	"stockroom/internal/config"
	"stockroom/internal/domain"
	"stockroom/internal/infrastructure/kafka"
	"stockroom/internal/infrastructure/logger"
	"stockroom/internal/infrastructure/mysql"
	"stockroom/internal/infrastructure/redis"
	"stockroom/internal/infrastructure/tracing"
	"stockroom/internal/inventory"
	"stockroom/internal/localization"
	"stockroom/internal/order"
	"stockroom/internal/product"
	"stockroom/internal/server"
)

const defaultConfigFile = "config.yaml"

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Tracing.ServiceName)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		zapLogger.Fatal("setting up tracing", zap.Error(err))
	}

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connecting to redis", zap.Error(err))
	}
	defer redisClient.Close()

	cache := redis.NewCache(redisClient)
	if err := cache.RemoveByPrefix(ctx, domain.ProductCachePrefix); err != nil {
		zapLogger.Warn("clearing product cache failed", zap.Error(err))
	}

	writer := kafka.NewWriter(cfg.Kafka)
	defer writer.Close()
	effects := commons.NewAfterCommit(cache, kafka.NewDispatcher(writer), zapLogger)

	bundle, err := localization.NewBundle()
	if err != nil {
		zapLogger.Fatal("loading translations", zap.Error(err))
	}

	inventoryModule := inventory.NewModule(db, cfg, effects, zapLogger)
	auctionModule := auction.NewModule(db, cfg, effects, zapLogger)
	orderModule := order.NewModule(db, cfg, inventoryModule.Inventory, auctionModule.Bids, zapLogger)

	router := server.NewRouter(server.Modules{
		Inventory: inventoryModule.Controller,
		Auctions:  auctionModule.Controller,
		Orders:    orderModule.Controller,
		Products:  product.NewModule(db, bundle, zapLogger),
	}, zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	reader := kafka.NewReader(cfg.Kafka)
	defer reader.Close()
	orderListener := orderModule.NewListener(reader, inventoryModule.Booking, zapLogger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := orderListener.Start(ctx); err != nil {
			zapLogger.Error("order listener stopped", zap.Error(err))
			stop()
		}
	}()

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zapLogger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server shutdown failed", zap.Error(err))
	}
	wg.Wait()

	if err := shutdownTracing(shutdownCtx); err != nil {
		zapLogger.Error("tracing shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}

// loadConfig reads the environment and overlays the YAML file named by
// CONFIG_FILE when it exists.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = defaultConfigFile
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	return commons.LoadConfig(path, cfg)
}
