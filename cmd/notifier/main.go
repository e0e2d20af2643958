package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/config"
	"github.com/workcity/chat-service/internal/messaging"
	"github.com/workcity/chat-service/internal/notify"
	"github.com/workcity/chat-service/internal/presence"
	"github.com/workcity/chat-service/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	db, err := store.Open(cfg.Database.URL, logger.Named("store"))
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	st := store.New(db, logger.Named("store"))
	defer st.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal("redis", zap.Error(err))
	}
	cancel()
	defer rdb.Close()

	natsCfg := messaging.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = cfg.NATS.Name + "-notifier"
	natsClient, err := messaging.NewClient(natsCfg, logger.Named("nats"))
	if err != nil {
		logger.Fatal("nats", zap.Error(err))
	}
	defer natsClient.Close()

	worker := notify.NewWorker(st, presence.NewTracker(rdb), notify.NewQueue(rdb), natsClient, logger.Named("notify"))
	if err := worker.Start(); err != nil {
		logger.Fatal("start worker", zap.Error(err))
	}

	logger.Info("notification worker running",
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.String("nats_url", cfg.NATS.URL))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
