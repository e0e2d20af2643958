package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/assign"
	"github.com/workcity/chat-service/internal/config"
	"github.com/workcity/chat-service/internal/httpapi"
	"github.com/workcity/chat-service/internal/messaging"
	"github.com/workcity/chat-service/internal/notify"
	"github.com/workcity/chat-service/internal/presence"
	"github.com/workcity/chat-service/internal/store"
	"github.com/workcity/chat-service/internal/upload"
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
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	// --- Postgres ---
	db, err := store.Open(cfg.Database.URL, logger.Named("store"))
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	if err := store.Migrate(db, cfg.Database.MigrationsPath, logger.Named("store")); err != nil {
		logger.Fatal("migrations", zap.Error(err))
	}
	st := store.New(db, logger.Named("store"))
	defer st.Close()

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal("redis", zap.Error(err))
	}
	cancel()
	defer rdb.Close()

	// --- NATS ---
	natsCfg := messaging.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = cfg.NATS.Name
	natsClient, err := messaging.NewClient(natsCfg, logger.Named("nats"))
	if err != nil {
		logger.Fatal("nats", zap.Error(err))
	}
	defer natsClient.Close()

	// --- Components ---
	engine := assign.NewEngine(db, natsClient, cfg.Assign.DefaultMaxConcurrent, logger.Named("assign"))
	tracker := presence.NewTracker(rdb)
	queue := notify.NewQueue(rdb)

	uploads, err := upload.NewDiskStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
	if err != nil {
		logger.Fatal("upload store", zap.Error(err))
	}

	api := httpapi.New(httpapi.Options{
		Store:     st,
		Engine:    engine,
		Tracker:   tracker,
		Queue:     queue,
		NATS:      natsClient,
		Uploads:   uploads,
		Logger:    logger.Named("httpapi"),
		JWTSecret: cfg.Auth.JWTSecret,
		UploadDir: cfg.Upload.Dir,
	})

	server := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      api.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("chat server starting",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("redis_addr", cfg.Redis.Addr),
		zap.String("nats_url", cfg.NATS.URL),
		zap.String("upload_dir", cfg.Upload.Dir))

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}
