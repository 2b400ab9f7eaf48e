package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"socialclient/internal/api"
	"socialclient/internal/config"
	"socialclient/internal/gateway"
	"socialclient/internal/session"
	"socialclient/internal/storage"
	"socialclient/internal/worker"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load(os.Getenv(config.EnvConfigPath))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.BasicConfig.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("log_level", cfg.BasicConfig.LogLevel).Warn("unknown log level, using info")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithField("storage", cfg.BasicConfig.Storage).Info("opening session storage")
	store, err := storage.FromConfig(ctx, cfg, log)
	if err != nil {
		log.Fatalf("open session storage: %v", err)
	}
	defer store.Close()

	client := gateway.NewFromConfig(cfg, gateway.WithLogger(log))
	sessions := session.NewManager(client, store, cfg.BasicConfig.StorageKey, log)
	if err := sessions.Restore(ctx); err != nil {
		log.Fatalf("restore session: %v", err)
	}

	pool := worker.NewPool(cfg.BasicConfig.PoolWorkers, cfg.BasicConfig.PoolQueue, log)
	defer pool.Close()

	handlers := api.NewHandler(sessions, client, pool, log)
	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = "127.0.0.1:8090"
	}
	errCh := make(chan error, 1)
	go func() { errCh <- router.Run(addr) }()
	log.WithField("addr", addr).Info("local api listening")

	select {
	case err := <-errCh:
		log.Errorf("server stopped: %v", err)
	case <-ctx.Done():
		log.Info("shutting down")
	}
}
