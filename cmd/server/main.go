package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/Mazussy/Sleep-Tracker/internal"
	"github.com/Mazussy/Sleep-Tracker/internal/api"
	"github.com/Mazussy/Sleep-Tracker/internal/auth"
	"github.com/Mazussy/Sleep-Tracker/internal/config"
	"github.com/Mazussy/Sleep-Tracker/internal/storage"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := internal.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := storage.New(cfg, logger)
	if err != nil {
		logger.Fatalf("init storage: %v", err)
	}
	defer store.Close()

	provider := auth.NewLocalProvider(store, cfg.Auth.BcryptCost, logger)
	app := api.NewApp(logger, store, provider, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	gin.SetMode(ginMode(cfg.Server.Mode))
	r := gin.New()
	r.Use(gin.Recovery())
	api.RegisterRoutes(r, app)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	logger.Infof("server listening on %s (backend=%s)", addr, cfg.Storage.Backend)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

func ginMode(mode string) string {
	switch mode {
	case "debug", "test":
		return mode
	}
	return gin.ReleaseMode
}
