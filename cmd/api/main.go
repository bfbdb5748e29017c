package main

import (
	"context"
	"log"
	"net/http"

	"craftchat/internal/api"
	"craftchat/internal/app"
	"craftchat/internal/config"
	"craftchat/internal/logging"
	"craftchat/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("build app", zap.Error(err))
	}
	defer a.Close()

	var turns api.TurnRunner = a.Service
	if cfg.TurnMode == config.TurnModeTemporal {
		c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
		if err != nil {
			logger.Fatal("dial temporal", zap.Error(err))
		}
		defer c.Close()
		turns = workflows.NewRunner(c, cfg.TemporalTaskQueue, int(cfg.ProviderTimeout.Seconds()))
	}

	h := api.NewServer(a.Store, a.Classifier, turns, logger, cfg.ProviderTimeout*2)
	logger.Info("craftchat api listening",
		zap.String("addr", cfg.APIAddr),
		zap.String("turn_mode", cfg.TurnMode),
		zap.String("providers", cfg.Providers),
	)
	if err := http.ListenAndServe(cfg.APIAddr, h.Routes()); err != nil {
		logger.Fatal("serve", zap.Error(err))
	}
}
