// Package app wires configuration into a ready chat.Service. Both binaries
// build their dependencies through it.
package app

import (
	"context"
	"fmt"
	"time"

	"craftchat/internal/chat"
	"craftchat/internal/config"
	"craftchat/internal/craft"
	"craftchat/internal/keywords"
	"craftchat/internal/logging"
	"craftchat/internal/providers"
	"craftchat/internal/router"
	"craftchat/internal/storage"

	"go.uber.org/zap"
)

type App struct {
	Service    *chat.Service
	Store      storage.Store
	Classifier *router.Classifier
	db         *storage.DB
}

// Build opens storage, builds the provider registry and the processing
// components. With no Postgres URL everything is kept in memory.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)
	rules := router.DefaultRules()
	if cfg.RulesFile != "" {
		loaded, err := router.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}
	classifier, err := router.NewClassifier(rules)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	registry, err := providers.BuildRegistry(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("build providers: %w", err)
	}
	pipeline, err := craft.NewPipeline(craft.DefaultRules())
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}

	a := &App{Classifier: classifier}
	var (
		ledger chat.CreditLedger
		calls  storage.CallRecorder
	)
	if cfg.PostgresURL == "" {
		logger.Warn("no postgres url configured, conversations are kept in memory")
		a.Store = storage.NewMemoryStore()
		ledger = storage.NewMemoryLedger()
		calls = storage.NewMemoryCallLog()
	} else {
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := storage.NewDB(dbCtx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(dbCtx); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.Store = storage.NewConversationRepo(db)
		ledger = storage.NewCreditRepo(db)
		calls = storage.NewProviderCallRepo(db)
	}

	a.Service, err = chat.NewService(chat.Deps{
		Store:        a.Store,
		Classifier:   classifier,
		Providers:    registry,
		Pipeline:     pipeline,
		Annotator:    keywords.NewAnnotator(keywords.DefaultTables(), cfg.KeywordLimit),
		Ledger:       ledger,
		Calls:        calls,
		Logger:       logger,
		HistoryLimit: cfg.HistoryLimit,
		Author:       cfg.AuthorName,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) Close() {
	a.db.Close()
}
