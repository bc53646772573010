package service

import (
	"log/slog"
	"time"

	"dirhub.app/server/internal/cache"
	"dirhub.app/server/internal/provider"
	"dirhub.app/server/internal/store"
)

type ServicesConfig struct {
	Stores      *store.Stores
	TxRunner    TxRunner
	Cache       *cache.Cache
	Invalidator *cache.Invalidator
	Provider    provider.Client
	CacheTTL    time.Duration
	Logger      *slog.Logger
}

type Services struct {
	cfg ServicesConfig
}

func NewServices(cfg ServicesConfig) *Services {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Services{cfg: cfg}
}

func (s *Services) Activity() ActivityService {
	return NewActivityService(s.cfg.Stores.ActivityLogs(), s.cfg.Stores.Workspaces())
}

func (s *Services) Workspaces() WorkspaceService {
	return NewWorkspaceService(
		s.cfg.Stores,
		s.cfg.TxRunner,
		s.cfg.Cache,
		s.cfg.Invalidator,
		s.cfg.Provider,
		s.Activity(),
		s.cfg.CacheTTL,
		s.cfg.Logger,
	)
}

func (s *Services) Webhooks() WebhookService {
	return NewWebhookService(s.cfg.Stores, s.cfg.Invalidator, s.Activity(), s.cfg.Logger)
}
