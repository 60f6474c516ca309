package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bizdash/bizdash/internal/analytics"
	"github.com/bizdash/bizdash/internal/catalog"
	"github.com/bizdash/bizdash/internal/crm"
	"github.com/bizdash/bizdash/internal/payables"
	"github.com/bizdash/bizdash/internal/platform/cache"
	"github.com/bizdash/bizdash/internal/platform/db"
	"github.com/bizdash/bizdash/internal/records"
	"github.com/bizdash/bizdash/internal/sales"
	"github.com/bizdash/bizdash/internal/tax"
	"github.com/bizdash/bizdash/internal/variance"
)

// Backends holds the external connections a process opened.
type Backends struct {
	Store records.Store
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Close releases every open connection.
func (b *Backends) Close(logger *slog.Logger) {
	if b == nil {
		return
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil && logger != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}
}

// OpenBackends connects the record store and, when caching is enabled, Redis.
// An unreachable Redis is logged and caching is disabled for the process.
func OpenBackends(ctx context.Context, cfg *Config, logger *slog.Logger) (*Backends, error) {
	b := &Backends{}
	switch cfg.StoreDriver {
	case StoreDriverMemory:
		b.Store = records.NewMemoryStore()
	default:
		pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
		if err != nil {
			return nil, err
		}
		store := records.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		b.Pool = pool
		b.Store = store
	}
	if cfg.CacheEnabled {
		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err != nil {
			logger.Warn("redis unavailable, dashboard cache disabled", slog.Any("error", err))
			_ = client.Close()
		} else {
			b.Redis = client
		}
	}
	logger.Info("backends ready",
		slog.String("store", cfg.StoreDriver),
		slog.Bool("cache", b.Redis != nil))
	return b, nil
}

// Services bundles the domain services sharing one store.
type Services struct {
	Analytics *analytics.Service
	Sales     *sales.Service
	Catalog   *catalog.Service
	Variance  *variance.Service
	Tax       *tax.Service
	Payables  *payables.Service
	CRM       *crm.Service
}

// NewServices wires the domain services. Every write through the returned
// services bumps the dashboard cache version.
func NewServices(cfg *Config, backends *Backends, logger *slog.Logger) (*Services, error) {
	if cfg == nil || backends == nil || backends.Store == nil {
		return nil, fmt.Errorf("app: services need a config and a store")
	}
	dashCache := analytics.NewCache(backends.Redis, cfg.CacheTTL)
	store := records.Observe(backends.Store, func(ctx context.Context, c records.Collection) {
		if err := dashCache.Bump(ctx); err != nil {
			logger.Warn("bump dashboard cache", slog.String("collection", string(c)), slog.Any("error", err))
		}
	})

	analyticsSvc := analytics.NewService(store, dashCache, logger, analytics.Options{
		RankingLimit:   cfg.RankingLimit,
		CashflowMonths: cfg.CashflowMonths,
	})
	return &Services{
		Analytics: analyticsSvc,
		Sales:     sales.NewService(store, logger, nil),
		Catalog:   catalog.NewService(store, logger),
		Variance: variance.NewService(store, analyticsSvc, logger, variance.Options{
			AlertThreshold: cfg.AlertThresholdPct,
			Months:         cfg.PlanningMonths,
		}),
		Tax:      tax.NewService(store, logger, tax.Options{VATRate: cfg.TaxVATRate, Months: cfg.CashflowMonths}),
		Payables: payables.NewService(store, logger, nil),
		CRM:      crm.NewService(store, logger, nil),
	}, nil
}
