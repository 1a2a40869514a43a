// Command vettingd serves the vetting intelligence search API: one query
// surface over the federal lobbying disclosure, city lobbying, and city
// contract data sources.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/analytics"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/api"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/cache"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/insights"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/orchestrator"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/query"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/record"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/source"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/source/citycontracts"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/source/citylobby"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/internal/source/federal"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/config"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/health"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/kafka"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/logger"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/metrics"
	pkgredis "github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/redis"
	"github.com/OneFellSwoop1/Vetting-intelligence-app/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting vettingd", "port", cfg.Server.Port)

	var m *metrics.Metrics
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	checker := health.NewChecker()
	checker.Register("self", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp}
	})

	var store cache.Store
	if cfg.Cache.UseRedis {
		redisClient, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, falling back to in-memory cache", "error", err)
			store = cache.NewMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.StaleRetention, m)
		} else {
			defer redisClient.Close()
			store = cache.NewRedisStore(redisClient, cfg.Cache.StaleRetention)
			// Soft: Redis failures degrade to cache misses, the service
			// keeps running.
			checker.RegisterSoft("redis", health.Probe(redisClient.Ping))
			slog.Info("shared result cache enabled", "addr", cfg.Redis.Addr)
		}
	} else {
		store = cache.NewMemoryStore(cfg.Cache.MaxEntries, cfg.Cache.StaleRetention, m)
	}
	resultCache := cache.New(store, m)

	adapters := []source.Adapter{
		federal.New(cfg.Sources.Federal.BaseURL, cfg.Sources.Federal.APIKey, cfg.Sources.Federal.RequestTimeout, m),
		citylobby.New(cfg.Sources.CityLobbying.BaseURL, cfg.Sources.CityLobbying.APIKey, cfg.Sources.CityLobbying.RequestTimeout, m),
		citycontracts.New(cfg.Sources.CityContracts.BaseURL, cfg.Sources.CityContracts.APIKey, cfg.Sources.CityContracts.ContractDataset, cfg.Sources.CityContracts.RequestTimeout, m),
	}
	if cfg.Sources.Federal.APIKey == "" {
		slog.Warn("no federal API key configured, federal searches will be rejected upstream")
	}
	for _, a := range adapters {
		// Soft: one unreachable upstream degrades readiness, it does not
		// fail it — the other sources and stale cache entries still serve.
		if p, ok := a.(source.Pinger); ok {
			checker.RegisterSoft("source:"+string(a.ID()), health.Probe(p.Ping))
		}
	}

	browseAll := make(map[orchestrator.BrowseKey]bool)
	for id, src := range map[record.SourceID]config.SourceConfig{
		record.SourceFederal:       cfg.Sources.Federal,
		record.SourceCityLobbying:  cfg.Sources.CityLobbying,
		record.SourceCityContracts: cfg.Sources.CityContracts,
	} {
		for _, t := range src.BrowseAllTypes {
			browseAll[orchestrator.BrowseKey{Source: id, Type: query.SearchType(t)}] = true
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var collector *analytics.Collector
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Analytics.Brokers, cfg.Analytics.Topic)
		defer producer.Close()
		collector = analytics.NewCollector(producer, cfg.Analytics.BufferSize)
		collector.Start(ctx)
		defer collector.Close()
	}

	orch := orchestrator.New(adapters, resultCache, insights.NewEngine(cfg.Insights.TopN), collector, m, orchestrator.Options{
		TTLs: map[record.SourceID]time.Duration{
			record.SourceFederal:       cfg.Sources.Federal.CacheTTL,
			record.SourceCityLobbying:  cfg.Sources.CityLobbying.CacheTTL,
			record.SourceCityContracts: cfg.Sources.CityContracts.CacheTTL,
		},
		BrowseAll: browseAll,
		Retry: resilience.RetryConfig{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialDelay:   cfg.Retry.InitialDelay,
			MaxDelay:       cfg.Retry.MaxDelay,
			Multiplier:     cfg.Retry.Multiplier,
			JitterFraction: cfg.Retry.JitterFraction,
		},
		Deadline:         cfg.Search.Deadline,
		AttemptTimeout:   cfg.Retry.AttemptTimeout,
		DefaultPageSize:  cfg.Search.DefaultPageSize,
		MaxPageSize:      cfg.Search.MaxPageSize,
		InsightFetchSize: cfg.Insights.FetchSize,
	})

	handler := api.New(orch)
	router := api.NewRouter(handler, checker, m, api.RouterOptions{
		RequestTimeout:     cfg.Server.RequestTimeout,
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("api server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	if metricsShutdown != nil {
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	slog.Info("stopped")
}
