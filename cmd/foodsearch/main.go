package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/dataset"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/index"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/internal/searcher/planner"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/ratelimit"
	pkgredis "github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/taco-food-search/pkg/tracing"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to a YAML or TOML config file")
	transport := flag.String("transport", "", "override server.transport (http or stdio)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *transport != "" {
		cfg.Server.Transport = *transport
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "invalid transport: %v\n", err)
			os.Exit(1)
		}
	}

	// stdout carries protocol frames in stdio mode
	logOut := os.Stdout
	if cfg.Server.Transport == "stdio" {
		logOut = os.Stderr
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format, logOut)
	slog.Info("starting food search service",
		"transport", cfg.Server.Transport,
		"dataset_source", cfg.Dataset.Source,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ds, err := dataset.Load(ctx, cfg)
	if err != nil {
		slog.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	idx := index.Build(ds)
	slog.Info("text index built", "terms", idx.TermCount(), "docs", idx.DocCount())

	m := metrics.New(prometheus.DefaultRegisterer)
	m.DatasetFoods.Set(float64(ds.Len()))
	m.IndexTerms.Set(float64(idx.TermCount()))
	if cfg.Metrics.Enabled {
		stopMetrics, err := metrics.Listen(cfg.Metrics.Port, prometheus.DefaultGatherer)
		if err != nil {
			slog.Error("failed to start metrics server", "error", err)
			os.Exit(1)
		}
		defer stopMetrics(context.Background())
	}

	var redisClient *pkgredis.Client
	var store cache.Store
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(cfg.Redis, pkgredis.WithStateObserver(func(_, to resilience.State) {
			m.CircuitBreakerState.WithLabelValues("redis").Set(float64(to))
		}))
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			store = redisClient
			m.CircuitBreakerState.WithLabelValues("redis").Set(float64(resilience.StateClosed))
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	resultCache := cache.New(store, cfg.Redis.CacheTTL)

	var publisher analytics.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka)
		defer producer.Close()
		publisher = producer
		slog.Info("analytics publishing enabled", "topic", cfg.Kafka.AnalyticsTopic)
	}
	aggregator := analytics.NewAggregator()
	collector := analytics.NewCollector(aggregator, publisher,
		cfg.Kafka.CollectorBuffer, cfg.Kafka.BatchSize, cfg.Kafka.FlushInterval)
	collector.Start(ctx)
	defer collector.Close()

	p := planner.New(ds, idx, planner.WithBatchConcurrency(cfg.Search.BatchConcurrency))
	h := handler.New(handler.Deps{
		Planner:   p,
		Parser:    parser.New(cfg.Search.DefaultLimit, cfg.Search.MaxResults, cfg.Search.MaxBatchItems),
		Cache:     resultCache,
		Tracker:   collector,
		Analytics: aggregator,
		Metrics:   m,
		Tracer:    tracing.NewTracer(cfg.Tracing),
		Info:      protocol.Implementation{Name: cfg.Server.Name, Version: cfg.Server.Version},
	})

	if cfg.Server.Transport == "stdio" {
		if err := h.ServeStdio(ctx, os.Stdin, os.Stdout, cfg.Server.RequestTimeout); err != nil {
			slog.Error("stdio transport error", "error", err)
			os.Exit(1)
		}
		slog.Info("stdio transport closed")
		return
	}

	checker := health.NewChecker()
	checker.Register("dataset", func(ctx context.Context) health.ComponentHealth {
		if ds.Len() == 0 {
			return health.Degraded("dataset is empty")
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d foods", ds.Len())}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			if cfg.Redis.Enabled {
				return health.Degraded("unreachable at startup, caching disabled")
			}
			return health.ComponentHealth{Status: health.StatusUp, Message: "disabled"}
		}
		res := health.Up()
		if err := redisClient.Ping(ctx); err != nil {
			res = health.Degraded(err.Error())
		}
		res.Detail = redisClient.Stats()
		return res
	})

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	chain := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.CORS(cfg.Server.AllowOrigins),
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		limiter := ratelimit.New(rl.Requests, rl.Window)
		go limiter.Run(ctx, rl.Window)
		chain = append(chain, middleware.RateLimit(limiter))
		slog.Info("rate limiting enabled", "requests", rl.Requests, "window", rl.Window)
	}
	chain = append(chain,
		middleware.Metrics(m, mux),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      middleware.Chain(mux, chain...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("food search service listening", "addr", server.Addr, "foods", ds.Len())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("food search service stopped")
}
