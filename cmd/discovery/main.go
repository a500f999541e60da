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

	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/internal/engine"
	"github.com/fernwehlabs/discovery/internal/server"
	"github.com/fernwehlabs/discovery/pkg/config"
	"github.com/fernwehlabs/discovery/pkg/health"
	"github.com/fernwehlabs/discovery/pkg/kafka"
	"github.com/fernwehlabs/discovery/pkg/logger"
	"github.com/fernwehlabs/discovery/pkg/metrics"
	"github.com/fernwehlabs/discovery/pkg/middleware"
	"github.com/fernwehlabs/discovery/pkg/postgres"
	pkgredis "github.com/fernwehlabs/discovery/pkg/redis"
	"github.com/fernwehlabs/discovery/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	demo := flag.Bool("demo", false, "serve a built-in sample corpus instead of postgres")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting discovery service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var provider corpus.Provider
	var pgClient *postgres.Client
	if *demo {
		provider = corpus.NewStaticProvider(demoCorpus())
		slog.Info("running in demo mode with built-in sample corpus")
	} else {
		pgClient, err = postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pgClient.Close()
		provider = corpus.NewPostgresProvider(pgClient)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownMetrics(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
		slog.Info("metrics server started", "port", cfg.Metrics.Port)
	}

	var resultCache *server.ResultCache
	var popularity *server.RedisPopularity
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, result caching and popularity priors disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		resultCache = server.NewResultCache(redisClient, cfg.Redis)
		popularity = server.NewRedisPopularity(redisClient)
		slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	opts := []engine.Option{}
	if popularity != nil {
		opts = append(opts, engine.WithPopularity(popularity))
	}
	if m != nil {
		opts = append(opts, engine.WithMetrics(m))
	}
	eng := engine.New(provider, cfg.Engine, opts...)
	defer eng.Close()

	// The first build retries: postgres may still be warming up when the
	// service starts under orchestration.
	err = resilience.Retry(ctx, "initial_build", resilience.RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 2 * time.Second,
		MaxDelay:     30 * time.Second,
	}, func() error {
		return eng.Build(ctx)
	})
	if err != nil {
		slog.Error("initial engine build failed", "error", err)
		os.Exit(1)
	}
	slog.Info("discovery engine ready", "status", eng.CurrentStatus())

	var rebuildProducer *kafka.Producer
	if !*demo {
		rebuildProducer = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RebuildComplete)
		defer rebuildProducer.Close()

		// content.updated events trigger a full rebuild. Rebuilds are
		// single-flighted inside the engine, so a burst of updates coalesces.
		contentConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ContentUpdated,
			func(ctx context.Context, key, value []byte) error {
				slog.Info("content update received, rebuilding", "key", string(key))
				if err := eng.Rebuild(ctx); err != nil {
					return fmt.Errorf("rebuild: %w", err)
				}
				if resultCache != nil {
					if err := resultCache.Invalidate(ctx); err != nil {
						slog.Error("cache invalidation failed", "error", err)
					}
				}
				if err := rebuildProducer.Publish(ctx, kafka.Event{
					Key:   "rebuild",
					Value: eng.CurrentStatus(),
				}); err != nil {
					slog.Error("failed to publish rebuild-complete event", "error", err)
				}
				return nil
			})
		go func() {
			if err := contentConsumer.Start(ctx); err != nil && ctx.Err() == nil {
				slog.Error("content consumer stopped", "error", err)
			}
		}()
		slog.Info("content update consumer started", "topic", cfg.Kafka.Topics.ContentUpdated)
	}

	checker := health.NewChecker()
	checker.Register("engine", func(ctx context.Context) health.ComponentHealth {
		if eng.Ready() {
			status := eng.CurrentStatus()
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d posts indexed", status.Posts),
			}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: eng.State().String()}
	})
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := server.New(eng, resultCache, rebuildProducer, m, cfg.Search, cfg.Engine.Recommendation.MaxResults)

	mux := http.NewServeMux()
	h.Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("discovery service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("discovery service stopped")
}
