package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/opsloop/internal/config"
	"github.com/fyrsmithlabs/opsloop/internal/embeddings"
	"github.com/fyrsmithlabs/opsloop/internal/feedback"
	"github.com/fyrsmithlabs/opsloop/internal/learning"
	"github.com/fyrsmithlabs/opsloop/internal/logging"
	"github.com/fyrsmithlabs/opsloop/internal/memory"
	"github.com/fyrsmithlabs/opsloop/internal/planning"
	"github.com/fyrsmithlabs/opsloop/internal/vectorstore"
)

// app holds the wired components for one CLI invocation. Everything is
// constructed here and passed down explicitly; no component reaches for
// globals.
type app struct {
	config *config.Config
	logger *zap.Logger

	redisClient redis.UniversalClient
	vectors     *vectorstore.QdrantStore

	collector *feedback.Collector
	store     *feedback.Store
	memory    *memory.VectorMemory
	manager   *learning.Manager
	improver  *planning.Improver
}

// newApp loads configuration and wires the full component graph.
func newApp(ctx context.Context, prompter feedback.Prompter) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	redisClient, err := newRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}

	vectors, err := vectorstore.NewQdrantStore(cfg.Qdrant)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	embedder, err := embeddings.NewService(cfg.Embeddings, logger)
	if err != nil {
		return nil, fmt.Errorf("building embedding service: %w", err)
	}

	mem, err := memory.NewVectorMemory(ctx, vectors, embedder, cfg.Memory.CollectionName, cfg.Embeddings.VectorSize, logger)
	if err != nil {
		return nil, fmt.Errorf("building long-term memory: %w", err)
	}

	// Commands that never prompt pass a nil prompter and get no collector.
	var collector *feedback.Collector
	if prompter != nil {
		collector, err = feedback.NewCollector(cfg.CollectorConfig(), prompter, logger)
		if err != nil {
			return nil, fmt.Errorf("building feedback collector: %w", err)
		}
	}

	store, err := feedback.NewStore(ctx, cfg.StoreConfig(), redisClient, vectors, embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("building feedback store: %w", err)
	}

	manager, err := learning.NewManager(cfg.LearningConfig(), mem, logger)
	if err != nil {
		return nil, fmt.Errorf("building learning manager: %w", err)
	}

	improver, err := planning.NewImprover(mem, logger)
	if err != nil {
		return nil, fmt.Errorf("building plan improver: %w", err)
	}

	return &app{
		config:      cfg,
		logger:      logger,
		redisClient: redisClient,
		vectors:     vectors,
		collector:   collector,
		store:       store,
		memory:      mem,
		manager:     manager,
		improver:    improver,
	}, nil
}

// close releases external connections.
func (a *app) close() {
	if a.vectors != nil {
		_ = a.vectors.Close()
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func newRedisClient(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return client, nil
}
