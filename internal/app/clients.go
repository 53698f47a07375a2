package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/greenlight-backend/internal/data/cache"
	"github.com/yungbote/greenlight-backend/internal/domain/curriculum"
	"github.com/yungbote/greenlight-backend/internal/domain/progress"
	"github.com/yungbote/greenlight-backend/internal/observability"
	"github.com/yungbote/greenlight-backend/internal/pkg/logger"
)

type Clients struct {
	Redis     *goredis.Client
	Snapshots cache.Store[*curriculum.Snapshot]
	Boards    cache.Store[*progress.Board]
}

// wireClients connects redis when REDIS_ADDR is set and falls back to
// in-process caches otherwise.
func wireClients(ctx context.Context, log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	var c Clients
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis: %w", err)
		}
		c.Redis = rdb
		c.Snapshots = cache.NewRedisStore[*curriculum.Snapshot](rdb, "greenlight", cfg.CacheTTL)
		c.Boards = cache.NewRedisStore[*progress.Board](rdb, "greenlight", cfg.CacheTTL)
		log.Info("redis cache enabled", "addr", cfg.Redis.Addr)
	} else {
		c.Snapshots = cache.NewMemoryStore[*curriculum.Snapshot](cfg.CacheTTL)
		c.Boards = cache.NewMemoryStore[*progress.Board](cfg.CacheTTL)
	}
	c.Snapshots = cache.WithMetrics(c.Snapshots, "snapshot", metrics)
	c.Boards = cache.WithMetrics(c.Boards, "board", metrics)
	return c, nil
}

func (c Clients) Close() error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Close()
}
