package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/moviex/internal/services"
	"github.com/urfave/cli/v3"
)

// CacheStatus reports whether the configured Redis response cache answers a ping.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	if r.config == nil || r.config.Cache.RedisURL == "" {
		return r.writePlain("Response cache disabled (set [cache] redis_url or MOVIEX_REDIS_URL)\n")
	}

	ctx, cancel := context.WithTimeout(ctx, cacheDialTimeout)
	defer cancel()

	started := time.Now()
	cache, err := services.DialRedisCache(ctx, r.config.Cache.RedisURL)
	if err != nil {
		return fmt.Errorf("cache unreachable: %w", err)
	}
	defer cache.Close()

	r.writePlain("✓ Redis reachable (%s)\n", time.Since(started).Round(time.Millisecond))
	r.writePlain("  TTL: %s\n", r.config.Cache.TTL())
	return nil
}
