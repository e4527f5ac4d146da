package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	types "github.com/lucavoss/adeptly-backend/internal/domain"
	"github.com/lucavoss/adeptly-backend/internal/platform/envutil"
	"github.com/lucavoss/adeptly-backend/internal/platform/logger"

	"github.com/google/uuid"
)

const sessionKeyPrefix = "session:"

// SessionCache is the ephemeral store for live sessions. Entries carry a TTL
// equal to the maximum session duration; a missing entry means the session is
// unknown or has expired.
type SessionCache interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*types.LiveSession, error)
	Set(ctx context.Context, live *types.LiveSession, ttl time.Duration) error
	Delete(ctx context.Context, sessionID uuid.UUID) error
	Close() error
}

type sessionCache struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewSessionCache(log *logger.Logger) (SessionCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(envutil.String("REDIS_ADDR", ""))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &sessionCache{
		log: log.With("service", "RedisSessionCache"),
		rdb: rdb,
	}, nil
}

func (c *sessionCache) Get(ctx context.Context, sessionID uuid.UUID) (*types.LiveSession, error) {
	raw, err := c.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, err
	}
	var live types.LiveSession
	if err := json.Unmarshal(raw, &live); err != nil {
		return nil, fmt.Errorf("decode live session: %w", err)
	}
	return &live, nil
}

func (c *sessionCache) Set(ctx context.Context, live *types.LiveSession, ttl time.Duration) error {
	if live == nil {
		return fmt.Errorf("live session required")
	}
	raw, err := json.Marshal(live)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, sessionKey(live.SessionID), raw, ttl).Err()
}

func (c *sessionCache) Delete(ctx context.Context, sessionID uuid.UUID) error {
	return c.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func (c *sessionCache) Close() error {
	return c.rdb.Close()
}

func sessionKey(id uuid.UUID) string {
	return sessionKeyPrefix + id.String()
}
