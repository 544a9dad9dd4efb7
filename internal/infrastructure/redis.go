package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sirupsen/logrus"
)

const (
	defaultRedisPingTimeout = 3 * time.Second
	defaultRedisPingRetries = 3
)

var ErrMissingRedisDSN = errors.New("redis cache dsn is required")

// NewRedisClient parses the redis URL in cfg and pings it before returning.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if strings.TrimSpace(cfg.CacheDSN) == "" {
		return nil, ErrMissingRedisDSN
	}

	options, err := redis.ParseURL(cfg.CacheDSN)
	if err != nil {
		return nil, fmt.Errorf("parse redis dsn: %w", err)
	}

	client := redis.NewClient(options)
	backoff := newJitterBackoff(defaultBackoffFactor, defaultMinJitter, defaultMaxJitter)

	for attempt := 0; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, defaultRedisPingTimeout)
		err = client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			logrus.WithField("addr", options.Addr).Info("redis connection established")
			return client, nil
		}

		if attempt+1 >= defaultRedisPingRetries {
			break
		}

		waitDuration := backoff.Delay(attempt)
		logrus.WithFields(logrus.Fields{
			"attempt":  attempt + 1,
			"retry_in": waitDuration.String(),
			"addr":     options.Addr,
		}).Warnf("redis ping failed: %v", err)

		select {
		case <-time.After(waitDuration):
		case <-ctx.Done():
			_ = client.Close()
			return nil, ctx.Err()
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("connect redis after %d attempts: %w", defaultRedisPingRetries, err)
}
