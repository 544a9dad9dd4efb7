package orderthrottle

import (
	"github.com/redis/go-redis/v9"
	"github.com/sbansal6/alpaca-mcp-server/internal/config"
	"github.com/sbansal6/alpaca-mcp-server/internal/entity"
	"github.com/sirupsen/logrus"
)

// New picks the throttle for cfg. It returns nil when throttling is disabled,
// and falls back to memory when client is nil.
func New(cfg config.OrderThrottleConfig, client *redis.Client) entity.OrderThrottle {
	if cfg.MaxOrders <= 0 {
		return nil
	}

	if client == nil {
		logrus.WithFields(logrus.Fields{
			"max_orders": cfg.MaxOrders,
			"window":     cfg.Window.String(),
		}).Info("order throttle uses process memory")
		return NewMemoryThrottle(cfg.MaxOrders, cfg.Window)
	}

	logrus.WithFields(logrus.Fields{
		"max_orders": cfg.MaxOrders,
		"window":     cfg.Window.String(),
	}).Info("order throttle uses redis")
	return NewRedisThrottle(client, cfg.MaxOrders, cfg.Window, "")
}
