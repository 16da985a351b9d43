package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RestoreGuard реализует RestoreGuard через SET NX
// Ключи видны всем инстансам сервиса
type RestoreGuard struct {
	client redis.Cmdable
	logger *zap.Logger
}

// NewRestoreGuard создаёт guard поверх client
func NewRestoreGuard(client redis.Cmdable, logger *zap.Logger) *RestoreGuard {
	return &RestoreGuard{
		client: client,
		logger: logger,
	}
}

// Claim ставит key с ttl, только если его ещё нет
func (g *RestoreGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		g.logger.Error("failed to claim restore key in redis",
			zap.Error(err),
			zap.String("key", key),
		)
		return false, fmt.Errorf("claim %s: %w", key, err)
	}

	if !ok {
		g.logger.Debug("restore key already claimed", zap.String("key", key))
	}
	return ok, nil
}

// Release удаляет key
// Отсутствующий ключ не ошибка
func (g *RestoreGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}
