package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/yourusername/quizpin-api/internal/pkg/errors"
)

// Максимальное время одной операции с кешем. Кеш обслуживает горячий путь
// (резолв пина, срезы лидерборда), поэтому зависшая операция хуже промаха.
const cacheOpTimeout = 2 * time.Second

// CacheRepo реализует repository.CacheRepository поверх Redis.
// Хранит как волатильные записи с TTL (резолв пина, глобальный лидерборд),
// так и бессрочные снимки лидербордов завершенных сессий.
type CacheRepo struct {
	client redis.UniversalClient
}

// NewCacheRepo создает новый репозиторий кеша
func NewCacheRepo(client redis.UniversalClient) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for CacheRepo")
	}
	return &CacheRepo{client: client}, nil
}

func (r *CacheRepo) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), cacheOpTimeout)
}

// Set сохраняет строковое значение. Нулевой expiration означает ключ без TTL.
func (r *CacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	ctx, cancel := r.opCtx()
	defer cancel()
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Get возвращает строковое значение по ключу.
// Для отсутствующего ключа возвращает apperrors.ErrNotFound.
func (r *CacheRepo) Get(key string) (string, error) {
	ctx, cancel := r.opCtx()
	defer cancel()

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.ErrNotFound
		}
		return "", err
	}
	return val, nil
}

// Delete удаляет ключ. Удаление отсутствующего ключа не является ошибкой.
func (r *CacheRepo) Delete(key string) error {
	ctx, cancel := r.opCtx()
	defer cancel()
	return r.client.Del(ctx, key).Err()
}

// SetJSON сериализует значение в JSON и сохраняет его под ключом
func (r *CacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %q: %w", key, err)
	}

	ctx, cancel := r.opCtx()
	defer cancel()
	return r.client.Set(ctx, key, data, expiration).Err()
}

// GetJSON читает значение по ключу и десериализует его в dest.
// Для отсутствующего ключа возвращает apperrors.ErrNotFound.
func (r *CacheRepo) GetJSON(key string, dest interface{}) error {
	ctx, cancel := r.opCtx()
	defer cancel()

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// Exists проверяет существование ключа
func (r *CacheRepo) Exists(key string) (bool, error) {
	ctx, cancel := r.opCtx()
	defer cancel()

	result, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
