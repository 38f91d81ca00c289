package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	client     *redis.ClusterClient
	defaultTTL time.Duration
	prefix     string
}

func NewRedisClient(addrs string, poolSize int, defaultTTL time.Duration) *RedisClient {
	client := redis.NewClusterClient(&redis.ClusterOptions{
		Addrs: strings.Split(addrs, ","),

		// Pool settings para alta concorrência
		PoolSize:     poolSize,
		MinIdleConns: 10,

		// Cluster específico
		MaxRedirects: 3,

		// Timeouts otimizados para cache
		DialTimeout:  5 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,

		// Retry e circuit breaker
		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	return &RedisClient{
		client:     client,
		defaultTTL: defaultTTL,
	}
}

// WithPrefix devolve uma visão do client que prefixa todas as chaves.
// Os testes de integração usam isso para isolar e limpar o que criaram.
func (rc *RedisClient) WithPrefix(prefix string) *RedisClient {
	clone := *rc
	clone.prefix = prefix
	return &clone
}

func (rc *RedisClient) prefixed(key string) string {
	return rc.prefix + key
}

func (rc *RedisClient) SetKey(ctx context.Context, key string, value string) error {
	fields := map[string]interface{}{
		"data":      value,
		"cached_at": time.Now().Unix(),
	}

	err := rc.client.HSet(ctx, rc.prefixed(key), fields).Err()
	if err != nil {
		return err
	}

	return rc.client.Expire(ctx, rc.prefixed(key), rc.defaultTTL).Err()
}

func (rc *RedisClient) SetWithRegistry(ctx context.Context, cacheKey string, cacheValue string, registryKeys []string) error {
	pipe := rc.client.Pipeline()

	// 1. Set do cache principal
	fields := map[string]interface{}{
		"data":      cacheValue,
		"cached_at": time.Now().Unix(),
	}
	pipe.HSet(ctx, rc.prefixed(cacheKey), fields)
	pipe.Expire(ctx, rc.prefixed(cacheKey), rc.defaultTTL)

	// 2. Registro reverso: cada chave de registro aponta para os caches
	// que precisam cair quando o nó dela mudar
	for _, registryKey := range registryKeys {
		pipe.SAdd(ctx, rc.prefixed(registryKey), cacheKey)
		pipe.Expire(ctx, rc.prefixed(registryKey), rc.defaultTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (rc *RedisClient) GetKey(ctx context.Context, key string) (string, bool, error) {
	result := rc.client.HGet(ctx, rc.prefixed(key), "data")

	// Cache miss
	if result.Err() == redis.Nil {
		return "", false, nil
	}
	if result.Err() != nil {
		return "", false, result.Err()
	}

	return result.Val(), true, nil
}

// GetMultipleSetMembers devolve, por chave de registro, os membros do set.
// Chaves vazias ou inexistentes voltam sem entrada no mapa.
func (rc *RedisClient) GetMultipleSetMembers(ctx context.Context, keys []string) (map[string][]string, error) {
	members := make(map[string][]string, len(keys))

	for _, key := range keys {
		values, err := rc.client.SMembers(ctx, rc.prefixed(key)).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("failed to read set members of %s: %w", key, err)
		}
		if len(values) > 0 {
			members[key] = values
		}
	}

	return members, nil
}

// Invalidação em cluster requer cuidado especial: DEL multi-chave pode
// cruzar slots, então apagamos uma a uma.
func (rc *RedisClient) DeleteKeys(ctx context.Context, keys []string) error {
	var errors []string

	for _, key := range keys {
		if err := rc.client.Del(ctx, rc.prefixed(key)).Err(); err != nil {
			errors = append(errors, fmt.Sprintf("key %s: %v", key, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("invalidation errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// FlushByPrefix varre cada master do cluster e apaga as chaves do prefixo
// configurado em WithPrefix. Só os testes chamam isso.
func (rc *RedisClient) FlushByPrefix(ctx context.Context) error {
	if rc.prefix == "" {
		return fmt.Errorf("FlushByPrefix requires a prefix, refusing to flush everything")
	}

	return rc.client.ForEachMaster(ctx, func(ctx context.Context, master *redis.Client) error {
		iter := master.Scan(ctx, 0, rc.prefix+"*", 100).Iterator()

		for iter.Next(ctx) {
			if err := master.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}

		return iter.Err()
	})
}

// Health check para o cluster
func (rc *RedisClient) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}
