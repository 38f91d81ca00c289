package repositories

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"surfacegraph/src/domain"
	"surfacegraph/src/infra/redis"
)

// CachedPathRepository decora o PathQueryRepository com cache em Redis.
// Cada resultado entra com chaves de registro por nó de origem/destino,
// então derrubar um nó derruba todos os caminhos cacheados que o tocam.
// Falha de cache nunca derruba a consulta; degrada para o Neo4j.
type CachedPathRepository struct {
	logger              *slog.Logger
	pathQueryRepository *PathQueryRepository
	redisClient         *redis.RedisClient
}

func NewCachedPathRepository(
	logger *slog.Logger,
	pathQueryRepository *PathQueryRepository,
	redisClient *redis.RedisClient,
) *CachedPathRepository {
	return &CachedPathRepository{
		logger:              logger,
		pathQueryRepository: pathQueryRepository,
		redisClient:         redisClient,
	}
}

func (r *CachedPathRepository) FindPaths(ctx context.Context, query domain.PathQuery) ([]domain.Path, error) {
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	cacheKey := r.generateCacheKey(query)

	cachedPaths, found, err := r.getFromCache(ctx, cacheKey)
	if found && err == nil {
		r.logger.Debug("Path cache HIT", "key", cacheKey)
		return cachedPaths, nil
	}

	if err != nil {
		// Log erro de cache mas continua com o Neo4j
		r.logger.Warn("Path cache read failed", "key", cacheKey, "error", err)
	} else {
		r.logger.Debug("Path cache MISS", "key", cacheKey)
	}

	paths, err := r.pathQueryRepository.FindPaths(ctx, query)
	if err != nil {
		return nil, err
	}

	go func() {
		// Timeout de 30 segundos para operação de cache
		ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		r.setInCache(ctxWithTimeout, cacheKey, query, paths)
	}()

	return paths, nil
}

// InvalidateNodes derruba todos os caminhos cacheados que tocam os nós
// informados, via as chaves de registro gravadas junto com cada resultado.
func (r *CachedPathRepository) InvalidateNodes(ctx context.Context, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}

	registryKeys := make([]string, len(externalIDs))
	for i, externalID := range externalIDs {
		registryKeys[i] = fmt.Sprintf("registry:node:%s", externalID)
	}

	registryResults, err := r.redisClient.GetMultipleSetMembers(ctx, registryKeys)
	if err != nil {
		return fmt.Errorf("CachedPathRepository.InvalidateNodes - failed to get registry data: %w", err)
	}

	allKeysToDelete := make(map[string]bool)

	for registryKey, relatedKeys := range registryResults {
		// O próprio registro também cai
		allKeysToDelete[registryKey] = true

		for _, relatedKey := range relatedKeys {
			allKeysToDelete[relatedKey] = true
		}
	}

	keysToDelete := make([]string, 0, len(allKeysToDelete))
	for key := range allKeysToDelete {
		keysToDelete = append(keysToDelete, key)
	}

	if len(keysToDelete) > 0 {
		r.logger.Debug("Invalidating path cache keys", "keys", len(keysToDelete), "nodes", len(externalIDs))
		return r.redisClient.DeleteKeys(ctx, keysToDelete)
	}

	return nil
}

func (r *CachedPathRepository) generateCacheKey(query domain.PathQuery) string {
	sourceType := ""
	if query.SourceType != nil {
		sourceType = string(*query.SourceType)
	}

	targetType := ""
	if query.TargetType != nil {
		targetType = string(*query.TargetType)
	}

	relTypes := make([]string, len(query.RelationTypes))
	for i, relationType := range query.RelationTypes {
		relTypes[i] = string(relationType)
	}

	// String única com todos os parâmetros normalizados da consulta
	keyData := fmt.Sprintf("paths:%s:%s:%s:%s:%s:%s:depth:%d..%d:limit:%d",
		query.SourceExternalID,
		query.TargetExternalID,
		sourceType,
		targetType,
		strings.Join(relTypes, "|"),
		query.Direction,
		query.MinDepth,
		query.MaxDepth,
		query.Limit,
	)

	// Hash para chave mais limpa e consistente
	hash := md5.Sum([]byte(keyData))
	return fmt.Sprintf("graph:paths:%x", hash)
}

func (r *CachedPathRepository) getFromCache(ctx context.Context, cacheKey string) ([]domain.Path, bool, error) {
	cachedJSON, found, err := r.redisClient.GetKey(ctx, cacheKey)
	if !found || err != nil {
		return nil, found, err
	}

	var paths []domain.Path
	if err := json.Unmarshal([]byte(cachedJSON), &paths); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached paths: %w", err)
	}

	return paths, true, nil
}

func (r *CachedPathRepository) setInCache(ctx context.Context, cacheKey string, query domain.PathQuery, paths []domain.Path) {
	dataJSON, err := json.Marshal(paths)
	if err != nil {
		r.logger.Warn("Failed to marshal paths for cache", "key", cacheKey, "error", err)
		return
	}

	registryKeys := []string{
		fmt.Sprintf("registry:node:%s", query.SourceExternalID),
		fmt.Sprintf("registry:node:%s", query.TargetExternalID),
	}

	if err := r.redisClient.SetWithRegistry(ctx, cacheKey, string(dataJSON), registryKeys); err != nil {
		r.logger.Warn("Failed to set path cache with registry", "key", cacheKey, "error", err)
		return
	}

	r.logger.Debug("Path cache SET", "key", cacheKey, "paths", len(paths))
}
