package relationships

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"surfacegraph/src/domain"
	"surfacegraph/src/domain/entities"
	"surfacegraph/src/infra/postgres"
)

// Store é a representação relacional autoritativa das arestas.
type Store interface {
	Create(ctx context.Context, q postgres.Querier, request domain.CreateRelationshipRequest) (entities.Relationship, error)
	GetByID(ctx context.Context, q postgres.Querier, id uuid.UUID, includeDeleted bool) (entities.Relationship, error)
	GetByNaturalKey(ctx context.Context, q postgres.Querier, key domain.NaturalKey, includeDeleted bool) (entities.Relationship, error)
	Paginate(ctx context.Context, q postgres.Querier, filter domain.ListRelationshipsFilter, page int, pageSize int) (domain.Page[entities.Relationship], error)
	UpdateProperties(ctx context.Context, q postgres.Querier, id uuid.UUID, properties map[string]any) (entities.Relationship, error)
	SoftDelete(ctx context.Context, q postgres.Querier, id uuid.UUID) (bool, error)
	Restore(ctx context.Context, q postgres.Querier, id uuid.UUID, properties map[string]any, createdBy *string) (entities.Relationship, error)
	HardDeleteByNode(ctx context.Context, q postgres.Querier, externalID string, nodeType domain.NodeType) (int64, error)
}

// GraphMirror é a projeção das arestas no store de grafo.
type GraphMirror interface {
	Upsert(ctx context.Context, relationship entities.Relationship) error
	Delete(ctx context.Context, relationshipID uuid.UUID) error
	DeleteAllForNode(ctx context.Context, nodeType domain.NodeType, externalID string) error
}

// PathFinder executa consultas de caminho no grafo.
type PathFinder interface {
	FindPaths(ctx context.Context, query domain.PathQuery) ([]domain.Path, error)
}

// PathCacheInvalidator derruba caches de caminho que tocam os nós afetados
// por uma escrita. Pode ser nil quando não há cache no deploy.
type PathCacheInvalidator interface {
	InvalidateNodes(ctx context.Context, externalIDs []string) error
}

// RelationshipService coordena os dois stores. Toda escrita roda dentro de
// uma transação relacional que só commita depois que a projeção no grafo
// deu certo; assim o pior caso de falha deixa o grafo na frente, e o
// reprocessamento converge porque a projeção é idempotente.
type RelationshipService struct {
	logger           *slog.Logger
	txRunner         postgres.TxRunner
	readQuerier      postgres.Querier
	store            Store
	mirror           GraphMirror
	pathFinder       PathFinder
	cacheInvalidator PathCacheInvalidator
}

func NewRelationshipService(
	logger *slog.Logger,
	txRunner postgres.TxRunner,
	readQuerier postgres.Querier,
	store Store,
	mirror GraphMirror,
	pathFinder PathFinder,
	cacheInvalidator PathCacheInvalidator,
) *RelationshipService {
	return &RelationshipService{
		logger:           logger,
		txRunner:         txRunner,
		readQuerier:      readQuerier,
		store:            store,
		mirror:           mirror,
		pathFinder:       pathFinder,
		cacheInvalidator: cacheInvalidator,
	}
}

// invalidatePathCaches derruba em background os caminhos cacheados que
// tocam os nós alterados, depois que a escrita já commitou.
func (s *RelationshipService) invalidatePathCaches(externalIDs ...string) {
	if s.cacheInvalidator == nil || len(externalIDs) == 0 {
		return
	}

	ids := make([]string, len(externalIDs))
	copy(ids, externalIDs)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.cacheInvalidator.InvalidateNodes(ctx, ids); err != nil {
			s.logger.Warn("Failed to invalidate path caches", "external_ids", ids, "error", err)
		}
	}()
}
