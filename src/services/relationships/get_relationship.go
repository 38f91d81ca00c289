package relationships

import (
	"context"

	"github.com/google/uuid"

	"surfacegraph/src/domain"
	"surfacegraph/src/domain/entities"
)

// Get busca a aresta pelo id. includeDeleted expõe também as tombstones.
func (s *RelationshipService) Get(ctx context.Context, id uuid.UUID, includeDeleted bool) (entities.Relationship, error) {
	return s.store.GetByID(ctx, s.readQuerier, id, includeDeleted)
}

// Paginate lista as arestas que casam com o filtro, com clamp dos
// parâmetros de página para os limites do contrato.
func (s *RelationshipService) Paginate(ctx context.Context, filter domain.ListRelationshipsFilter, page int, pageSize int) (domain.Page[entities.Relationship], error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = domain.DefaultPageSize
	}
	if pageSize > domain.MaxPageSize {
		pageSize = domain.MaxPageSize
	}

	return s.store.Paginate(ctx, s.readQuerier, filter, page, pageSize)
}
