package relationships

import (
	"context"
	"fmt"

	"surfacegraph/src/domain"
	"surfacegraph/src/domain/entities"
	"surfacegraph/src/infra/postgres"
)

// Create valida as regras de tipagem e cria a aresta nos dois stores.
// Se a chave natural está ocupada por uma aresta ativa devolve Conflict;
// se está ocupada por uma tombstone, restaura a mesma linha (mesmo id)
// com as propriedades mescladas em vez de criar outra.
func (s *RelationshipService) Create(ctx context.Context, request domain.CreateRelationshipRequest) (entities.Relationship, error) {
	request.Normalize()
	if err := request.Validate(); err != nil {
		return entities.Relationship{}, err
	}

	var created entities.Relationship

	err := s.txRunner.InTx(ctx, func(q postgres.Querier) error {
		existing, err := s.store.GetByNaturalKey(ctx, q, request.NaturalKey(), true)

		switch {
		case err == nil && !existing.IsDeleted:
			return &domain.ConflictError{
				Resource: "Relationship",
				Field:    "unique_key",
				Value:    fmt.Sprintf("%s->%s:%s", request.SourceExternalID, request.TargetExternalID, request.RelationType),
			}

		case err == nil:
			// Tombstone ocupa a constraint de unicidade: reativar a linha
			// preserva o id e o histórico de propriedades da aresta.
			merged := domain.MergeProperties(existing.Properties, request.Properties)
			restored, err := s.store.Restore(ctx, q, existing.ID, merged, request.CreatedBy)
			if err != nil {
				return err
			}
			created = restored

		case domain.IsNotFound(err):
			relationship, err := s.store.Create(ctx, q, request)
			if err != nil {
				return err
			}
			created = relationship

		default:
			return err
		}

		// A falha da projeção precisa subir para abortar a transação relacional.
		if err := s.mirror.Upsert(ctx, created); err != nil {
			s.logger.Error("Failed to sync relationship to graph store", "relationship_id", created.ID, "error", err)
			return err
		}

		return nil
	})
	if err != nil {
		return entities.Relationship{}, err
	}

	s.invalidatePathCaches(created.SourceExternalID, created.TargetExternalID)

	s.logger.Info("Created relationship",
		"relationship_id", created.ID,
		"relation_type", created.RelationType,
		"source", created.SourceExternalID,
		"target", created.TargetExternalID,
	)

	return created, nil
}
