package relationships

import (
	"context"

	"github.com/google/uuid"

	"surfacegraph/src/domain"
	"surfacegraph/src/domain/entities"
	"surfacegraph/src/infra/postgres"
)

// UpdateProperties aplica um patch de propriedades sobre a aresta: chaves
// do patch vencem, as demais são preservadas. O resultado substitui o mapa
// inteiro nos dois stores, então reaplicar o mesmo patch é idempotente.
func (s *RelationshipService) UpdateProperties(ctx context.Context, id uuid.UUID, properties map[string]any) (entities.Relationship, error) {
	var updated entities.Relationship

	err := s.txRunner.InTx(ctx, func(q postgres.Querier) error {
		current, err := s.store.GetByID(ctx, q, id, false)
		if err != nil {
			return err
		}

		if len(properties) == 0 {
			updated = current
			return nil
		}

		merged := domain.MergeProperties(current.Properties, properties)

		relationship, err := s.store.UpdateProperties(ctx, q, id, merged)
		if err != nil {
			return err
		}
		updated = relationship

		if err := s.mirror.Upsert(ctx, updated); err != nil {
			s.logger.Error("Failed to sync updated relationship to graph store", "relationship_id", id, "error", err)
			return err
		}

		return nil
	})
	if err != nil {
		return entities.Relationship{}, err
	}

	s.invalidatePathCaches(updated.SourceExternalID, updated.TargetExternalID)

	s.logger.Info("Updated relationship properties", "relationship_id", id)

	return updated, nil
}
