package relationships

import (
	"context"

	"github.com/google/uuid"

	"surfacegraph/src/domain"
	"surfacegraph/src/infra/postgres"
)

// Delete soft-deleta a aresta no relacional e a remove do grafo. A linha
// vira tombstone e segue ocupando a chave natural; um Create posterior com
// a mesma chave restaura o mesmo id.
func (s *RelationshipService) Delete(ctx context.Context, id uuid.UUID) error {
	var sourceExternalID, targetExternalID string

	err := s.txRunner.InTx(ctx, func(q postgres.Querier) error {
		relationship, err := s.store.GetByID(ctx, q, id, false)
		if err != nil {
			return err
		}
		sourceExternalID = relationship.SourceExternalID
		targetExternalID = relationship.TargetExternalID

		deleted, err := s.store.SoftDelete(ctx, q, id)
		if err != nil {
			return err
		}
		if !deleted {
			return &domain.NotFoundError{Resource: "Relationship", ID: id.String()}
		}

		// Aresta soft-deletada não pode continuar atravessável no grafo.
		if err := s.mirror.Delete(ctx, id); err != nil {
			s.logger.Error("Failed to delete relationship from graph store", "relationship_id", id, "error", err)
			return err
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.invalidatePathCaches(sourceExternalID, targetExternalID)

	s.logger.Info("Deleted relationship", "relationship_id", id)

	return nil
}
