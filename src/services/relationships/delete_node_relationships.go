package relationships

import (
	"context"
	"fmt"

	"surfacegraph/src/domain"
	"surfacegraph/src/infra/postgres"
)

// DeleteForNode remove fisicamente todas as arestas que tocam o nó nos
// dois stores. É o gancho chamado quando um ativo sai do inventário; aqui
// o delete é hard porque a tombstone não teria mais dono.
func (s *RelationshipService) DeleteForNode(ctx context.Context, externalID string, nodeType domain.NodeType) (int64, error) {
	if externalID == "" {
		return 0, &domain.ValidationError{Message: "external_id is required", Field: "external_id"}
	}
	if !nodeType.Valid() {
		return 0, &domain.ValidationError{Message: fmt.Sprintf("unknown node type '%s'", nodeType), Field: "node_type"}
	}

	var deletedCount int64

	err := s.txRunner.InTx(ctx, func(q postgres.Querier) error {
		count, err := s.store.HardDeleteByNode(ctx, q, externalID, nodeType)
		if err != nil {
			return err
		}
		deletedCount = count

		if err := s.mirror.DeleteAllForNode(ctx, nodeType, externalID); err != nil {
			s.logger.Error("Failed to delete node relationships from graph store",
				"node_type", nodeType, "external_id", externalID, "error", err)
			return err
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.invalidatePathCaches(externalID)

	if deletedCount > 0 {
		s.logger.Info("Deleted relationships for node",
			"node_type", nodeType, "external_id", externalID, "deleted_count", deletedCount)
	}

	return deletedCount, nil
}
