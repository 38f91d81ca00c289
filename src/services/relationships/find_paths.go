package relationships

import (
	"context"

	"surfacegraph/src/domain"
)

// FindPaths delega a consulta de caminhos ao grafo. A normalização e a
// validação dos limites acontecem no PathFinder, antes de qualquer I/O.
func (s *RelationshipService) FindPaths(ctx context.Context, query domain.PathQuery) ([]domain.Path, error) {
	paths, err := s.pathFinder.FindPaths(ctx, query)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Path query completed",
		"source", query.SourceExternalID, "target", query.TargetExternalID, "paths_found", len(paths))

	return paths, nil
}
