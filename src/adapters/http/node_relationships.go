package http

import (
	"net/http"

	"surfacegraph/src/domain"
)

// DeleteNodeRelationships é o gancho de saída de inventário: remove todas
// as arestas que tocam o nó, nos dois stores. Devolve 200 com o total
// removido mesmo quando o nó não tinha arestas.
func (s *Server) DeleteNodeRelationships(w http.ResponseWriter, r *http.Request) {
	nodeType := domain.NodeType(r.PathValue("node_type"))
	externalID := r.PathValue("external_id")

	deletedCount, err := s.relationshipService.DeleteForNode(r.Context(), externalID, nodeType)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeletedCountDTO{DeletedCount: deletedCount})
}
