package http

import (
	"encoding/json"
	"net/http"
)

// QueryPaths executa uma consulta de caminhos entre dois nós. Consulta é
// POST porque o corpo carrega a especificação completa da travessia.
func (s *Server) QueryPaths(w http.ResponseWriter, r *http.Request) {
	var dto PathQueryDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponseDTO{Detail: "Invalid JSON payload"})
		return
	}

	paths, err := s.relationshipService.FindPaths(r.Context(), dto.ToDomain())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PathsResponseDTO{
		Paths: paths,
		Total: len(paths),
	})
}
