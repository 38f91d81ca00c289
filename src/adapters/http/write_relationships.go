package http

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

func (s *Server) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var dto CreateRelationshipDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponseDTO{Detail: "Invalid JSON payload"})
		return
	}

	relationship, err := s.relationshipService.Create(r.Context(), dto.ToDomain())
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, MapRelationshipToResponse(relationship))
}

func (s *Server) UpdateRelationship(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponseDTO{Detail: "Invalid relationship id format"})
		return
	}

	var dto UpdateRelationshipDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponseDTO{Detail: "Invalid JSON payload"})
		return
	}

	relationship, err := s.relationshipService.UpdateProperties(r.Context(), id, dto.Properties)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MapRelationshipToResponse(relationship))
}

func (s *Server) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponseDTO{Detail: "Invalid relationship id format"})
		return
	}

	if err := s.relationshipService.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponseDTO{
		Success: true,
		Message: "Relationship deleted",
	})
}
