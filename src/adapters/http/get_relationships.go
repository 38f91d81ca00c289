package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"surfacegraph/src/domain"
)

func (s *Server) GetRelationship(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponseDTO{Detail: "Invalid relationship id format"})
		return
	}

	includeDeleted := r.URL.Query().Get("include_deleted") == "true"

	relationship, err := s.relationshipService.Get(r.Context(), id, includeDeleted)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MapRelationshipToResponse(relationship))
}

func (s *Server) ListRelationships(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := domain.ListRelationshipsFilter{
		IncludeDeleted: query.Get("include_deleted") == "true",
	}

	if value := query.Get("source_external_id"); value != "" {
		filter.SourceExternalID = &value
	}
	if value := query.Get("target_external_id"); value != "" {
		filter.TargetExternalID = &value
	}
	if value := query.Get("edge_key"); value != "" {
		filter.EdgeKey = &value
	}

	if value := query.Get("source_type"); value != "" {
		nodeType := domain.NodeType(value)
		if !nodeType.Valid() {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponseDTO{Detail: fmt.Sprintf("unknown node type '%s'", value)})
			return
		}
		filter.SourceType = &nodeType
	}
	if value := query.Get("target_type"); value != "" {
		nodeType := domain.NodeType(value)
		if !nodeType.Valid() {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponseDTO{Detail: fmt.Sprintf("unknown node type '%s'", value)})
			return
		}
		filter.TargetType = &nodeType
	}
	if value := query.Get("relation_type"); value != "" {
		relationType := domain.RelationType(value)
		if !relationType.Valid() {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponseDTO{Detail: fmt.Sprintf("unknown relation_type '%s'", value)})
			return
		}
		filter.RelationType = &relationType
	}

	page := 1
	if value := query.Get("page"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponseDTO{Detail: "Invalid page format"})
			return
		}
		page = parsed
	}

	pageSize := domain.DefaultPageSize
	if value := query.Get("page_size"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 {
			writeJSON(w, http.StatusBadRequest, ErrorResponseDTO{Detail: "Invalid page_size format"})
			return
		}
		pageSize = parsed
	}

	result, err := s.relationshipService.Paginate(r.Context(), filter, page, pageSize)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MapPageToResponse(result))
}
