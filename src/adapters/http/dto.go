package http

import (
	"encoding/json"
	"net/http"
	"time"

	"surfacegraph/src/domain"
	"surfacegraph/src/domain/entities"
)

type RelationshipDTO struct {
	ID               string         `json:"id"`
	SourceExternalID string         `json:"source_external_id"`
	SourceType       string         `json:"source_type"`
	TargetExternalID string         `json:"target_external_id"`
	TargetType       string         `json:"target_type"`
	RelationType     string         `json:"relation_type"`
	EdgeKey          string         `json:"edge_key"`
	Properties       map[string]any `json:"properties"`
	IsDeleted        bool           `json:"is_deleted"`
	DeletedAt        *time.Time     `json:"deleted_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	CreatedBy        *string        `json:"created_by,omitempty"`
}

type CreateRelationshipDTO struct {
	SourceExternalID string         `json:"source_external_id"`
	SourceType       string         `json:"source_type"`
	TargetExternalID string         `json:"target_external_id"`
	TargetType       string         `json:"target_type"`
	RelationType     string         `json:"relation_type"`
	EdgeKey          string         `json:"edge_key"`
	Properties       map[string]any `json:"properties"`
	CreatedBy        *string        `json:"created_by"`
}

func (dto CreateRelationshipDTO) ToDomain() domain.CreateRelationshipRequest {
	return domain.CreateRelationshipRequest{
		SourceExternalID: dto.SourceExternalID,
		SourceType:       domain.NodeType(dto.SourceType),
		TargetExternalID: dto.TargetExternalID,
		TargetType:       domain.NodeType(dto.TargetType),
		RelationType:     domain.RelationType(dto.RelationType),
		EdgeKey:          dto.EdgeKey,
		Properties:       dto.Properties,
		CreatedBy:        dto.CreatedBy,
	}
}

type UpdateRelationshipDTO struct {
	Properties map[string]any `json:"properties"`
}

type PathQueryDTO struct {
	SourceExternalID string   `json:"source_external_id"`
	TargetExternalID string   `json:"target_external_id"`
	SourceType       *string  `json:"source_type"`
	TargetType       *string  `json:"target_type"`
	RelationTypes    []string `json:"relation_types"`
	Direction        string   `json:"direction"`
	MinDepth         int      `json:"min_depth"`
	MaxDepth         int      `json:"max_depth"`
	Limit            int      `json:"limit"`
}

func (dto PathQueryDTO) ToDomain() domain.PathQuery {
	query := domain.PathQuery{
		SourceExternalID: dto.SourceExternalID,
		TargetExternalID: dto.TargetExternalID,
		Direction:        domain.PathDirection(dto.Direction),
		MinDepth:         dto.MinDepth,
		MaxDepth:         dto.MaxDepth,
		Limit:            dto.Limit,
	}

	if dto.SourceType != nil {
		sourceType := domain.NodeType(*dto.SourceType)
		query.SourceType = &sourceType
	}
	if dto.TargetType != nil {
		targetType := domain.NodeType(*dto.TargetType)
		query.TargetType = &targetType
	}

	for _, relationType := range dto.RelationTypes {
		query.RelationTypes = append(query.RelationTypes, domain.RelationType(relationType))
	}

	return query
}

type PathsResponseDTO struct {
	Paths []domain.Path `json:"paths"`
	Total int           `json:"total"`
}

type DeleteResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DeletedCountDTO struct {
	DeletedCount int64 `json:"deleted_count"`
}

type ErrorResponseDTO struct {
	Detail string `json:"detail"`
}

func MapRelationshipToResponse(relationship entities.Relationship) RelationshipDTO {
	return RelationshipDTO{
		ID:               relationship.ID.String(),
		SourceExternalID: relationship.SourceExternalID,
		SourceType:       string(relationship.SourceType),
		TargetExternalID: relationship.TargetExternalID,
		TargetType:       string(relationship.TargetType),
		RelationType:     string(relationship.RelationType),
		EdgeKey:          relationship.EdgeKey,
		Properties:       relationship.Properties,
		IsDeleted:        relationship.IsDeleted,
		DeletedAt:        relationship.DeletedAt,
		CreatedAt:        relationship.CreatedAt,
		UpdatedAt:        relationship.UpdatedAt,
		CreatedBy:        relationship.CreatedBy,
	}
}

func MapPageToResponse(page domain.Page[entities.Relationship]) domain.Page[RelationshipDTO] {
	items := make([]RelationshipDTO, 0, len(page.Items))
	for _, relationship := range page.Items {
		items = append(items, MapRelationshipToResponse(relationship))
	}

	return domain.Page[RelationshipDTO]{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// writeError traduz os erros do domínio para o contrato HTTP. Qualquer
// erro não mapeado vira 500 com a mensagem genérica.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponseDTO{Detail: err.Error()})
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponseDTO{Detail: err.Error()})
	case domain.IsConflict(err):
		writeJSON(w, http.StatusConflict, ErrorResponseDTO{Detail: err.Error()})
	default:
		s.logger.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponseDTO{Detail: domain.ErrUnavailableServer.Error()})
	}
}
