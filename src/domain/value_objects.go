package domain

import (
	"fmt"
	"strings"
)

const (
	DefaultEdgeKey = "default"

	MaxExternalIDLength = 255
	MaxEdgeKeyLength    = 255
	MaxCreatedByLength  = 100

	DefaultPageSize = 20
	MaxPageSize     = 100

	DefaultMinDepth  = 1
	DefaultMaxDepth  = 4
	DefaultPathLimit = 20
	MaxPathLimit     = 100
)

// ############################################################
// ######### PROCESSO DE ESCRITA DOS RELACIONAMENTOS ##########
// ############################################################

// CreateRelationshipRequest descreve uma aresta a criar. EdgeKey distingue
// arestas paralelas de mesmo tipo entre o mesmo par de nós.
type CreateRelationshipRequest struct {
	SourceExternalID string
	SourceType       NodeType
	TargetExternalID string
	TargetType       NodeType
	RelationType     RelationType
	EdgeKey          string
	Properties       map[string]any
	CreatedBy        *string
}

// Normalize aplica os defaults do contrato antes da validação.
func (r *CreateRelationshipRequest) Normalize() {
	if r.EdgeKey == "" {
		r.EdgeKey = DefaultEdgeKey
	}
	if r.Properties == nil {
		r.Properties = map[string]any{}
	}
}

func (r CreateRelationshipRequest) Validate() error {
	if err := validateExternalID("source_external_id", r.SourceExternalID); err != nil {
		return err
	}
	if err := validateExternalID("target_external_id", r.TargetExternalID); err != nil {
		return err
	}
	if !r.SourceType.Valid() {
		return &ValidationError{Message: fmt.Sprintf("unknown node type '%s'", r.SourceType), Field: "source_type"}
	}
	if !r.TargetType.Valid() {
		return &ValidationError{Message: fmt.Sprintf("unknown node type '%s'", r.TargetType), Field: "target_type"}
	}
	if len(r.EdgeKey) > MaxEdgeKeyLength {
		return &ValidationError{Message: fmt.Sprintf("edge_key must have at most %d characters", MaxEdgeKeyLength), Field: "edge_key"}
	}
	if r.CreatedBy != nil && len(*r.CreatedBy) > MaxCreatedByLength {
		return &ValidationError{Message: fmt.Sprintf("created_by must have at most %d characters", MaxCreatedByLength), Field: "created_by"}
	}

	return ValidateRelationTypes(r.RelationType, r.SourceType, r.TargetType)
}

// NaturalKey devolve a chave natural da aresta, a mesma sêxtupla coberta
// pela constraint de unicidade do Postgres.
func (r CreateRelationshipRequest) NaturalKey() NaturalKey {
	return NaturalKey{
		SourceExternalID: r.SourceExternalID,
		SourceType:       r.SourceType,
		TargetExternalID: r.TargetExternalID,
		TargetType:       r.TargetType,
		RelationType:     r.RelationType,
		EdgeKey:          r.EdgeKey,
	}
}

// NaturalKey identifica uma aresta pela sêxtupla de negócio, independente
// do id gerado pelo store.
type NaturalKey struct {
	SourceExternalID string
	SourceType       NodeType
	TargetExternalID string
	TargetType       NodeType
	RelationType     RelationType
	EdgeKey          string
}

func (k NaturalKey) String() string {
	return fmt.Sprintf("%s->%s:%s:%s", k.SourceExternalID, k.TargetExternalID, k.RelationType, k.EdgeKey)
}

// MergeProperties devolve a união dos dois mapas; chaves de updates vencem,
// chaves ausentes em updates são preservadas de base.
func MergeProperties(base map[string]any, updates map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(updates))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range updates {
		merged[key] = value
	}
	return merged
}

func validateExternalID(field string, value string) error {
	if value == "" {
		return &ValidationError{Message: fmt.Sprintf("%s is required", field), Field: field}
	}
	if len(value) > MaxExternalIDLength {
		return &ValidationError{Message: fmt.Sprintf("%s must have at most %d characters", field, MaxExternalIDLength), Field: field}
	}
	return nil
}

// ############################################################
// ############## PROCESSO DE LISTAGEM PAGINADA ###############
// ############################################################

// ListRelationshipsFilter é a conjunção opcional de filtros da listagem.
// Campos nil não filtram.
type ListRelationshipsFilter struct {
	SourceExternalID *string
	SourceType       *NodeType
	TargetExternalID *string
	TargetType       *NodeType
	RelationType     *RelationType
	EdgeKey          *string
	IncludeDeleted   bool
}

// Page é o envelope padrão de paginação das listagens.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// ############################################################
// ############# PROCESSO DE CONSULTA DE CAMINHOS #############
// ############################################################

// PathDirection define o sentido da travessia a partir do nó de origem.
type PathDirection string

const (
	PathDirectionOut  PathDirection = "OUT"
	PathDirectionIn   PathDirection = "IN"
	PathDirectionBoth PathDirection = "BOTH"
)

func (d PathDirection) Valid() bool {
	switch d {
	case PathDirectionOut, PathDirectionIn, PathDirectionBoth:
		return true
	}
	return false
}

// PathQuery descreve uma busca de caminhos entre dois nós, limitada em
// profundidade e quantidade de resultados.
type PathQuery struct {
	SourceExternalID string
	TargetExternalID string
	SourceType       *NodeType
	TargetType       *NodeType
	RelationTypes    []RelationType
	Direction        PathDirection
	MinDepth         int
	MaxDepth         int
	Limit            int
}

// Normalize aplica os defaults do contrato antes da validação.
func (q *PathQuery) Normalize() {
	if q.Direction == "" {
		q.Direction = PathDirectionBoth
	}
	if q.MinDepth == 0 {
		q.MinDepth = DefaultMinDepth
	}
	if q.MaxDepth == 0 {
		q.MaxDepth = DefaultMaxDepth
	}
	if q.Limit == 0 {
		q.Limit = DefaultPathLimit
	}
}

func (q PathQuery) Validate() error {
	if err := validateExternalID("source_external_id", q.SourceExternalID); err != nil {
		return err
	}
	if err := validateExternalID("target_external_id", q.TargetExternalID); err != nil {
		return err
	}
	if q.SourceType != nil && !q.SourceType.Valid() {
		return &ValidationError{Message: fmt.Sprintf("unknown node type '%s'", *q.SourceType), Field: "source_type"}
	}
	if q.TargetType != nil && !q.TargetType.Valid() {
		return &ValidationError{Message: fmt.Sprintf("unknown node type '%s'", *q.TargetType), Field: "target_type"}
	}

	for _, relationType := range q.RelationTypes {
		if !relationType.Valid() {
			return &ValidationError{Message: fmt.Sprintf("unknown relation_type '%s'", relationType), Field: "relation_types"}
		}
	}

	if !q.Direction.Valid() {
		return &ValidationError{
			Message: fmt.Sprintf("direction must be one of %s", strings.Join([]string{string(PathDirectionOut), string(PathDirectionIn), string(PathDirectionBoth)}, ", ")),
			Field:   "direction",
		}
	}

	if q.MinDepth < 1 {
		return &ValidationError{Message: "min_depth must be >= 1", Field: "min_depth"}
	}
	if q.MaxDepth < q.MinDepth {
		return &ValidationError{Message: "max_depth must be >= min_depth", Field: "max_depth"}
	}
	if q.Limit < 1 || q.Limit > MaxPathLimit {
		return &ValidationError{Message: fmt.Sprintf("limit must be between 1 and %d", MaxPathLimit), Field: "limit"}
	}

	return nil
}

// PathNode é um nó materializado de um caminho devolvido pelo grafo.
type PathNode struct {
	ID         string         `json:"id"`
	Labels     []string       `json:"labels"`
	Properties map[string]any `json:"properties"`
}

// PathEdge é uma aresta de um caminho. ID pode vir vazio para arestas
// criadas fora deste subsistema.
type PathEdge struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Path é um caminho completo, com nós e arestas na ordem da travessia.
type Path struct {
	Nodes         []PathNode `json:"nodes"`
	Relationships []PathEdge `json:"relationships"`
}
