package entities

import (
	"time"

	"github.com/google/uuid"

	"surfacegraph/src/domain"
)

// É a "aresta" do nosso grafo: liga dois ativos do inventário pela chave
// de negócio deles. A linha relacional é a fonte da verdade; o Neo4j é
// apenas a projeção de consulta.
type Relationship struct {
	ID               uuid.UUID           `json:"id"`
	SourceExternalID string              `json:"source_external_id"`
	SourceType       domain.NodeType     `json:"source_type"`
	TargetExternalID string              `json:"target_external_id"`
	TargetType       domain.NodeType     `json:"target_type"`
	RelationType     domain.RelationType `json:"relation_type"`
	EdgeKey          string              `json:"edge_key"`
	Properties       map[string]any      `json:"properties"`
	IsDeleted        bool                `json:"is_deleted"`
	DeletedAt        *time.Time          `json:"deleted_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	CreatedBy        *string             `json:"created_by,omitempty"`
}

// NaturalKey devolve a sêxtupla de negócio que identifica a aresta.
func (r Relationship) NaturalKey() domain.NaturalKey {
	return domain.NaturalKey{
		SourceExternalID: r.SourceExternalID,
		SourceType:       r.SourceType,
		TargetExternalID: r.TargetExternalID,
		TargetType:       r.TargetType,
		RelationType:     r.RelationType,
		EdgeKey:          r.EdgeKey,
	}
}
