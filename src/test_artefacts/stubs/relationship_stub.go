package stubs

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"surfacegraph/src/domain"
	"surfacegraph/src/domain/entities"
)

type RelationshipStub struct {
	relationship entities.Relationship
}

func NewRelationshipStub() RelationshipStub {
	now := time.Now().UTC()

	relationship := entities.Relationship{
		ID:               uuid.New(),
		SourceExternalID: fmt.Sprintf("org-%s", gofakeit.UUID()),
		SourceType:       domain.NodeTypeOrganization,
		TargetExternalID: gofakeit.DomainName(),
		TargetType:       domain.NodeTypeDomain,
		RelationType:     domain.RelationTypeOwnsDomain,
		EdgeKey:          domain.DefaultEdgeKey,
		Properties: map[string]any{
			"source":     "scanner",
			"confidence": 0.95,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return RelationshipStub{relationship: relationship}
}

func (rs RelationshipStub) WithSource(externalID string, nodeType domain.NodeType) RelationshipStub {
	rs.relationship.SourceExternalID = externalID
	rs.relationship.SourceType = nodeType
	return rs
}

func (rs RelationshipStub) WithTarget(externalID string, nodeType domain.NodeType) RelationshipStub {
	rs.relationship.TargetExternalID = externalID
	rs.relationship.TargetType = nodeType
	return rs
}

func (rs RelationshipStub) WithRelationType(relationType domain.RelationType) RelationshipStub {
	rs.relationship.RelationType = relationType
	return rs
}

func (rs RelationshipStub) WithEdgeKey(edgeKey string) RelationshipStub {
	rs.relationship.EdgeKey = edgeKey
	return rs
}

func (rs RelationshipStub) WithProperties(properties map[string]any) RelationshipStub {
	rs.relationship.Properties = properties
	return rs
}

func (rs RelationshipStub) WithCreatedBy(createdBy string) RelationshipStub {
	rs.relationship.CreatedBy = &createdBy
	return rs
}

func (rs RelationshipStub) WithDeleted() RelationshipStub {
	now := time.Now().UTC()
	rs.relationship.IsDeleted = true
	rs.relationship.DeletedAt = &now
	return rs
}

func (rs RelationshipStub) Get() entities.Relationship {
	return rs.relationship
}

// CreateRequest devolve o request de criação equivalente ao stub, útil nos
// specs do serviço.
func (rs RelationshipStub) CreateRequest() domain.CreateRelationshipRequest {
	return domain.CreateRelationshipRequest{
		SourceExternalID: rs.relationship.SourceExternalID,
		SourceType:       rs.relationship.SourceType,
		TargetExternalID: rs.relationship.TargetExternalID,
		TargetType:       rs.relationship.TargetType,
		RelationType:     rs.relationship.RelationType,
		EdgeKey:          rs.relationship.EdgeKey,
		Properties:       rs.relationship.Properties,
		CreatedBy:        rs.relationship.CreatedBy,
	}
}
