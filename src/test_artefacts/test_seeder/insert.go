package test_seeder

import (
	"context"
	"encoding/json"
	"fmt"
	"surfacegraph/src/domain/entities"
	"surfacegraph/src/infra/postgres"
)

// InsertRelationship inserts a relationship row into the database for testing
func (ts TestSeeder) InsertRelationship(ctx context.Context, relationship *entities.Relationship) {
	propertiesJSON, err := json.Marshal(relationship.Properties)
	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertRelationship marshal failed: %v", err))
	}

	query := `
		INSERT INTO asset_relationships
			(id, source_external_id, source_type, target_external_id, target_type,
			 relation_type, edge_key, properties, is_deleted, deleted_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	deletedAt := postgres.NewNullTime(relationship.DeletedAt)
	createdBy := postgres.NewNullString(relationship.CreatedBy)

	err = ts.pool.QueryRow(ctx, query,
		relationship.ID,
		relationship.SourceExternalID,
		relationship.SourceType,
		relationship.TargetExternalID,
		relationship.TargetType,
		relationship.RelationType,
		relationship.EdgeKey,
		propertiesJSON,
		relationship.IsDeleted,
		deletedAt,
		createdBy,
	).Scan(&relationship.CreatedAt, &relationship.UpdatedAt)

	if err != nil {
		panic(fmt.Sprintf("Seeder.InsertRelationship failed: %v", err))
	}
}
