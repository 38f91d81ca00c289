package test_seeder

import (
	"context"
	"encoding/json"
	"surfacegraph/src/domain/entities"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const relationshipSelectColumns = `id, source_external_id, source_type, target_external_id, target_type,
			  relation_type, edge_key, properties, is_deleted, deleted_at, created_at, updated_at, created_by`

func (ts TestSeeder) SelectRelationshipByID(ctx context.Context, id uuid.UUID) (entities.Relationship, error) {
	query := `SELECT ` + relationshipSelectColumns + `
			  FROM asset_relationships WHERE id = $1`

	row := ts.pool.QueryRow(ctx, query, id)
	return scanSeededRelationship(row)
}

// SelectRelationshipsBySource retrieves all rows where the given external id is the source,
// soft-deleted ones included.
func (ts TestSeeder) SelectRelationshipsBySource(ctx context.Context, sourceExternalID string) ([]entities.Relationship, error) {
	query := `SELECT ` + relationshipSelectColumns + `
			  FROM asset_relationships
			  WHERE source_external_id = $1
			  ORDER BY created_at ASC, id ASC`

	rows, err := ts.pool.Query(ctx, query, sourceExternalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relationships []entities.Relationship
	for rows.Next() {
		relationship, err := scanSeededRelationship(rows)
		if err != nil {
			return nil, err
		}
		relationships = append(relationships, relationship)
	}

	return relationships, rows.Err()
}

func (ts TestSeeder) CountRelationships(ctx context.Context) (int64, error) {
	var total int64
	err := ts.pool.QueryRow(ctx, `SELECT COUNT(*) FROM asset_relationships`).Scan(&total)
	return total, err
}

func scanSeededRelationship(row pgx.Row) (entities.Relationship, error) {
	var relationship entities.Relationship
	var propertiesJSON []byte
	var deletedAt pgtype.Timestamptz
	var createdBy pgtype.Text

	err := row.Scan(
		&relationship.ID,
		&relationship.SourceExternalID,
		&relationship.SourceType,
		&relationship.TargetExternalID,
		&relationship.TargetType,
		&relationship.RelationType,
		&relationship.EdgeKey,
		&propertiesJSON,
		&relationship.IsDeleted,
		&deletedAt,
		&relationship.CreatedAt,
		&relationship.UpdatedAt,
		&createdBy,
	)
	if err != nil {
		return entities.Relationship{}, err
	}

	if len(propertiesJSON) > 0 {
		if err := json.Unmarshal(propertiesJSON, &relationship.Properties); err != nil {
			return entities.Relationship{}, err
		}
	}
	if relationship.Properties == nil {
		relationship.Properties = map[string]any{}
	}

	if deletedAt.Valid {
		relationship.DeletedAt = &deletedAt.Time
	}
	if createdBy.Valid {
		relationship.CreatedBy = &createdBy.String
	}

	return relationship, nil
}
