package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"surfacegraph/src/domain"
	"surfacegraph/src/domain/entities"
	"surfacegraph/src/infra/postgres"
)

// Colunas devolvidas por todas as consultas de relacionamento, na ordem
// esperada por scanRelationship.
const relationshipColumns = `
	id, source_external_id, source_type, target_external_id, target_type,
	relation_type, edge_key, properties, is_deleted, deleted_at,
	created_at, updated_at, created_by`

// RelationshipRepository é o acesso à tabela asset_relationships, a fonte
// da verdade das arestas. Os métodos recebem o Querier explicitamente:
// pool para leituras avulsas, transação quando o serviço coordena a
// escrita com a projeção no grafo.
type RelationshipRepository struct{}

func NewRelationshipRepository() *RelationshipRepository {
	return &RelationshipRepository{}
}

// Create insere a aresta e devolve a linha completa. Violação da
// constraint de unicidade vira ConflictError, que é o controle de
// concorrência do caminho de criação.
func (r *RelationshipRepository) Create(ctx context.Context, q postgres.Querier, request domain.CreateRelationshipRequest) (entities.Relationship, error) {
	propertiesJSON, err := json.Marshal(request.Properties)
	if err != nil {
		return entities.Relationship{}, fmt.Errorf("RelationshipRepository.Create - failed to marshal properties: %w", err)
	}

	query := `
		INSERT INTO asset_relationships
			(id, source_external_id, source_type, target_external_id, target_type, relation_type, edge_key, properties, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + relationshipColumns

	row := q.QueryRow(ctx, query,
		uuid.New(),
		request.SourceExternalID,
		request.SourceType,
		request.TargetExternalID,
		request.TargetType,
		request.RelationType,
		request.EdgeKey,
		propertiesJSON,
		postgres.NewNullString(request.CreatedBy),
	)

	relationship, err := scanRelationship(row)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return entities.Relationship{}, &domain.ConflictError{
				Resource: "Relationship",
				Field:    "unique_key",
				Value:    fmt.Sprintf("%s->%s:%s", request.SourceExternalID, request.TargetExternalID, request.RelationType),
			}
		}
		return entities.Relationship{}, &domain.StoreError{Op: "RelationshipRepository.Create", Err: err}
	}

	return relationship, nil
}

// GetByID busca a aresta pelo id gerado. Por padrão linhas soft-deletadas
// não aparecem; includeDeleted expõe tambem as tombstones.
func (r *RelationshipRepository) GetByID(ctx context.Context, q postgres.Querier, id uuid.UUID, includeDeleted bool) (entities.Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM asset_relationships WHERE id = $1`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}

	relationship, err := scanRelationship(q.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return entities.Relationship{}, &domain.NotFoundError{Resource: "Relationship", ID: id.String()}
		}
		return entities.Relationship{}, &domain.StoreError{Op: "RelationshipRepository.GetByID", Err: err}
	}

	return relationship, nil
}

// GetByNaturalKey busca a aresta pela sêxtupla de negócio. O caminho de
// criação usa includeDeleted=true para enxergar tombstones que ocupam a
// constraint de unicidade.
func (r *RelationshipRepository) GetByNaturalKey(ctx context.Context, q postgres.Querier, key domain.NaturalKey, includeDeleted bool) (entities.Relationship, error) {
	query := `
		SELECT ` + relationshipColumns + `
		FROM asset_relationships
		WHERE source_external_id = $1
		  AND source_type = $2
		  AND target_external_id = $3
		  AND target_type = $4
		  AND relation_type = $5
		  AND edge_key = $6`
	if !includeDeleted {
		query += ` AND is_deleted = FALSE`
	}

	relationship, err := scanRelationship(q.QueryRow(ctx, query,
		key.SourceExternalID,
		key.SourceType,
		key.TargetExternalID,
		key.TargetType,
		key.RelationType,
		key.EdgeKey,
	))
	if err != nil {
		if postgres.IsNoRows(err) {
			return entities.Relationship{}, &domain.NotFoundError{Resource: "Relationship", ID: key.String()}
		}
		return entities.Relationship{}, &domain.StoreError{Op: "RelationshipRepository.GetByNaturalKey", Err: err}
	}

	return relationship, nil
}

// Paginate lista as arestas que casam com o filtro, ordenadas por
// (created_at, id) para manter as páginas estáveis entre chamadas.
func (r *RelationshipRepository) Paginate(ctx context.Context, q postgres.Querier, filter domain.ListRelationshipsFilter, page int, pageSize int) (domain.Page[entities.Relationship], error) {
	whereClause, args := buildListWhereClause(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM asset_relationships` + whereClause
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return domain.Page[entities.Relationship]{}, &domain.StoreError{Op: "RelationshipRepository.Paginate", Err: err}
	}

	listQuery := fmt.Sprintf(
		`SELECT %s FROM asset_relationships%s ORDER BY created_at ASC, id ASC LIMIT $%d OFFSET $%d`,
		relationshipColumns, whereClause, len(args)+1, len(args)+2,
	)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := q.Query(ctx, listQuery, args...)
	if err != nil {
		return domain.Page[entities.Relationship]{}, &domain.StoreError{Op: "RelationshipRepository.Paginate", Err: err}
	}
	defer rows.Close()

	items := make([]entities.Relationship, 0, pageSize)
	for rows.Next() {
		relationship, err := scanRelationship(rows)
		if err != nil {
			return domain.Page[entities.Relationship]{}, &domain.StoreError{Op: "RelationshipRepository.Paginate", Err: err}
		}
		items = append(items, relationship)
	}
	if err := rows.Err(); err != nil {
		return domain.Page[entities.Relationship]{}, &domain.StoreError{Op: "RelationshipRepository.Paginate", Err: err}
	}

	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
	}

	return domain.Page[entities.Relationship]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// UpdateProperties substitui o mapa de propriedades de uma aresta ativa.
// O merge com as propriedades atuais acontece no serviço.
func (r *RelationshipRepository) UpdateProperties(ctx context.Context, q postgres.Querier, id uuid.UUID, properties map[string]any) (entities.Relationship, error) {
	propertiesJSON, err := json.Marshal(properties)
	if err != nil {
		return entities.Relationship{}, fmt.Errorf("RelationshipRepository.UpdateProperties - failed to marshal properties: %w", err)
	}

	query := `
		UPDATE asset_relationships
		SET properties = $2, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
		RETURNING ` + relationshipColumns

	relationship, err := scanRelationship(q.QueryRow(ctx, query, id, propertiesJSON))
	if err != nil {
		if postgres.IsNoRows(err) {
			return entities.Relationship{}, &domain.NotFoundError{Resource: "Relationship", ID: id.String()}
		}
		return entities.Relationship{}, &domain.StoreError{Op: "RelationshipRepository.UpdateProperties", Err: err}
	}

	return relationship, nil
}

// SoftDelete marca a aresta como deletada preservando a linha, que continua
// ocupando a chave natural. Devolve false quando não havia aresta ativa.
func (r *RelationshipRepository) SoftDelete(ctx context.Context, q postgres.Querier, id uuid.UUID) (bool, error) {
	query := `
		UPDATE asset_relationships
		SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE`

	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return false, &domain.StoreError{Op: "RelationshipRepository.SoftDelete", Err: err}
	}

	return tag.RowsAffected() > 0, nil
}

// Restore reativa uma aresta soft-deletada mantendo o id original.
// properties nil preserva as propriedades atuais; createdBy nil idem.
func (r *RelationshipRepository) Restore(ctx context.Context, q postgres.Querier, id uuid.UUID, properties map[string]any, createdBy *string) (entities.Relationship, error) {
	setClauses := []string{"is_deleted = FALSE", "deleted_at = NULL", "updated_at = NOW()"}
	args := []any{id}

	if properties != nil {
		propertiesJSON, err := json.Marshal(properties)
		if err != nil {
			return entities.Relationship{}, fmt.Errorf("RelationshipRepository.Restore - failed to marshal properties: %w", err)
		}
		args = append(args, propertiesJSON)
		setClauses = append(setClauses, fmt.Sprintf("properties = $%d", len(args)))
	}

	if createdBy != nil {
		args = append(args, *createdBy)
		setClauses = append(setClauses, fmt.Sprintf("created_by = $%d", len(args)))
	}

	query := fmt.Sprintf(
		`UPDATE asset_relationships SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(setClauses, ", "), relationshipColumns,
	)

	relationship, err := scanRelationship(q.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsNoRows(err) {
			return entities.Relationship{}, &domain.NotFoundError{Resource: "Relationship", ID: id.String()}
		}
		return entities.Relationship{}, &domain.StoreError{Op: "RelationshipRepository.Restore", Err: err}
	}

	return relationship, nil
}

// HardDeleteByNode remove fisicamente todas as arestas que tocam o nó,
// como origem ou como destino. Usado quando o ativo sai do inventário.
func (r *RelationshipRepository) HardDeleteByNode(ctx context.Context, q postgres.Querier, externalID string, nodeType domain.NodeType) (int64, error) {
	query := `
		DELETE FROM asset_relationships
		WHERE (source_external_id = $1 AND source_type = $2)
		   OR (target_external_id = $1 AND target_type = $2)`

	tag, err := q.Exec(ctx, query, externalID, nodeType)
	if err != nil {
		return 0, &domain.StoreError{Op: "RelationshipRepository.HardDeleteByNode", Err: err}
	}

	return tag.RowsAffected(), nil
}

func buildListWhereClause(filter domain.ListRelationshipsFilter) (string, []any) {
	conditions := make([]string, 0, 7)
	args := make([]any, 0, 6)

	addCondition := func(column string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if filter.SourceExternalID != nil {
		addCondition("source_external_id", *filter.SourceExternalID)
	}
	if filter.SourceType != nil {
		addCondition("source_type", *filter.SourceType)
	}
	if filter.TargetExternalID != nil {
		addCondition("target_external_id", *filter.TargetExternalID)
	}
	if filter.TargetType != nil {
		addCondition("target_type", *filter.TargetType)
	}
	if filter.RelationType != nil {
		addCondition("relation_type", *filter.RelationType)
	}
	if filter.EdgeKey != nil {
		addCondition("edge_key", *filter.EdgeKey)
	}
	if !filter.IncludeDeleted {
		conditions = append(conditions, "is_deleted = FALSE")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRelationship(row rowScanner) (entities.Relationship, error) {
	var (
		relationship   entities.Relationship
		propertiesJSON []byte
		deletedAt      pgtype.Timestamptz
		createdBy      pgtype.Text
	)

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
			return entities.Relationship{}, fmt.Errorf("failed to unmarshal properties: %w", err)
		}
	}
	if relationship.Properties == nil {
		relationship.Properties = map[string]any{}
	}

	if deletedAt.Valid {
		t := deletedAt.Time
		relationship.DeletedAt = &t
	}
	if createdBy.Valid {
		s := createdBy.String
		relationship.CreatedBy = &s
	}

	return relationship, nil
}
