package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"surfacegraph/src/domain"
	"surfacegraph/src/domain/entities"
	"surfacegraph/src/infra/neo4j"
)

// GraphMirrorRepository projeta as arestas relacionais como relacionamentos
// nativos no Neo4j. A projeção é idempotente: todos os MERGE usam o id da
// aresta como chave, então reaplicar a mesma escrita converge sem duplicar.
type GraphMirrorRepository struct {
	logger *slog.Logger
	client *neo4j.Neo4jClient
}

func NewGraphMirrorRepository(logger *slog.Logger, client *neo4j.Neo4jClient) *GraphMirrorRepository {
	return &GraphMirrorRepository{
		logger: logger,
		client: client,
	}
}

// Upsert materializa os nós das pontas e a aresta entre eles. Os labels e o
// tipo são interpolados direto no Cypher porque vêm dos enums fechados do
// domínio, nunca de entrada livre.
func (r *GraphMirrorRepository) Upsert(ctx context.Context, relationship entities.Relationship) error {
	cypher := fmt.Sprintf(`
		MERGE (source:%s {id: $source_id})
		MERGE (target:%s {id: $target_id})
		MERGE (source)-[rel:%s {id: $rel_id}]->(target)
		SET rel += $properties`,
		relationship.SourceType, relationship.TargetType, relationship.RelationType,
	)

	params := map[string]any{
		"source_id":  relationship.SourceExternalID,
		"target_id":  relationship.TargetExternalID,
		"rel_id":     relationship.ID.String(),
		"properties": buildMirrorProperties(relationship),
	}

	if _, err := r.client.ExecuteWrite(ctx, cypher, params); err != nil {
		return &domain.StoreError{Op: "GraphMirrorRepository.Upsert", Err: err}
	}

	r.logger.Debug("Synced relationship to graph", "relationship_id", relationship.ID, "relation_type", relationship.RelationType)
	return nil
}

// Delete remove a aresta do grafo pelo id. Aresta inexistente não casa com
// o MATCH e a operação termina sem erro, o que mantém o delete idempotente.
func (r *GraphMirrorRepository) Delete(ctx context.Context, relationshipID uuid.UUID) error {
	cypher := `MATCH ()-[rel {id: $rel_id}]-() DELETE rel`

	params := map[string]any{
		"rel_id": relationshipID.String(),
	}

	if _, err := r.client.ExecuteWrite(ctx, cypher, params); err != nil {
		return &domain.StoreError{Op: "GraphMirrorRepository.Delete", Err: err}
	}

	r.logger.Debug("Deleted relationship from graph", "relationship_id", relationshipID)
	return nil
}

// DeleteAllForNode remove todas as arestas que tocam o nó, em qualquer
// direção. O nó em si fica; quem é dono dele é o inventário.
func (r *GraphMirrorRepository) DeleteAllForNode(ctx context.Context, nodeType domain.NodeType, externalID string) error {
	cypher := fmt.Sprintf(`MATCH (node:%s {id: $node_id})-[rel]-() DELETE rel`, nodeType)

	params := map[string]any{
		"node_id": externalID,
	}

	if _, err := r.client.ExecuteWrite(ctx, cypher, params); err != nil {
		return &domain.StoreError{Op: "GraphMirrorRepository.DeleteAllForNode", Err: err}
	}

	r.logger.Debug("Deleted node relationships from graph", "node_type", nodeType, "external_id", externalID)
	return nil
}

// buildMirrorProperties denormaliza a aresta nas propriedades do grafo para
// que as travessias não precisem voltar ao Postgres.
func buildMirrorProperties(relationship entities.Relationship) map[string]any {
	properties := make(map[string]any, len(relationship.Properties)+7)
	for key, value := range relationship.Properties {
		properties[key] = value
	}

	properties["edge_key"] = relationship.EdgeKey
	properties["source_external_id"] = relationship.SourceExternalID
	properties["source_type"] = string(relationship.SourceType)
	properties["target_external_id"] = relationship.TargetExternalID
	properties["target_type"] = string(relationship.TargetType)
	properties["created_at"] = relationship.CreatedAt.UTC().Format(time.RFC3339)
	properties["updated_at"] = relationship.UpdatedAt.UTC().Format(time.RFC3339)

	if relationship.CreatedBy != nil {
		properties["created_by"] = *relationship.CreatedBy
	}

	return properties
}
