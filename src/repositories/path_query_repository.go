package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	neo4jdriver "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"surfacegraph/src/domain"
	"surfacegraph/src/infra/neo4j"
)

// PathQueryRepository executa as consultas de caminho no grafo. A travessia
// inteira roda numa única query de comprimento variável, com direção, tipos
// e profundidade embutidos no padrão para o planner do Neo4j podar a busca.
type PathQueryRepository struct {
	logger *slog.Logger
	client *neo4j.Neo4jClient
}

func NewPathQueryRepository(logger *slog.Logger, client *neo4j.Neo4jClient) *PathQueryRepository {
	return &PathQueryRepository{
		logger: logger,
		client: client,
	}
}

// FindPaths valida a consulta, monta o Cypher e materializa os caminhos.
// Nenhum I/O acontece antes da validação passar.
func (r *PathQueryRepository) FindPaths(ctx context.Context, query domain.PathQuery) ([]domain.Path, error) {
	query.Normalize()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	cypher, params := BuildPathCypher(query)

	records, err := r.client.ExecuteRead(ctx, cypher, params)
	if err != nil {
		return nil, &domain.StoreError{Op: "PathQueryRepository.FindPaths", Err: err}
	}

	paths := make([]domain.Path, 0, len(records))
	for _, record := range records {
		path, err := parsePathRecord(record)
		if err != nil {
			return nil, fmt.Errorf("PathQueryRepository.FindPaths - failed to parse path record: %w", err)
		}
		paths = append(paths, path)
	}

	r.logger.Debug("Path query executed",
		"source", query.SourceExternalID, "target", query.TargetExternalID, "paths_found", len(paths))

	return paths, nil
}

// BuildPathCypher monta o MATCH de comprimento variável da consulta. Labels
// e tipos de relação são interpolados porque vêm dos enums do domínio; os
// identificadores dos nós e o limite entram como parâmetros.
func BuildPathCypher(query domain.PathQuery) (string, map[string]any) {
	sourceLabel := ""
	if query.SourceType != nil {
		sourceLabel = ":" + string(*query.SourceType)
	}

	targetLabel := ""
	if query.TargetType != nil {
		targetLabel = ":" + string(*query.TargetType)
	}

	relTypePattern := ""
	if len(query.RelationTypes) > 0 {
		names := make([]string, len(query.RelationTypes))
		for i, relationType := range query.RelationTypes {
			names[i] = string(relationType)
		}
		relTypePattern = ":" + strings.Join(names, "|")
	}

	depthPattern := fmt.Sprintf("%d..%d", query.MinDepth, query.MaxDepth)

	var relPattern string
	switch query.Direction {
	case domain.PathDirectionOut:
		relPattern = fmt.Sprintf("-[rels%s*%s]->", relTypePattern, depthPattern)
	case domain.PathDirectionIn:
		relPattern = fmt.Sprintf("<-[rels%s*%s]-", relTypePattern, depthPattern)
	default:
		relPattern = fmt.Sprintf("-[rels%s*%s]-", relTypePattern, depthPattern)
	}

	cypher := fmt.Sprintf(`
		MATCH p = (s%s {id: $source_id})%s(t%s {id: $target_id})
		RETURN
			[n IN nodes(p) | {id: n.id, labels: labels(n), properties: properties(n)}] AS nodes,
			[r IN relationships(p) | {id: r.id, type: type(r), properties: properties(r)}] AS relationships
		LIMIT $limit`,
		sourceLabel, relPattern, targetLabel,
	)

	params := map[string]any{
		"source_id": query.SourceExternalID,
		"target_id": query.TargetExternalID,
		"limit":     query.Limit,
	}

	return cypher, params
}

func parsePathRecord(record *neo4jdriver.Record) (domain.Path, error) {
	path := domain.Path{
		Nodes:         []domain.PathNode{},
		Relationships: []domain.PathEdge{},
	}

	rawNodes, ok := record.Get("nodes")
	if !ok {
		return domain.Path{}, fmt.Errorf("record has no 'nodes' column")
	}
	nodeList, ok := rawNodes.([]any)
	if !ok {
		return domain.Path{}, fmt.Errorf("unexpected type %T for 'nodes' column", rawNodes)
	}
	for _, rawNode := range nodeList {
		nodeMap, ok := rawNode.(map[string]any)
		if !ok {
			return domain.Path{}, fmt.Errorf("unexpected type %T for path node", rawNode)
		}
		path.Nodes = append(path.Nodes, domain.PathNode{
			ID:         asString(nodeMap["id"]),
			Labels:     asStringSlice(nodeMap["labels"]),
			Properties: asMap(nodeMap["properties"]),
		})
	}

	rawRels, ok := record.Get("relationships")
	if !ok {
		return domain.Path{}, fmt.Errorf("record has no 'relationships' column")
	}
	relList, ok := rawRels.([]any)
	if !ok {
		return domain.Path{}, fmt.Errorf("unexpected type %T for 'relationships' column", rawRels)
	}
	for _, rawRel := range relList {
		relMap, ok := rawRel.(map[string]any)
		if !ok {
			return domain.Path{}, fmt.Errorf("unexpected type %T for path relationship", rawRel)
		}
		path.Relationships = append(path.Relationships, domain.PathEdge{
			ID:         asString(relMap["id"]),
			Type:       asString(relMap["type"]),
			Properties: asMap(relMap["properties"]),
		})
	}

	return path, nil
}

func asString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func asStringSlice(value any) []string {
	raw, ok := value.([]any)
	if !ok {
		return []string{}
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

func asMap(value any) map[string]any {
	if m, ok := value.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}
