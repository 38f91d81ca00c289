package consumers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"surfacegraph/src/domain"
	"surfacegraph/src/domain/entities"
	"surfacegraph/src/infra/kafka"
)

const (
	EventRelationshipObserved = "relationship.observed"
	EventAssetDeleted         = "asset.deleted"
)

// AssetEventMessage representa o schema dos eventos de ativos publicados
// pelos scanners. O campo event decide quais campos do envelope valem.
type AssetEventMessage struct {
	Event string `json:"event"`

	// asset.deleted
	ExternalID string `json:"external_id,omitempty"`
	NodeType   string `json:"node_type,omitempty"`

	// relationship.observed
	SourceExternalID string         `json:"source_external_id,omitempty"`
	SourceType       string         `json:"source_type,omitempty"`
	TargetExternalID string         `json:"target_external_id,omitempty"`
	TargetType       string         `json:"target_type,omitempty"`
	RelationType     string         `json:"relation_type,omitempty"`
	EdgeKey          string         `json:"edge_key,omitempty"`
	Properties       map[string]any `json:"properties,omitempty"`
	CreatedBy        *string        `json:"created_by,omitempty"`
}

// RelationshipWriter é o recorte do serviço de relacionamentos que o
// consumer usa.
type RelationshipWriter interface {
	Create(ctx context.Context, request domain.CreateRelationshipRequest) (entities.Relationship, error)
	DeleteForNode(ctx context.Context, externalID string, nodeType domain.NodeType) (int64, error)
}

type AssetEventsConsumer struct {
	logger             *slog.Logger
	relationshipWriter RelationshipWriter
}

func NewAssetEventsConsumer(
	logger *slog.Logger,
	relationshipWriter RelationshipWriter,
) *AssetEventsConsumer {
	return &AssetEventsConsumer{
		logger:             logger,
		relationshipWriter: relationshipWriter,
	}
}

func (c *AssetEventsConsumer) Start(ctx context.Context, kafkaClient *kafka.KafkaClient, topic string) error {
	c.logger.Info("Starting asset events consumer", "topic", topic)

	handler := func(messages []kafka.Message) error {
		return c.handleMessages(ctx, messages)
	}

	return kafkaClient.Consumer(ctx, handler, topic)
}

// handleMessages processa o lote na ordem de chegada. Mensagens venenosas
// (JSON inválido, payload fora do contrato, duplicata) são puladas para não
// travar a partição; erro de store devolve o lote inteiro para reentrega.
func (c *AssetEventsConsumer) handleMessages(ctx context.Context, messages []kafka.Message) error {
	if len(messages) == 0 {
		return nil
	}

	c.logger.Info("Processing asset events batch", "count", len(messages))

	for _, msg := range messages {
		var event AssetEventMessage
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("Failed to unmarshal asset event, skipping",
				"error", err,
				"key", msg.Key,
				"value", string(msg.Value))
			continue
		}

		switch event.Event {
		case EventRelationshipObserved:
			if err := c.handleRelationshipObserved(ctx, msg.Key, event); err != nil {
				return err
			}

		case EventAssetDeleted:
			if err := c.handleAssetDeleted(ctx, msg.Key, event); err != nil {
				return err
			}

		default:
			c.logger.Warn("Skipping unknown asset event", "event", event.Event, "key", msg.Key)
		}
	}

	c.logger.Info("Successfully processed asset events batch", "count", len(messages))

	return nil
}

func (c *AssetEventsConsumer) handleRelationshipObserved(ctx context.Context, key string, event AssetEventMessage) error {
	request := domain.CreateRelationshipRequest{
		SourceExternalID: event.SourceExternalID,
		SourceType:       domain.NodeType(event.SourceType),
		TargetExternalID: event.TargetExternalID,
		TargetType:       domain.NodeType(event.TargetType),
		RelationType:     domain.RelationType(event.RelationType),
		EdgeKey:          event.EdgeKey,
		Properties:       event.Properties,
		CreatedBy:        event.CreatedBy,
	}

	relationship, err := c.relationshipWriter.Create(ctx, request)
	switch {
	case err == nil:
		c.logger.Debug("Created relationship from event", "key", key, "relationship_id", relationship.ID)
		return nil

	case domain.IsConflict(err):
		// Scanners reobservam as mesmas arestas o tempo todo
		c.logger.Debug("Relationship already exists, skipping", "key", key, "error", err)
		return nil

	case domain.IsValidation(err):
		c.logger.Error("Invalid relationship event, skipping", "key", key, "error", err)
		return nil

	default:
		return fmt.Errorf("failed to create relationship from event with key %s: %w", key, err)
	}
}

func (c *AssetEventsConsumer) handleAssetDeleted(ctx context.Context, key string, event AssetEventMessage) error {
	deletedCount, err := c.relationshipWriter.DeleteForNode(ctx, event.ExternalID, domain.NodeType(event.NodeType))
	switch {
	case err == nil:
		c.logger.Info("Deleted relationships for removed asset",
			"key", key, "node_type", event.NodeType, "external_id", event.ExternalID, "deleted_count", deletedCount)
		return nil

	case domain.IsValidation(err):
		c.logger.Error("Invalid asset deleted event, skipping", "key", key, "error", err)
		return nil

	default:
		return fmt.Errorf("failed to delete relationships for asset event with key %s: %w", key, err)
	}
}
