//go:build datagen_kafka_asset_events
// +build datagen_kafka_asset_events

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faker/faker/v4"

	"surfacegraph/src/adapters/kafka/consumers"
	"surfacegraph/src/domain"
	"surfacegraph/src/infra/kafka"
)

// Pares válidos usados pelas observações geradas. O consumidor descarta o
// que violar a tabela de regras, então aqui só entram combinações aceitas.
var observationTemplates = []struct {
	RelationType domain.RelationType
	SourceType   domain.NodeType
	TargetType   domain.NodeType
}{
	{domain.RelationTypeOwnsDomain, domain.NodeTypeOrganization, domain.NodeTypeDomain},
	{domain.RelationTypeResolvesTo, domain.NodeTypeDomain, domain.NodeTypeIP},
	{domain.RelationTypeSubdomain, domain.NodeTypeDomain, domain.NodeTypeDomain},
	{domain.RelationTypeHostsService, domain.NodeTypeIP, domain.NodeTypeService},
	{domain.RelationTypeIssuedTo, domain.NodeTypeCertificate, domain.NodeTypeDomain},
	{domain.RelationTypeOwnsNetblock, domain.NodeTypeOrganization, domain.NodeTypeNetblock},
	{domain.RelationTypeContains, domain.NodeTypeNetblock, domain.NodeTypeIP},
}

var generatedScanners = []string{"scanner-dns", "scanner-tls", "scanner-portscan"}

type assetPool struct {
	byType map[domain.NodeType][]string
}

func newAssetPool() *assetPool {
	return &assetPool{byType: make(map[domain.NodeType][]string)}
}

func (p *assetPool) add(nodeType domain.NodeType, externalID string) {
	p.byType[nodeType] = append(p.byType[nodeType], externalID)
}

// pick devolve um asset já visto do tipo pedido, ou gera um novo. Reusar
// identificadores produz o mesmo grafo interligado que os scanners reais
// produzem, com o mesmo volume de conflitos de chave natural.
func (p *assetPool) pick(nodeType domain.NodeType) string {
	known := p.byType[nodeType]
	if len(known) > 0 && rand.Float32() < 0.4 {
		return known[rand.Intn(len(known))]
	}

	externalID := generateExternalID(nodeType)
	p.add(nodeType, externalID)
	return externalID
}

func (p *assetPool) random() (domain.NodeType, string, bool) {
	for nodeType, assets := range p.byType {
		if len(assets) > 0 {
			return nodeType, assets[rand.Intn(len(assets))], true
		}
	}
	return "", "", false
}

func generateExternalID(nodeType domain.NodeType) string {
	switch nodeType {
	case domain.NodeTypeOrganization:
		return fmt.Sprintf("org-%s-%d", faker.Username(), rand.Intn(1000000))
	case domain.NodeTypeDomain:
		return fmt.Sprintf("%s-%d.%s", faker.Word(), rand.Intn(100000), faker.DomainName())
	case domain.NodeTypeIP:
		return faker.IPv4()
	case domain.NodeTypeNetblock:
		return fmt.Sprintf("%d.%d.%d.0/24", 1+rand.Intn(223), rand.Intn(256), rand.Intn(256))
	case domain.NodeTypeService:
		return fmt.Sprintf("svc-%s-%d", faker.IPv4(), []int{80, 443, 22, 8080}[rand.Intn(4)])
	case domain.NodeTypeCertificate:
		return fmt.Sprintf("cert-%s", faker.UUIDDigit())
	default:
		return fmt.Sprintf("%s-%s", nodeType, faker.UUIDDigit())
	}
}

func generateObservation(pool *assetPool) consumers.AssetEventMessage {
	template := observationTemplates[rand.Intn(len(observationTemplates))]
	createdBy := generatedScanners[rand.Intn(len(generatedScanners))]

	return consumers.AssetEventMessage{
		Event:            consumers.EventRelationshipObserved,
		SourceExternalID: pool.pick(template.SourceType),
		SourceType:       string(template.SourceType),
		TargetExternalID: pool.pick(template.TargetType),
		TargetType:       string(template.TargetType),
		RelationType:     string(template.RelationType),
		Properties: map[string]any{
			"source":     createdBy,
			"confidence": 0.5 + rand.Float64()*0.5,
		},
		CreatedBy: &createdBy,
	}
}

// generateBatch emite observações e, de vez em quando, a remoção de um
// asset já visto para exercitar o caminho de purge do consumidor.
func generateBatch(pool *assetPool, size int) []consumers.AssetEventMessage {
	messages := make([]consumers.AssetEventMessage, 0, size)

	for i := 0; i < size; i++ {
		if rand.Float32() < 0.05 {
			if nodeType, externalID, ok := pool.random(); ok {
				messages = append(messages, consumers.AssetEventMessage{
					Event:      consumers.EventAssetDeleted,
					ExternalID: externalID,
					NodeType:   string(nodeType),
				})
				continue
			}
		}

		messages = append(messages, generateObservation(pool))
	}

	return messages
}

func messageKey(message consumers.AssetEventMessage) string {
	if message.Event == consumers.EventAssetDeleted {
		return message.ExternalID
	}
	return message.SourceExternalID
}

func main() {
	rand.Seed(time.Now().UnixNano())

	totalMessages := flag.Int("count", 1000, "Total number of messages to generate. Use -1 for infinite.")
	batchSize := flag.Int("batch-size", 100, "Number of messages per batch")
	topic := flag.String("topic", "", "Kafka topic to send messages to (required)")
	brokers := flag.String("brokers", "", "Kafka brokers (comma-separated) (required)")
	groupID := flag.String("group-id", "", "Kafka group ID (required)")
	delayMs := flag.Int("delay-ms", 100, "Delay in milliseconds between batches")
	flag.Parse()

	if *topic == "" {
		log.Fatal("The 'topic' flag is required")
	}
	if *brokers == "" {
		log.Fatal("The 'brokers' flag is required")
	}
	if *groupID == "" {
		log.Fatal("The 'group-id' flag is required")
	}

	isInfinite := *totalMessages == -1
	if isInfinite {
		log.Printf("Starting asset events datagen in INFINITE mode with batches of %d", *batchSize)
	} else {
		log.Printf("Starting asset events datagen with %d messages in batches of %d", *totalMessages, *batchSize)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	kafkaClient, err := kafka.NewKafkaClient(logger, *brokers, *groupID, 5000)
	if err != nil {
		log.Fatalf("Failed to create Kafka client: %v", err)
	}
	defer kafkaClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping...")
		cancel()
	}()

	pool := newAssetPool()
	messagesSent := 0
	startTime := time.Now()

	for isInfinite || messagesSent < *totalMessages {
		select {
		case <-ctx.Done():
			log.Println("Shutdown requested, stopping message generation")
			return
		default:
		}

		currentBatchSize := *batchSize
		if !isInfinite {
			remaining := *totalMessages - messagesSent
			if remaining < currentBatchSize {
				currentBatchSize = remaining
			}
		}

		batch := generateBatch(pool, currentBatchSize)

		kafkaMessages := make([]kafka.Message, 0, len(batch))
		for _, message := range batch {
			messageBytes, err := json.Marshal(message)
			if err != nil {
				log.Printf("Failed to marshal message: %v", err)
				continue
			}

			kafkaMessages = append(kafkaMessages, kafka.Message{
				Key:   messageKey(message),
				Value: messageBytes,
			})
		}

		if err := kafkaClient.Producer(kafkaMessages, *topic); err != nil {
			log.Printf("Failed to send batch: %v", err)
			continue
		}

		messagesSent += len(batch)

		if messagesSent%500 == 0 || (!isInfinite && messagesSent == *totalMessages) {
			elapsed := time.Since(startTime)
			rate := float64(messagesSent) / elapsed.Seconds()
			if isInfinite {
				log.Printf("Sent %d messages (%.1f msg/sec)", messagesSent, rate)
			} else {
				log.Printf("Sent %d/%d messages (%.1f msg/sec)", messagesSent, *totalMessages, rate)
			}
		}

		if *delayMs > 0 && (isInfinite || messagesSent < *totalMessages) {
			time.Sleep(time.Duration(*delayMs) * time.Millisecond)
		}
	}

	elapsed := time.Since(startTime)
	rate := float64(messagesSent) / elapsed.Seconds()
	log.Printf("✅ Completed! Sent %d messages in %v (%.1f msg/sec)", messagesSent, elapsed, rate)
}
