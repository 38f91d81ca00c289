package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"surfacegraph/src/adapters/kafka/consumers"
	"surfacegraph/src/helper/env"
	"surfacegraph/src/infra/kafka"
	"surfacegraph/src/infra/neo4j"
	"surfacegraph/src/infra/postgres"
	"surfacegraph/src/infra/redis"
	"surfacegraph/src/repositories"
	"surfacegraph/src/services/relationships"
)

func main() {
	log.SetOutput(os.Stdout)
	log.Println("Starting Asset Events Consumer with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newReadWriteClient,
			newNeo4jClient,
			newRedisClient,
			newKafkaClient,
			newRelationshipRepository,
			newGraphMirrorRepository,
			newPathQueryRepository,
			newCachedPathRepository,
			newRelationshipService,
			newAssetEventsConsumer,
		),

		// Invocations
		fx.Invoke(startConsumer),
	)

	// Start the application
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start consumer application: %v", err)
	}

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Println("Shutting down asset events consumer...")

	// Stop the application
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Printf("Failed to stop application gracefully: %v", err)
	}

	log.Println("Asset events consumer shutdown complete")
}

func newLogger() *slog.Logger {
	logLevel := env.GetString("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func newReadWriteClient() (*postgres.ReadWriteClient, error) {
	dbReadHost := env.MustGetString("DB_READ_HOST")
	dbWriteHost := env.MustGetString("DB_WRITE_HOST")
	dbReadPort := env.GetString("DB_READ_PORT", "5432")
	dbWritePort := env.GetString("DB_WRITE_PORT", "5432")
	dbname := env.MustGetString("DB_NAME")
	dbUser := env.MustGetString("DB_USER")
	dbPassword := env.MustGetString("DB_PASSWORD")
	maxConnections := env.GetInt("DB_MAX_POOL_CONNECTIONS", 25)

	return postgres.NewReadWriteClient(dbReadHost, dbWriteHost, dbReadPort, dbWritePort, dbname, dbUser, dbPassword, maxConnections)
}

func newNeo4jClient() (*neo4j.Neo4jClient, error) {
	uri := env.MustGetString("NEO4J_URI")
	username := env.MustGetString("NEO4J_USER")
	password := env.MustGetString("NEO4J_PASSWORD")
	database := env.GetString("NEO4J_DATABASE", "neo4j")
	maxPoolSize := env.GetInt("NEO4J_MAX_POOL_SIZE", 50)

	return neo4j.NewNeo4jClient(uri, username, password, database, maxPoolSize)
}

func newRedisClient() *redis.RedisClient {
	addrs := env.MustGetString("REDIS_CLUSTER_ADDRS")
	poolSize := env.GetInt("REDIS_POOL_SIZE", 50)
	cacheTTL := env.GetDuration("REDIS_CACHE_TTL", 10*time.Minute)

	return redis.NewRedisClient(addrs, poolSize, cacheTTL)
}

func newKafkaClient(logger *slog.Logger) (*kafka.KafkaClient, error) {
	brokers := env.MustGetString("KAFKA_BROKERS")
	groupID := env.MustGetString("KAFKA_ASSET_EVENTS_CONSUMER_GROUP_ID")
	batchSize := env.MustGetInt("KAFKA_BATCH_SIZE")

	return kafka.NewKafkaClient(logger, brokers, groupID, batchSize)
}

func newRelationshipRepository() *repositories.RelationshipRepository {
	return repositories.NewRelationshipRepository()
}

func newGraphMirrorRepository(logger *slog.Logger, neo4jClient *neo4j.Neo4jClient) *repositories.GraphMirrorRepository {
	return repositories.NewGraphMirrorRepository(logger, neo4jClient)
}

func newPathQueryRepository(logger *slog.Logger, neo4jClient *neo4j.Neo4jClient) *repositories.PathQueryRepository {
	return repositories.NewPathQueryRepository(logger, neo4jClient)
}

func newCachedPathRepository(
	logger *slog.Logger,
	pathQueryRepository *repositories.PathQueryRepository,
	redisClient *redis.RedisClient,
) *repositories.CachedPathRepository {
	return repositories.NewCachedPathRepository(logger, pathQueryRepository, redisClient)
}

func newRelationshipService(
	logger *slog.Logger,
	readWriteClient *postgres.ReadWriteClient,
	relationshipRepository *repositories.RelationshipRepository,
	graphMirrorRepository *repositories.GraphMirrorRepository,
	cachedPathRepository *repositories.CachedPathRepository,
) *relationships.RelationshipService {
	return relationships.NewRelationshipService(
		logger,
		postgres.NewPoolTxRunner(readWriteClient.GetWritePool()),
		readWriteClient.GetReadPool(),
		relationshipRepository,
		graphMirrorRepository,
		cachedPathRepository,
		cachedPathRepository,
	)
}

func newAssetEventsConsumer(
	logger *slog.Logger,
	relationshipService *relationships.RelationshipService,
) *consumers.AssetEventsConsumer {
	return consumers.NewAssetEventsConsumer(logger, relationshipService)
}

func startConsumer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	kafkaClient *kafka.KafkaClient,
	assetEventsConsumer *consumers.AssetEventsConsumer,
	readWriteClient *postgres.ReadWriteClient,
	neo4jClient *neo4j.Neo4jClient,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			topic := env.MustGetString("KAFKA_ASSET_EVENTS_CONSUMER_TOPIC")
			logger.Info("Starting asset events consumer", "topic", topic)

			// Start consumer in background
			go func() {
				if err := assetEventsConsumer.Start(ctx, kafkaClient, topic); err != nil {
					logger.Error("Consumer failed", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down Kafka client...")
			if err := kafkaClient.Close(); err != nil {
				logger.Error("Failed to close Kafka client", "error", err)
				return err
			}

			if err := neo4jClient.Close(ctx); err != nil {
				logger.Error("Failed to close neo4j driver", "error", err)
			}
			readWriteClient.Close()

			logger.Info("Kafka client shut down gracefully")
			return nil
		},
	})
}
