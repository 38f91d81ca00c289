package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"

	httpadapter "surfacegraph/src/adapters/http"
	"surfacegraph/src/helper/env"
	"surfacegraph/src/infra/neo4j"
	"surfacegraph/src/infra/postgres"
	"surfacegraph/src/infra/redis"
	"surfacegraph/src/repositories"
	"surfacegraph/src/services/relationships"
)

func main() {
	// Configurar logger
	log.SetOutput(os.Stdout)
	log.Println("Starting API server with Uber Fx...")

	app := fx.New(
		// Providers
		fx.Provide(
			newLogger,
			newSQLClient,
			newNeo4jClient,
			newRedisClient,
			newRelationshipRepository,
			newGraphMirrorRepository,
			newPathQueryRepository,
			newCachedPathRepository,
			newRelationshipService,
			newServer,
		),

		// Invocations
		fx.Invoke(registerServerHooks),
	)

	// Start the application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for app to exit gracefully
	<-app.Done()
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

// newSQLClient configures and returns a pgxpool connection pool
func newSQLClient() (*pgxpool.Pool, error) {
	dbHost := env.MustGetString("DB_HOST")
	dbPort := env.GetString("DB_PORT", "5432")
	dbname := env.MustGetString("DB_NAME")
	dbUser := env.MustGetString("DB_USER")
	dbPassword := env.MustGetString("DB_PASSWORD")
	maxConnections := env.GetInt("DB_MAX_POOL_CONNECTIONS", 25)

	return postgres.NewPostgresClient(dbHost, dbPort, dbname, dbUser, dbPassword, maxConnections)
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
	poolSize := env.GetInt("REDIS_POOL_SIZE", 100)
	cacheTTL := env.GetDuration("REDIS_CACHE_TTL", 10*time.Minute)

	return redis.NewRedisClient(addrs, poolSize, cacheTTL)
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
	pool *pgxpool.Pool,
	relationshipRepository *repositories.RelationshipRepository,
	graphMirrorRepository *repositories.GraphMirrorRepository,
	cachedPathRepository *repositories.CachedPathRepository,
) *relationships.RelationshipService {
	return relationships.NewRelationshipService(
		logger,
		postgres.NewPoolTxRunner(pool),
		pool,
		relationshipRepository,
		graphMirrorRepository,
		cachedPathRepository,
		cachedPathRepository,
	)
}

func newServer(
	logger *slog.Logger,
	relationshipService *relationships.RelationshipService,
	pool *pgxpool.Pool,
	neo4jClient *neo4j.Neo4jClient,
	redisClient *redis.RedisClient,
) *httpadapter.Server {

	port := 8888 // default value
	if portStr := os.Getenv("SERVER_ADDR"); portStr != "" {
		if val, err := strconv.Atoi(portStr); err == nil {
			port = val
		}
	}

	healthCheckers := map[string]httpadapter.HealthChecker{
		"postgres": httpadapter.HealthCheckFunc(pool.Ping),
		"neo4j":    neo4jClient,
		"redis":    redisClient,
	}

	server := httpadapter.NewServer(logger, port, relationshipService, healthCheckers)

	return server
}

// registerServerHooks registers lifecycle hooks for the HTTP server
func registerServerHooks(lc fx.Lifecycle, srv *httpadapter.Server, pool *pgxpool.Pool, neo4jClient *neo4j.Neo4jClient) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// Start server in a separate goroutine
			go func() {
				if err := srv.Start(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Server failed: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Create timeout context for graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			log.Println("Shutting down server...")
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Printf("Server forced to shutdown: %v", err)
				return err
			}

			if err := neo4jClient.Close(shutdownCtx); err != nil {
				log.Printf("Failed to close neo4j driver: %v", err)
			}
			pool.Close()

			log.Println("Server exited gracefully")
			return nil
		},
	})
}
