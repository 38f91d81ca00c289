package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Neo4jClient encapsula o driver e o ciclo de vida das sessões. Cada
// operação abre a própria sessão; o pool de conexões fica no driver.
type Neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
}

func NewNeo4jClient(uri string, username string, password string, database string, maxPoolSize int) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""), func(config *neo4j.Config) {
		config.MaxConnectionPoolSize = maxPoolSize

		// Lifetime das conexões - evita problemas com load balancers no caminho
		config.MaxConnectionLifetime = 30 * time.Minute

		config.ConnectionAcquisitionTimeout = 10 * time.Second
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	return &Neo4jClient{
		driver:   driver,
		database: database,
	}, nil
}

// ExecuteWrite roda a query numa sessão de escrita gerenciada (com retry
// do driver) e devolve os registros coletados.
func (nc *Neo4jClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := nc.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: nc.database,
	})
	defer session.Close(ctx) //nolint:errcheck

	records, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	return records.([]*neo4j.Record), nil
}

// ExecuteRead roda a query numa sessão de leitura gerenciada.
func (nc *Neo4jClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := nc.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: nc.database,
	})
	defer session.Close(ctx) //nolint:errcheck

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	return records.([]*neo4j.Record), nil
}

func (nc *Neo4jClient) HealthCheck(ctx context.Context) error {
	return nc.driver.VerifyConnectivity(ctx)
}

func (nc *Neo4jClient) Close(ctx context.Context) error {
	return nc.driver.Close(ctx)
}
