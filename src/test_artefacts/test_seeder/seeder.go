package test_seeder

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type TestSeeder struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) TestSeeder {
	return TestSeeder{pool: pool}
}

// EnsureSchema cria a tabela de relacionamentos caso o banco de teste
// ainda não tenha rodado as migrations.
func (ts TestSeeder) EnsureSchema(ctx context.Context) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS asset_relationships (
			id UUID PRIMARY KEY,
			source_external_id VARCHAR(255) NOT NULL,
			source_type VARCHAR(50) NOT NULL,
			target_external_id VARCHAR(255) NOT NULL,
			target_type VARCHAR(50) NOT NULL,
			relation_type VARCHAR(50) NOT NULL,
			edge_key VARCHAR(255) NOT NULL DEFAULT 'default',
			properties JSONB NOT NULL DEFAULT '{}'::jsonb,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_by VARCHAR(100),
			CONSTRAINT uq_asset_relationships_key UNIQUE (source_external_id, source_type, target_external_id, target_type, relation_type, edge_key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_asset_relationships_source ON asset_relationships (source_external_id, source_type)`,
		`CREATE INDEX IF NOT EXISTS idx_asset_relationships_target ON asset_relationships (target_external_id, target_type)`,
		`CREATE INDEX IF NOT EXISTS idx_asset_relationships_relation_type ON asset_relationships (relation_type)`,
		`CREATE INDEX IF NOT EXISTS idx_asset_relationships_created_at ON asset_relationships (created_at)`,
	}

	for _, statement := range statements {
		if _, err := ts.pool.Exec(ctx, statement); err != nil {
			panic(fmt.Sprintf("Failed to ensure schema: %v", err))
		}
	}
}

func (ts TestSeeder) TruncateTables(ctx context.Context) {
	tables := []string{
		"asset_relationships",
	}

	for _, table := range tables {
		_, err := ts.pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		if err != nil {
			panic(fmt.Sprintf("Failed to truncate %s: %v", table, err))
		}
	}
}
