package relationships_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"surfacegraph/src/domain"
	"surfacegraph/src/helper/env"
	"surfacegraph/src/infra/neo4j"
	"surfacegraph/src/infra/postgres"
	"surfacegraph/src/repositories"
	"surfacegraph/src/services/relationships"
	"surfacegraph/src/test_artefacts/test_seeder"
)

var _ = Describe("RelationshipService", func() {
	var (
		readWriteClient *postgres.ReadWriteClient
		neo4jClient     *neo4j.Neo4jClient
		seeder          test_seeder.TestSeeder
		service         *relationships.RelationshipService
		ctx             context.Context
		err             error
	)

	dbWriteHost := env.GetString("TEST_DB_WRITE_HOST", "")
	dbReadHost := env.GetString("TEST_DB_READ_HOST", dbWriteHost)
	dbReadPort := env.GetString("TEST_DB_READ_PORT", "5432")
	dbWritePort := env.GetString("TEST_DB_WRITE_PORT", "5432")
	dbname := env.GetString("TEST_DB_NAME", "surfacegraph_test")
	dbUser := env.GetString("TEST_DB_USER", "postgres")
	dbPassword := env.GetString("TEST_DB_PASSWORD", "postgres")
	maxConnections := env.GetInt("TEST_DB_MAX_POOL_CONNECTIONS", 25)

	neo4jURI := env.GetString("TEST_NEO4J_URI", "")
	neo4jUser := env.GetString("TEST_NEO4J_USERNAME", "neo4j")
	neo4jPassword := env.GetString("TEST_NEO4J_PASSWORD", "password")
	neo4jDatabase := env.GetString("TEST_NEO4J_DATABASE", "neo4j")

	relationshipRequest := func(sourceID string, sourceType domain.NodeType, targetID string, targetType domain.NodeType, relationType domain.RelationType) domain.CreateRelationshipRequest {
		return domain.CreateRelationshipRequest{
			SourceExternalID: sourceID,
			SourceType:       sourceType,
			TargetExternalID: targetID,
			TargetType:       targetType,
			RelationType:     relationType,
			Properties:       map[string]any{"source": "scanner"},
		}
	}

	countEdgeInGraph := func(relationshipID uuid.UUID) int64 {
		records, err := neo4jClient.ExecuteRead(ctx,
			`MATCH ()-[rel {id: $rel_id}]->() RETURN count(rel) AS edge_count`,
			map[string]any{"rel_id": relationshipID.String()})
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))

		rawCount, ok := records[0].Get("edge_count")
		Expect(ok).To(BeTrue())
		return rawCount.(int64)
	}

	BeforeEach(func() {
		if dbWriteHost == "" || neo4jURI == "" {
			Skip("TEST_DB_WRITE_HOST or TEST_NEO4J_URI not set, skipping end to end specs")
		}

		ctx = context.Background()

		// Conexão com o banco de teste
		readWriteClient, err = postgres.NewReadWriteClient(dbReadHost, dbWriteHost, dbReadPort, dbWritePort, dbname, dbUser, dbPassword, maxConnections)
		if err != nil {
			panic(err)
		}

		// Conexão com o grafo de teste
		neo4jClient, err = neo4j.NewNeo4jClient(neo4jURI, neo4jUser, neo4jPassword, neo4jDatabase, 10)
		if err != nil {
			panic(err)
		}

		seeder = test_seeder.New(readWriteClient.GetWritePool())
		seeder.EnsureSchema(ctx)
		seeder.TruncateTables(ctx)

		_, err = neo4jClient.ExecuteWrite(ctx, "MATCH (n) DETACH DELETE n", nil)
		Expect(err).NotTo(HaveOccurred())

		logger := testLogger()
		service = relationships.NewRelationshipService(
			logger,
			postgres.NewPoolTxRunner(readWriteClient.GetWritePool()),
			readWriteClient.GetReadPool(),
			repositories.NewRelationshipRepository(),
			repositories.NewGraphMirrorRepository(logger, neo4jClient),
			repositories.NewPathQueryRepository(logger, neo4jClient),
			nil,
		)
	})

	AfterEach(func() {
		if readWriteClient != nil {
			if readWriteClient.GetReadPool() != nil {
				readWriteClient.GetReadPool().Close()
			}
			if readWriteClient.GetWritePool() != nil {
				readWriteClient.GetWritePool().Close()
			}
			readWriteClient = nil
		}

		if neo4jClient != nil {
			neo4jClient.Close(ctx) //nolint:errcheck
			neo4jClient = nil
		}
	})

	Context("keeping both stores in step", func() {
		When("a chain of relationships is created", func() {
			It("lands in the relational store, in the graph and in path results", func() {
				// ACT
				owns, err := service.Create(ctx, relationshipRequest(
					"org-1", domain.NodeTypeOrganization,
					"app.example.com", domain.NodeTypeDomain,
					domain.RelationTypeOwnsDomain,
				))
				Expect(err).NotTo(HaveOccurred())

				resolves, err := service.Create(ctx, relationshipRequest(
					"app.example.com", domain.NodeTypeDomain,
					"10.0.0.1", domain.NodeTypeIP,
					domain.RelationTypeResolvesTo,
				))
				Expect(err).NotTo(HaveOccurred())

				// ASSERT: linha relacional
				stored, err := service.Get(ctx, owns.ID, false)
				Expect(err).NotTo(HaveOccurred())
				Expect(stored.NaturalKey()).To(Equal(owns.NaturalKey()))

				// ASSERT: projeção no grafo
				Expect(countEdgeInGraph(owns.ID)).To(BeEquivalentTo(1))
				Expect(countEdgeInGraph(resolves.ID)).To(BeEquivalentTo(1))

				// ASSERT: travessia enxerga a cadeia com os mesmos ids
				paths, err := service.FindPaths(ctx, domain.PathQuery{
					SourceExternalID: "org-1",
					TargetExternalID: "10.0.0.1",
					Direction:        domain.PathDirectionOut,
					MinDepth:         1,
					MaxDepth:         4,
					Limit:            20,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(paths).To(HaveLen(1))
				Expect(paths[0].Relationships).To(HaveLen(2))
				Expect(paths[0].Relationships[0].ID).To(Equal(owns.ID.String()))
				Expect(paths[0].Relationships[1].ID).To(Equal(resolves.ID.String()))
			})
		})

		When("the same edge is observed twice", func() {
			It("rejects the duplicate and keeps a single projection", func() {
				// ARRANGE
				request := relationshipRequest(
					"org-1", domain.NodeTypeOrganization,
					"app.example.com", domain.NodeTypeDomain,
					domain.RelationTypeOwnsDomain,
				)
				created, err := service.Create(ctx, request)
				Expect(err).NotTo(HaveOccurred())

				// ACT
				_, err = service.Create(ctx, request)

				// ASSERT
				Expect(domain.IsConflict(err)).To(BeTrue())
				Expect(countEdgeInGraph(created.ID)).To(BeEquivalentTo(1))

				total, err := seeder.CountRelationships(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(BeEquivalentTo(1))
			})
		})

		When("a relationship is deleted", func() {
			It("tombstones the row and removes the edge from the graph", func() {
				// ARRANGE
				created, err := service.Create(ctx, relationshipRequest(
					"org-1", domain.NodeTypeOrganization,
					"app.example.com", domain.NodeTypeDomain,
					domain.RelationTypeOwnsDomain,
				))
				Expect(err).NotTo(HaveOccurred())

				// ACT
				Expect(service.Delete(ctx, created.ID)).To(Succeed())

				// ASSERT
				_, err = service.Get(ctx, created.ID, false)
				Expect(domain.IsNotFound(err)).To(BeTrue())

				tombstone, err := service.Get(ctx, created.ID, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(tombstone.IsDeleted).To(BeTrue())

				Expect(countEdgeInGraph(created.ID)).To(BeZero())

				paths, err := service.FindPaths(ctx, domain.PathQuery{
					SourceExternalID: "org-1",
					TargetExternalID: "app.example.com",
					Direction:        domain.PathDirectionOut,
					MinDepth:         1,
					MaxDepth:         2,
					Limit:            20,
				})
				Expect(err).NotTo(HaveOccurred())
				Expect(paths).To(BeEmpty())
			})
		})

		When("a deleted edge is observed again", func() {
			It("revives the original row and reprojects the edge", func() {
				// ARRANGE
				request := relationshipRequest(
					"org-1", domain.NodeTypeOrganization,
					"app.example.com", domain.NodeTypeDomain,
					domain.RelationTypeOwnsDomain,
				)
				created, err := service.Create(ctx, request)
				Expect(err).NotTo(HaveOccurred())
				Expect(service.Delete(ctx, created.ID)).To(Succeed())

				// ACT
				request.Properties = map[string]any{"confidence": 0.7}
				revived, err := service.Create(ctx, request)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(revived.ID).To(Equal(created.ID))
				Expect(revived.IsDeleted).To(BeFalse())
				Expect(revived.DeletedAt).To(BeNil())
				Expect(countEdgeInGraph(created.ID)).To(BeEquivalentTo(1))

				total, err := seeder.CountRelationships(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(BeEquivalentTo(1))
			})
		})

		When("properties are patched", func() {
			It("refreshes the denormalized edge in the graph", func() {
				// ARRANGE
				created, err := service.Create(ctx, relationshipRequest(
					"org-1", domain.NodeTypeOrganization,
					"app.example.com", domain.NodeTypeDomain,
					domain.RelationTypeOwnsDomain,
				))
				Expect(err).NotTo(HaveOccurred())

				// ACT
				updated, err := service.UpdateProperties(ctx, created.ID, map[string]any{"confidence": 0.9})

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(updated.Properties).To(HaveKeyWithValue("source", "scanner"))
				Expect(updated.Properties).To(HaveKeyWithValue("confidence", 0.9))

				records, err := neo4jClient.ExecuteRead(ctx,
					`MATCH ()-[rel {id: $rel_id}]->() RETURN rel.confidence AS confidence`,
					map[string]any{"rel_id": created.ID.String()})
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(1))

				confidence, _ := records[0].Get("confidence")
				Expect(confidence).To(Equal(0.9))
			})
		})

		When("a node is purged", func() {
			It("hard deletes its rows and detaches it in the graph", func() {
				// ARRANGE
				owns, err := service.Create(ctx, relationshipRequest(
					"org-1", domain.NodeTypeOrganization,
					"app.example.com", domain.NodeTypeDomain,
					domain.RelationTypeOwnsDomain,
				))
				Expect(err).NotTo(HaveOccurred())

				resolves, err := service.Create(ctx, relationshipRequest(
					"app.example.com", domain.NodeTypeDomain,
					"10.0.0.1", domain.NodeTypeIP,
					domain.RelationTypeResolvesTo,
				))
				Expect(err).NotTo(HaveOccurred())

				// ACT
				deleted, err := service.DeleteForNode(ctx, "app.example.com", domain.NodeTypeDomain)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(deleted).To(BeEquivalentTo(2))
				Expect(countEdgeInGraph(owns.ID)).To(BeZero())
				Expect(countEdgeInGraph(resolves.ID)).To(BeZero())

				total, err := seeder.CountRelationships(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(total).To(BeZero())
			})
		})
	})
})
