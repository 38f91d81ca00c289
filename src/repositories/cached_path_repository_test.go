package repositories_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"surfacegraph/src/domain"
	"surfacegraph/src/helper/env"
	"surfacegraph/src/infra/neo4j"
	"surfacegraph/src/infra/redis"
	"surfacegraph/src/repositories"
	"surfacegraph/src/test_artefacts/stubs"
)

var _ = Describe("CachedPathRepository", func() {
	var (
		neo4jClient *neo4j.Neo4jClient
		redisClient *redis.RedisClient
		mirror      *repositories.GraphMirrorRepository
		repository  *repositories.CachedPathRepository
		ctx         context.Context
		err         error
	)

	neo4jURI := env.GetString("TEST_NEO4J_URI", "")
	neo4jUser := env.GetString("TEST_NEO4J_USERNAME", "neo4j")
	neo4jPassword := env.GetString("TEST_NEO4J_PASSWORD", "password")
	neo4jDatabase := env.GetString("TEST_NEO4J_DATABASE", "neo4j")
	redisHosts := env.GetString("TEST_REDIS_HOSTS", "")

	ownershipQuery := func() domain.PathQuery {
		return domain.PathQuery{
			SourceExternalID: "org-1",
			TargetExternalID: "app.example.com",
			Direction:        domain.PathDirectionOut,
			MinDepth:         1,
			MaxDepth:         2,
			Limit:            20,
		}
	}

	registryMembers := func(externalID string) []string {
		members, err := redisClient.GetMultipleSetMembers(ctx, []string{"registry:node:" + externalID})
		Expect(err).NotTo(HaveOccurred())
		return members["registry:node:"+externalID]
	}

	wipeGraph := func() {
		_, err := neo4jClient.ExecuteWrite(ctx, "MATCH (n) DETACH DELETE n", nil)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		if neo4jURI == "" || redisHosts == "" {
			Skip("TEST_NEO4J_URI or TEST_REDIS_HOSTS not set, skipping cached path specs")
		}

		ctx = context.Background()

		neo4jClient, err = neo4j.NewNeo4jClient(neo4jURI, neo4jUser, neo4jPassword, neo4jDatabase, 10)
		if err != nil {
			panic(err)
		}

		// Visão prefixada para isolar e limpar as chaves destes specs
		redisClient = redis.NewRedisClient(redisHosts, 10, time.Minute).WithPrefix("test:cached-paths:")
		Expect(redisClient.FlushByPrefix(ctx)).To(Succeed())

		mirror = repositories.NewGraphMirrorRepository(testLogger(), neo4jClient)
		repository = repositories.NewCachedPathRepository(
			testLogger(),
			repositories.NewPathQueryRepository(testLogger(), neo4jClient),
			redisClient,
		)

		wipeGraph()

		relationship := stubs.NewRelationshipStub().
			WithSource("org-1", domain.NodeTypeOrganization).
			WithTarget("app.example.com", domain.NodeTypeDomain).
			WithRelationType(domain.RelationTypeOwnsDomain).
			Get()
		Expect(mirror.Upsert(ctx, relationship)).To(Succeed())
	})

	AfterEach(func() {
		if redisClient != nil {
			redisClient.FlushByPrefix(ctx) //nolint:errcheck
			redisClient = nil
		}
		if neo4jClient != nil {
			neo4jClient.Close(ctx) //nolint:errcheck
			neo4jClient = nil
		}
	})

	When("the same query runs twice", func() {
		It("answers the second run from the cache", func() {
			// ACT
			firstRun, err := repository.FindPaths(ctx, ownershipQuery())

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(firstRun).To(HaveLen(1))

			// O registro aparece quando a escrita assíncrona do cache termina
			Eventually(func() []string {
				return registryMembers("org-1")
			}, "5s", "100ms").ShouldNot(BeEmpty())

			// ARRANGE: sumir com o grafo; só o cache pode responder agora
			wipeGraph()

			// ACT
			secondRun, err := repository.FindPaths(ctx, ownershipQuery())

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(secondRun).To(Equal(firstRun))
		})
	})

	When("a node touched by the cached path is invalidated", func() {
		It("forces the next run back to the graph", func() {
			// ARRANGE
			firstRun, err := repository.FindPaths(ctx, ownershipQuery())
			Expect(err).NotTo(HaveOccurred())
			Expect(firstRun).To(HaveLen(1))

			Eventually(func() []string {
				return registryMembers("app.example.com")
			}, "5s", "100ms").ShouldNot(BeEmpty())

			wipeGraph()

			// ACT: o alvo do caminho também consta no registro
			err = repository.InvalidateNodes(ctx, []string{"app.example.com"})

			// ASSERT
			Expect(err).NotTo(HaveOccurred())

			refreshed, err := repository.FindPaths(ctx, ownershipQuery())
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed).To(BeEmpty())
		})
	})

	When("no cached path touches the node", func() {
		It("invalidates nothing and succeeds", func() {
			Expect(repository.InvalidateNodes(ctx, []string{"ghost-node"})).To(Succeed())
		})
	})

	When("the node list is empty", func() {
		It("returns immediately", func() {
			Expect(repository.InvalidateNodes(ctx, nil)).To(Succeed())
		})
	})
})
