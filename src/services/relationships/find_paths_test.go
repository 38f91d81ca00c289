package relationships_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"surfacegraph/src/domain"
	"surfacegraph/src/services/relationships"
)

var _ = Describe("FindPaths", func() {
	var (
		ctx        context.Context
		pathFinder *fakePathFinder
		service    *relationships.RelationshipService
	)

	BeforeEach(func() {
		ctx = context.Background()
		pathFinder = &fakePathFinder{}
		service = relationships.NewRelationshipService(
			testLogger(), &fakeTxRunner{}, nil, newFakeRelationshipStore(), &fakeGraphMirror{}, pathFinder, nil,
		)
	})

	When("the graph returns paths", func() {
		It("delegates the query and returns them", func() {
			// ARRANGE
			pathFinder.paths = []domain.Path{
				{
					Nodes: []domain.PathNode{
						{ID: "org-1", Labels: []string{"Organization"}, Properties: map[string]any{}},
						{ID: "example.com", Labels: []string{"Domain"}, Properties: map[string]any{}},
					},
					Relationships: []domain.PathEdge{
						{ID: "rel-1", Type: "OWNS_DOMAIN", Properties: map[string]any{}},
					},
				},
			}

			query := domain.PathQuery{
				SourceExternalID: "org-1",
				TargetExternalID: "example.com",
				Direction:        domain.PathDirectionOut,
			}

			// ACT
			paths, err := service.FindPaths(ctx, query)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(Equal(pathFinder.paths))
			Expect(pathFinder.lastQuery).To(Equal(query))
		})
	})

	When("the graph query fails", func() {
		It("propagates the error", func() {
			// ARRANGE
			pathFinder.err = &domain.StoreError{Op: "PathQueryRepository.FindPaths", Err: context.DeadlineExceeded}

			// ACT
			paths, err := service.FindPaths(ctx, domain.PathQuery{
				SourceExternalID: "org-1",
				TargetExternalID: "example.com",
			})

			// ASSERT
			Expect(err).To(HaveOccurred())
			Expect(paths).To(BeNil())
		})
	})
})
