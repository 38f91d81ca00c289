package relationships_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"surfacegraph/src/domain"
	"surfacegraph/src/services/relationships"
	"surfacegraph/src/test_artefacts/stubs"
)

var _ = Describe("Delete", func() {
	var (
		ctx         context.Context
		store       *fakeRelationshipStore
		mirror      *fakeGraphMirror
		invalidator *fakeCacheInvalidator
		service     *relationships.RelationshipService
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeRelationshipStore()
		mirror = &fakeGraphMirror{}
		invalidator = &fakeCacheInvalidator{}
		service = relationships.NewRelationshipService(
			testLogger(), &fakeTxRunner{}, nil, store, mirror, &fakePathFinder{}, invalidator,
		)
	})

	Context("when the relationship exists", func() {
		When("deleting it", func() {
			It("soft deletes the row and removes the graph edge", func() {
				// ARRANGE
				existing := stubs.NewRelationshipStub().Get()
				store.seed(existing)

				// ACT
				err := service.Delete(ctx, existing.ID)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())

				row := store.rows[existing.ID]
				Expect(row.IsDeleted).To(BeTrue())
				Expect(row.DeletedAt).NotTo(BeNil())

				Expect(mirror.deletes).To(Equal([]uuid.UUID{existing.ID}))

				Eventually(invalidator.invalidated).Should(ContainElements(existing.SourceExternalID, existing.TargetExternalID))
			})

			It("hides the row from regular reads but keeps the tombstone visible", func() {
				// ARRANGE
				existing := stubs.NewRelationshipStub().Get()
				store.seed(existing)

				// ACT
				Expect(service.Delete(ctx, existing.ID)).To(Succeed())

				// ASSERT
				_, err := service.Get(ctx, existing.ID, false)
				Expect(domain.IsNotFound(err)).To(BeTrue())

				tombstone, err := service.Get(ctx, existing.ID, true)
				Expect(err).NotTo(HaveOccurred())
				Expect(tombstone.IsDeleted).To(BeTrue())
			})
		})
	})

	Context("when the relationship does not exist", func() {
		When("deleting a random id", func() {
			It("returns not found without touching the graph", func() {
				// ACT
				err := service.Delete(ctx, uuid.New())

				// ASSERT
				Expect(err).To(HaveOccurred())
				Expect(domain.IsNotFound(err)).To(BeTrue())
				Expect(mirror.deletes).To(BeEmpty())
			})
		})

		When("deleting a relationship that is already soft deleted", func() {
			It("returns not found", func() {
				// ARRANGE
				tombstone := stubs.NewRelationshipStub().WithDeleted().Get()
				store.seed(tombstone)

				// ACT
				err := service.Delete(ctx, tombstone.ID)

				// ASSERT
				Expect(err).To(HaveOccurred())
				Expect(domain.IsNotFound(err)).To(BeTrue())
				Expect(mirror.deletes).To(BeEmpty())
			})
		})
	})

	Context("when the graph projection fails", func() {
		When("the mirror delete returns an error", func() {
			It("propagates the error and skips cache invalidation", func() {
				// ARRANGE
				existing := stubs.NewRelationshipStub().Get()
				store.seed(existing)
				mirror.deleteErr = &domain.StoreError{Op: "GraphMirrorRepository.Delete", Err: context.DeadlineExceeded}

				// ACT
				err := service.Delete(ctx, existing.ID)

				// ASSERT
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("GraphMirrorRepository.Delete"))
				Expect(invalidator.invalidated()).To(BeEmpty())
			})
		})
	})
})
