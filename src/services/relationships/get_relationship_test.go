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

var _ = Describe("Get", func() {
	var (
		ctx     context.Context
		store   *fakeRelationshipStore
		service *relationships.RelationshipService
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeRelationshipStore()
		service = relationships.NewRelationshipService(
			testLogger(), &fakeTxRunner{}, nil, store, &fakeGraphMirror{}, &fakePathFinder{}, nil,
		)
	})

	When("the relationship exists", func() {
		It("returns the row", func() {
			// ARRANGE
			existing := stubs.NewRelationshipStub().Get()
			store.seed(existing)

			// ACT
			found, err := service.Get(ctx, existing.ID, false)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(Equal(existing))
		})
	})

	When("the relationship does not exist", func() {
		It("returns not found with the id in the message", func() {
			// ARRANGE
			id := uuid.New()

			// ACT
			_, err := service.Get(ctx, id, false)

			// ASSERT
			Expect(domain.IsNotFound(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Relationship with id '" + id.String() + "' not found"))
		})
	})

	When("the relationship is soft deleted", func() {
		It("hides it unless the caller asks for tombstones", func() {
			// ARRANGE
			tombstone := stubs.NewRelationshipStub().WithDeleted().Get()
			store.seed(tombstone)

			// ACT + ASSERT
			_, err := service.Get(ctx, tombstone.ID, false)
			Expect(domain.IsNotFound(err)).To(BeTrue())

			found, err := service.Get(ctx, tombstone.ID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.IsDeleted).To(BeTrue())
		})
	})
})

var _ = Describe("Paginate", func() {
	var (
		ctx     context.Context
		store   *fakeRelationshipStore
		service *relationships.RelationshipService
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newFakeRelationshipStore()
		service = relationships.NewRelationshipService(
			testLogger(), &fakeTxRunner{}, nil, store, &fakeGraphMirror{}, &fakePathFinder{}, nil,
		)
	})

	When("the caller sends page parameters below the minimum", func() {
		It("clamps them to the defaults", func() {
			// ACT
			page, err := service.Paginate(ctx, domain.ListRelationshipsFilter{}, 0, 0)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Page).To(Equal(1))
			Expect(page.PageSize).To(Equal(20))
			Expect(store.lastPage).To(Equal(1))
			Expect(store.lastPageSize).To(Equal(20))
		})
	})

	When("the caller asks for more than the maximum page size", func() {
		It("caps the page size", func() {
			// ACT
			_, err := service.Paginate(ctx, domain.ListRelationshipsFilter{}, 1, 1000)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(store.lastPageSize).To(Equal(100))
		})
	})

	When("a filter is provided", func() {
		It("passes it through to the store", func() {
			// ARRANGE
			sourceID := "org-123"
			relationType := domain.RelationTypeOwnsDomain
			filter := domain.ListRelationshipsFilter{
				SourceExternalID: &sourceID,
				RelationType:     &relationType,
				IncludeDeleted:   true,
			}

			// ACT
			_, err := service.Paginate(ctx, filter, 2, 10)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(store.lastFilter).To(Equal(filter))
			Expect(store.lastPage).To(Equal(2))
			Expect(store.lastPageSize).To(Equal(10))
		})
	})

	When("rows exist on both sides of the soft delete flag", func() {
		It("only lists tombstones when asked to", func() {
			// ARRANGE
			active := stubs.NewRelationshipStub().Get()
			tombstone := stubs.NewRelationshipStub().WithDeleted().Get()
			store.seed(active)
			store.seed(tombstone)

			// ACT
			visible, err := service.Paginate(ctx, domain.ListRelationshipsFilter{}, 1, 20)
			Expect(err).NotTo(HaveOccurred())

			all, err := service.Paginate(ctx, domain.ListRelationshipsFilter{IncludeDeleted: true}, 1, 20)

			// ASSERT
			Expect(err).NotTo(HaveOccurred())
			Expect(visible.Items).To(HaveLen(1))
			Expect(all.Items).To(HaveLen(2))
		})
	})
})
