package consumers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"surfacegraph/src/domain"
	"surfacegraph/src/domain/entities"
	"surfacegraph/src/infra/kafka"
	"surfacegraph/src/test_artefacts/stubs"
)

// fakeRelationshipWriter registra os comandos que o consumer emite.
type fakeRelationshipWriter struct {
	createRequests []domain.CreateRelationshipRequest
	createErr      error

	nodeDeletes   []string
	deleteErr     error
	deletedCounts int64
}

func (w *fakeRelationshipWriter) Create(ctx context.Context, request domain.CreateRelationshipRequest) (entities.Relationship, error) {
	w.createRequests = append(w.createRequests, request)
	if w.createErr != nil {
		return entities.Relationship{}, w.createErr
	}
	return stubs.NewRelationshipStub().Get(), nil
}

func (w *fakeRelationshipWriter) DeleteForNode(ctx context.Context, externalID string, nodeType domain.NodeType) (int64, error) {
	w.nodeDeletes = append(w.nodeDeletes, externalID)
	if w.deleteErr != nil {
		return 0, w.deleteErr
	}
	return w.deletedCounts, nil
}

func encodeEvent(event AssetEventMessage) []byte {
	payload, err := json.Marshal(event)
	Expect(err).NotTo(HaveOccurred())
	return payload
}

var _ = Describe("AssetEventsConsumer", func() {
	var (
		ctx      context.Context
		writer   *fakeRelationshipWriter
		consumer *AssetEventsConsumer
	)

	BeforeEach(func() {
		ctx = context.Background()
		writer = &fakeRelationshipWriter{}
		consumer = NewAssetEventsConsumer(slog.New(slog.NewTextHandler(io.Discard, nil)), writer)
	})

	Context("processing relationship.observed events", func() {
		When("the payload is complete", func() {
			It("creates the relationship with the mapped fields", func() {
				// ARRANGE
				createdBy := "scanner-dns"
				messages := []kafka.Message{
					{
						Key: "org-1",
						Value: encodeEvent(AssetEventMessage{
							Event:            EventRelationshipObserved,
							SourceExternalID: "app.example.com",
							SourceType:       "Domain",
							TargetExternalID: "10.0.0.1",
							TargetType:       "IP",
							RelationType:     "RESOLVES_TO",
							EdgeKey:          "a-record",
							Properties:       map[string]any{"ttl": float64(300)},
							CreatedBy:        &createdBy,
						}),
					},
				}

				// ACT
				err := consumer.handleMessages(ctx, messages)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(writer.createRequests).To(HaveLen(1))

				request := writer.createRequests[0]
				Expect(request.SourceExternalID).To(Equal("app.example.com"))
				Expect(request.SourceType).To(Equal(domain.NodeTypeDomain))
				Expect(request.TargetExternalID).To(Equal("10.0.0.1"))
				Expect(request.TargetType).To(Equal(domain.NodeTypeIP))
				Expect(request.RelationType).To(Equal(domain.RelationTypeResolvesTo))
				Expect(request.EdgeKey).To(Equal("a-record"))
				Expect(request.Properties).To(HaveKeyWithValue("ttl", float64(300)))
				Expect(request.CreatedBy).To(Equal(&createdBy))
			})
		})

		When("the relationship already exists", func() {
			It("treats the conflict as a reobservation and keeps the batch moving", func() {
				// ARRANGE
				writer.createErr = &domain.ConflictError{Resource: "Relationship", Field: "unique_key", Value: "a->b:RESOLVES_TO"}
				messages := []kafka.Message{
					{Key: "k1", Value: encodeEvent(AssetEventMessage{
						Event:            EventRelationshipObserved,
						SourceExternalID: "a",
						SourceType:       "Domain",
						TargetExternalID: "b",
						TargetType:       "IP",
						RelationType:     "RESOLVES_TO",
					})},
				}

				// ACT
				err := consumer.handleMessages(ctx, messages)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(writer.createRequests).To(HaveLen(1))
			})
		})

		When("the payload fails domain validation", func() {
			It("skips the poison message instead of blocking the partition", func() {
				// ARRANGE
				writer.createErr = &domain.ValidationError{Message: "unknown relation_type 'OWNS'", Field: "relation_type"}
				messages := []kafka.Message{
					{Key: "k1", Value: encodeEvent(AssetEventMessage{
						Event:            EventRelationshipObserved,
						SourceExternalID: "a",
						SourceType:       "Domain",
						TargetExternalID: "b",
						TargetType:       "IP",
						RelationType:     "OWNS",
					})},
				}

				// ACT
				err := consumer.handleMessages(ctx, messages)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
			})
		})

		When("the store is unavailable", func() {
			It("returns the error so the whole batch is redelivered", func() {
				// ARRANGE
				writer.createErr = &domain.StoreError{Op: "RelationshipRepository.Create", Err: context.DeadlineExceeded}
				messages := []kafka.Message{
					{Key: "k1", Value: encodeEvent(AssetEventMessage{
						Event:            EventRelationshipObserved,
						SourceExternalID: "a",
						SourceType:       "Domain",
						TargetExternalID: "b",
						TargetType:       "IP",
						RelationType:     "RESOLVES_TO",
					})},
				}

				// ACT
				err := consumer.handleMessages(ctx, messages)

				// ASSERT
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("k1"))
			})
		})
	})

	Context("processing asset.deleted events", func() {
		When("the payload is complete", func() {
			It("hard deletes the relationships of the node", func() {
				// ARRANGE
				writer.deletedCounts = 4
				messages := []kafka.Message{
					{Key: "ip-1", Value: encodeEvent(AssetEventMessage{
						Event:      EventAssetDeleted,
						ExternalID: "10.0.0.1",
						NodeType:   "IP",
					})},
				}

				// ACT
				err := consumer.handleMessages(ctx, messages)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(writer.nodeDeletes).To(Equal([]string{"10.0.0.1"}))
			})
		})

		When("the node type is unknown", func() {
			It("skips the poison message", func() {
				// ARRANGE
				writer.deleteErr = &domain.ValidationError{Message: "unknown node type 'Server'", Field: "node_type"}
				messages := []kafka.Message{
					{Key: "k1", Value: encodeEvent(AssetEventMessage{
						Event:      EventAssetDeleted,
						ExternalID: "srv-1",
						NodeType:   "Server",
					})},
				}

				// ACT
				err := consumer.handleMessages(ctx, messages)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
			})
		})
	})

	Context("processing malformed batches", func() {
		When("a message is not valid JSON", func() {
			It("skips it and still processes the rest of the batch", func() {
				// ARRANGE
				messages := []kafka.Message{
					{Key: "bad", Value: []byte("{not json")},
					{Key: "good", Value: encodeEvent(AssetEventMessage{
						Event:            EventRelationshipObserved,
						SourceExternalID: "a",
						SourceType:       "Domain",
						TargetExternalID: "b",
						TargetType:       "IP",
						RelationType:     "RESOLVES_TO",
					})},
				}

				// ACT
				err := consumer.handleMessages(ctx, messages)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(writer.createRequests).To(HaveLen(1))
			})
		})

		When("the event name is unknown", func() {
			It("skips it without failing", func() {
				// ARRANGE
				messages := []kafka.Message{
					{Key: "k1", Value: encodeEvent(AssetEventMessage{Event: "asset.discovered"})},
				}

				// ACT
				err := consumer.handleMessages(ctx, messages)

				// ASSERT
				Expect(err).NotTo(HaveOccurred())
				Expect(writer.createRequests).To(BeEmpty())
				Expect(writer.nodeDeletes).To(BeEmpty())
			})
		})

		When("the batch is empty", func() {
			It("does nothing", func() {
				Expect(consumer.handleMessages(ctx, nil)).To(Succeed())
			})
		})
	})
})
