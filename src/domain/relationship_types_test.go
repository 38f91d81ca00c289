package domain_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"surfacegraph/src/domain"
)

var _ = Describe("RelationTypeRules", func() {
	Context("validating relation types against the rules table", func() {
		When("validating every known relation type with its allowed pair", func() {
			It("accepts all of them", func() {
				for _, relationType := range domain.AllRelationTypes() {
					// ARRANGE
					pair, ok := domain.AllowedPair(relationType)
					Expect(ok).To(BeTrue(), "missing rule for %s", relationType)

					// ACT
					err := domain.ValidateRelationTypes(relationType, pair.Source, pair.Target)

					// ASSERT
					Expect(err).NotTo(HaveOccurred(), "rule for %s should accept its own pair", relationType)
				}
			})
		})

		When("validating an unknown relation type", func() {
			It("returns a validation error naming the type", func() {
				// ACT
				err := domain.ValidateRelationTypes("DEPENDS_ON", domain.NodeTypeOrganization, domain.NodeTypeDomain)

				// ASSERT
				Expect(err).To(HaveOccurred())
				Expect(domain.IsValidation(err)).To(BeTrue())
				Expect(err.Error()).To(Equal("unknown relation_type 'DEPENDS_ON'"))
			})
		})

		When("validating a relation type with wrong endpoint types", func() {
			It("returns the expected and the received pairs", func() {
				// ACT
				err := domain.ValidateRelationTypes(domain.RelationTypeOwnsDomain, domain.NodeTypeIP, domain.NodeTypeDomain)

				// ASSERT
				Expect(err).To(HaveOccurred())
				Expect(domain.IsValidation(err)).To(BeTrue())
				Expect(err.Error()).To(Equal("Invalid source/target types for OWNS_DOMAIN: expected Organization -> Domain, got IP -> Domain"))
			})

			It("rejects swapped endpoints even when both types participate in the rule", func() {
				// ACT
				err := domain.ValidateRelationTypes(domain.RelationTypeResolvesTo, domain.NodeTypeIP, domain.NodeTypeDomain)

				// ASSERT
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(Equal("Invalid source/target types for RESOLVES_TO: expected Domain -> IP, got IP -> Domain"))
			})
		})
	})

	Context("checking the registry shape", func() {
		It("knows all node types", func() {
			Expect(domain.AllNodeTypes()).To(HaveLen(8))
			for _, nodeType := range domain.AllNodeTypes() {
				Expect(nodeType.Valid()).To(BeTrue())
			}
		})

		It("knows all relation types", func() {
			Expect(domain.AllRelationTypes()).To(HaveLen(13))
			for _, relationType := range domain.AllRelationTypes() {
				Expect(relationType.Valid()).To(BeTrue())
			}
		})

		It("rejects unknown node and relation types", func() {
			Expect(domain.NodeType("Server").Valid()).To(BeFalse())
			Expect(domain.RelationType("OWNS").Valid()).To(BeFalse())
		})

		It("keeps the directed semantics of the asset rules", func() {
			// Algumas regras que a travessia depende para fazer sentido
			Expect(domain.ValidateRelationTypes(domain.RelationTypeSubsidiary, domain.NodeTypeOrganization, domain.NodeTypeOrganization)).To(Succeed())
			Expect(domain.ValidateRelationTypes(domain.RelationTypeContains, domain.NodeTypeNetblock, domain.NodeTypeIP)).To(Succeed())
			Expect(domain.ValidateRelationTypes(domain.RelationTypeHistoryResolves, domain.NodeTypeIP, domain.NodeTypeDomain)).To(Succeed())
			Expect(domain.ValidateRelationTypes(domain.RelationTypeCommunicatesWith, domain.NodeTypeClientApplication, domain.NodeTypeService)).To(Succeed())
		})
	})
})
