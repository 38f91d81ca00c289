package domain

import "fmt"

// ############################################################
// ####################### TIPOS DE NÓ ########################
// ############################################################

// NodeType identifica a classe de um ativo do inventário. Os nós pertencem
// aos inventários externos; aqui guardamos apenas a chave de negócio deles.
type NodeType string

const (
	NodeTypeOrganization      NodeType = "Organization"
	NodeTypeDomain            NodeType = "Domain"
	NodeTypeIP                NodeType = "IP"
	NodeTypeNetblock          NodeType = "Netblock"
	NodeTypeService           NodeType = "Service"
	NodeTypeCertificate       NodeType = "Certificate"
	NodeTypeClientApplication NodeType = "ClientApplication"
	NodeTypeCredential        NodeType = "Credential"
)

func AllNodeTypes() []NodeType {
	return []NodeType{
		NodeTypeOrganization,
		NodeTypeDomain,
		NodeTypeIP,
		NodeTypeNetblock,
		NodeTypeService,
		NodeTypeCertificate,
		NodeTypeClientApplication,
		NodeTypeCredential,
	}
}

func (nt NodeType) Valid() bool {
	switch nt {
	case NodeTypeOrganization, NodeTypeDomain, NodeTypeIP, NodeTypeNetblock,
		NodeTypeService, NodeTypeCertificate, NodeTypeClientApplication, NodeTypeCredential:
		return true
	}
	return false
}

// ############################################################
// ##################### TIPOS DE RELAÇÃO #####################
// ############################################################

// RelationType identifica o tipo de uma aresta dirigida entre dois ativos.
type RelationType string

const (
	RelationTypeSubsidiary       RelationType = "SUBSIDIARY"
	RelationTypeOwnsNetblock     RelationType = "OWNS_NETBLOCK"
	RelationTypeOwnsAsset        RelationType = "OWNS_ASSET"
	RelationTypeOwnsDomain       RelationType = "OWNS_DOMAIN"
	RelationTypeContains         RelationType = "CONTAINS"
	RelationTypeSubdomain        RelationType = "SUBDOMAIN"
	RelationTypeResolvesTo       RelationType = "RESOLVES_TO"
	RelationTypeHistoryResolves  RelationType = "HISTORY_RESOLVES_TO"
	RelationTypeIssuedTo         RelationType = "ISSUED_TO"
	RelationTypeHostsService     RelationType = "HOSTS_SERVICE"
	RelationTypeRoutesTo         RelationType = "ROUTES_TO"
	RelationTypeUpstream         RelationType = "UPSTREAM"
	RelationTypeCommunicatesWith RelationType = "COMMUNICATES"
)

func AllRelationTypes() []RelationType {
	return []RelationType{
		RelationTypeSubsidiary,
		RelationTypeOwnsNetblock,
		RelationTypeOwnsAsset,
		RelationTypeOwnsDomain,
		RelationTypeContains,
		RelationTypeSubdomain,
		RelationTypeResolvesTo,
		RelationTypeHistoryResolves,
		RelationTypeIssuedTo,
		RelationTypeHostsService,
		RelationTypeRoutesTo,
		RelationTypeUpstream,
		RelationTypeCommunicatesWith,
	}
}

func (rt RelationType) Valid() bool {
	_, ok := relationRules[rt]
	return ok
}

// ############################################################
// #################### REGRAS DE TIPAGEM #####################
// ############################################################

// TypePair é o par (tipo do nó origem, tipo do nó destino) permitido
// para um tipo de relação.
type TypePair struct {
	Source NodeType
	Target NodeType
}

// relationRules fixa, para cada tipo de relação, o único par de tipos de nó
// aceito. Toda escrita valida contra esta tabela antes de tocar os stores.
var relationRules = map[RelationType]TypePair{
	RelationTypeSubsidiary:       {Source: NodeTypeOrganization, Target: NodeTypeOrganization},
	RelationTypeOwnsNetblock:     {Source: NodeTypeOrganization, Target: NodeTypeNetblock},
	RelationTypeOwnsAsset:        {Source: NodeTypeOrganization, Target: NodeTypeIP},
	RelationTypeOwnsDomain:       {Source: NodeTypeOrganization, Target: NodeTypeDomain},
	RelationTypeContains:         {Source: NodeTypeNetblock, Target: NodeTypeIP},
	RelationTypeSubdomain:        {Source: NodeTypeDomain, Target: NodeTypeDomain},
	RelationTypeResolvesTo:       {Source: NodeTypeDomain, Target: NodeTypeIP},
	RelationTypeHistoryResolves:  {Source: NodeTypeIP, Target: NodeTypeDomain},
	RelationTypeIssuedTo:         {Source: NodeTypeCertificate, Target: NodeTypeDomain},
	RelationTypeHostsService:     {Source: NodeTypeIP, Target: NodeTypeService},
	RelationTypeRoutesTo:         {Source: NodeTypeDomain, Target: NodeTypeService},
	RelationTypeUpstream:         {Source: NodeTypeService, Target: NodeTypeService},
	RelationTypeCommunicatesWith: {Source: NodeTypeClientApplication, Target: NodeTypeService},
}

// AllowedPair devolve o par de tipos permitido para o tipo de relação.
func AllowedPair(relationType RelationType) (TypePair, bool) {
	pair, ok := relationRules[relationType]
	return pair, ok
}

// ValidateRelationTypes valida que a relação liga exatamente os tipos de nó
// que a tabela de regras prescreve.
func ValidateRelationTypes(relationType RelationType, sourceType NodeType, targetType NodeType) error {
	pair, ok := relationRules[relationType]
	if !ok {
		return &ValidationError{
			Message: fmt.Sprintf("unknown relation_type '%s'", relationType),
			Field:   "relation_type",
		}
	}

	if pair.Source != sourceType || pair.Target != targetType {
		return &ValidationError{
			Message: fmt.Sprintf(
				"Invalid source/target types for %s: expected %s -> %s, got %s -> %s",
				relationType, pair.Source, pair.Target, sourceType, targetType,
			),
			Field: "relation_type",
		}
	}

	return nil
}
