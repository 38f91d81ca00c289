//go:build datagen_postgres
// +build datagen_postgres

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"surfacegraph/src/domain"
	"surfacegraph/src/helper/env"
	"surfacegraph/src/infra/postgres"
)

// RelationshipSeed é a linha pronta para o INSERT massivo. Properties já
// vai serializado porque o unnest espera jsonb[].
type RelationshipSeed struct {
	ID               uuid.UUID
	SourceExternalID string
	SourceType       domain.NodeType
	TargetExternalID string
	TargetType       domain.NodeType
	RelationType     domain.RelationType
	EdgeKey          string
	Properties       json.RawMessage
	CreatedBy        string
}

// AttackSurfaceBundle agrupa as arestas de uma organização inteira, da
// propriedade dos domínios até os serviços expostos.
type AttackSurfaceBundle struct {
	Relationships []RelationshipSeed
}

var (
	servicePorts = []int{80, 443, 22, 25, 8080, 8443, 3306, 5432}
	scannerNames = []string{"scanner-dns", "scanner-tls", "scanner-portscan", "scanner-whois", "manual"}
)

func newSQLClient() (*pgxpool.Pool, error) {
	dbHost := env.MustGetString("DB_WRITE_HOST")
	dbPort := env.GetString("DB_WRITE_PORT", "5432")
	dbname := env.MustGetString("DB_NAME")
	dbUser := env.MustGetString("DB_USER")
	dbPassword := env.MustGetString("DB_PASSWORD")
	maxConnections := 100
	return postgres.NewPostgresClient(dbHost, dbPort, dbname, dbUser, dbPassword, maxConnections)
}

func main() {
	rand.Seed(time.Now().UnixNano())

	numOrgs := flag.Int("orgs", -1, "Número de organizações a gerar. Use -1 para infinito.")
	bulkSize := flag.Int("bulk-size", 200, "Bundles por INSERT massivo")
	domainsPerOrg := flag.Int("domains-per-org", 5, "Domínios raiz por organização")
	subsPerDomain := flag.Int("subs-per-domain", 3, "Subdomínios máximos por domínio")
	numConsumers := flag.Int("consumers", 8, "Workers de escrita no Postgres")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := newSQLClient()
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer db.Close()

	chanSize := (*bulkSize) * (*numConsumers) * 2
	dataChan := make(chan AttackSurfaceBundle, chanSize)

	var wg sync.WaitGroup
	var totalRelationships, totalErrors int64
	startTime := time.Now()

	// Métricas a cada 2 segundos
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				inserted := atomic.LoadInt64(&totalRelationships)
				errors := atomic.LoadInt64(&totalErrors)
				elapsed := time.Since(startTime)
				rate := float64(inserted) / elapsed.Seconds()

				fmt.Printf("📊 Relationships: %d | Errors: %d | Rate: %.1f/s | Elapsed: %v\n",
					inserted, errors, rate, elapsed.Round(time.Second))
			}
		}
	}()

	for i := 0; i < *numConsumers; i++ {
		wg.Add(1)
		go relationshipWriter(ctx, &wg, db, dataChan, *bulkSize, i+1, &totalRelationships, &totalErrors)
	}

	wg.Add(1)
	go surfaceProducer(ctx, &wg, dataChan, *numOrgs, *domainsPerOrg, *subsPerDomain)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n🛑 Shutdown signal received, stopping...")
		cancel()
	}()

	wg.Wait()

	elapsed := time.Since(startTime)
	inserted := atomic.LoadInt64(&totalRelationships)
	errors := atomic.LoadInt64(&totalErrors)
	avgRate := float64(inserted) / elapsed.Seconds()

	fmt.Printf("\n🏁 Seeding finished!\n")
	fmt.Printf("📊 Total relationships: %d\n", inserted)
	fmt.Printf("❌ Total errors: %d\n", errors)
	fmt.Printf("⏱️  Total time: %v\n", elapsed.Round(time.Second))
	fmt.Printf("🚀 Average rate: %.1f records/s\n", avgRate)
}

func surfaceProducer(ctx context.Context, wg *sync.WaitGroup, dataChan chan<- AttackSurfaceBundle, numOrgs, domainsPerOrg, subsPerDomain int) {
	defer wg.Done()
	defer close(dataChan)

	isInfinite := numOrgs == -1
	orgCount := 0

	for isInfinite || orgCount < numOrgs {
		select {
		case <-ctx.Done():
			fmt.Println("Producer stopping.")
			return
		default:
			bundle := generateAttackSurface(domainsPerOrg, subsPerDomain)

			select {
			case dataChan <- bundle:
				orgCount++
				if orgCount%100 == 0 {
					fmt.Printf("Generated %d organizations\n", orgCount)
				}
			case <-ctx.Done():
				return
			}

			// Micro-pausa para não saturar CPU no modo infinito
			if orgCount%1000 == 0 {
				time.Sleep(10 * time.Millisecond)
			}
		}
	}
}

// generateAttackSurface monta a superfície de uma organização: domínios,
// subdomínios, resoluções, netblocks, serviços, certificados e aplicações
// clientes, sempre respeitando os pares de tipos de cada relação.
func generateAttackSurface(domainsPerOrg, subsPerDomain int) AttackSurfaceBundle {
	orgID := fmt.Sprintf("org-%s-%d", faker.Username(), rand.Intn(1000000))
	createdBy := scannerNames[rand.Intn(len(scannerNames))]

	bundle := AttackSurfaceBundle{}
	addEdge := func(sourceID string, sourceType domain.NodeType, targetID string, targetType domain.NodeType, relationType domain.RelationType, properties map[string]any) {
		propsJSON, _ := json.Marshal(properties)
		bundle.Relationships = append(bundle.Relationships, RelationshipSeed{
			ID:               uuid.New(),
			SourceExternalID: sourceID,
			SourceType:       sourceType,
			TargetExternalID: targetID,
			TargetType:       targetType,
			RelationType:     relationType,
			EdgeKey:          domain.DefaultEdgeKey,
			Properties:       propsJSON,
			CreatedBy:        createdBy,
		})
	}

	// Subsidiárias ocasionais
	if rand.Float32() < 0.15 {
		subsidiaryID := fmt.Sprintf("org-%s-%d", faker.Username(), rand.Intn(1000000))
		addEdge(orgID, domain.NodeTypeOrganization, subsidiaryID, domain.NodeTypeOrganization,
			domain.RelationTypeSubsidiary, map[string]any{"source": "registry", "confidence": 0.8})
	}

	// Netblocks da organização
	netblocks := make([]string, 0, 2)
	for i := 0; i < 1+rand.Intn(2); i++ {
		netblock := fmt.Sprintf("%d.%d.%d.0/24", 1+rand.Intn(223), rand.Intn(256), rand.Intn(256))
		netblocks = append(netblocks, netblock)
		addEdge(orgID, domain.NodeTypeOrganization, netblock, domain.NodeTypeNetblock,
			domain.RelationTypeOwnsNetblock, map[string]any{"source": "whois", "confidence": 0.9})
	}

	allServices := make([]string, 0, 8)

	for d := 0; d < domainsPerOrg; d++ {
		rootDomain := fmt.Sprintf("%s-%d.%s", faker.Username(), rand.Intn(100000), faker.DomainName())
		addEdge(orgID, domain.NodeTypeOrganization, rootDomain, domain.NodeTypeDomain,
			domain.RelationTypeOwnsDomain, map[string]any{"source": "whois", "confidence": 0.95})

		hostnames := []string{rootDomain}
		for s := 0; s < rand.Intn(subsPerDomain+1); s++ {
			subdomain := fmt.Sprintf("%s.%s", faker.Word(), rootDomain)
			hostnames = append(hostnames, subdomain)
			addEdge(rootDomain, domain.NodeTypeDomain, subdomain, domain.NodeTypeDomain,
				domain.RelationTypeSubdomain, map[string]any{"source": "scanner-dns"})
		}

		// Certificado cobrindo o domínio raiz
		if rand.Float32() < 0.6 {
			certificate := fmt.Sprintf("cert-%s", faker.UUIDDigit())
			addEdge(certificate, domain.NodeTypeCertificate, rootDomain, domain.NodeTypeDomain,
				domain.RelationTypeIssuedTo, map[string]any{
					"issuer":    "Let's Encrypt",
					"not_after": time.Now().AddDate(0, 3, 0).Format(time.RFC3339),
				})
		}

		for _, hostname := range hostnames {
			for r := 0; r < 1+rand.Intn(2); r++ {
				ip := faker.IPv4()
				addEdge(hostname, domain.NodeTypeDomain, ip, domain.NodeTypeIP,
					domain.RelationTypeResolvesTo, map[string]any{"record_type": "A", "ttl": 300})

				// Parte dos IPs cai dentro de um netblock conhecido
				if len(netblocks) > 0 && rand.Float32() < 0.5 {
					netblock := netblocks[rand.Intn(len(netblocks))]
					addEdge(netblock, domain.NodeTypeNetblock, ip, domain.NodeTypeIP,
						domain.RelationTypeContains, map[string]any{"source": "whois"})
				}

				// Resolução histórica invertida
				if rand.Float32() < 0.15 {
					formerDomain := fmt.Sprintf("%s-%d.%s", faker.Word(), rand.Intn(100000), faker.DomainName())
					addEdge(ip, domain.NodeTypeIP, formerDomain, domain.NodeTypeDomain,
						domain.RelationTypeHistoryResolves, map[string]any{
							"last_seen": time.Now().AddDate(0, -rand.Intn(12), 0).Format(time.RFC3339),
						})
				}

				// Atribuição direta do asset
				if rand.Float32() < 0.25 {
					addEdge(orgID, domain.NodeTypeOrganization, ip, domain.NodeTypeIP,
						domain.RelationTypeOwnsAsset, map[string]any{"source": "scanner-portscan", "confidence": 0.7})
				}

				for p := 0; p < 1+rand.Intn(2); p++ {
					port := servicePorts[rand.Intn(len(servicePorts))]
					service := fmt.Sprintf("svc-%s-%d", ip, port)
					allServices = append(allServices, service)
					addEdge(ip, domain.NodeTypeIP, service, domain.NodeTypeService,
						domain.RelationTypeHostsService, map[string]any{"port": port, "protocol": "tcp"})

					if rand.Float32() < 0.3 {
						addEdge(hostname, domain.NodeTypeDomain, service, domain.NodeTypeService,
							domain.RelationTypeRoutesTo, map[string]any{"source": "scanner-http"})
					}
				}
			}
		}
	}

	// Dependências entre serviços e aplicações clientes
	if len(allServices) > 1 && rand.Float32() < 0.4 {
		downstream := allServices[rand.Intn(len(allServices))]
		upstream := allServices[rand.Intn(len(allServices))]
		if downstream != upstream {
			addEdge(downstream, domain.NodeTypeService, upstream, domain.NodeTypeService,
				domain.RelationTypeUpstream, map[string]any{"source": "netflow"})
		}
	}

	if len(allServices) > 0 && rand.Float32() < 0.3 {
		clientApp := fmt.Sprintf("app-%s", faker.Username())
		service := allServices[rand.Intn(len(allServices))]
		addEdge(clientApp, domain.NodeTypeClientApplication, service, domain.NodeTypeService,
			domain.RelationTypeCommunicatesWith, map[string]any{"source": "netflow", "confidence": 0.6})
	}

	return bundle
}

func relationshipWriter(ctx context.Context, wg *sync.WaitGroup, db *pgxpool.Pool, dataChan <-chan AttackSurfaceBundle, bulkSize, writerID int, totalRelationships, totalErrors *int64) {
	defer wg.Done()
	log.Printf("🚀 Writer %d started", writerID)

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	bundles := make([]AttackSurfaceBundle, 0, bulkSize)

	flush := func(reason string) {
		if len(bundles) == 0 {
			return
		}
		inserted, err := bulkInsertRelationships(ctx, db, bundles)
		if err != nil {
			log.Printf("❌ Writer %d: ERROR on %s: %v", writerID, reason, err)
			atomic.AddInt64(totalErrors, 1)
		} else {
			atomic.AddInt64(totalRelationships, inserted)
		}
		bundles = bundles[:0]
	}

	for {
		select {
		case bundle, ok := <-dataChan:
			if !ok {
				flush("final flush")
				log.Printf("✅ Writer %d stopping.", writerID)
				return
			}

			bundles = append(bundles, bundle)
			if len(bundles) >= bulkSize {
				flush("bulk insert")
			}

		case <-ticker.C:
			flush("ticker flush")

		case <-ctx.Done():
			log.Printf("🛑 Writer %d received stop signal.", writerID)
			return
		}
	}
}

func bulkInsertRelationships(ctx context.Context, db *pgxpool.Pool, bundles []AttackSurfaceBundle) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	total := 0
	for _, bundle := range bundles {
		total += len(bundle.Relationships)
	}
	if total == 0 {
		return 0, nil
	}

	ids := make([]string, 0, total)
	sourceIDs := make([]string, 0, total)
	sourceTypes := make([]string, 0, total)
	targetIDs := make([]string, 0, total)
	targetTypes := make([]string, 0, total)
	relationTypes := make([]string, 0, total)
	edgeKeys := make([]string, 0, total)
	properties := make([]string, 0, total)
	createdBys := make([]string, 0, total)

	for _, bundle := range bundles {
		for _, seed := range bundle.Relationships {
			ids = append(ids, seed.ID.String())
			sourceIDs = append(sourceIDs, seed.SourceExternalID)
			sourceTypes = append(sourceTypes, string(seed.SourceType))
			targetIDs = append(targetIDs, seed.TargetExternalID)
			targetTypes = append(targetTypes, string(seed.TargetType))
			relationTypes = append(relationTypes, string(seed.RelationType))
			edgeKeys = append(edgeKeys, seed.EdgeKey)
			properties = append(properties, string(seed.Properties))
			createdBys = append(createdBys, seed.CreatedBy)
		}
	}

	// INSERT massivo via unnest; duplicatas de chave natural são ignoradas
	insertSQL := `
		INSERT INTO asset_relationships
			(id, source_external_id, source_type, target_external_id, target_type, relation_type, edge_key, properties, created_by)
		SELECT unnest($1::uuid[]), unnest($2::text[]), unnest($3::text[]), unnest($4::text[]), unnest($5::text[]),
			unnest($6::text[]), unnest($7::text[]), unnest($8::jsonb[]), unnest($9::text[])
		ON CONFLICT ON CONSTRAINT uq_asset_relationships_key DO NOTHING
	`

	tag, err := db.Exec(ctx, insertSQL,
		ids, sourceIDs, sourceTypes, targetIDs, targetTypes, relationTypes, edgeKeys, properties, createdBys)
	if err != nil {
		return 0, fmt.Errorf("failed to insert relationships: %w", err)
	}

	return tag.RowsAffected(), nil
}
