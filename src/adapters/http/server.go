package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"surfacegraph/src/services/relationships"
)

// HealthChecker é qualquer dependência que sabe dizer se está viva.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheckFunc adapta uma função solta em HealthChecker.
type HealthCheckFunc func(ctx context.Context) error

func (f HealthCheckFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// Server representa o servidor HTTP da API
type Server struct {
	logger              *slog.Logger
	server              *http.Server
	mux                 *http.ServeMux
	port                int
	relationshipService *relationships.RelationshipService
	healthCheckers      map[string]HealthChecker
}

// NewServer cria uma nova instância do servidor
func NewServer(
	logger *slog.Logger,
	port int,
	relationshipService *relationships.RelationshipService,
	healthCheckers map[string]HealthChecker,
) *Server {
	server := &Server{
		mux:                 http.NewServeMux(),
		port:                port,
		logger:              logger,
		relationshipService: relationshipService,
		healthCheckers:      healthCheckers,
	}

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      server.mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Rotas de Leitura
	server.mux.HandleFunc("GET /v1/relationships", server.ListRelationships)
	server.mux.HandleFunc("GET /v1/relationships/{id}", server.GetRelationship)
	server.mux.HandleFunc("POST /v1/relationships/paths", server.QueryPaths)

	// Rotas de Escrita
	server.mux.HandleFunc("POST /v1/relationships", server.CreateRelationship)
	server.mux.HandleFunc("PUT /v1/relationships/{id}", server.UpdateRelationship)
	server.mux.HandleFunc("DELETE /v1/relationships/{id}", server.DeleteRelationship)
	server.mux.HandleFunc("DELETE /v1/nodes/{node_type}/{external_id}/relationships", server.DeleteNodeRelationships)

	server.mux.HandleFunc("GET /health", server.Health)

	return server
}

// Start inicia o servidor HTTP
func (s *Server) Start() error {
	s.logger.Info("Server started", "port", s.port)

	return s.server.ListenAndServe()
}

// Shutdown encerra o servidor HTTP de forma graciosa
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
