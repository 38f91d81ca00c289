package http

import (
	"context"
	"net/http"
	"time"
)

type HealthResponseDTO struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Health verifica as dependências registradas. Qualquer componente fora do
// ar degrada a resposta para 503, mas os demais continuam reportados.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponseDTO{
		Status:     "ok",
		Components: make(map[string]string, len(s.healthCheckers)),
	}

	status := http.StatusOK
	for name, checker := range s.healthCheckers {
		if err := checker.HealthCheck(ctx); err != nil {
			s.logger.Warn("Health check failed", "component", name, "error", err)
			response.Components[name] = "unavailable"
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		response.Components[name] = "ok"
	}

	writeJSON(w, status, response)
}
