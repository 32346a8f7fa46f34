package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/pictolab/pictolab/internal/dto"
)

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Ok"})
}

func probe(ctx context.Context, fn func(ctx context.Context) error) string {
	if fn == nil {
		return "unconfigured"
	}
	if err := fn(ctx); err != nil {
		return "down"
	}
	return "up"
}

func (s *Server) handleServerState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	writeJSON(w, http.StatusOK, dto.ServiceStatusResponse{
		DB:    probe(ctx, s.probes.DB),
		Redis: probe(ctx, s.probes.Redis),
		Email: probe(ctx, s.probes.Email),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}
