package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// LiveResponse is the /live body
type LiveResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// healthHandler implements /health: 200 unless a component reports unhealthy
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	h := s.health.Health()
	code := http.StatusOK
	if h.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, h)
}

// readyHandler implements /ready: 200 once the ledger is reachable and the
// framework is registered
func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	h := s.health.Readiness()
	code := http.StatusOK
	if h.Status != "ready" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, h)
}

// liveHandler implements /live, a plain process liveness probe
func (s *Server) liveHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LiveResponse{Status: "alive", Timestamp: time.Now()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
