package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/types"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 256
)

// StateResponse is the /v1/state body
type StateResponse struct {
	FrameworkID string                 `json:"framework_id,omitempty"`
	Phase       types.AcquisitionPhase `json:"phase"`
	Staging     []types.TaskRecord     `json:"staging"`
	Running     []types.TaskRecord     `json:"running"`
	Nodes       []*types.NodeRecord    `json:"nodes"`
	// LedgerError is set when the durable records could not be read
	LedgerError string `json:"ledger_error,omitempty"`
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.live.Snapshot()
	resp := StateResponse{
		Phase:   snap.Phase,
		Staging: snap.Staging,
		Running: snap.Running,
		Nodes:   []*types.NodeRecord{},
	}

	id, err := s.ledger.FrameworkID()
	if err != nil {
		resp.LedgerError = err.Error()
	}
	resp.FrameworkID = id

	nodes, err := s.ledger.Nodes()
	if err != nil {
		resp.LedgerError = err.Error()
	} else if nodes != nil {
		resp.Nodes = nodes
	}

	if resp.LedgerError != "" {
		s.logger.Warn().Str("error", resp.LedgerError).Msg("Serving state without ledger")
	}
	writeJSON(w, http.StatusOK, resp)
}

// eventsHandler returns recent events, or streams new ones as server-sent
// events with ?follow=true
func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if follow, _ := strconv.ParseBool(q.Get("follow")); follow {
		s.streamEvents(w, r)
		return
	}

	limit := defaultEventLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}

	recent := s.broker.Recent(limit)
	if recent == nil {
		recent = []*events.Event{}
	}
	writeJSON(w, http.StatusOK, recent)
}

func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	sub := s.broker.Subscribe()
	defer s.broker.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Warn().Err(err).Str("event_id", ev.ID).Msg("Failed to encode event")
				continue
			}
			if _, err := fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, ev.Type, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
