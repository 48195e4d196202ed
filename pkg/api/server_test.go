package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/cuemby/hbase-mesos/pkg/state"
	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLedger struct {
	frameworkID string
	nodes       []*types.NodeRecord
	err         error
}

func (l *fakeLedger) FrameworkID() (string, error) { return l.frameworkID, l.err }

func (l *fakeLedger) Nodes() ([]*types.NodeRecord, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.nodes, nil
}

type fixture struct {
	server *Server
	live   *state.LiveState
	ledger *fakeLedger
	broker *events.Broker
	health *metrics.HealthChecker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		live:   state.New(),
		ledger: &fakeLedger{frameworkID: "fw-1"},
		broker: events.NewBroker(),
		health: metrics.NewHealthChecker(metrics.ComponentStore, metrics.ComponentFleet),
	}
	f.broker.Start()
	t.Cleanup(f.broker.Stop)
	f.server = NewServer(f.live, f.ledger, f.broker, f.health)
	return f
}

func (f *fixture) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture(t)
	f.health.Update(metrics.ComponentStore, true, "bolt")

	w := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	var h metrics.HealthStatus
	decode(t, w, &h)
	assert.Equal(t, "healthy", h.Status)
	assert.False(t, h.Timestamp.IsZero())

	f.health.Update(metrics.ComponentStore, false, "database closed")
	w = f.get(t, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	decode(t, w, &h)
	assert.Equal(t, "unhealthy", h.Status)
	assert.Contains(t, h.Message, metrics.ComponentStore)
}

func TestReadyEndpoint(t *testing.T) {
	f := newFixture(t)
	f.health.Update(metrics.ComponentStore, true, "bolt")

	w := f.get(t, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var h metrics.HealthStatus
	decode(t, w, &h)
	assert.Equal(t, "not_ready", h.Status)
	assert.Equal(t, "waiting for "+metrics.ComponentFleet, h.Message)
	assert.Equal(t, "not registered", h.Components[metrics.ComponentFleet])

	f.health.Update(metrics.ComponentFleet, true, "registered")
	w = f.get(t, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLiveEndpoint(t *testing.T) {
	f := newFixture(t)
	w := f.get(t, "/live")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp LiveResponse
	decode(t, w, &resp)
	assert.Equal(t, "alive", resp.Status)
}

func TestMethodValidation(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/health", "/ready", "/live", "/v1/state", "/v1/events"} {
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			w := httptest.NewRecorder()
			f.server.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", method, path)
		}
	}
}

func TestRoutes(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.get(t, "/metrics").Code)
	assert.Equal(t, http.StatusNotFound, f.get(t, "/nonexistent").Code)
}

func TestStateEndpoint(t *testing.T) {
	f := newFixture(t)
	f.live.TransitionTo(types.PhaseSlaveNodes)
	f.live.AddStagingTask("slavenode.NodeExecutor.3", "h3", "agent-3")
	f.live.UpdateTaskForStatus(types.TaskStatus{TaskID: "masternode.NodeExecutor.1", State: types.TaskRunning, SlaveID: "agent-1"})
	f.ledger.nodes = []*types.NodeRecord{
		{TaskID: "masternode.NodeExecutor.1", Hostname: "h1", Role: types.RoleMaster, TaskName: "masternode1"},
		{TaskID: "slavenode.NodeExecutor.3", Hostname: "h3", Role: types.RoleSlave, TaskName: "slavenode"},
	}

	w := f.get(t, "/v1/state")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp StateResponse
	decode(t, w, &resp)
	assert.Equal(t, "fw-1", resp.FrameworkID)
	assert.Equal(t, types.PhaseSlaveNodes, resp.Phase)
	require.Len(t, resp.Staging, 1)
	assert.Equal(t, "h3", resp.Staging[0].Host)
	require.Len(t, resp.Running, 1)
	assert.Equal(t, "agent-1", resp.Running[0].SlaveID)
	require.Len(t, resp.Nodes, 2)
	assert.Equal(t, "masternode1", resp.Nodes[0].TaskName)
	assert.Empty(t, resp.LedgerError)
}

func TestStateEndpointWithoutLedger(t *testing.T) {
	f := newFixture(t)
	f.ledger.err = errors.New("store unavailable")

	w := f.get(t, "/v1/state")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp StateResponse
	decode(t, w, &resp)
	assert.Equal(t, types.PhaseReconcilingTasks, resp.Phase)
	assert.Equal(t, "store unavailable", resp.LedgerError)
	assert.NotNil(t, resp.Nodes)
	assert.Empty(t, resp.Nodes)
}

func TestRecentEvents(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/v1/events")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	f.broker.Emit(events.EventPhaseChanged, "START_MASTER_NODES")
	f.broker.Emit(events.EventTaskLaunched, "task launched", "host", "h1")
	f.broker.Emit(events.EventTaskRunning, "task running")
	require.Eventually(t, func() bool { return len(f.broker.Recent(10)) == 3 }, 2*time.Second, 10*time.Millisecond)

	w = f.get(t, "/v1/events?limit=2")
	var got []events.Event
	decode(t, w, &got)
	require.Len(t, got, 2)
	assert.Equal(t, events.EventTaskLaunched, got[0].Type)
	assert.Equal(t, "h1", got[0].Metadata["host"])
	assert.Equal(t, events.EventTaskRunning, got[1].Type)
	assert.NotEmpty(t, got[1].ID)

	for _, bad := range []string{"0", "-1", "many"} {
		assert.Equal(t, http.StatusBadRequest, f.get(t, "/v1/events?limit="+bad).Code, bad)
	}
}

func TestFollowEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.server.Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/events?follow=true", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return f.broker.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	f.broker.Emit(events.EventNodePurged, "stale node record removed", "task_id", "slavenode.NodeExecutor.9")

	reader := bufio.NewReader(resp.Body)
	var eventLine, dataLine string
	for dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimPrefix(line, "data: ")
		}
	}
	assert.Equal(t, string(events.EventNodePurged), eventLine)

	var ev events.Event
	require.NoError(t, json.Unmarshal([]byte(dataLine), &ev))
	assert.Equal(t, "slavenode.NodeExecutor.9", ev.Metadata["task_id"])

	cancel()
	require.Eventually(t, func() bool { return f.broker.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRequestMetrics(t *testing.T) {
	f := newFixture(t)
	ok := metrics.APIRequestsTotal.WithLabelValues("/live", "200")
	rejected := metrics.APIRequestsTotal.WithLabelValues("/live", "405")
	okBefore := testutil.ToFloat64(ok)
	rejectedBefore := testutil.ToFloat64(rejected)

	f.get(t, "/live")
	f.get(t, "/live")
	w := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/live", nil))

	assert.Equal(t, okBefore+2, testutil.ToFloat64(ok))
	assert.Equal(t, rejectedBefore+1, testutil.ToFloat64(rejected))
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.server.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsListenError(t *testing.T) {
	f := newFixture(t)
	err := f.server.Run(context.Background(), "256.0.0.1:bad")
	assert.Error(t, err)
}
