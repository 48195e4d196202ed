package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/fleet"
	"github.com/cuemby/hbase-mesos/pkg/ledger"
	"github.com/cuemby/hbase-mesos/pkg/state"
	"github.com/cuemby/hbase-mesos/pkg/storage"
	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jsonObj = map[string]interface{}

// liveMaster holds one subscription stream open and writes whatever the
// test sends; every other call is recorded
type liveMaster struct {
	events chan []byte
	calls  chan jsonObj
}

func newLiveMaster() *liveMaster {
	return &liveMaster{events: make(chan []byte, 16), calls: make(chan jsonObj, 64)}
}

func (m *liveMaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var c jsonObj
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if c["type"] != "SUBSCRIBE" {
		m.calls <- c
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Mesos-Stream-Id", "stream-1")
	w.WriteHeader(http.StatusOK)
	w.(http.Flusher).Flush()
	for {
		select {
		case rec := <-m.events:
			fmt.Fprintf(w, "%d\n", len(rec))
			w.Write(rec)
			w.(http.Flusher).Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (m *liveMaster) send(t *testing.T, ev jsonObj) {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	m.events <- data
}

// expect returns the next call of the given type, skipping others
func (m *liveMaster) expect(t *testing.T, typ string) jsonObj {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case c := <-m.calls:
			if c["type"] == typ {
				return c
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s call", typ)
			return nil
		}
	}
}

func wireOffer(id, host string) jsonObj {
	return jsonObj{
		"id":       jsonObj{"value": id},
		"agent_id": jsonObj{"value": "agent-" + host},
		"hostname": host,
		"resources": []jsonObj{
			{"name": "cpus", "type": "SCALAR", "scalar": jsonObj{"value": 2}},
			{"name": "mem", "type": "SCALAR", "scalar": jsonObj{"value": 4096}},
		},
	}
}

func TestEngineOverHTTPDriver(t *testing.T) {
	master := newLiveMaster()
	srv := httptest.NewServer(master)
	defer srv.Close()

	cfg := testConfig()
	cfg.Mesos.Master = srv.URL
	cfg.Mesos.ReconciliationTimeout = 100 * time.Millisecond

	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	live := state.New()
	l := ledger.New(store, live)

	driver := fleet.NewHTTPDriver(fleet.Options{
		Master:     srv.URL,
		Framework:  fleet.FrameworkInfo{Name: "hbase", User: "root", Role: "*", Checkpoint: true},
		RetryDelay: 10 * time.Millisecond,
	})
	engine := New(cfg, driver, live, l, nil)

	ctx, cancel := context.WithCancel(context.Background())
	engineDone := make(chan error, 1)
	driverDone := make(chan error, 1)
	go func() { engineDone <- engine.Run(ctx) }()
	go func() { driverDone <- driver.Run(ctx, engine) }()

	master.send(t, jsonObj{
		"type": "SUBSCRIBED",
		"subscribed": jsonObj{
			"framework_id":               jsonObj{"value": "fw-it"},
			"heartbeat_interval_seconds": 15,
		},
	})

	reconcile := master.expect(t, "RECONCILE")
	assert.Equal(t, jsonObj{"value": "fw-it"}, reconcile["framework_id"])
	require.Eventually(t, func() bool {
		return live.Phase() == types.PhaseStartMasterNodes
	}, 5*time.Second, 10*time.Millisecond)

	id, err := l.FrameworkID()
	require.NoError(t, err)
	assert.Equal(t, "fw-it", id)

	master.send(t, jsonObj{
		"type":   "OFFERS",
		"offers": jsonObj{"offers": []jsonObj{wireOffer("o1", "h1"), wireOffer("o2", "h2")}},
	})

	accept := master.expect(t, "ACCEPT")
	body := accept["accept"].(jsonObj)
	assert.Equal(t, []interface{}{jsonObj{"value": "o1"}}, body["offer_ids"])
	ops := body["operations"].([]interface{})
	require.Len(t, ops, 1)
	launch := ops[0].(jsonObj)["launch"].(jsonObj)
	task := launch["task_infos"].([]interface{})[0].(jsonObj)
	assert.Equal(t, "masternode1", task["name"])
	taskID := task["task_id"].(jsonObj)["value"].(string)
	assert.Equal(t, types.RoleMaster, types.RoleOfTaskID(taskID))

	decline := master.expect(t, "DECLINE")
	assert.Equal(t, []interface{}{jsonObj{"value": "o2"}}, decline["decline"].(jsonObj)["offer_ids"])

	master.send(t, jsonObj{
		"type": "UPDATE",
		"update": jsonObj{"status": jsonObj{
			"task_id":  jsonObj{"value": taskID},
			"state":    "TASK_RUNNING",
			"agent_id": jsonObj{"value": "agent-h1"},
			"uuid":     []byte("0123456789abcdef"),
		}},
	})

	ack := master.expect(t, "ACKNOWLEDGE")
	assert.Equal(t, jsonObj{"value": taskID}, ack["acknowledge"].(jsonObj)["task_id"])
	require.Eventually(t, func() bool { return live.IsRunning(taskID) }, 5*time.Second, 10*time.Millisecond)
	running := live.RunningTasks()
	require.Len(t, running, 1)
	assert.Equal(t, "h1", running[0].Host)
	assert.Equal(t, "agent-h1", running[0].SlaveID)

	nodes, err := l.Nodes()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "h1", nodes[0].Hostname)

	cancel()
	for _, done := range []chan error{engineDone, driverDone} {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("did not stop")
		}
	}
}
