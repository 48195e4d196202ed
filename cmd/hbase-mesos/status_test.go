package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/api"
	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestPrintState(t *testing.T) {
	st := &api.StateResponse{
		FrameworkID: "fw-1",
		Phase:       types.PhaseSlaveNodes,
		Running:     []types.TaskRecord{{TaskID: "masternode.NodeExecutor.1"}},
		Staging:     []types.TaskRecord{{TaskID: "slavenode.NodeExecutor.3"}},
		Nodes: []*types.NodeRecord{
			{TaskID: "masternode.NodeExecutor.1", Hostname: "h1", Role: types.RoleMaster, TaskName: "masternode1"},
			{TaskID: "masternode.NodeExecutor.2", Hostname: "h2", Role: types.RoleMaster, TaskName: "masternode2"},
			{TaskID: "slavenode.NodeExecutor.3", Hostname: "h3", Role: types.RoleSlave, TaskName: "slavenode"},
		},
	}

	var buf bytes.Buffer
	printState(&buf, st)
	out := buf.String()

	assert.Contains(t, out, "Phase:        SLAVE_NODES")
	assert.Contains(t, out, "1 running, 1 staging")
	assert.Regexp(t, `masternode1\s+masternode\s+h1\s+running`, out)
	assert.Regexp(t, `masternode2\s+masternode\s+h2\s+dead`, out)
	assert.Regexp(t, `slavenode\s+slavenode\s+h3\s+staging`, out)
	assert.NotContains(t, out, "Ledger:")
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, &events.Event{
		Type:      events.EventOfferDeclined,
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Message:   "offer declined",
		Metadata:  map[string]string{"reason": "colocated", "host": "h2"},
	})
	assert.Equal(t, "2024-03-01T12:00:00Z  offer.declined         offer declined host=h2 reason=colocated\n", buf.String())
}
