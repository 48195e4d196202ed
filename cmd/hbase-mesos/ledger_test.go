package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleDump() ledgerDump {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return ledgerDump{
		FrameworkID: "fw-1",
		Nodes: []*types.NodeRecord{
			{TaskID: "masternode.NodeExecutor.1", Hostname: "h1", Role: types.RoleMaster, TaskName: "masternode1", CreatedAt: created},
			{TaskID: "slavenode.NodeExecutor.2", Hostname: "h2", Role: types.RoleSlave, TaskName: "slavenode", CreatedAt: created},
		},
	}
}

func TestPrintLedgerTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printLedger(&buf, "table", sampleDump()))

	out := buf.String()
	assert.Contains(t, out, "Framework ID: fw-1")
	assert.Contains(t, out, "TASK NAME")
	assert.Contains(t, out, "masternode1")
	assert.Contains(t, out, "2024-03-01T12:00:00Z")

	buf.Reset()
	require.NoError(t, printLedger(&buf, "table", ledgerDump{}))
	assert.Contains(t, buf.String(), "Framework ID: <none>")
}

func TestPrintLedgerYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printLedger(&buf, "yaml", sampleDump()))

	var got ledgerDump
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "fw-1", got.FrameworkID)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, "h2", got.Nodes[1].Hostname)
}

func TestPrintLedgerJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printLedger(&buf, "json", sampleDump()))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "fw-1", got["framework_id"])
}

func TestPrintLedgerUnknownFormat(t *testing.T) {
	assert.Error(t, printLedger(&bytes.Buffer{}, "xml", sampleDump()))
}
