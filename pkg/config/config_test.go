package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "hbase", cfg.Framework.Name)
	assert.Equal(t, "*", cfg.Framework.Role)
	assert.Equal(t, DefaultReconcileTimeout, cfg.Mesos.ReconciliationTimeout)
	assert.Equal(t, DefaultFailoverTimeout, cfg.Framework.FailoverTimeout)
	assert.Equal(t, DefaultJVMOverhead, cfg.JVM.Overhead)
	assert.Equal(t, DefaultExecutorHeapMB, cfg.Executor.HeapMB)
	assert.NotEmpty(t, cfg.ConfigServer.HostAddress)
	assert.Equal(t, 30*time.Second, cfg.Probe.Interval)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hbase-mesos.yaml")
	content := `
mesos:
  master: http://mesos.example:5050
  reconciliation_timeout: 5s
masternode:
  cpus: 2
  heap_mb: 2048
config_server:
  host_address: 10.0.0.5
store:
  backend: bolt
  data_dir: /var/lib/hbase-mesos
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	t.Setenv("HBASE_MESOS_SLAVENODE_HEAP_MB", "3072")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-addr", "", "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--api-addr", "0.0.0.0:9191"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "http://mesos.example:5050", cfg.Mesos.Master)
	assert.Equal(t, 5*time.Second, cfg.Mesos.ReconciliationTimeout)
	assert.Equal(t, 2.0, cfg.Master.CPUs)
	assert.Equal(t, 2048, cfg.Master.HeapMB)
	assert.Equal(t, 3072, cfg.Slave.HeapMB)
	assert.Equal(t, "10.0.0.5", cfg.ConfigServer.HostAddress)
	assert.Equal(t, "/var/lib/hbase-mesos", cfg.Store.DataDir)
	assert.Equal(t, "0.0.0.0:9191", cfg.API.Addr)
	// unchanged flag keeps the file/default value
	assert.Equal(t, "info", cfg.Log.Level)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultExecutorHeapMB, cfg.Executor.HeapMB)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{
			name:   "missing master",
			mutate: func(c *Config) { c.Mesos.Master = "" },
			errMsg: "mesos.master is required",
		},
		{
			name:   "zero reconciliation timeout",
			mutate: func(c *Config) { c.Mesos.ReconciliationTimeout = 0 },
			errMsg: "reconciliation_timeout",
		},
		{
			name:   "overhead below one",
			mutate: func(c *Config) { c.JVM.Overhead = 0.9 },
			errMsg: "jvm.overhead",
		},
		{
			name:   "unknown backend",
			mutate: func(c *Config) { c.Store.Backend = "zookeeper" },
			errMsg: "unknown store backend",
		},
		{
			name: "etcd without endpoints",
			mutate: func(c *Config) {
				c.Store.Backend = StoreEtcd
				c.Store.EtcdEndpoints = nil
			},
			errMsg: "etcd_endpoints",
		},
		{
			name:   "principal without secret",
			mutate: func(c *Config) { c.Framework.Principal = "hbase" },
			errMsg: "principal",
		},
		{
			name:   "probe without retries",
			mutate: func(c *Config) { c.Probe.Retries = 0 },
			errMsg: "probe.timeout and probe.retries",
		},
		{
			name:   "negative executor cpus",
			mutate: func(c *Config) { c.Executor.CPUs = -1 },
			errMsg: "executor.cpus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestResourceMath(t *testing.T) {
	cfg := Default()
	cfg.Master = NodeConfig{CPUs: 0.5, HeapMB: 1000}
	cfg.Executor = NodeConfig{CPUs: 0.5, HeapMB: 200}
	cfg.JVM.Overhead = 1.5

	assert.InDelta(t, 1.0, cfg.RequiredCPUs(types.RoleMaster), 1e-9)
	assert.InDelta(t, 1500.0+300.0, cfg.RequiredMem(types.RoleMaster), 1e-9)
	assert.Equal(t, "1000m", cfg.HeapSize(types.RoleMaster))

	res := cfg.TaskResources(types.RoleMaster)
	require.Len(t, res, 2)
	assert.Equal(t, types.ResourceCPUs, res[0].Name)
	assert.Equal(t, "*", res[0].Role)
	assert.InDelta(t, 1500.0, res[1].Value, 1e-9)

	exec := cfg.ExecutorResources()
	assert.InDelta(t, 300.0, exec[1].Value, 1e-9)
}

func TestFetchURIs(t *testing.T) {
	cfg := Default()
	cfg.ConfigServer.HostAddress = "10.1.1.1"

	uris := cfg.FetchURIs(types.RoleSlave)
	assert.Equal(t, []string{
		"http://10.1.1.1:8765/" + types.BinaryFileName,
		"http://10.1.1.1:8765/regionservers",
		"http://10.1.1.1:8765/hbase-site.xml",
		"http://10.1.1.1:8765/hdfs-site.xml",
		cfg.JVM.JREURL,
	}, uris)

	cfg.ConfigServer.HDFSConfigURL = "http://namenode:50070/hdfs-site.xml"
	assert.Equal(t, "http://namenode:50070/hdfs-site.xml", cfg.FetchURIs(types.RoleMaster)[3])
}

func TestYAMLMasksSecret(t *testing.T) {
	cfg := Default()
	cfg.Framework.Principal = "hbase"
	cfg.Framework.Secret = "s3cr3t"

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "s3cr3t")
	assert.Equal(t, "s3cr3t", cfg.Framework.Secret)
}
