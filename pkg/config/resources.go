package config

import (
	"fmt"

	"github.com/cuemby/hbase-mesos/pkg/types"
)

// TaskCPUs returns the cpus a role's task reserves
func (c Config) TaskCPUs(role types.Role) float64 {
	return c.node(role).CPUs
}

// TaskHeapMB returns the JVM heap of a role's task
func (c Config) TaskHeapMB(role types.Role) int {
	return c.node(role).HeapMB
}

// RequiredCPUs is the cpu an offer must carry to host a role: the task plus
// its executor.
func (c Config) RequiredCPUs(role types.Role) float64 {
	return c.TaskCPUs(role) + c.Executor.CPUs
}

// RequiredMem is the memory an offer must carry to host a role. Both the
// task heap and the executor heap are scaled by the JVM overhead factor.
func (c Config) RequiredMem(role types.Role) float64 {
	return float64(c.TaskHeapMB(role))*c.JVM.Overhead + float64(c.Executor.HeapMB)*c.JVM.Overhead
}

// TaskResources is the reservation attached to a role's task
func (c Config) TaskResources(role types.Role) []types.Resource {
	return []types.Resource{
		{Name: types.ResourceCPUs, Value: c.TaskCPUs(role), Role: c.Framework.Role},
		{Name: types.ResourceMem, Value: float64(c.TaskHeapMB(role)) * c.JVM.Overhead, Role: c.Framework.Role},
	}
}

// ExecutorResources is the reservation attached to every executor
func (c Config) ExecutorResources() []types.Resource {
	return []types.Resource{
		{Name: types.ResourceCPUs, Value: c.Executor.CPUs, Role: c.Framework.Role},
		{Name: types.ResourceMem, Value: float64(c.Executor.HeapMB) * c.JVM.Overhead, Role: c.Framework.Role},
	}
}

// HeapSize is the HBASE_HEAPSIZE value for a role
func (c Config) HeapSize(role types.Role) string {
	return fmt.Sprintf("%dm", c.TaskHeapMB(role))
}

// JVMOpts is the HBASE_OPTS value for a role. Every role currently shares
// the same options.
func (c Config) JVMOpts(role types.Role) string {
	return c.JVM.Opts
}

// ConfigServerURL returns the URL of a file served by the config server
func (c Config) ConfigServerURL(file string) string {
	return fmt.Sprintf("http://%s:%d/%s", c.ConfigServer.HostAddress, c.ConfigServer.Port, file)
}

// FetchURIs lists what the fleet downloads into a role's sandbox before
// starting the executor, in order.
func (c Config) FetchURIs(role types.Role) []string {
	hdfs := c.ConfigServer.HDFSConfigURL
	if hdfs == "" {
		hdfs = c.ConfigServerURL(types.HDFSConfigFileName)
	}
	return []string{
		c.ConfigServerURL(types.BinaryFileName),
		c.ConfigServerURL(types.RegionServersFileName),
		c.ConfigServerURL(types.HBaseConfigFileName),
		hdfs,
		c.JVM.JREURL,
	}
}
