package types

import (
	"fmt"
	"strings"
	"time"
)

// Role identifies which HBase server process a task runs
type Role string

const (
	// RoleMaster is the coordinator role (HBase master), replicated MasterNodeTarget times
	RoleMaster Role = "masternode"
	// RoleSlave is the worker role (region server), unbounded
	RoleSlave Role = "slavenode"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleMaster || r == RoleSlave
}

const (
	// MasterNodeTarget is the number of coordinator tasks the cluster runs
	MasterNodeTarget = 2

	// NodeExecutorID labels the executor launched for every role
	NodeExecutorID = "NodeExecutor"

	// ReloadConfigMessage asks a running executor to fetch its config files again
	ReloadConfigMessage = "reload config"

	// Artifact and config file names served by the config server
	BinaryFileName        = "hbase-mesos-executor-0.1.0.tgz"
	HBaseConfigFileName   = "hbase-site.xml"
	HDFSConfigFileName    = "hdfs-site.xml"
	RegionServersFileName = "regionservers"
)

// MasterTaskName returns the task name of coordinator slot i (1-based)
func MasterTaskName(i int) string {
	return fmt.Sprintf("%s%d", RoleMaster, i)
}

// AcquisitionPhase is the role the scheduler is currently trying to satisfy
type AcquisitionPhase string

const (
	PhaseReconcilingTasks AcquisitionPhase = "RECONCILING_TASKS"
	PhaseStartMasterNodes AcquisitionPhase = "START_MASTER_NODES"
	PhaseSlaveNodes       AcquisitionPhase = "SLAVE_NODES"
)

// Phases lists every acquisition phase, in state machine order
var Phases = []AcquisitionPhase{PhaseReconcilingTasks, PhaseStartMasterNodes, PhaseSlaveNodes}

// TaskState is the state the fleet reports for a task
type TaskState string

const (
	TaskStaging  TaskState = "TASK_STAGING"
	TaskStarting TaskState = "TASK_STARTING"
	TaskRunning  TaskState = "TASK_RUNNING"
	TaskKilling  TaskState = "TASK_KILLING"
	TaskFinished TaskState = "TASK_FINISHED"
	TaskFailed   TaskState = "TASK_FAILED"
	TaskKilled   TaskState = "TASK_KILLED"
	TaskLost     TaskState = "TASK_LOST"
	TaskError    TaskState = "TASK_ERROR"
)

// IsTerminal reports whether the task will never run again
func (s TaskState) IsTerminal() bool {
	switch s {
	case TaskFinished, TaskFailed, TaskKilled, TaskLost, TaskError:
		return true
	}
	return false
}

// TaskStatus is a status update for one task
type TaskStatus struct {
	TaskID  string    `json:"task_id"`
	State   TaskState `json:"state"`
	SlaveID string    `json:"slave_id,omitempty"`
	Message string    `json:"message,omitempty"`
	// UUID is set when the fleet expects the update to be acknowledged
	UUID []byte `json:"uuid,omitempty"`
}

// TaskRecord is the in-memory view of a task launched by this scheduler
type TaskRecord struct {
	TaskID    string    `json:"task_id"`
	Host      string    `json:"host,omitempty"`
	SlaveID   string    `json:"slave_id,omitempty"`
	State     TaskState `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NodeRecord is the durable record of a placement
type NodeRecord struct {
	TaskID    string    `json:"task_id"`
	Hostname  string    `json:"hostname"`
	Role      Role      `json:"role"`
	TaskName  string    `json:"task_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Resource is a named scalar resource, tagged with the role that may use it
type Resource struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Role  string  `json:"role,omitempty"`
}

const (
	ResourceCPUs = "cpus"
	ResourceMem  = "mem"
)

// Offer is a bundle of resources on one host proposed by the fleet
type Offer struct {
	ID        string     `json:"id"`
	Hostname  string     `json:"hostname"`
	SlaveID   string     `json:"slave_id"`
	Resources []Resource `json:"resources"`
}

// Scalar returns the total quantity of the named resource across all its
// entries and whether the offer carries it at all
func (o *Offer) Scalar(name string) (float64, bool) {
	total := 0.0
	found := false
	for _, r := range o.Resources {
		if r.Name == name {
			total += r.Value
			found = true
		}
	}
	return total, found
}

// EnvVar is a single environment variable passed to the executor
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CommandInfo describes what an executor runs and what it fetches first
type CommandInfo struct {
	URIs        []string `json:"uris"`
	Environment []EnvVar `json:"environment,omitempty"`
	Value       string   `json:"value"`
}

// ExecutorInfo describes the executor process that hosts a task
type ExecutorInfo struct {
	ExecutorID string      `json:"executor_id"`
	Name       string      `json:"name"`
	Resources  []Resource  `json:"resources"`
	Command    CommandInfo `json:"command"`
}

// TaskInfo is a launch request for one task on one offer
type TaskInfo struct {
	TaskID    string       `json:"task_id"`
	Name      string       `json:"name"`
	SlaveID   string       `json:"slave_id"`
	Resources []Resource   `json:"resources"`
	Executor  ExecutorInfo `json:"executor"`
	Data      []byte       `json:"data,omitempty"`
}

// MasterInfo identifies the fleet master the scheduler is registered with
type MasterInfo struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`
}

// RoleOfTaskID returns the role encoded in a task id, or "" if the id does
// not start with a known role.
func RoleOfTaskID(taskID string) Role {
	role := Role(taskID)
	if i := strings.IndexByte(taskID, '.'); i >= 0 {
		role = Role(taskID[:i])
	}
	if !role.Valid() {
		return ""
	}
	return role
}
