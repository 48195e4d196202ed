package state

import (
	"sort"
	"sync"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/types"
)

// LiveState tracks the tasks this process believes are staging or running
// and the current acquisition phase. It starts empty on every process start
// and is filled by launches and status updates.
//
// The scheduler engine is the only writer. The mutex exists for readers on
// other goroutines (metrics collector, status API).
type LiveState struct {
	mu      sync.RWMutex
	phase   types.AcquisitionPhase
	staging map[string]*types.TaskRecord
	running map[string]*types.TaskRecord
	now     func() time.Time
}

// Snapshot is a point-in-time copy of the live state
type Snapshot struct {
	Phase   types.AcquisitionPhase `json:"phase"`
	Staging []types.TaskRecord     `json:"staging"`
	Running []types.TaskRecord     `json:"running"`
}

// New returns an empty live state in the reconciling phase
func New() *LiveState {
	return &LiveState{
		phase:   types.PhaseReconcilingTasks,
		staging: make(map[string]*types.TaskRecord),
		running: make(map[string]*types.TaskRecord),
		now:     time.Now,
	}
}

// Phase returns the current acquisition phase
func (s *LiveState) Phase() types.AcquisitionPhase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// TransitionTo sets the phase and returns the previous one
func (s *LiveState) TransitionTo(phase types.AcquisitionPhase) types.AcquisitionPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.phase
	s.phase = phase
	return prev
}

// AddStagingTask records a task that was just launched
func (s *LiveState) AddStagingTask(taskID, host, slaveID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staging[taskID] = &types.TaskRecord{
		TaskID:    taskID,
		Host:      host,
		SlaveID:   slaveID,
		State:     types.TaskStaging,
		UpdatedAt: s.now(),
	}
}

// RemoveStagingTask forgets a staging task, if present
func (s *LiveState) RemoveStagingTask(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staging, taskID)
}

// StagingCount returns the number of staging tasks
func (s *LiveState) StagingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.staging)
}

// UpdateTaskForStatus upserts a running task from a status update and
// de-stages it. The host is carried over from the staging record when known.
// It returns a copy of the updated record.
func (s *LiveState) UpdateTaskForStatus(status types.TaskStatus) types.TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.running[status.TaskID]
	if !ok {
		rec = &types.TaskRecord{TaskID: status.TaskID}
		if staged, ok := s.staging[status.TaskID]; ok {
			rec.Host = staged.Host
		}
		s.running[status.TaskID] = rec
	}
	if status.SlaveID != "" {
		rec.SlaveID = status.SlaveID
	}
	rec.State = status.State
	rec.UpdatedAt = s.now()
	delete(s.staging, status.TaskID)
	return *rec
}

// SetTaskHost fills in the host of a running task, for tasks whose
// staging record this process never saw
func (s *LiveState) SetTaskHost(taskID, host string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.running[taskID]
	if !ok {
		return false
	}
	rec.Host = host
	return true
}

// RemoveRunningTask forgets a running task and returns its last record
func (s *LiveState) RemoveRunningTask(taskID string) (types.TaskRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.running[taskID]
	if !ok {
		return types.TaskRecord{}, false
	}
	delete(s.running, taskID)
	return *rec, true
}

// IsRunning reports whether a task is in the running set
func (s *LiveState) IsRunning(taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.running[taskID]
	return ok
}

// IsLive reports whether a task is staging or running
func (s *LiveState) IsLive(taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.staging[taskID]; ok {
		return true
	}
	_, ok := s.running[taskID]
	return ok
}

// RunningTaskIDs returns the ids of all running tasks
func (s *LiveState) RunningTaskIDs() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make(map[string]struct{}, len(s.running))
	for id := range s.running {
		ids[id] = struct{}{}
	}
	return ids
}

// RunningTasks returns copies of the running task records, ordered by task id
func (s *LiveState) RunningTasks() []types.TaskRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCopy(s.running)
}

// RunningCount returns how many running tasks have the given role
func (s *LiveState) RunningCount(role types.Role) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for id := range s.running {
		if types.RoleOfTaskID(id) == role {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the whole live state
func (s *LiveState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Phase:   s.phase,
		Staging: sortedCopy(s.staging),
		Running: sortedCopy(s.running),
	}
}

func sortedCopy(m map[string]*types.TaskRecord) []types.TaskRecord {
	out := make([]types.TaskRecord, 0, len(m))
	for _, rec := range m {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}
