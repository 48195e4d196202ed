package ledger

import (
	"fmt"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/storage"
	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/hashicorp/go-multierror"
)

// TaskView answers whether a task is currently staging or running
type TaskView interface {
	IsLive(taskID string) bool
}

// Ledger is the cluster ledger: the durable record of the framework
// identity and of every placement, read together with the live task view
// to find dead nodes.
type Ledger struct {
	store storage.Store
	live  TaskView
	now   func() time.Time
}

// New creates a ledger over a store. live is consulted by DeadNodes.
func New(store storage.Store, live TaskView) *Ledger {
	return &Ledger{
		store: store,
		live:  live,
		now:   time.Now,
	}
}

// FrameworkID returns the stored framework identity, or "" if none
func (l *Ledger) FrameworkID() (string, error) {
	return l.store.GetFrameworkID()
}

// SetFrameworkID stores the framework identity; "" erases it
func (l *Ledger) SetFrameworkID(id string) error {
	return l.store.SetFrameworkID(id)
}

// AddNode records a placement
func (l *Ledger) AddNode(taskID, host string, role types.Role, taskName string) error {
	return l.store.PutNode(&types.NodeRecord{
		TaskID:    taskID,
		Hostname:  host,
		Role:      role,
		TaskName:  taskName,
		CreatedAt: l.now(),
	})
}

// Node returns the placement of one task. It fails with storage.ErrNotFound
// for a task the ledger does not know.
func (l *Ledger) Node(taskID string) (*types.NodeRecord, error) {
	return l.store.GetNode(taskID)
}

// RemoveTask forgets the placement of a task
func (l *Ledger) RemoveTask(taskID string) error {
	return l.store.DeleteNode(taskID)
}

// Nodes returns every placement, oldest first
func (l *Ledger) Nodes() ([]*types.NodeRecord, error) {
	return l.store.ListNodes()
}

// TaskIDs returns the task ids of every placement
func (l *Ledger) TaskIDs() (map[string]struct{}, error) {
	nodes, err := l.store.ListNodes()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		ids[n.TaskID] = struct{}{}
	}
	return ids, nil
}

// NodesByRole returns the placements of one role, oldest first
func (l *Ledger) NodesByRole(role types.Role) ([]*types.NodeRecord, error) {
	nodes, err := l.store.ListNodes()
	if err != nil {
		return nil, err
	}
	var out []*types.NodeRecord
	for _, n := range nodes {
		if n.Role == role {
			out = append(out, n)
		}
	}
	return out, nil
}

// TaskNames maps the task names in use by a role to their hosts
func (l *Ledger) TaskNames(role types.Role) (map[string]string, error) {
	nodes, err := l.NodesByRole(role)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(nodes))
	for _, n := range nodes {
		names[n.TaskName] = n.Hostname
	}
	return names, nil
}

// CountByRole returns the number of placements of a role
func (l *Ledger) CountByRole(role types.Role) (int, error) {
	nodes, err := l.NodesByRole(role)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// DeadNodes returns the hosts, oldest placement first, that hold a record
// of the role whose task is neither staging nor running.
func (l *Ledger) DeadNodes(role types.Role) ([]string, error) {
	nodes, err := l.NodesByRole(role)
	if err != nil {
		return nil, err
	}
	var hosts []string
	seen := make(map[string]bool)
	for _, n := range nodes {
		if l.live.IsLive(n.TaskID) || seen[n.Hostname] {
			continue
		}
		seen[n.Hostname] = true
		hosts = append(hosts, n.Hostname)
	}
	return hosts, nil
}

// DeadNode returns the dead placement of a role on a host, if any
func (l *Ledger) DeadNode(role types.Role, host string) (*types.NodeRecord, error) {
	nodes, err := l.NodesByRole(role)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Hostname == host && !l.live.IsLive(n.TaskID) {
			return n, nil
		}
	}
	return nil, nil
}

// HostHasRole reports whether a placement of the role is recorded on host
func (l *Ledger) HostHasRole(host string, role types.Role) (bool, error) {
	nodes, err := l.NodesByRole(role)
	if err != nil {
		return false, err
	}
	for _, n := range nodes {
		if n.Hostname == host {
			return true, nil
		}
	}
	return false, nil
}

// Purge removes every placement whose task id is not in keep and returns
// the removed records. Removal continues past individual failures; they
// are returned together.
func (l *Ledger) Purge(keep map[string]struct{}) ([]*types.NodeRecord, error) {
	nodes, err := l.store.ListNodes()
	if err != nil {
		return nil, err
	}

	var removed []*types.NodeRecord
	var result *multierror.Error
	for _, n := range nodes {
		if _, ok := keep[n.TaskID]; ok {
			continue
		}
		if err := l.store.DeleteNode(n.TaskID); err != nil {
			result = multierror.Append(result, fmt.Errorf("remove %s: %w", n.TaskID, err))
			continue
		}
		removed = append(removed, n)
	}
	return removed, result.ErrorOrNil()
}
