package storage

import (
	"errors"
	"sort"

	"github.com/cuemby/hbase-mesos/pkg/types"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned when the backing store cannot be reached or written
	ErrUnavailable = errors.New("store unavailable")
)

// Store defines the interface for the scheduler's durable state: the
// framework identity issued by the fleet and one record per placed node.
// Implementations must be safe for concurrent use.
type Store interface {
	// Framework identity; an empty id means none is stored
	GetFrameworkID() (string, error)
	SetFrameworkID(id string) error

	// Node records, keyed by task id
	PutNode(node *types.NodeRecord) error
	GetNode(taskID string) (*types.NodeRecord, error)
	ListNodes() ([]*types.NodeRecord, error)
	DeleteNode(taskID string) error

	// Utility
	Close() error
}

// sortNodes orders records by placement time, then task id
func sortNodes(nodes []*types.NodeRecord) {
	sort.Slice(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		}
		return nodes[i].TaskID < nodes[j].TaskID
	})
}
