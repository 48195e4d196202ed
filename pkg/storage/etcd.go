package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/cuemby/hbase-mesos/pkg/types"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Key layout under the configured prefix
const (
	etcdFrameworkKey = "/framework_id"
	etcdNodesPrefix  = "/nodes/"
)

// EtcdStore implements Store on an etcd v3 cluster, so that a scheduler
// restarted on another host finds the same state.
type EtcdStore struct {
	client  *clientv3.Client
	prefix  string
	timeout time.Duration
}

// NewEtcdStore connects to etcd and checks that it answers
func NewEtcdStore(endpoints []string, prefix string, timeout time.Duration) (*EtcdStore, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	s := &EtcdStore{
		client:  cli,
		prefix:  strings.TrimSuffix(prefix, "/"),
		timeout: timeout,
	}

	logger := log.WithComponent("storage")
	err = retry.Do(
		func() error {
			_, err := s.GetFrameworkID()
			return err
		},
		retry.Attempts(5),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn().Err(err).Uint("attempt", n+1).Strs("endpoints", endpoints).Msg("etcd not reachable yet")
		}),
	)
	if err != nil {
		cli.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the etcd client
func (s *EtcdStore) Close() error {
	return s.client.Close()
}

func (s *EtcdStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func (s *EtcdStore) nodeKey(taskID string) string {
	return s.prefix + etcdNodesPrefix + taskID
}

// Framework identity
func (s *EtcdStore) GetFrameworkID() (string, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	resp, err := s.client.Get(ctx, s.prefix+etcdFrameworkKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Kvs) == 0 {
		return "", nil
	}
	return string(resp.Kvs[0].Value), nil
}

func (s *EtcdStore) SetFrameworkID(id string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	var err error
	if id == "" {
		_, err = s.client.Delete(ctx, s.prefix+etcdFrameworkKey)
	} else {
		_, err = s.client.Put(ctx, s.prefix+etcdFrameworkKey, id)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Node operations
func (s *EtcdStore) PutNode(node *types.NodeRecord) error {
	data, err := json.Marshal(node)
	if err != nil {
		return err
	}

	ctx, cancel := s.ctx()
	defer cancel()

	if _, err := s.client.Put(ctx, s.nodeKey(node.TaskID), string(data)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *EtcdStore) GetNode(taskID string) (*types.NodeRecord, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	resp, err := s.client.Get(ctx, s.nodeKey(taskID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("node %s: %w", taskID, ErrNotFound)
	}

	var node types.NodeRecord
	if err := json.Unmarshal(resp.Kvs[0].Value, &node); err != nil {
		return nil, fmt.Errorf("failed to decode node %s: %w", taskID, err)
	}
	return &node, nil
}

func (s *EtcdStore) ListNodes() ([]*types.NodeRecord, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	resp, err := s.client.Get(ctx, s.prefix+etcdNodesPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	nodes := make([]*types.NodeRecord, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var node types.NodeRecord
		if err := json.Unmarshal(kv.Value, &node); err != nil {
			return nil, fmt.Errorf("failed to decode node %s: %w", kv.Key, err)
		}
		nodes = append(nodes, &node)
	}
	sortNodes(nodes)
	return nodes, nil
}

func (s *EtcdStore) DeleteNode(taskID string) error {
	ctx, cancel := s.ctx()
	defer cancel()

	if _, err := s.client.Delete(ctx, s.nodeKey(taskID)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
