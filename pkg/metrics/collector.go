package metrics

import (
	"context"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/cuemby/hbase-mesos/pkg/state"
	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/rs/zerolog"
)

// DefaultInterval is how often the collector refreshes gauges
const DefaultInterval = 15 * time.Second

// StateSource exposes a copy of the live state
type StateSource interface {
	Snapshot() state.Snapshot
}

// NodeSource lists the durable node records
type NodeSource interface {
	Nodes() ([]*types.NodeRecord, error)
}

// Collector refreshes the gauges from the live state and the ledger
type Collector struct {
	live     StateSource
	nodes    NodeSource
	interval time.Duration
	logger   zerolog.Logger
}

// NewCollector creates a new metrics collector
func NewCollector(live StateSource, nodes NodeSource, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Collector{
		live:     live,
		nodes:    nodes,
		interval: interval,
		logger:   log.WithComponent("metrics"),
	}
}

// Run collects immediately and then on every tick until ctx is done
func (c *Collector) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Collect()
	for {
		select {
		case <-ticker.C:
			c.Collect()
		case <-ctx.Done():
			return nil
		}
	}
}

// Collect refreshes every gauge once
func (c *Collector) Collect() {
	snap := c.live.Snapshot()
	c.collectPhase(snap.Phase)
	c.collectTasks(snap)
	c.collectNodes()
}

func (c *Collector) collectPhase(current types.AcquisitionPhase) {
	for _, p := range types.Phases {
		v := 0.0
		if p == current {
			v = 1
		}
		Phase.WithLabelValues(string(p)).Set(v)
	}
}

func (c *Collector) collectTasks(snap state.Snapshot) {
	counts := map[string]map[types.Role]int{
		"staging": {},
		"running": {},
	}
	for _, rec := range snap.Staging {
		counts["staging"][types.RoleOfTaskID(rec.TaskID)]++
	}
	for _, rec := range snap.Running {
		counts["running"][types.RoleOfTaskID(rec.TaskID)]++
	}

	for st, byRole := range counts {
		for _, role := range []types.Role{types.RoleMaster, types.RoleSlave} {
			TasksTotal.WithLabelValues(string(role), st).Set(float64(byRole[role]))
		}
	}
}

func (c *Collector) collectNodes() {
	nodes, err := c.nodes.Nodes()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to list node records")
		return
	}

	counts := make(map[types.Role]int)
	for _, n := range nodes {
		counts[n.Role]++
	}
	for _, role := range []types.Role{types.RoleMaster, types.RoleSlave} {
		NodeRecords.WithLabelValues(string(role)).Set(float64(counts[role]))
	}
}
