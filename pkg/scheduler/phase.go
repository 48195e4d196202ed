package scheduler

import (
	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/cuemby/hbase-mesos/pkg/types"
)

// PhaseFor returns the phase that follows reconciliation for a durable
// coordinator count
func PhaseFor(coordinators int) types.AcquisitionPhase {
	if coordinators < types.MasterNodeTarget {
		return types.PhaseStartMasterNodes
	}
	return types.PhaseSlaveNodes
}

// roleForPhase returns the role a phase acquires nodes for
func roleForPhase(p types.AcquisitionPhase) (types.Role, bool) {
	switch p {
	case types.PhaseStartMasterNodes:
		return types.RoleMaster, true
	case types.PhaseSlaveNodes:
		return types.RoleSlave, true
	}
	return "", false
}

// correctPhase moves to the phase matching the durable coordinator count.
// When the ledger cannot be read the running coordinators stand in for it.
func (e *Engine) correctPhase() {
	count, err := e.ledger.CountByRole(types.RoleMaster)
	if err != nil {
		metrics.LedgerErrorsTotal.WithLabelValues("count_nodes").Inc()
		count = e.live.RunningCount(types.RoleMaster)
		e.logger.Warn().Err(err).Int("running_masters", count).Msg("Failed to count master node records, using running tasks")
	}
	e.transition(PhaseFor(count))
}

func (e *Engine) transition(next types.AcquisitionPhase) {
	prev := e.live.TransitionTo(next)
	if prev == next {
		return
	}
	e.logger.Info().Str("from", string(prev)).Str("to", string(next)).Msg("Acquisition phase changed")
	e.emit(events.EventPhaseChanged, string(next), "from", string(prev), "to", string(next))
}

// onTaskRunning applies the phase-specific reaction to a task reaching running
func (e *Engine) onTaskRunning() {
	phase := e.live.Phase()
	e.logger.Info().Str("phase", string(phase)).Msg("Current acquisition phase")

	switch phase {
	case types.PhaseStartMasterNodes:
		if e.live.RunningCount(types.RoleMaster) == types.MasterNodeTarget {
			e.reloadConfigs()
			e.correctPhase()
		}
	case types.PhaseSlaveNodes:
		// every new region server changes the membership all peers read
		e.reloadConfigs()
	}
}

// reloadConfigs asks every running executor to fetch its config files again
func (e *Engine) reloadConfigs() {
	if e.cfg.NativeHadoopBinaries {
		return
	}

	tasks := e.live.RunningTasks()
	for _, t := range tasks {
		e.logger.Info().
			Str("task_id", t.TaskID).
			Str("slave_id", t.SlaveID).
			Msg("Sending reload config message")
		if err := e.driver.SendFrameworkMessage(ExecutorID(t.TaskID), t.SlaveID, []byte(types.ReloadConfigMessage)); err != nil {
			e.logger.Error().Err(err).Str("task_id", t.TaskID).Msg("Failed to send reload config message")
		}
	}
	metrics.ReloadBroadcastsTotal.Inc()
	e.emit(events.EventConfigReloaded, types.ReloadConfigMessage)
}
