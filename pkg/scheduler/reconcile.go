package scheduler

import (
	"strconv"

	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/cuemby/hbase-mesos/pkg/types"
)

// startReconciliation enters the reconciling phase, asks the master for
// every task it knows and arms the window after which placement resumes.
func (e *Engine) startReconciliation() {
	e.transition(types.PhaseReconcilingTasks)

	if err := e.driver.ReconcileTasks(nil); err != nil {
		e.logger.Error().Err(err).Msg("Failed to request task reconciliation")
	}

	e.stopReconcileTimer()
	e.reconcileGen++
	gen := e.reconcileGen
	e.reconcileClock = metrics.NewTimer()
	e.reconcileTimer = e.afterFunc(e.cfg.Mesos.ReconciliationTimeout, func() {
		e.enqueue(reconcileExpiredEvent{gen: gen})
	})

	e.logger.Info().
		Dur("timeout", e.cfg.Mesos.ReconciliationTimeout).
		Uint64("generation", gen).
		Msg("Reconciling tasks")
	e.emit(events.EventReconcileStart, "reconciliation started", "generation", strconv.FormatUint(gen, 10))
}

func (e *Engine) stopReconcileTimer() {
	if e.reconcileTimer != nil {
		e.reconcileTimer.Stop()
		e.reconcileTimer = nil
	}
}

// handleReconcileExpired closes the reconciliation window. Expiries from a
// superseded registration are ignored.
func (e *Engine) handleReconcileExpired(gen uint64) {
	if gen != e.reconcileGen || e.reconcileTimer == nil {
		e.logger.Debug().Uint64("generation", gen).Msg("Ignoring stale reconciliation timer")
		return
	}
	e.reconcileTimer = nil

	e.purgeStaleNodes()
	if e.reconcileClock != nil {
		e.reconcileClock.ObserveDuration(metrics.ReconciliationDuration)
		e.reconcileClock = nil
	}
	e.correctPhase()

	e.logger.Info().
		Int("running", len(e.live.RunningTaskIDs())).
		Str("phase", string(e.live.Phase())).
		Msg("Reconciliation complete")
	e.emit(events.EventReconcileDone, string(e.live.Phase()))
}

// purgeStaleNodes forgets every node record whose task the master did not
// report as running during the window
func (e *Engine) purgeStaleNodes() {
	removed, err := e.ledger.Purge(e.live.RunningTaskIDs())
	for _, n := range removed {
		e.logger.Info().
			Str("task_id", n.TaskID).
			Str("host", n.Hostname).
			Str("role", string(n.Role)).
			Msg("Removed stale node record")
		metrics.NodesPurgedTotal.Inc()
		e.emit(events.EventNodePurged, "stale node record removed", "task_id", n.TaskID, "host", n.Hostname)
	}
	if err != nil {
		metrics.LedgerErrorsTotal.WithLabelValues("purge").Inc()
		e.logger.Warn().Err(err).Msg("Failed to remove some stale node records")
	}
}

// handleImplicitReconcile requests the status of every task. Terminal
// updates for tasks that died unnoticed then clean up as usual. Skipped
// while a reconciliation window is open or before registration.
func (e *Engine) handleImplicitReconcile() {
	if e.live.Phase() == types.PhaseReconcilingTasks || e.frameworkID == "" {
		e.logger.Debug().Str("phase", string(e.live.Phase())).Msg("Skipping implicit reconciliation")
		return
	}
	if err := e.driver.ReconcileTasks(nil); err != nil {
		e.logger.Warn().Err(err).Msg("Failed to request implicit reconciliation")
		return
	}
	metrics.ImplicitReconcilesTotal.Inc()
	e.logger.Debug().Msg("Requested implicit reconciliation")
}
