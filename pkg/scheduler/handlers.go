package scheduler

import (
	"errors"
	"strings"

	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/cuemby/hbase-mesos/pkg/storage"
	"github.com/cuemby/hbase-mesos/pkg/types"
)

func (e *Engine) handleRegistered(frameworkID string, master types.MasterInfo) error {
	if err := e.ledger.SetFrameworkID(frameworkID); err != nil {
		metrics.LedgerErrorsTotal.WithLabelValues("set_framework_id").Inc()
		return fatal(ExitFailure, "failed to persist framework id", err)
	}
	e.frameworkID = frameworkID

	e.logger.Info().
		Str("framework_id", frameworkID).
		Str("master", master.Hostname).
		Int("port", master.Port).
		Msg("Registered framework")
	metrics.UpdateComponent(metrics.ComponentFleet, true, "registered")
	e.emit(events.EventRegistered, "registered with master", "framework_id", frameworkID, "master", master.Hostname)

	e.startReconciliation()
	return nil
}

func (e *Engine) handleReregistered(master types.MasterInfo) error {
	if e.frameworkID != "" {
		if err := e.ledger.SetFrameworkID(e.frameworkID); err != nil {
			metrics.LedgerErrorsTotal.WithLabelValues("set_framework_id").Inc()
			return fatal(ExitFailure, "failed to persist framework id", err)
		}
	}

	e.logger.Info().
		Str("framework_id", e.frameworkID).
		Str("master", master.Hostname).
		Msg("Reregistered framework, starting task reconciliation")
	metrics.UpdateComponent(metrics.ComponentFleet, true, "reregistered")
	e.emit(events.EventReregistered, "reregistered with master", "master", master.Hostname)

	e.startReconciliation()
	return nil
}

// handleOffers launches on at most one offer of the batch and declines the rest
func (e *Engine) handleOffers(offers []types.Offer) error {
	e.logger.Info().
		Int("offers", len(offers)).
		Str("phase", string(e.live.Phase())).
		Msg("Received offers")

	accepted := false
	for i := range offers {
		offer := &offers[i]
		if accepted {
			e.decline(offer, reasonBatchFilled)
			continue
		}

		d, err := e.evaluate(offer)
		if err != nil {
			e.decline(offer, reasonFault)
			return err
		}
		if !d.accept {
			e.decline(offer, d.reason)
			continue
		}
		if e.launch(offer, d) {
			accepted = true
		} else {
			e.decline(offer, reasonLaunchFailed)
		}
	}
	return nil
}

func (e *Engine) decline(offer *types.Offer, reason string) {
	if err := e.driver.DeclineOffer(offer.ID); err != nil {
		e.logger.Error().Err(err).Str("offer_id", offer.ID).Msg("Failed to decline offer")
	}
	metrics.OffersTotal.WithLabelValues("declined", reason).Inc()

	switch reason {
	case reasonReconciling, reasonBatchFilled:
	default:
		e.emit(events.EventOfferDeclined, "offer declined", "offer_id", offer.ID, "host", offer.Hostname, "reason", reason)
	}
}

func (e *Engine) handleStatus(status types.TaskStatus) {
	metrics.StatusUpdatesTotal.WithLabelValues(string(status.State)).Inc()
	logger := log.ForTask(e.logger, status.TaskID)
	logger.Info().
		Str("state", string(status.State)).
		Str("status_message", status.Message).
		Int("staging", e.live.StagingCount()).
		Msg("Received status update")

	// a running update de-stages inside UpdateTaskForStatus, which needs
	// the staging record for the host
	if !pending(status.State) && status.State != types.TaskRunning {
		e.live.RemoveStagingTask(status.TaskID)
	}

	switch {
	case status.State.IsTerminal():
		e.live.RemoveRunningTask(status.TaskID)
		if err := e.ledger.RemoveTask(status.TaskID); err != nil {
			metrics.LedgerErrorsTotal.WithLabelValues("remove_task").Inc()
			logger.Warn().Err(err).Msg("Failed to remove node record")
		}
		e.emit(events.EventTaskTerminated, status.Message, "task_id", status.TaskID, "state", string(status.State))

		// a crash must not wait for the next reconciliation
		if e.live.Phase() != types.PhaseReconcilingTasks {
			e.correctPhase()
		}

	case status.State == types.TaskRunning:
		if rec := e.live.UpdateTaskForStatus(status); rec.Host == "" {
			e.fillHost(status.TaskID)
		}
		e.emit(events.EventTaskRunning, "task running", "task_id", status.TaskID, "slave_id", status.SlaveID)
		e.onTaskRunning()

	case pending(status.State):
		logger.Debug().Str("state", string(status.State)).Msg("Task still pending")

	default:
		logger.Warn().Str("state", string(status.State)).Msg("Don't know how to handle state")
	}
}

// fillHost takes the host of a running task from its node record. Tasks
// reported by reconciliation after a restart have no staging record.
func (e *Engine) fillHost(taskID string) {
	node, err := e.ledger.Node(taskID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			metrics.LedgerErrorsTotal.WithLabelValues("get_node").Inc()
		}
		e.logger.Debug().Err(err).Str("task_id", taskID).Msg("No node record for running task")
		return
	}
	e.live.SetTaskHost(taskID, node.Hostname)
}

// pending reports states in which a launched task has not started yet
func pending(s types.TaskState) bool {
	return s == types.TaskStaging || s == types.TaskStarting
}

func (e *Engine) handleError(message string) error {
	if strings.Contains(message, reregisterMarker) {
		e.logger.Error().Str("master_error", message).Msg("Master requires re-registration, removing framework id")
		if err := e.ledger.SetFrameworkID(""); err != nil {
			metrics.LedgerErrorsTotal.WithLabelValues("set_framework_id").Inc()
			e.logger.Error().Err(err).Msg("Failed to remove framework id")
		}
		return fatal(ExitReregister, "master requires re-registration", errors.New(message))
	}
	return fatal(ExitFailure, "scheduler driver error", errors.New(message))
}
