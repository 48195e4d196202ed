package scheduler

import (
	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/cuemby/hbase-mesos/pkg/types"
)

// Decline reasons, used as the offers_total reason label
const (
	reasonReconciling      = "reconciling"
	reasonBatchFilled      = "batch_filled"
	reasonInsufficientCPUs = "insufficient_cpus"
	reasonInsufficientMem  = "insufficient_mem"
	reasonTargetMet        = "target_met"
	reasonAlreadyRunning   = "already_running"
	reasonColocated        = "colocated"
	reasonAwaitingRecovery = "awaiting_recovery"
	reasonLedger           = "ledger_error"
	reasonLaunchFailed     = "launch_failed"
	reasonFault            = "fault"
)

// decision is the outcome of evaluating one offer
type decision struct {
	accept   bool
	reason   string
	role     types.Role
	taskName string
	// replaces is the dead record a recovery launch takes over
	replaces *types.NodeRecord
}

func declined(reason string) decision {
	return decision{reason: reason}
}

// evaluate decides whether an offer gets a launch. It never launches by
// itself; a non-nil error means the cluster state is inconsistent.
func (e *Engine) evaluate(offer *types.Offer) (decision, error) {
	role, ok := roleForPhase(e.live.Phase())
	if !ok {
		e.logger.Info().Str("offer_id", offer.ID).Msg("Declining offer while reconciling tasks")
		return declined(reasonReconciling), nil
	}

	if reason := e.admit(offer, role); reason != "" {
		return declined(reason), nil
	}

	switch role {
	case types.RoleMaster:
		return e.placeMaster(offer)
	default:
		return e.placeSlave(offer)
	}
}

// admit checks that the offer fits the task and its executor. Every entry
// of a resource must cover the requirement and a missing resource fails.
func (e *Engine) admit(offer *types.Offer, role types.Role) string {
	cpus := e.cfg.RequiredCPUs(role)
	mem := e.cfg.RequiredMem(role)
	logger := log.ForOffer(e.logger, offer)

	if insufficient(offer, types.ResourceCPUs, cpus) {
		offered, _ := offer.Scalar(types.ResourceCPUs)
		logger.Info().
			Str("role", string(role)).
			Float64("required", cpus).
			Float64("offered", offered).
			Msg("Offer does not have enough cpu")
		return reasonInsufficientCPUs
	}
	if insufficient(offer, types.ResourceMem, mem) {
		offered, _ := offer.Scalar(types.ResourceMem)
		logger.Info().
			Str("role", string(role)).
			Float64("required", mem).
			Float64("offered", offered).
			Int("heap_mb", e.cfg.TaskHeapMB(role)).
			Int("executor_heap_mb", e.cfg.Executor.HeapMB).
			Float64("jvm_overhead", e.cfg.JVM.Overhead).
			Msg("Offer does not have enough memory")
		return reasonInsufficientMem
	}
	return ""
}

func insufficient(offer *types.Offer, name string, required float64) bool {
	found := false
	for _, r := range offer.Resources {
		if r.Name != name {
			continue
		}
		found = true
		if r.Value < required {
			return true
		}
	}
	return !found
}

func (e *Engine) placeMaster(offer *types.Offer) (decision, error) {
	host := offer.Hostname
	d, settled := e.recover(offer, types.RoleMaster)
	if settled {
		return d, nil
	}

	count, err := e.ledger.CountByRole(types.RoleMaster)
	if err != nil {
		return e.ledgerFailure("count_nodes", host, err), nil
	}
	if count >= types.MasterNodeTarget {
		e.logger.Info().Int("masters", count).Msg("Already running all masters")
		return declined(reasonTargetMet), nil
	}
	if d, refused := e.refuseOccupied(host, types.RoleMaster); refused {
		return d, nil
	}

	names, err := e.ledger.TaskNames(types.RoleMaster)
	if err != nil {
		return e.ledgerFailure("task_names", host, err), nil
	}
	name, err := e.nextMasterName(names)
	if err != nil {
		return decision{}, err
	}
	return decision{accept: true, role: types.RoleMaster, taskName: name}, nil
}

func (e *Engine) placeSlave(offer *types.Offer) (decision, error) {
	d, settled := e.recover(offer, types.RoleSlave)
	if settled {
		return d, nil
	}
	if d, refused := e.refuseOccupied(offer.Hostname, types.RoleSlave); refused {
		return d, nil
	}
	return decision{accept: true, role: types.RoleSlave, taskName: string(types.RoleSlave)}, nil
}

// recover handles dead nodes of a role. While any exist they are relaunched
// on their own hosts before anything new is placed; settled is false when
// there are none.
func (e *Engine) recover(offer *types.Offer, role types.Role) (decision, bool) {
	host := offer.Hostname
	dead, err := e.ledger.DeadNodes(role)
	if err != nil {
		return e.ledgerFailure("dead_nodes", host, err), true
	}
	if len(dead) == 0 {
		return decision{}, false
	}

	rec, err := e.ledger.DeadNode(role, host)
	if err != nil {
		return e.ledgerFailure("dead_nodes", host, err), true
	}
	if rec == nil {
		e.logger.Info().
			Str("host", host).
			Str("role", string(role)).
			Strs("dead_hosts", dead).
			Msg("Waiting for dead nodes to be offered")
		return declined(reasonAwaitingRecovery), true
	}

	e.logger.Info().
		Str("host", host).
		Str("role", string(role)).
		Str("task_name", rec.TaskName).
		Str("previous_task_id", rec.TaskID).
		Msg("Relaunching dead node")
	return decision{accept: true, role: role, taskName: rec.TaskName, replaces: rec}, true
}

// refuseOccupied declines hosts that already hold a node of either role
func (e *Engine) refuseOccupied(host string, role types.Role) (decision, bool) {
	for _, r := range []types.Role{role, otherRole(role)} {
		has, err := e.ledger.HostHasRole(host, r)
		if err != nil {
			return e.ledgerFailure("host_has_role", host, err), true
		}
		if !has {
			continue
		}
		if r == role {
			e.logger.Info().Str("host", host).Str("role", string(role)).Msg("Already running on host")
			return declined(reasonAlreadyRunning), true
		}
		e.logger.Info().Str("host", host).Str("role", string(role)).Str("other_role", string(r)).Msg("Cannot colocate roles on host")
		return declined(reasonColocated), true
	}
	return decision{}, false
}

func otherRole(role types.Role) types.Role {
	if role == types.RoleMaster {
		return types.RoleSlave
	}
	return types.RoleMaster
}

// nextMasterName returns the lowest coordinator slot name not in names
func (e *Engine) nextMasterName(names map[string]string) (string, error) {
	for i := 1; i <= types.MasterNodeTarget; i++ {
		if _, taken := names[types.MasterTaskName(i)]; !taken {
			return types.MasterTaskName(i), nil
		}
	}

	e.logger.Error().
		Int("running_masters", e.live.RunningCount(types.RoleMaster)).
		Interface("task_names", names).
		Msg("Trying to launch more masternodes, but they are all already running")
	return "", fatal(ExitFailure, "no free master task name", ErrInconsistentState)
}

func (e *Engine) ledgerFailure(op, host string, err error) decision {
	metrics.LedgerErrorsTotal.WithLabelValues(op).Inc()
	e.logger.Warn().Err(err).Str("op", op).Str("host", host).Msg("Ledger unavailable, declining offer")
	return declined(reasonLedger)
}
