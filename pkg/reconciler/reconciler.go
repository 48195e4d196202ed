package reconciler

import (
	"context"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/rs/zerolog"
)

// Trigger starts one implicit reconciliation
type Trigger interface {
	RequestReconcile()
}

// Reconciler periodically asks the scheduler to reconcile its tasks with
// the master, so a task lost while no status update got through is still
// noticed.
type Reconciler struct {
	trigger  Trigger
	interval time.Duration
	logger   zerolog.Logger
}

// NewReconciler creates a reconciler. A non-positive interval disables it.
func NewReconciler(trigger Trigger, interval time.Duration) *Reconciler {
	return &Reconciler{
		trigger:  trigger,
		interval: interval,
		logger:   log.WithComponent("reconciler"),
	}
}

// Run triggers a reconciliation every interval until ctx is done. The
// first one fires after a full interval; registration already reconciles.
func (r *Reconciler) Run(ctx context.Context) error {
	if r.interval <= 0 {
		r.logger.Info().Msg("Implicit reconciliation disabled")
		return nil
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.trigger.RequestReconcile()
		case <-ctx.Done():
			return nil
		}
	}
}
