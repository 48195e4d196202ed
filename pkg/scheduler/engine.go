package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/config"
	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/fleet"
	"github.com/cuemby/hbase-mesos/pkg/ledger"
	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/cuemby/hbase-mesos/pkg/state"
	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/rs/zerolog"
)

// eventQueueSize bounds callbacks waiting for the loop; a full queue
// blocks the fleet driver rather than dropping events
const eventQueueSize = 256

// Engine is the scheduler: it turns fleet callbacks into placement
// decisions. Callbacks only enqueue; Run handles them one at a time, so
// all state below the mark is owned by the Run goroutine.
type Engine struct {
	cfg    config.Config
	driver fleet.Driver
	live   *state.LiveState
	ledger *ledger.Ledger
	broker *events.Broker
	logger zerolog.Logger

	queue chan interface{}
	done  chan struct{}

	// loop-owned
	frameworkID    string
	reconcileGen   uint64
	reconcileTimer *time.Timer
	reconcileClock *metrics.Timer
	lastLaunch     int64

	now       func() time.Time
	afterFunc func(time.Duration, func()) *time.Timer
}

var _ fleet.Scheduler = (*Engine)(nil)

// New creates an engine. broker may be nil.
func New(cfg config.Config, driver fleet.Driver, live *state.LiveState, l *ledger.Ledger, broker *events.Broker) *Engine {
	return &Engine{
		cfg:       cfg,
		driver:    driver,
		live:      live,
		ledger:    l,
		broker:    broker,
		logger:    log.WithComponent("scheduler"),
		queue:     make(chan interface{}, eventQueueSize),
		done:      make(chan struct{}),
		now:       time.Now,
		afterFunc: time.AfterFunc,
	}
}

// Run handles events until ctx is cancelled or a fatal error occurs. The
// returned error is a *FatalError; nil means ctx was cancelled.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	defer e.stopReconcileTimer()

	id, err := e.ledger.FrameworkID()
	if err != nil {
		e.logger.Warn().Err(err).Msg("Failed to read framework id")
	}
	e.frameworkID = id

	metrics.UpdateComponent(metrics.ComponentScheduler, true, "running")
	e.logger.Info().
		Str("phase", string(e.live.Phase())).
		Str("framework_id", e.frameworkID).
		Msg("Scheduler started")

	for {
		select {
		case <-ctx.Done():
			e.logger.Info().Msg("Scheduler stopped")
			return nil
		case ev := <-e.queue:
			if err := e.handle(ev); err != nil {
				var fe *FatalError
				if !errors.As(err, &fe) {
					fe = fatal(ExitFailure, "scheduler failed", err)
				}
				e.logger.Error().Err(fe.Err).Int("exit_code", fe.Code).Msg(fe.Reason)
				e.emit(events.EventSchedulerFailed, fe.Error())
				metrics.UpdateComponent(metrics.ComponentScheduler, false, fe.Reason)
				return fe
			}
		}
	}
}

// handle dispatches one event. Only fatal errors are returned.
func (e *Engine) handle(ev interface{}) error {
	switch ev := ev.(type) {
	case registeredEvent:
		return e.handleRegistered(ev.frameworkID, ev.master)
	case reregisteredEvent:
		return e.handleReregistered(ev.master)
	case offersEvent:
		return e.handleOffers(ev.offers)
	case statusEvent:
		e.handleStatus(ev.status)
	case reconcileExpiredEvent:
		e.handleReconcileExpired(ev.gen)
	case implicitReconcileEvent:
		e.handleImplicitReconcile()
	case errorEvent:
		return e.handleError(ev.message)
	case rescindedEvent:
		e.logger.Info().Str("offer_id", ev.offerID).Msg("Offer rescinded")
	case messageEvent:
		e.logger.Info().
			Str("executor_id", ev.executorID).
			Str("slave_id", ev.slaveID).
			Int("size", len(ev.data)).
			Hex("data", loggedPrefix(ev.data)).
			Msg("Framework message")
	case slaveLostEvent:
		e.logger.Info().Str("slave_id", ev.slaveID).Msg("Slave lost")
	case executorLostEvent:
		e.logger.Info().
			Str("executor_id", ev.executorID).
			Str("slave_id", ev.slaveID).
			Int("status", ev.status).
			Msg("Executor lost")
	case disconnectedEvent:
		e.logger.Warn().Msg("Disconnected from master")
		metrics.UpdateComponent(metrics.ComponentFleet, false, "disconnected")
		e.emit(events.EventDisconnected, "disconnected from master")
	default:
		e.logger.Warn().Interface("event", ev).Msg("Ignoring unknown event")
	}
	return nil
}

// maxLoggedMessage bounds how much of an executor message reaches the log
const maxLoggedMessage = 64

func loggedPrefix(data []byte) []byte {
	if len(data) > maxLoggedMessage {
		return data[:maxLoggedMessage]
	}
	return data
}

func (e *Engine) enqueue(ev interface{}) {
	select {
	case e.queue <- ev:
	case <-e.done:
	}
}

func (e *Engine) emit(typ events.EventType, msg string, kv ...string) {
	if e.broker != nil {
		e.broker.Emit(typ, msg, kv...)
	}
}

type registeredEvent struct {
	frameworkID string
	master      types.MasterInfo
}

type reregisteredEvent struct {
	master types.MasterInfo
}

type offersEvent struct {
	offers []types.Offer
}

type rescindedEvent struct {
	offerID string
}

type statusEvent struct {
	status types.TaskStatus
}

type messageEvent struct {
	executorID string
	slaveID    string
	data       []byte
}

type slaveLostEvent struct {
	slaveID string
}

type executorLostEvent struct {
	executorID string
	slaveID    string
	status     int
}

type disconnectedEvent struct{}

type errorEvent struct {
	message string
}

type reconcileExpiredEvent struct {
	gen uint64
}

type implicitReconcileEvent struct{}

// Registered implements fleet.Scheduler
func (e *Engine) Registered(frameworkID string, master types.MasterInfo) {
	e.enqueue(registeredEvent{frameworkID: frameworkID, master: master})
}

// Reregistered implements fleet.Scheduler
func (e *Engine) Reregistered(master types.MasterInfo) {
	e.enqueue(reregisteredEvent{master: master})
}

// ResourceOffers implements fleet.Scheduler
func (e *Engine) ResourceOffers(offers []types.Offer) {
	e.enqueue(offersEvent{offers: offers})
}

// OfferRescinded implements fleet.Scheduler
func (e *Engine) OfferRescinded(offerID string) {
	e.enqueue(rescindedEvent{offerID: offerID})
}

// StatusUpdate implements fleet.Scheduler
func (e *Engine) StatusUpdate(status types.TaskStatus) {
	e.enqueue(statusEvent{status: status})
}

// FrameworkMessage implements fleet.Scheduler
func (e *Engine) FrameworkMessage(executorID, slaveID string, data []byte) {
	e.enqueue(messageEvent{executorID: executorID, slaveID: slaveID, data: data})
}

// SlaveLost implements fleet.Scheduler
func (e *Engine) SlaveLost(slaveID string) {
	e.enqueue(slaveLostEvent{slaveID: slaveID})
}

// ExecutorLost implements fleet.Scheduler
func (e *Engine) ExecutorLost(executorID, slaveID string, status int) {
	e.enqueue(executorLostEvent{executorID: executorID, slaveID: slaveID, status: status})
}

// Disconnected implements fleet.Scheduler
func (e *Engine) Disconnected() {
	e.enqueue(disconnectedEvent{})
}

// RequestReconcile asks the master to resend the status of every task
// without leaving the current phase
func (e *Engine) RequestReconcile() {
	e.enqueue(implicitReconcileEvent{})
}

// Error implements fleet.Scheduler
func (e *Engine) Error(message string) {
	e.enqueue(errorEvent{message: message})
}
