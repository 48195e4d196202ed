package fleet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/cuemby/hbase-mesos/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	schedulerPath  = "/api/v1/scheduler"
	streamIDHeader = "Mesos-Stream-Id"

	defaultQueueSize         = 1024
	defaultSubscribeAttempts = 10
	// missed heartbeats before the stream is considered dead
	heartbeatMisses = 5
)

var (
	// ErrNotSubscribed is returned for calls made without a live subscription
	ErrNotSubscribed = errors.New("not subscribed")
	// ErrQueueFull is returned when outbound calls back up
	ErrQueueFull = errors.New("call queue full")
)

// StatusError is a non-success response from the master
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("master returned %d: %s", e.Code, strings.TrimSpace(e.Body))
}

// Options configures an HTTPDriver
type Options struct {
	// Master is the base URL of the Mesos master, e.g. http://host:5050
	Master    string
	Framework FrameworkInfo
	// Secret is sent with Framework.Principal as basic auth when both are set
	Secret string

	Client            *http.Client
	QueueSize         int
	SubscribeAttempts uint
	RetryDelay        time.Duration
}

// HTTPDriver drives a scheduler over the Mesos v1 scheduler HTTP API
type HTTPDriver struct {
	opts   Options
	sched  Scheduler
	client *http.Client
	calls  chan *call
	logger zerolog.Logger

	mu          sync.Mutex
	frameworkID string
	streamID    string
	registered  bool
}

// NewHTTPDriver creates a driver for the master in opts
func NewHTTPDriver(opts Options) *HTTPDriver {
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.SubscribeAttempts == 0 {
		opts.SubscribeAttempts = defaultSubscribeAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &HTTPDriver{
		opts:        opts,
		client:      opts.Client,
		calls:       make(chan *call, opts.QueueSize),
		logger:      log.WithComponent("fleet"),
		frameworkID: opts.Framework.ID,
	}
}

// FrameworkID returns the identity assigned by the master, if any
func (d *HTTPDriver) FrameworkID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frameworkID
}

// Run subscribes and delivers events to sched until ctx is cancelled or
// the master cannot be reached after the configured attempts.
func (d *HTTPDriver) Run(ctx context.Context, sched Scheduler) error {
	d.sched = sched

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.sendLoop(ctx)
		return nil
	})
	g.Go(func() error {
		return d.subscribeLoop(ctx)
	})
	return g.Wait()
}

func (d *HTTPDriver) subscribeLoop(ctx context.Context) error {
	for {
		err := retry.Do(
			func() error { return d.subscribe(ctx) },
			retry.Context(ctx),
			retry.Attempts(d.opts.SubscribeAttempts),
			retry.Delay(d.opts.RetryDelay),
			retry.MaxDelay(30*time.Second),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(retryable),
			retry.OnRetry(func(n uint, err error) {
				d.logger.Warn().Err(err).Uint("attempt", n+1).Str("master", d.opts.Master).Msg("Subscription failed, retrying")
			}),
		)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) {
				d.sched.Error(se.Error())
			}
			return fmt.Errorf("failed to subscribe to %s: %w", d.opts.Master, err)
		}

		// the stream dropped after a successful subscription
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(d.opts.RetryDelay):
		}
	}
}

// retryable reports whether a subscription error may go away on its own.
// Client errors from the master (bad credentials, removed framework) do not.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500
	}
	return true
}

// subscribe opens one event stream and serves it until it ends. It returns
// nil if the stream was established and later dropped.
func (d *HTTPDriver) subscribe(ctx context.Context) error {
	d.mu.Lock()
	fi := d.opts.Framework
	fi.ID = d.frameworkID
	d.mu.Unlock()

	c := &call{Type: callSubscribe, FrameworkID: val(fi.ID)}
	c.Subscribe = &struct {
		FrameworkInfo frameworkInfo `json:"framework_info"`
	}{FrameworkInfo: frameworkInfo{
		ID:              val(fi.ID),
		User:            fi.User,
		Name:            fi.Name,
		Role:            fi.Role,
		FailoverTimeout: fi.FailoverTimeout.Seconds(),
		Checkpoint:      fi.Checkpoint,
		Principal:       fi.Principal,
	}}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	resp, err := d.do(streamCtx, c, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	d.mu.Lock()
	d.streamID = resp.Header.Get(streamIDHeader)
	d.mu.Unlock()

	// armed once the master announces its heartbeat interval
	var watchdog *time.Timer
	var silence time.Duration
	defer func() {
		if watchdog != nil {
			watchdog.Stop()
		}
	}()

	subscribed := false
	records := newRecordReader(resp.Body)
	for {
		data, err := records.next()
		if err != nil {
			d.mu.Lock()
			d.streamID = ""
			d.mu.Unlock()
			if ctx.Err() != nil {
				return nil
			}
			if !subscribed {
				return fmt.Errorf("stream ended before subscription: %w", err)
			}
			d.logger.Warn().Err(err).Msg("Event stream dropped")
			d.sched.Disconnected()
			return nil
		}

		var e event
		if err := json.Unmarshal(data, &e); err != nil {
			d.logger.Error().Err(err).Msg("Failed to decode event")
			continue
		}

		if e.Type == eventSubscribed && e.Subscribed != nil {
			subscribed = true
			if hb := e.Subscribed.HeartbeatIntervalSeconds; hb > 0 {
				silence = time.Duration(hb*float64(time.Second)) * heartbeatMisses
			}
		}
		if silence > 0 {
			if watchdog == nil {
				watchdog = time.AfterFunc(silence, cancel)
			} else {
				watchdog.Reset(silence)
			}
		}
		d.dispatch(&e)
	}
}

func (d *HTTPDriver) dispatch(e *event) {
	switch e.Type {
	case eventSubscribed:
		if e.Subscribed == nil {
			return
		}
		id := e.Subscribed.FrameworkID.Value
		master := fromMaster(e.Subscribed.MasterInfo)

		d.mu.Lock()
		d.frameworkID = id
		first := !d.registered
		d.registered = true
		d.mu.Unlock()

		d.logger.Info().Str("framework_id", id).Bool("first", first).Msg("Subscribed")
		if first {
			d.sched.Registered(id, master)
		} else {
			d.sched.Reregistered(master)
		}

	case eventOffers:
		if e.Offers == nil {
			return
		}
		offers := make([]types.Offer, 0, len(e.Offers.Offers))
		for _, o := range e.Offers.Offers {
			offers = append(offers, fromOffer(o))
		}
		d.sched.ResourceOffers(offers)

	case eventRescind:
		if e.Rescind != nil {
			d.sched.OfferRescinded(e.Rescind.OfferID.Value)
		}

	case eventUpdate:
		if e.Update == nil {
			return
		}
		status := fromStatus(e.Update.Status)
		d.sched.StatusUpdate(status)
		if len(status.UUID) > 0 {
			d.acknowledge(status)
		}

	case eventMessage:
		if e.Message != nil {
			d.sched.FrameworkMessage(e.Message.ExecutorID.Value, e.Message.AgentID.Value, e.Message.Data)
		}

	case eventFailure:
		if e.Failure == nil {
			return
		}
		if e.Failure.ExecutorID != nil {
			d.sched.ExecutorLost(e.Failure.ExecutorID.str(), e.Failure.AgentID.str(), e.Failure.Status)
		} else if e.Failure.AgentID != nil {
			d.sched.SlaveLost(e.Failure.AgentID.str())
		}

	case eventError:
		if e.Error != nil {
			d.sched.Error(e.Error.Message)
		}

	case eventHeartbeat:
		d.logger.Debug().Msg("Heartbeat")

	default:
		d.logger.Warn().Str("type", e.Type).Msg("Ignoring unknown event")
	}
}

func (d *HTTPDriver) acknowledge(status types.TaskStatus) {
	id, err := uuid.FromBytes(status.UUID)
	if err != nil {
		d.logger.Warn().Err(err).Str("task_id", status.TaskID).Msg("Status update carries a malformed uuid")
	}

	c := &call{Type: callAcknowledge}
	c.Acknowledge = &struct {
		AgentID value  `json:"agent_id"`
		TaskID  value  `json:"task_id"`
		UUID    []byte `json:"uuid"`
	}{
		AgentID: value{Value: status.SlaveID},
		TaskID:  value{Value: status.TaskID},
		UUID:    status.UUID,
	}
	if err := d.enqueue(c); err != nil {
		d.logger.Error().Err(err).Str("task_id", status.TaskID).Str("uuid", id.String()).Msg("Failed to queue acknowledgement")
	}
}

// DeclineOffer implements Driver
func (d *HTTPDriver) DeclineOffer(offerID string) error {
	c := &call{Type: callDecline}
	c.Decline = &struct {
		OfferIDs []value `json:"offer_ids"`
	}{OfferIDs: []value{{Value: offerID}}}
	return d.enqueue(c)
}

// LaunchTasks implements Driver
func (d *HTTPDriver) LaunchTasks(offerID string, tasks []types.TaskInfo) error {
	infos := make([]taskInfo, 0, len(tasks))
	for _, t := range tasks {
		infos = append(infos, toTaskInfo(t))
	}
	op := operation{Type: "LAUNCH"}
	op.Launch = &struct {
		TaskInfos []taskInfo `json:"task_infos"`
	}{TaskInfos: infos}

	c := &call{Type: callAccept}
	c.Accept = &struct {
		OfferIDs   []value     `json:"offer_ids"`
		Operations []operation `json:"operations"`
	}{
		OfferIDs:   []value{{Value: offerID}},
		Operations: []operation{op},
	}
	return d.enqueue(c)
}

// SendFrameworkMessage implements Driver
func (d *HTTPDriver) SendFrameworkMessage(executorID, slaveID string, data []byte) error {
	c := &call{Type: callMessage}
	c.Message = &struct {
		AgentID    value  `json:"agent_id"`
		ExecutorID value  `json:"executor_id"`
		Data       []byte `json:"data"`
	}{
		AgentID:    value{Value: slaveID},
		ExecutorID: value{Value: executorID},
		Data:       data,
	}
	return d.enqueue(c)
}

// ReconcileTasks implements Driver. An empty list asks for every task the
// master knows about.
func (d *HTTPDriver) ReconcileTasks(statuses []types.TaskStatus) error {
	tasks := make([]reconcileTask, 0, len(statuses))
	for _, s := range statuses {
		tasks = append(tasks, reconcileTask{TaskID: value{Value: s.TaskID}, AgentID: val(s.SlaveID)})
	}
	c := &call{Type: callReconcile}
	c.Reconcile = &struct {
		Tasks []reconcileTask `json:"tasks"`
	}{Tasks: tasks}
	return d.enqueue(c)
}

func (d *HTTPDriver) enqueue(c *call) error {
	select {
	case d.calls <- c:
		return nil
	default:
		return ErrQueueFull
	}
}

func (d *HTTPDriver) sendLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-d.calls:
			if err := d.send(ctx, c); err != nil {
				d.logger.Error().Err(err).Str("call", c.Type).Msg("Call failed")
			}
		}
	}
}

func (d *HTTPDriver) send(ctx context.Context, c *call) error {
	d.mu.Lock()
	frameworkID, streamID := d.frameworkID, d.streamID
	d.mu.Unlock()

	if streamID == "" || frameworkID == "" {
		return ErrNotSubscribed
	}
	c.FrameworkID = val(frameworkID)

	reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := d.do(reqCtx, c, streamID)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (d *HTTPDriver) do(ctx context.Context, c *call, streamID string) (*http.Response, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", c.Type, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(d.opts.Master, "/")+schedulerPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if streamID != "" {
		req.Header.Set(streamIDHeader, streamID)
	}
	if d.opts.Framework.Principal != "" && d.opts.Secret != "" {
		req.SetBasicAuth(d.opts.Framework.Principal, d.opts.Secret)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s call failed: %w", c.Type, err)
	}
	return resp, nil
}
