/*
Package fleet connects the scheduler to a Mesos master.

The Scheduler interface is the set of callbacks the master delivers and
Driver is the set of calls the scheduler makes back. The scheduler
engine only depends on these two interfaces, so tests replace the
master with a recording Driver.

# Architecture

HTTPDriver implements Driver on the Mesos v1 scheduler HTTP API
(/api/v1/scheduler):

	                 SUBSCRIBE (streaming POST)
	┌────────────┐ ─────────────────────────────▶ ┌──────────────┐
	│            │ ◀───── RecordIO event stream ── │              │
	│ HTTPDriver │                                 │ Mesos master │
	│            │ ── ACCEPT / DECLINE / MESSAGE ─▶ │              │
	└─────┬──────┘    RECONCILE / ACKNOWLEDGE      └──────────────┘
	      │           (one POST per call, with Mesos-Stream-Id)
	      ▼
	  Scheduler callbacks

Run starts two goroutines under one errgroup:

  - the subscribe loop opens the event stream, decodes each record and
    calls the matching Scheduler method
  - the send loop drains the outbound call queue

Driver methods only put a call on the queue, so they never wait on the
network. A full queue returns ErrQueueFull. Calls made before the first
SUBSCRIBED event are dropped with ErrNotSubscribed when they are sent.

# Events

	SUBSCRIBED  Registered on the first one, Reregistered afterwards
	OFFERS      ResourceOffers
	RESCIND     OfferRescinded
	UPDATE      StatusUpdate, then ACKNOWLEDGE when the update has a uuid
	MESSAGE     FrameworkMessage
	FAILURE     ExecutorLost or SlaveLost
	ERROR       Error
	HEARTBEAT   resets the watchdog

The stream is RecordIO: a decimal length, a newline, then that many
bytes of JSON. Unknown events are logged and skipped.

# Subscription

The stored framework id, when there is one, is sent with SUBSCRIBE so
the master hands back the running tasks. Failed subscriptions are
retried with retry-go using exponential backoff from Options.RetryDelay,
up to Options.SubscribeAttempts. A 4xx answer is not retried: the
driver reports it through Scheduler.Error and Run returns it.

Once subscribed, the master announces a heartbeat interval. When
heartbeatMisses intervals pass without any event the stream is closed,
Disconnected is delivered, and the driver subscribes again.

# Usage

	driver := fleet.NewHTTPDriver(fleet.Options{
		Master: "http://mesos.example:5050",
		Framework: fleet.FrameworkInfo{
			ID:         storedID,
			Name:       "hbase",
			User:       "root",
			Role:       "*",
			Checkpoint: true,
		},
	})
	err := driver.Run(ctx, engine)

Run returns nil when ctx is cancelled.
*/
package fleet
