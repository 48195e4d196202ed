/*
Package scheduler places HBase masters and region servers on Mesos offers.

The Engine implements fleet.Scheduler. It decides which offers to accept,
builds the launch descriptors, keeps the live state and the ledger in
step with the status updates the master sends, and decides when the
scheduler has to stop.

# Architecture

Callbacks from the driver are only queued. Engine.Run takes them off the
queue one at a time, so the live state, the ledger writes and every call
to the driver happen from a single goroutine. The reconciliation timer
and the implicit reconciliation trigger feed the same queue.

	┌──────────────┐  callbacks   ┌───────────────────────────────┐
	│ fleet.Driver │─────────────▶│          Engine.queue         │
	└──────▲───────┘              └───────────────┬───────────────┘
	       │                                      │ one event at a time
	       │                                      ▼
	       │                      ┌───────────────────────────────┐
	       │  decline / launch    │          Engine.handle        │
	       └──────────────────────│  phase ▸ placement ▸ launch   │
	          message / reconcile │  status ▸ cleanup ▸ reload    │
	                              └───────┬───────────────┬───────┘
	                                      │               │
	                                      ▼               ▼
	                              ┌──────────────┐ ┌──────────────┐
	                              │ state.Live   │ │ ledger       │
	                              │ (in memory)  │ │ (durable)    │
	                              └──────────────┘ └──────────────┘

Nothing inside a handler blocks on the network. Driver methods only
queue a call, and a failure to queue is logged and, for a launch, rolled
back.

# Phases

The engine is always in one acquisition phase:

	RECONCILING_TASKS ──window closes──▶ START_MASTER_NODES ──2 masters──▶ SLAVE_NODES
	        ▲                                    ▲                              │
	        │                                    └──────master terminal─────────┘
	        └──────────── (re)registration from any phase

After every registration the engine is in RECONCILING_TASKS. It asks the
master for the state of all tasks, declines every offer and waits for
mesos.reconciliation_timeout. A newer registration stops the armed timer
and bumps a generation counter, so a timer event that was already queued
is ignored.

When the window closes, node records whose task was not reported running
are removed and the phase is corrected from the remaining master
records. Fewer than two gives START_MASTER_NODES, otherwise SLAVE_NODES.
The same correction runs whenever a task ends outside of reconciliation,
so a crashed master is replaced without waiting for the next
registration.

When both masters run, and on every running region server afterwards,
all running executors are sent "reload config" so they see the current
membership. The broadcast is skipped when native_hadoop_binaries is set.

Between registrations the engine can also reconcile implicitly
(RequestReconcile, paced by pkg/reconciler). That asks the master for
every task without changing the phase or arming a timer.

# Placement

At most one offer per batch is accepted; the rest are declined. For the
role of the current phase an offer must carry

	cpus >= role cpus + executor cpus
	mem  >= role heap * jvm.overhead + executor heap * jvm.overhead

in every entry of the resource. An offer without cpus or mem is
declined.

Dead nodes, records with neither a staging nor a running task, come
first. While one exists for the role, it is relaunched on its own host
under its old task name, and offers from other hosts are declined with
reason awaiting_recovery. Otherwise a host holds at most one node of
either role, and there are at most two masters, named masternode1 and
masternode2. Region servers are all named slavenode.

An accepted offer becomes one task:

	task id      masternode.NodeExecutor.1700000000000
	task name    masternode1
	executor id  executor.masternode.NodeExecutor.1700000000000
	fetch        executor tarball, regionservers, hbase-site.xml,
	             hdfs-site.xml, JRE
	environment  LD_LIBRARY_PATH, HBASE_OPTS, HBASE_HEAPSIZE

Task ids carry the launch time in milliseconds. Two launches within the
same millisecond get consecutive stamps.

Every decline is counted in hbase_mesos_offers_total with its reason:

	reconciling        the reconciliation window is open
	batch_filled       another offer of the batch was accepted
	insufficient_cpus  the offer is too small
	insufficient_mem   the offer is too small
	target_met         both masters are placed
	already_running    the host already runs this role
	colocated          the host runs the other role
	awaiting_recovery  a dead node waits for its own host
	ledger_error       the ledger could not be read
	launch_failed      the launch could not be queued
	fault              the cluster state is inconsistent and the
	                   scheduler is stopping

# Status updates

	TASK_STAGING, TASK_STARTING   the task stays staged
	TASK_RUNNING                  running record, host taken from the
	                              staging record or the node record
	terminal states               records removed, phase corrected
	anything else                 de-staged and logged

# Usage

	live := state.New()
	l := ledger.New(store, live)
	driver := fleet.NewHTTPDriver(opts)
	engine := scheduler.New(cfg, driver, live, l, broker)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(ctx) })
	g.Go(func() error { return driver.Run(ctx, engine) })
	if err := g.Wait(); err != nil {
		os.Exit(scheduler.ExitCode(err))
	}

# Errors

Run returns a *FatalError whose Code is the process exit code:

	ExitFailure (1)     the framework id could not be stored, the master
	                    reported an error, or every master task name is
	                    taken while a master is being placed
	ExitReregister (9)  the master demands re-registration; the stored
	                    framework id was removed first

Other ledger failures are logged and counted in
hbase_mesos_ledger_errors_total. Offers are declined while the ledger
cannot be read.

# Testing

The engine takes its clock and timer function as fields, so tests drive
it through handle with a fake driver and a bbolt ledger in t.TempDir,
and close the reconciliation window by hand. integration_test.go runs
the engine against the real HTTP driver and a fake master.
*/
package scheduler
