/*
Package storage persists the scheduler state that must survive a restart:
the framework identity issued by the fleet and one NodeRecord per placed
HBase node.

Two backends implement Store:

	┌──────────────── STORE ────────────────┐
	│                                        │
	│  BoltStore                             │
	│   - File: <data_dir>/hbase-mesos.db    │
	│   - Buckets: framework, nodes          │
	│   - Single scheduler host              │
	│                                        │
	│  EtcdStore                             │
	│   - Keys: <prefix>/framework_id        │
	│           <prefix>/nodes/<task id>     │
	│   - Scheduler may move between hosts   │
	└────────────────────────────────────────┘

Records are JSON encoded. ListNodes returns records ordered by creation time
so that callers see placements in the order they were made.

Failures to reach or write the backend are reported wrapped in
ErrUnavailable; a missing record is reported as ErrNotFound. Whether a
failure is fatal is decided by the caller, not by the store.
*/
package storage
