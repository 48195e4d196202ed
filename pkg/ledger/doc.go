/*
Package ledger is the durable record of the framework identity and of
every placement the scheduler made.

It sits on a storage.Store (bbolt or etcd) and adds the queries the
placement rules need. It never keeps state of its own: every call reads
the store, so two schedulers on the etcd backend see the same records.

# Records

	framework id   opaque string from the master, "" when unregistered
	node record    task id ▸ host, role, task name, created at

	masternode.NodeExecutor.1700000000000  h1  masternode  masternode1
	masternode.NodeExecutor.1700000004000  h2  masternode  masternode2
	slavenode.NodeExecutor.1700000009000   h3  slavenode   slavenode

A node record is written when a task is launched and removed when the
task ends or when reconciliation finds it is no longer running.

# Dead nodes

The ledger is read together with a TaskView, normally the live state.
A node record whose task is neither staging nor running is dead:

	DeadNodes(role)       hosts of dead records, oldest first
	DeadNode(role, host)  the dead record on one host, if any

A fresh process has an empty live state, so right after a restart every
record looks dead. The scheduler therefore only asks once the
reconciliation window has closed.

# Purge

Purge(keep) removes every record whose task id is not in keep. It goes
on past a failed delete and returns the failures together as a
go-multierror, along with the records it did remove.

	removed, err := l.Purge(live.RunningTaskIDs())

# Errors

Every method returns the store's error. Callers match
storage.ErrUnavailable for a store that cannot be reached and
storage.ErrNotFound from Node for an unknown task.
*/
package ledger
