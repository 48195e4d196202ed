/*
Package types defines the data model shared by the hbase-mesos scheduler.

It covers the two HBase roles the scheduler places (masternode, the
replicated coordinator, and slavenode, the region server), the acquisition
phases that gate placement, the task states reported by the fleet, and the
records the scheduler keeps about its own work:

  - TaskRecord: in-memory, one per staging or running task, rebuilt on every
    process start.
  - NodeRecord: durable, one per placement, survives restarts and failover.

Offer, TaskInfo and ExecutorInfo are the scheduler's view of the fleet
protocol; the fleet package converts them to and from the wire format.

# Naming

Task identifiers have the form

	<role>.<executor-label>.<launch-epoch-millis>

coordinator task names are masternode1 and masternode2, and worker task
names equal the role name. Executor identifiers are the task identifier
prefixed with "executor.".
*/
package types
