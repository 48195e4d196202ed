package fleet

import (
	"time"

	"github.com/cuemby/hbase-mesos/pkg/types"
)

// Scheduler receives callbacks from the fleet master. Implementations must
// not block: the driver delivers callbacks from its own goroutine.
type Scheduler interface {
	Registered(frameworkID string, master types.MasterInfo)
	Reregistered(master types.MasterInfo)
	ResourceOffers(offers []types.Offer)
	OfferRescinded(offerID string)
	StatusUpdate(status types.TaskStatus)
	FrameworkMessage(executorID, slaveID string, data []byte)
	SlaveLost(slaveID string)
	ExecutorLost(executorID, slaveID string, status int)
	Disconnected()
	Error(message string)
}

// Driver issues calls to the fleet master. Calls are queued and sent
// asynchronously; a returned error means the call could not be queued.
type Driver interface {
	DeclineOffer(offerID string) error
	LaunchTasks(offerID string, tasks []types.TaskInfo) error
	SendFrameworkMessage(executorID, slaveID string, data []byte) error
	ReconcileTasks(statuses []types.TaskStatus) error
}

// FrameworkInfo is what the scheduler presents when subscribing
type FrameworkInfo struct {
	// ID is the stored framework identity; empty on first registration
	ID              string
	Name            string
	User            string
	Role            string
	FailoverTimeout time.Duration
	Checkpoint      bool
	Principal       string
}
