package fleet

import (
	"github.com/cuemby/hbase-mesos/pkg/types"
)

// JSON shapes of the Mesos v1 scheduler API, limited to the fields used here

type value struct {
	Value string `json:"value"`
}

func val(s string) *value {
	if s == "" {
		return nil
	}
	return &value{Value: s}
}

func (v *value) str() string {
	if v == nil {
		return ""
	}
	return v.Value
}

type scalar struct {
	Value float64 `json:"value"`
}

type resource struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Scalar *scalar `json:"scalar,omitempty"`
	Role   string  `json:"role,omitempty"`
}

type frameworkInfo struct {
	ID              *value  `json:"id,omitempty"`
	User            string  `json:"user"`
	Name            string  `json:"name"`
	Role            string  `json:"role,omitempty"`
	FailoverTimeout float64 `json:"failover_timeout,omitempty"`
	Checkpoint      bool    `json:"checkpoint,omitempty"`
	Principal       string  `json:"principal,omitempty"`
}

type masterInfo struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`
}

type offer struct {
	ID        value      `json:"id"`
	AgentID   value      `json:"agent_id"`
	Hostname  string     `json:"hostname"`
	Resources []resource `json:"resources"`
}

type taskStatus struct {
	TaskID  value  `json:"task_id"`
	State   string `json:"state"`
	AgentID *value `json:"agent_id,omitempty"`
	Message string `json:"message,omitempty"`
	UUID    []byte `json:"uuid,omitempty"`
}

type envVariable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type environment struct {
	Variables []envVariable `json:"variables"`
}

type commandURI struct {
	Value string `json:"value"`
}

type commandInfo struct {
	URIs        []commandURI `json:"uris,omitempty"`
	Environment *environment `json:"environment,omitempty"`
	Value       string       `json:"value"`
}

type executorInfo struct {
	ExecutorID value       `json:"executor_id"`
	Name       string      `json:"name,omitempty"`
	Resources  []resource  `json:"resources"`
	Command    commandInfo `json:"command"`
}

type taskInfo struct {
	Name      string        `json:"name"`
	TaskID    value         `json:"task_id"`
	AgentID   value         `json:"agent_id"`
	Resources []resource    `json:"resources"`
	Executor  *executorInfo `json:"executor,omitempty"`
	Data      []byte        `json:"data,omitempty"`
}

// event is one record of the subscription stream
type event struct {
	Type       string `json:"type"`
	Subscribed *struct {
		FrameworkID              value       `json:"framework_id"`
		HeartbeatIntervalSeconds float64     `json:"heartbeat_interval_seconds"`
		MasterInfo               *masterInfo `json:"master_info"`
	} `json:"subscribed,omitempty"`
	Offers *struct {
		Offers []offer `json:"offers"`
	} `json:"offers,omitempty"`
	Rescind *struct {
		OfferID value `json:"offer_id"`
	} `json:"rescind,omitempty"`
	Update *struct {
		Status taskStatus `json:"status"`
	} `json:"update,omitempty"`
	Message *struct {
		AgentID    value  `json:"agent_id"`
		ExecutorID value  `json:"executor_id"`
		Data       []byte `json:"data"`
	} `json:"message,omitempty"`
	Failure *struct {
		AgentID    *value `json:"agent_id,omitempty"`
		ExecutorID *value `json:"executor_id,omitempty"`
		Status     int    `json:"status,omitempty"`
	} `json:"failure,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type call struct {
	FrameworkID *value `json:"framework_id,omitempty"`
	Type        string `json:"type"`

	Subscribe *struct {
		FrameworkInfo frameworkInfo `json:"framework_info"`
	} `json:"subscribe,omitempty"`
	Accept *struct {
		OfferIDs   []value     `json:"offer_ids"`
		Operations []operation `json:"operations"`
	} `json:"accept,omitempty"`
	Decline *struct {
		OfferIDs []value `json:"offer_ids"`
	} `json:"decline,omitempty"`
	Message *struct {
		AgentID    value  `json:"agent_id"`
		ExecutorID value  `json:"executor_id"`
		Data       []byte `json:"data"`
	} `json:"message,omitempty"`
	Reconcile *struct {
		Tasks []reconcileTask `json:"tasks"`
	} `json:"reconcile,omitempty"`
	Acknowledge *struct {
		AgentID value  `json:"agent_id"`
		TaskID  value  `json:"task_id"`
		UUID    []byte `json:"uuid"`
	} `json:"acknowledge,omitempty"`
}

type operation struct {
	Type   string `json:"type"`
	Launch *struct {
		TaskInfos []taskInfo `json:"task_infos"`
	} `json:"launch,omitempty"`
}

type reconcileTask struct {
	TaskID  value  `json:"task_id"`
	AgentID *value `json:"agent_id,omitempty"`
}

// Event and call types
const (
	eventSubscribed = "SUBSCRIBED"
	eventOffers     = "OFFERS"
	eventRescind    = "RESCIND"
	eventUpdate     = "UPDATE"
	eventMessage    = "MESSAGE"
	eventFailure    = "FAILURE"
	eventError      = "ERROR"
	eventHeartbeat  = "HEARTBEAT"

	callSubscribe   = "SUBSCRIBE"
	callAccept      = "ACCEPT"
	callDecline     = "DECLINE"
	callMessage     = "MESSAGE"
	callReconcile   = "RECONCILE"
	callAcknowledge = "ACKNOWLEDGE"
)

func toResources(in []types.Resource) []resource {
	out := make([]resource, 0, len(in))
	for _, r := range in {
		out = append(out, resource{
			Name:   r.Name,
			Type:   "SCALAR",
			Scalar: &scalar{Value: r.Value},
			Role:   r.Role,
		})
	}
	return out
}

func fromResources(in []resource) []types.Resource {
	out := make([]types.Resource, 0, len(in))
	for _, r := range in {
		if r.Scalar == nil {
			continue
		}
		out = append(out, types.Resource{Name: r.Name, Value: r.Scalar.Value, Role: r.Role})
	}
	return out
}

func fromOffer(o offer) types.Offer {
	return types.Offer{
		ID:        o.ID.Value,
		Hostname:  o.Hostname,
		SlaveID:   o.AgentID.Value,
		Resources: fromResources(o.Resources),
	}
}

func fromStatus(s taskStatus) types.TaskStatus {
	return types.TaskStatus{
		TaskID:  s.TaskID.Value,
		State:   types.TaskState(s.State),
		SlaveID: s.AgentID.str(),
		Message: s.Message,
		UUID:    s.UUID,
	}
}

func fromMaster(m *masterInfo) types.MasterInfo {
	if m == nil {
		return types.MasterInfo{}
	}
	return types.MasterInfo{ID: m.ID, Hostname: m.Hostname, Port: m.Port}
}

func toTaskInfo(t types.TaskInfo) taskInfo {
	uris := make([]commandURI, 0, len(t.Executor.Command.URIs))
	for _, u := range t.Executor.Command.URIs {
		uris = append(uris, commandURI{Value: u})
	}
	var env *environment
	if len(t.Executor.Command.Environment) > 0 {
		env = &environment{}
		for _, e := range t.Executor.Command.Environment {
			env.Variables = append(env.Variables, envVariable{Name: e.Name, Value: e.Value})
		}
	}
	return taskInfo{
		Name:      t.Name,
		TaskID:    value{Value: t.TaskID},
		AgentID:   value{Value: t.SlaveID},
		Resources: toResources(t.Resources),
		Executor: &executorInfo{
			ExecutorID: value{Value: t.Executor.ExecutorID},
			Name:       t.Executor.Name,
			Resources:  toResources(t.Executor.Resources),
			Command: commandInfo{
				URIs:        uris,
				Environment: env,
				Value:       t.Executor.Command.Value,
			},
		},
		Data: t.Data,
	}
}
