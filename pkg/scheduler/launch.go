package scheduler

import (
	"fmt"

	"github.com/cuemby/hbase-mesos/pkg/events"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/cuemby/hbase-mesos/pkg/types"
)

// executorClass is the executor main class inside the executor jar
const executorClass = "org.apache.mesos.hbase.executor." + types.NodeExecutorID

// ExecutorID returns the executor id of the executor hosting a task
func ExecutorID(taskID string) string {
	return "executor." + taskID
}

// nextTaskID returns <role>.<executor>.<millis>. The stamp is bumped when
// the clock has not moved so ids stay unique within the process.
func (e *Engine) nextTaskID(role types.Role) string {
	ms := e.now().UnixMilli()
	if ms <= e.lastLaunch {
		ms = e.lastLaunch + 1
	}
	e.lastLaunch = ms
	return fmt.Sprintf("%s.%s.%d", role, types.NodeExecutorID, ms)
}

// executorCommand starts the executor from the fetched tarball, preferring
// the fetched JRE when present
func executorCommand(jreVersion string) string {
	return "export JAVA_HOME=$MESOS_DIRECTORY/" + jreVersion +
		" && env ; cd hbase-mesos-* && " +
		"exec `if [ -z \"$JAVA_HOME\" ]; then echo java; else echo $JAVA_HOME/bin/java; fi` " +
		"$HADOOP_OPTS $EXECUTOR_OPTS " +
		"-cp \"hbase-executor-uber.jar\" " + executorClass
}

// buildTask assembles the launch request for one role on one offer
func (e *Engine) buildTask(offer *types.Offer, role types.Role, taskID, taskName string) types.TaskInfo {
	return types.TaskInfo{
		TaskID:    taskID,
		Name:      taskName,
		SlaveID:   offer.SlaveID,
		Resources: e.cfg.TaskResources(role),
		Executor: types.ExecutorInfo{
			ExecutorID: ExecutorID(taskID),
			Name:       string(role) + " executor",
			Resources:  e.cfg.ExecutorResources(),
			Command: types.CommandInfo{
				URIs: e.cfg.FetchURIs(role),
				Environment: []types.EnvVar{
					{Name: "LD_LIBRARY_PATH", Value: e.cfg.JVM.LDLibraryPath},
					{Name: "HBASE_OPTS", Value: e.cfg.JVMOpts(role)},
					{Name: "HBASE_HEAPSIZE", Value: e.cfg.HeapSize(role)},
				},
				Value: executorCommand(e.cfg.JVM.JREVersion),
			},
		},
		Data: []byte("bin/hbase-mesos-" + string(role)),
	}
}

// launch records and issues the launch for an accepted offer. It reports
// false, with everything rolled back, if the launch could not be sent.
func (e *Engine) launch(offer *types.Offer, d decision) bool {
	taskID := e.nextTaskID(d.role)
	task := e.buildTask(offer, d.role, taskID, d.taskName)
	logger := e.logger.With().
		Str("task_id", taskID).
		Str("task_name", d.taskName).
		Str("host", offer.Hostname).
		Str("role", string(d.role)).
		Logger()

	logger.Info().Msg("Launching node")

	e.live.AddStagingTask(taskID, offer.Hostname, offer.SlaveID)
	if err := e.ledger.AddNode(taskID, offer.Hostname, d.role, d.taskName); err != nil {
		metrics.LedgerErrorsTotal.WithLabelValues("add_node").Inc()
		logger.Warn().Err(err).Msg("Failed to record node")
	}

	if err := e.driver.LaunchTasks(offer.ID, []types.TaskInfo{task}); err != nil {
		logger.Error().Err(err).Msg("Failed to launch task")
		e.live.RemoveStagingTask(taskID)
		if err := e.ledger.RemoveTask(taskID); err != nil {
			metrics.LedgerErrorsTotal.WithLabelValues("remove_task").Inc()
			logger.Warn().Err(err).Msg("Failed to remove node record of failed launch")
		}
		return false
	}

	if d.replaces != nil {
		if err := e.ledger.RemoveTask(d.replaces.TaskID); err != nil {
			metrics.LedgerErrorsTotal.WithLabelValues("remove_task").Inc()
			logger.Warn().Err(err).Str("previous_task_id", d.replaces.TaskID).Msg("Failed to remove dead node record")
		}
	}

	metrics.OffersTotal.WithLabelValues("accepted", string(d.role)).Inc()
	metrics.LaunchesTotal.WithLabelValues(string(d.role)).Inc()
	e.emit(events.EventTaskLaunched, "task launched",
		"task_id", taskID, "task_name", d.taskName, "host", offer.Hostname, "role", string(d.role))
	return true
}
