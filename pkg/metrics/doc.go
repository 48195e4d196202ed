/*
Package metrics provides Prometheus metrics and component health for the
scheduler.

All metrics are registered on the default Prometheus registry at package
init and served by Handler.

# Metrics

	hbase_mesos_phase{phase}                        gauge, 1 for the active phase
	hbase_mesos_tasks{role,state}                   gauge, staging and running tasks
	hbase_mesos_node_records{role}                  gauge, durable node records
	hbase_mesos_offers_total{decision,reason}       counter
	hbase_mesos_launches_total{role}                counter
	hbase_mesos_status_updates_total{state}         counter
	hbase_mesos_reload_broadcasts_total             counter
	hbase_mesos_reconciliation_duration_seconds     histogram
	hbase_mesos_nodes_purged_total                  counter
	hbase_mesos_ledger_errors_total{op}             counter
	hbase_mesos_api_requests_total{path,code}       counter
	hbase_mesos_api_request_duration_seconds{path}  histogram

Counters are incremented by the scheduler engine as it decides. Gauges
are refreshed by a Collector that polls the live state and the ledger on
an interval, so the engine never touches them on its hot path.

# Health

HealthChecker keeps the last state reported by each component. The
process-wide checker treats the store, the fleet connection and the
scheduler loop as critical: readiness requires all three to be healthy.

	metrics.UpdateComponent(metrics.ComponentFleet, false, "subscribing")
	...
	metrics.UpdateComponent(metrics.ComponentFleet, true, "")

# Timing

	timer := metrics.NewTimer()
	// ... reconciliation window ...
	timer.ObserveDuration(metrics.ReconciliationDuration)
*/
package metrics
