/*
Package api serves the scheduler's read-only status HTTP API.

Endpoints:

	GET /health      200 unless a component reports unhealthy (503)
	GET /ready       200 once the ledger is reachable and the framework is registered
	GET /live        200 while the process serves requests
	GET /metrics     Prometheus metrics
	GET /v1/state    acquisition phase, staging and running tasks, node records
	GET /v1/events   recent scheduler events (?limit=N, at most 256)
	GET /v1/events?follow=true
	                 server-sent event stream of new events

Nothing here changes scheduler state. The state endpoint reads the live
view and the ledger directly; a ledger failure is reported in the
ledger_error field instead of failing the request, so operators can still
see the phase while the store is down.

Every request is counted in hbase_mesos_api_requests_total and timed in
hbase_mesos_api_request_duration_seconds, labelled by route.

Usage:

	srv := api.NewServer(live, ledger, broker, metrics.DefaultHealth())
	if err := srv.Run(ctx, cfg.API.Addr); err != nil {
		return err
	}
*/
package api
