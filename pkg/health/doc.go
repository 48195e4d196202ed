/*
Package health probes the services the scheduler depends on but does not
talk to on every event.

Two probes are configured by Probes:

  - config_server: a HEAD request for hbase-site.xml on the config
    server. Every executor fetches its tarball and config files from
    there before it starts, so a dead config server shows up as tasks
    failing in the fetcher long before anything else notices.
  - master_endpoint: a TCP dial to the Mesos master. The subscription
    stream already reports disconnects; the probe tells a network
    problem apart from a master that is up but refusing the framework.

A Monitor runs the probes every interval. A dependency turns unhealthy
after Retries consecutive failures and healthy again on the first
success. Results go to the process health checker (pkg/metrics), where
they show up on /health; readiness does not depend on them. Probe
latency and failures are exported as hbase_mesos_probe_duration_seconds
and hbase_mesos_probe_failures_total.

Usage:

	probes, err := health.Probes(cfg)
	if err != nil {
		return err
	}
	monitor := health.NewMonitor(health.Config{
		Interval: cfg.Probe.Interval,
		Timeout:  cfg.Probe.Timeout,
		Retries:  cfg.Probe.Retries,
	}, nil, probes...)
	go monitor.Run(ctx)
*/
package health
