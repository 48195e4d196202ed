/*
Package log provides structured logging for the hbase-mesos scheduler using
zerolog.

A single package-level Logger is configured once by Init from the log section
of the scheduler configuration, as JSON for log shippers or as a console
writer for humans. Packages derive child loggers that carry their component
name:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("scheduler")
	logger.Info().
		Str("host", offer.Hostname).
		Float64("required_cpus", cpus).
		Msg("Declining offer: not enough cpu")

Offer decisions, placement refusals and status updates are logged with the
host, role, task id and the required versus offered resources so that a
decline can be diagnosed from the log alone.

Fatal conditions are logged at error level by the package that detects them
and returned to main, which chooses the exit code. Nothing in this module
calls Logger.Fatal.
*/
package log
