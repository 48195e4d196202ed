package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Scheduler state
	Phase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hbase_mesos_phase",
			Help: "Current acquisition phase (1 for the active phase, 0 otherwise)",
		},
		[]string{"phase"},
	)

	TasksTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hbase_mesos_tasks",
			Help: "Number of live tasks by role and state",
		},
		[]string{"role", "state"},
	)

	NodeRecords = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hbase_mesos_node_records",
			Help: "Number of durable node records by role",
		},
		[]string{"role"},
	)

	// Offer handling
	OffersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbase_mesos_offers_total",
			Help: "Offers handled by decision and reason",
		},
		[]string{"decision", "reason"},
	)

	LaunchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbase_mesos_launches_total",
			Help: "Tasks launched by role",
		},
		[]string{"role"},
	)

	StatusUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbase_mesos_status_updates_total",
			Help: "Task status updates received by state",
		},
		[]string{"state"},
	)

	ReloadBroadcastsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hbase_mesos_reload_broadcasts_total",
			Help: "Config reload broadcasts sent to running tasks",
		},
	)

	// Reconciliation
	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hbase_mesos_reconciliation_duration_seconds",
			Help:    "Time from registration to the end of the reconciliation window",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	ImplicitReconcilesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hbase_mesos_implicit_reconciles_total",
			Help: "Implicit task reconciliation requests sent between registrations",
		},
	)

	NodesPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hbase_mesos_nodes_purged_total",
			Help: "Stale node records removed by reconciliation",
		},
	)

	LedgerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbase_mesos_ledger_errors_total",
			Help: "Failed ledger operations by operation",
		},
		[]string{"op"},
	)

	// Status API
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbase_mesos_api_requests_total",
			Help: "Status API requests by path and status code",
		},
		[]string{"path", "code"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hbase_mesos_api_request_duration_seconds",
			Help:    "Status API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// Dependency probes
	ProbeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hbase_mesos_probe_duration_seconds",
			Help:    "Dependency probe duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"probe"},
	)

	ProbeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hbase_mesos_probe_failures_total",
			Help: "Failed dependency probes",
		},
		[]string{"probe"},
	)
)

func init() {
	prometheus.MustRegister(Phase)
	prometheus.MustRegister(TasksTotal)
	prometheus.MustRegister(NodeRecords)
	prometheus.MustRegister(OffersTotal)
	prometheus.MustRegister(LaunchesTotal)
	prometheus.MustRegister(StatusUpdatesTotal)
	prometheus.MustRegister(ReloadBroadcastsTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(ImplicitReconcilesTotal)
	prometheus.MustRegister(NodesPurgedTotal)
	prometheus.MustRegister(LedgerErrorsTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(ProbeDuration)
	prometheus.MustRegister(ProbeFailuresTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
