package health

import (
	"context"
	"sync"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/log"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/rs/zerolog"
)

// CheckType represents the type of probe
type CheckType string

const (
	CheckTypeHTTP CheckType = "http"
	CheckTypeTCP  CheckType = "tcp"
)

// Result represents the outcome of one probe
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is implemented by every probe
type Checker interface {
	Check(ctx context.Context) Result
	Type() CheckType
}

// Config paces a Monitor
type Config struct {
	// Interval is the time between probe rounds
	Interval time.Duration

	// Timeout bounds a single probe
	Timeout time.Duration

	// Retries is the number of consecutive failures before a dependency
	// is reported unhealthy
	Retries int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Interval: 30 * time.Second,
		Timeout:  5 * time.Second,
		Retries:  3,
	}
}

// Status tracks the health of one dependency across probes
type Status struct {
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastCheck            time.Time
	LastResult           Result
	Healthy              bool
}

// NewStatus creates a Status that is healthy until proven otherwise
func NewStatus() *Status {
	return &Status{Healthy: true}
}

// Update folds a new result into the status
func (s *Status) Update(result Result, config Config) {
	s.LastCheck = result.CheckedAt
	s.LastResult = result

	if result.Healthy {
		s.ConsecutiveSuccesses++
		s.ConsecutiveFailures = 0
		s.Healthy = true
		return
	}

	s.ConsecutiveFailures++
	s.ConsecutiveSuccesses = 0
	if s.ConsecutiveFailures >= config.Retries {
		s.Healthy = false
	}
}

// Probe is a named checker
type Probe struct {
	Name    string
	Checker Checker
}

// Reporter receives the health of a probed dependency after every round
type Reporter func(name string, healthy bool, message string)

// Monitor probes the scheduler's external dependencies and reports them
type Monitor struct {
	config   Config
	probes   []Probe
	report   Reporter
	logger   zerolog.Logger
	mu       sync.RWMutex
	statuses map[string]*Status
}

// NewMonitor creates a monitor. A nil reporter reports to the process-wide
// health checker.
func NewMonitor(config Config, report Reporter, probes ...Probe) *Monitor {
	if report == nil {
		report = metrics.UpdateComponent
	}
	statuses := make(map[string]*Status, len(probes))
	for _, p := range probes {
		statuses[p.Name] = NewStatus()
	}
	return &Monitor{
		config:   config,
		probes:   probes,
		report:   report,
		logger:   log.WithComponent("health"),
		statuses: statuses,
	}
}

// Run probes immediately and then every interval until ctx is done
func (m *Monitor) Run(ctx context.Context) error {
	if m.config.Interval <= 0 || len(m.probes) == 0 {
		return nil
	}
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.CheckAll(ctx)
	for {
		select {
		case <-ticker.C:
			m.CheckAll(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// CheckAll runs every probe once
func (m *Monitor) CheckAll(ctx context.Context) {
	for _, p := range m.probes {
		m.check(ctx, p)
	}
}

func (m *Monitor) check(ctx context.Context, p Probe) {
	probeCtx := ctx
	if m.config.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, m.config.Timeout)
		defer cancel()
	}

	result := p.Checker.Check(probeCtx)
	metrics.ProbeDuration.WithLabelValues(p.Name).Observe(result.Duration.Seconds())
	if !result.Healthy {
		metrics.ProbeFailuresTotal.WithLabelValues(p.Name).Inc()
	}

	m.mu.Lock()
	st := m.statuses[p.Name]
	wasHealthy := st.Healthy
	st.Update(result, m.config)
	healthy := st.Healthy
	m.mu.Unlock()

	switch {
	case wasHealthy && !healthy:
		m.logger.Warn().Str("probe", p.Name).Str("result", result.Message).Msg("Dependency unhealthy")
	case !wasHealthy && healthy:
		m.logger.Info().Str("probe", p.Name).Msg("Dependency recovered")
	}
	m.report(p.Name, healthy, result.Message)
}

// Status returns a copy of a dependency's status
func (m *Monitor) Status(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.statuses[name]
	if !ok {
		return Status{}, false
	}
	return *st, true
}
