package health

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/hbase-mesos/pkg/config"
	"github.com/cuemby/hbase-mesos/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted returns the queued results in order, then repeats the last one
type scripted struct {
	results []bool
	calls   int
}

func (s *scripted) Check(ctx context.Context) Result {
	healthy := s.results[len(s.results)-1]
	if s.calls < len(s.results) {
		healthy = s.results[s.calls]
	}
	s.calls++
	msg := "ok"
	if !healthy {
		msg = "down"
	}
	return Result{Healthy: healthy, Message: msg, CheckedAt: time.Now(), Duration: time.Millisecond}
}

func (s *scripted) Type() CheckType { return CheckTypeTCP }

type report struct {
	name    string
	healthy bool
	message string
}

func TestStatusUpdate(t *testing.T) {
	cfg := Config{Retries: 2}
	st := NewStatus()
	assert.True(t, st.Healthy)

	st.Update(Result{Healthy: false}, cfg)
	assert.True(t, st.Healthy, "one failure is below the retry threshold")
	assert.Equal(t, 1, st.ConsecutiveFailures)

	st.Update(Result{Healthy: false}, cfg)
	assert.False(t, st.Healthy)

	st.Update(Result{Healthy: true}, cfg)
	assert.True(t, st.Healthy)
	assert.Equal(t, 0, st.ConsecutiveFailures)
	assert.Equal(t, 1, st.ConsecutiveSuccesses)
}

func TestMonitorReportsAfterRetries(t *testing.T) {
	var reports []report
	probe := &scripted{results: []bool{false, false, false, true}}
	m := NewMonitor(Config{Retries: 3}, func(name string, healthy bool, message string) {
		reports = append(reports, report{name, healthy, message})
	}, Probe{Name: metrics.ComponentConfigServer, Checker: probe})

	for i := 0; i < 4; i++ {
		m.CheckAll(context.Background())
	}

	require.Len(t, reports, 4)
	assert.True(t, reports[0].healthy)
	assert.True(t, reports[1].healthy)
	assert.False(t, reports[2].healthy)
	assert.Equal(t, "down", reports[2].message)
	assert.True(t, reports[3].healthy)

	st, ok := m.Status(metrics.ComponentConfigServer)
	require.True(t, ok)
	assert.Equal(t, 1, st.ConsecutiveSuccesses)

	_, ok = m.Status("unknown")
	assert.False(t, ok)
}

func TestMonitorDefaultReporter(t *testing.T) {
	m := NewMonitor(Config{Retries: 1}, nil, Probe{Name: "test_dependency", Checker: &scripted{results: []bool{false}}})
	m.CheckAll(context.Background())

	comp, ok := metrics.DefaultHealth().Component("test_dependency")
	require.True(t, ok)
	assert.False(t, comp.Healthy)
	assert.Equal(t, "down", comp.Message)
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	probe := &scripted{results: []bool{true}}
	m := NewMonitor(Config{Interval: time.Hour, Retries: 1}, func(string, bool, string) {}, Probe{Name: "p", Checker: probe})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		st, _ := m.Status("p")
		return st.ConsecutiveSuccesses == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestMonitorDisabled(t *testing.T) {
	m := NewMonitor(Config{}, nil, Probe{Name: "p", Checker: &scripted{results: []bool{true}}})
	assert.NoError(t, m.Run(context.Background()))
}

func TestProbes(t *testing.T) {
	cfg := config.Default()
	cfg.ConfigServer.HostAddress = "10.0.0.1"
	cfg.Mesos.Master = "http://mesos.example"

	probes, err := Probes(cfg)
	require.NoError(t, err)
	require.Len(t, probes, 2)

	httpProbe, ok := probes[0].Checker.(*HTTPChecker)
	require.True(t, ok)
	assert.Equal(t, metrics.ComponentConfigServer, probes[0].Name)
	assert.Equal(t, "http://10.0.0.1:8765/hbase-site.xml", httpProbe.URL)

	tcpProbe, ok := probes[1].Checker.(*TCPChecker)
	require.True(t, ok)
	assert.Equal(t, "mesos.example:5050", tcpProbe.Address)

	cfg.Mesos.Master = "http://10.0.0.2:5051/"
	probes, err = Probes(cfg)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2:5051", probes[1].Checker.(*TCPChecker).Address)

	cfg.Mesos.Master = "mesos:5050"
	_, err = Probes(cfg)
	assert.Error(t, err)
}
