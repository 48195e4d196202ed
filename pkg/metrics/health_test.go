package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAllHealthy(t *testing.T) {
	h := NewHealthChecker(ComponentStore)
	h.SetVersion("0.1.0")
	h.Update(ComponentStore, true, "")
	h.Update("api", true, "")

	health := h.Health()
	assert.Equal(t, "healthy", health.Status)
	assert.Len(t, health.Components, 2)
	assert.Equal(t, "0.1.0", health.Version)
	assert.Empty(t, health.Message)
}

func TestHealthOneUnhealthy(t *testing.T) {
	h := NewHealthChecker()
	h.Update(ComponentFleet, false, "stream dropped")
	h.Update(ComponentStore, false, "timeout")
	h.Update("api", true, "")

	health := h.Health()
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, "unhealthy: stream dropped", health.Components[ComponentFleet])
	assert.Equal(t, "failing: fleet, store", health.Message)
}

func TestReadiness(t *testing.T) {
	h := NewHealthChecker(ComponentStore, ComponentFleet, ComponentScheduler)

	r := h.Readiness()
	assert.Equal(t, "not_ready", r.Status)
	assert.Equal(t, "waiting for store", r.Message)
	assert.Equal(t, "not registered", r.Components[ComponentFleet])

	h.Update(ComponentStore, true, "")
	h.Update(ComponentFleet, false, "subscribing")
	h.Update(ComponentScheduler, true, "")
	r = h.Readiness()
	assert.Equal(t, "not_ready", r.Status)
	assert.Equal(t, "waiting for fleet", r.Message)
	assert.Equal(t, "not ready: subscribing", r.Components[ComponentFleet])

	h.Update(ComponentFleet, true, "")
	r = h.Readiness()
	assert.Equal(t, "ready", r.Status)
	assert.Len(t, r.Components, 3)
}

func TestComponentLookup(t *testing.T) {
	h := NewHealthChecker()
	_, ok := h.Component(ComponentStore)
	assert.False(t, ok)

	h.Update(ComponentStore, true, "bolt")
	h.Update(ComponentStore, false, "closed")
	c, ok := h.Component(ComponentStore)
	require.True(t, ok)
	assert.False(t, c.Healthy)
	assert.Equal(t, "closed", c.Message)
	assert.False(t, c.Updated.IsZero())
}
