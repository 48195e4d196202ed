package reconciler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTrigger struct {
	n atomic.Int32
}

func (c *countingTrigger) RequestReconcile() { c.n.Add(1) }

func TestReconcilerTriggersPeriodically(t *testing.T) {
	trigger := &countingTrigger{}
	r := NewReconciler(trigger, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return trigger.n.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("reconciler did not stop")
	}
}

func TestReconcilerDisabled(t *testing.T) {
	trigger := &countingTrigger{}
	assert.NoError(t, NewReconciler(trigger, 0).Run(context.Background()))
	assert.Zero(t, trigger.n.Load())
}
