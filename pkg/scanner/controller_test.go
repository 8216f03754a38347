package scanner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func statsWith(total, failed int64, avg time.Duration) *PerformanceStats {
	s := &PerformanceStats{}
	for i := int64(0); i < total; i++ {
		if i < failed {
			s.Record(0, true)
			continue
		}
		s.Record(avg, false)
	}
	return s
}

func TestAdjust_OverloadHalves(t *testing.T) {
	// 30% failures.
	c := NewController(ControllerConfig{InitialWorkers: 20, InitialChunk: 30},
		statsWith(10, 3, 100*time.Millisecond))

	assert.True(t, c.Adjust())
	assert.Equal(t, 10, c.Workers())
	assert.Equal(t, 20, c.ChunkSize())
}

func TestAdjust_SlowResponsesHalve(t *testing.T) {
	c := NewController(ControllerConfig{InitialWorkers: 16},
		statsWith(10, 0, 4*time.Second))

	assert.True(t, c.Adjust())
	assert.Equal(t, 8, c.Workers())
}

func TestAdjust_DegradedTrimsQuarter(t *testing.T) {
	// 15% failures.
	c := NewController(ControllerConfig{InitialWorkers: 20},
		statsWith(20, 3, 100*time.Millisecond))

	assert.True(t, c.Adjust())
	assert.Equal(t, 15, c.Workers())
}

func TestAdjust_HealthyGrows(t *testing.T) {
	c := NewController(ControllerConfig{InitialWorkers: 10, InitialChunk: 20},
		statsWith(50, 0, 200*time.Millisecond))

	assert.True(t, c.Adjust())
	assert.Equal(t, 12, c.Workers())
	assert.Equal(t, 30, c.ChunkSize())
}

func TestAdjust_GrowthIsAtLeastOne(t *testing.T) {
	c := NewController(ControllerConfig{MinWorkers: 1, InitialWorkers: 1},
		statsWith(50, 0, 200*time.Millisecond))

	assert.True(t, c.Adjust())
	assert.Equal(t, 2, c.Workers())
}

func TestAdjust_RespectsBounds(t *testing.T) {
	bad := statsWith(10, 9, 5*time.Second)
	c := NewController(ControllerConfig{MinWorkers: 4, InitialWorkers: 5, InitialChunk: 10}, bad)
	for i := 0; i < 5; i++ {
		c.Adjust()
	}
	assert.Equal(t, 4, c.Workers())
	assert.Equal(t, minChunkSize, c.ChunkSize())

	good := statsWith(100, 0, 100*time.Millisecond)
	c = NewController(ControllerConfig{MaxWorkers: 12, InitialWorkers: 10, InitialChunk: 40}, good)
	for i := 0; i < 10; i++ {
		c.Adjust()
	}
	assert.Equal(t, 12, c.Workers())
	assert.Equal(t, maxChunkSize, c.ChunkSize())
}

func TestAdjust_NoTrafficNoChange(t *testing.T) {
	c := NewController(ControllerConfig{InitialWorkers: 10}, &PerformanceStats{})
	assert.False(t, c.Adjust())
	assert.Equal(t, 10, c.Workers())
}

func TestAdjust_MiddlingHealthNoChange(t *testing.T) {
	// 7% failures, 1.5s average: neither degraded nor healthy.
	c := NewController(ControllerConfig{InitialWorkers: 10},
		statsWith(100, 7, 1500*time.Millisecond))
	assert.False(t, c.Adjust())
	assert.Equal(t, 10, c.Workers())
}

func TestRun_AppliesAdjustments(t *testing.T) {
	c := NewController(ControllerConfig{InitialWorkers: 20, Tick: 10 * time.Millisecond},
		statsWith(10, 9, 5*time.Second))

	var applied atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx, func(workers int) { applied.Store(int32(workers)) })
	}()

	assert.Eventually(t, func() bool { return applied.Load() > 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Less(t, int(applied.Load()), 20)
}

func TestControllerConfigDefaults(t *testing.T) {
	c := NewController(ControllerConfig{}, &PerformanceStats{})
	assert.Equal(t, 10, c.Workers())
	assert.Equal(t, minChunkSize, c.ChunkSize())
}
