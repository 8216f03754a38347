package retry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Exponential delays are computed in float64 so extreme attempt counts
// cap at MaxDelay instead of overflowing int64 into negative durations.
func TestCalcDelay_ExtremeAttemptsStayBounded(t *testing.T) {
	t.Parallel()

	cfg := Config{
		InitDelay: time.Second,
		MaxDelay:  30 * time.Second,
		Strategy:  Exponential,
	}

	for _, attempt := range []int{62, 63, 64, 100, 255, 1000, math.MaxInt32} {
		d := CalcDelay(cfg, attempt)
		require.Positive(t, d, "attempt %d", attempt)
		require.LessOrEqual(t, d, cfg.MaxDelay, "attempt %d", attempt)
	}
}

func TestCalcDelay_LinearExtremeAttemptsStayBounded(t *testing.T) {
	t.Parallel()

	cfg := Config{
		InitDelay: time.Second,
		MaxDelay:  30 * time.Second,
		Strategy:  Linear,
	}

	for _, attempt := range []int{0, 1, 100, math.MaxInt32} {
		d := CalcDelay(cfg, attempt)
		assert.GreaterOrEqual(t, d, time.Duration(0), "attempt %d", attempt)
		assert.LessOrEqual(t, d, cfg.MaxDelay, "attempt %d", attempt)
	}
}

// Jitter applies after the cap, so a delay sitting at MaxDelay must not
// be pushed past it.
func TestCalcDelay_JitterRespectsCap(t *testing.T) {
	t.Parallel()

	cfg := Config{
		InitDelay: 25 * time.Second,
		MaxDelay:  30 * time.Second,
		Strategy:  Exponential,
		Jitter:    true,
	}

	// 25s doubled lands on the 30s cap before jitter.
	for i := 0; i < 1000; i++ {
		d := CalcDelay(cfg, 1)
		assert.Positive(t, d, "iteration %d", i)
		assert.LessOrEqual(t, d, cfg.MaxDelay, "iteration %d", i)
	}
}

func TestCalcDelay_ZeroInitDelay(t *testing.T) {
	t.Parallel()

	cfg := Config{
		MaxDelay: 30 * time.Second,
		Strategy: Exponential,
	}
	assert.Equal(t, time.Duration(0), CalcDelay(cfg, 5))
}
