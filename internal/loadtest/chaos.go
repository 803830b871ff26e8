package loadtest

import (
	"math/rand/v2"
	"time"
)

const (
	// DefaultChaosProbability is the chance that an iteration is replaced by a synthetic failure.
	DefaultChaosProbability = 0.10

	// DefaultChaosMinDelay and DefaultChaosMaxDelay bound the simulated stall.
	DefaultChaosMinDelay = 100 * time.Millisecond
	DefaultChaosMaxDelay = 500 * time.Millisecond

	// ChaosStatusCode is recorded for every synthetic failure.
	ChaosStatusCode = 500
)

// ChaosConfig configures fault injection.
type ChaosConfig struct {
	Enabled     bool
	Probability float64
	MinDelay    time.Duration
	MaxDelay    time.Duration
}

// DefaultChaosConfig returns the fault-injection settings with chaos disabled.
func DefaultChaosConfig() ChaosConfig {
	return ChaosConfig{
		Probability: DefaultChaosProbability,
		MinDelay:    DefaultChaosMinDelay,
		MaxDelay:    DefaultChaosMaxDelay,
	}
}

// trigger draws one uniform value in [0,1) and reports whether it falls below the fault probability.
func (c ChaosConfig) trigger(rng *rand.Rand) bool {
	if !c.Enabled {
		return false
	}
	return rng.Float64() < c.Probability
}

// delay draws a uniform stall duration in [MinDelay, MaxDelay].
func (c ChaosConfig) delay(rng *rand.Rand) time.Duration {
	lo, hi := c.MinDelay, c.MaxDelay
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(rng.Float64()*float64(hi-lo))
}
