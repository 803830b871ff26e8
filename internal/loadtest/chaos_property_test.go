package loadtest

import (
	"math/rand/v2"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestChaosDelayWithinBounds checks that every drawn stall lies in [MinDelay, MaxDelay].
func TestChaosDelayWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		minMs := rapid.IntRange(0, 1000).Draw(t, "minMs")
		spanMs := rapid.IntRange(0, 1000).Draw(t, "spanMs")
		seed := rapid.Uint64().Draw(t, "seed")

		cfg := ChaosConfig{
			Enabled:     true,
			Probability: DefaultChaosProbability,
			MinDelay:    time.Duration(minMs) * time.Millisecond,
			MaxDelay:    time.Duration(minMs+spanMs) * time.Millisecond,
		}
		rng := rand.New(rand.NewPCG(seed, 1))

		for i := 0; i < 20; i++ {
			d := cfg.delay(rng)
			if d < cfg.MinDelay || d > cfg.MaxDelay {
				t.Fatalf("delay %s outside [%s, %s]", d, cfg.MinDelay, cfg.MaxDelay)
			}
		}
	})
}

// TestChaosDisabledNeverTriggers checks that a disabled config never injects a failure.
func TestChaosDisabledNeverTriggers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := ChaosConfig{Probability: rapid.Float64Range(0, 1).Draw(t, "p")}
		rng := rand.New(rand.NewPCG(rapid.Uint64().Draw(t, "seed"), 2))
		for i := 0; i < 50; i++ {
			if cfg.trigger(rng) {
				t.Fatal("disabled chaos triggered")
			}
		}
	})
}
