package runtime

import (
	"time"

	"github.com/aretw0/orrery/pkg/ports"
	"github.com/cenkalti/backoff/v5"
)

// Retry defaults for failed or empty fetches.
const (
	DefaultRetryInitial    = 250 * time.Millisecond
	DefaultRetryMax        = 10 * time.Second
	DefaultRetryMultiplier = 2.0
)

// NewRetryPolicy returns a jittered exponential backoff.
// Zero arguments fall back to the defaults.
func NewRetryPolicy(initial, max time.Duration, multiplier float64) ports.RetryPolicy {
	if initial <= 0 {
		initial = DefaultRetryInitial
	}
	if max <= 0 {
		max = DefaultRetryMax
	}
	if multiplier < 1 {
		multiplier = DefaultRetryMultiplier
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = max
	b.Multiplier = multiplier
	b.Reset()
	return b
}
