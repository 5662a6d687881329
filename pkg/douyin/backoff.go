package douyin

import (
	"math"
	"time"
)

// failureClass separates "why did this attempt fail" from "how long to wait
// before the next one". New retryable conditions only need a new class here.
type failureClass int

const (
	classRequest failureClass = iota
	classInterstitial
	classParse
)

func (c failureClass) String() string {
	switch c {
	case classInterstitial:
		return "interstitial"
	case classParse:
		return "parse"
	default:
		return "request"
	}
}

type backoffPolicy struct {
	initial    time.Duration
	cap        time.Duration
	multiplier float64
}

// Interstitials get the longest waits since anti-bot checks need time to
// cool off; parse misses usually clear on a fresh page render.
var backoffPolicies = map[failureClass]backoffPolicy{
	classRequest:      {initial: 500 * time.Millisecond, cap: 5 * time.Second, multiplier: 2.0},
	classInterstitial: {initial: time.Second, cap: 8 * time.Second, multiplier: 2.0},
	classParse:        {initial: 500 * time.Millisecond, cap: 4 * time.Second, multiplier: 1.5},
}

// backoffDelay computes the wait after the given 1-based failed attempt.
func backoffDelay(class failureClass, attempt int) time.Duration {
	p := backoffPolicies[class]
	d := time.Duration(float64(p.initial) * math.Pow(p.multiplier, float64(attempt-1)))
	if d > p.cap {
		d = p.cap
	}
	return d
}
