package douyin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelayNonDecreasing(t *testing.T) {
	for class := range backoffPolicies {
		prev := time.Duration(0)
		for attempt := 1; attempt <= 10; attempt++ {
			d := backoffDelay(class, attempt)
			assert.GreaterOrEqual(t, d, prev, "class %s attempt %d", class, attempt)
			prev = d
		}
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	for class, policy := range backoffPolicies {
		assert.Equal(t, policy.cap, backoffDelay(class, 50), "class %s", class)
	}
}

func TestBackoffDelayStartsAtInitial(t *testing.T) {
	for class, policy := range backoffPolicies {
		assert.Equal(t, policy.initial, backoffDelay(class, 1), "class %s", class)
	}
}

func TestInterstitialBacksOffLongerThanParse(t *testing.T) {
	assert.Greater(t, backoffDelay(classInterstitial, 1), backoffDelay(classParse, 1))
	assert.Greater(t, backoffPolicies[classInterstitial].cap, backoffPolicies[classParse].cap)
}
