package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetector_StopsOnDiminishingReturns(t *testing.T) {
	d := NewDetector(1.05, 4)

	assert.False(t, d.Plateaued(100))
	assert.False(t, d.Plateaued(150))
	assert.False(t, d.Plateaued(200))
	// Window holds 100, 150, 200. 202 < 200*1.05 ends the sweep.
	assert.True(t, d.Plateaued(202))
	assert.Equal(t, 4, d.Runs())
}

func TestDetector_PartialWindowNeverStops(t *testing.T) {
	d := NewDetector(1.05, 1)

	assert.False(t, d.Plateaued(100))
	assert.False(t, d.Plateaued(90))
	assert.False(t, d.Plateaued(80))
}

func TestDetector_MinRunsHoldsOffTheRule(t *testing.T) {
	d := NewDetector(1.05, 6)

	for i := 0; i < 5; i++ {
		assert.False(t, d.Plateaued(100), "run %d", i+1)
	}
	assert.True(t, d.Plateaued(100))
}

func TestDetector_RejectedValueIsNotRetained(t *testing.T) {
	d := NewDetector(1.05, 4)
	d.Plateaued(100)
	d.Plateaued(150)
	d.Plateaued(200)

	assert.True(t, d.Plateaued(202))
	// 202 was discarded, so a later value still compares against the
	// same 200-high window.
	assert.True(t, d.Plateaued(209))
	assert.False(t, d.Plateaued(211))
}

func TestDetector_EvictsOldestValue(t *testing.T) {
	d := NewDetector(1.05, 5)
	d.Plateaued(300)
	d.Plateaued(100)
	d.Plateaued(100)
	// Fourth value evicts the 300 before the rule arms.
	d.Plateaued(100)

	assert.False(t, d.Plateaued(106))
}

func TestDetector_ExactThresholdContinues(t *testing.T) {
	atBar := NewDetector(1.5, 1)
	belowBar := NewDetector(1.5, 1)
	for _, v := range []float64{100, 100, 100} {
		atBar.Plateaued(v)
		belowBar.Plateaued(v)
	}

	// The rule is strictly-below: meeting the bar exactly keeps going.
	assert.False(t, atBar.Plateaued(150))
	assert.True(t, belowBar.Plateaued(149))
}
