package detector

import (
	"BiteBot/internal/service/audio"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fixedRand int64

func (f fixedRand) Int63n(n int64) int64 { return int64(f) % n }

func policy() Policy {
	return Policy{Threshold: 0.035, DelayMin: 100 * time.Millisecond, DelayMax: 500 * time.Millisecond}
}

func TestDetectAboveThreshold(t *testing.T) {
	d := New(policy(), fixedRand(int64(150*time.Millisecond)))

	delay, ok := d.Detect(audio.Sample{Active: true, Level: 0.05})
	assert.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, delay)
}

func TestDetectBelowOrAtThreshold(t *testing.T) {
	d := New(policy(), fixedRand(0))

	for _, level := range []float64{0, 0.01, 0.035} {
		_, ok := d.Detect(audio.Sample{Active: true, Level: level})
		assert.False(t, ok, "level %v", level)
	}
}

func TestDetectInactive(t *testing.T) {
	d := New(policy(), fixedRand(0))

	_, ok := d.Detect(audio.Inactive)
	assert.False(t, ok)
	_, ok = d.Detect(audio.Sample{Level: 1})
	assert.False(t, ok)
}

func TestDelayStaysInRange(t *testing.T) {
	p := policy()
	d := New(p, rand.New(rand.NewSource(1)))

	for range 1000 {
		delay, ok := d.Detect(audio.Sample{Active: true, Level: 1})
		assert.True(t, ok)
		assert.GreaterOrEqual(t, delay, p.DelayMin)
		assert.Less(t, delay, p.DelayMax)
	}
}

func TestFixedDelayWhenRangeCollapsed(t *testing.T) {
	d := New(Policy{Threshold: 0.1, DelayMin: 300 * time.Millisecond, DelayMax: 100 * time.Millisecond}, nil)

	delay, ok := d.Detect(audio.Sample{Active: true, Level: 0.5})
	assert.True(t, ok)
	assert.Equal(t, 300*time.Millisecond, delay)
}
