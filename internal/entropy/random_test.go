package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCryptoFloat_Range(t *testing.T) {
	for i := 0; i < 1000; i++ {
		f := Crypto{}.Float()
		assert.GreaterOrEqual(t, f, 0.0)
		assert.Less(t, f, 1.0)
	}
}

func TestSeeded_Replays(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Float(), b.Float())
	}
	assert.NotEqual(t, NewSeeded(1).Float(), NewSeeded(2).Float())
}

func TestPick(t *testing.T) {
	weights := []float64{3, 0, 1}

	assert.Equal(t, 0, Pick(Fixed(0), weights))
	assert.Equal(t, 0, Pick(Fixed(0.74), weights))
	assert.Equal(t, 2, Pick(Fixed(0.75), weights))
	assert.Equal(t, 2, Pick(Fixed(0.9999), weights))

	assert.Equal(t, -1, Pick(Fixed(0.5), []float64{0, -2}))
	assert.Equal(t, -1, Pick(Fixed(0.5), nil))
}

func TestPick_Distribution(t *testing.T) {
	src := NewSeeded(7)
	counts := make([]int, 2)
	for i := 0; i < 10000; i++ {
		counts[Pick(src, []float64{3, 1})]++
	}
	assert.InDelta(t, 7500, counts[0], 300)
}
