package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.InDelta(t, 0.7310585786300049, Sigmoid(1), 1e-15)
	assert.InDelta(t, 1-Sigmoid(2), Sigmoid(-2), 1e-15)
}

func TestSigmoidSaturates(t *testing.T) {
	for _, x := range []float64{-1e6, -800, -50, 50, 800, 1e6, math.MaxFloat64, -math.MaxFloat64} {
		y := Sigmoid(x)
		assert.False(t, math.IsNaN(y), "σ(%g) is NaN", x)
		assert.GreaterOrEqual(t, y, 0.0)
		assert.LessOrEqual(t, y, 1.0)
	}
	assert.Equal(t, 1.0, Sigmoid(1e6))
	assert.Equal(t, 0.0, Sigmoid(-1e6))
}

func TestSigmoidDeriv(t *testing.T) {
	assert.Equal(t, 0.25, SigmoidDeriv(0.5))
	assert.Equal(t, 0.0, SigmoidDeriv(1))
	assert.Equal(t, 0.0, SigmoidDeriv(0))
}
