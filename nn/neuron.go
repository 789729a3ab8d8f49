package nn

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Initial weights are drawn uniformly from [WeightMin, WeightMax]. A symmetric
// range lets hidden units start on both sides of the sigmoid's midpoint.
const (
	WeightMin = -1.0
	WeightMax = 1.0
)

// Neuron is a single sigmoid unit. Weights[k] multiplies the activation of
// neuron k in the previous layer.
type Neuron struct {
	Weights    []float64
	Bias       float64
	Activation float64
}

// NewNeuron allocates a neuron with nInputs random weights, a zero bias and a
// zero activation. A nil rng draws from the global source.
func NewNeuron(nInputs int, rng *rand.Rand) Neuron {
	dist := distuv.Uniform{Min: WeightMin, Max: WeightMax}
	if rng != nil {
		dist.Src = rng
	}
	weights := make([]float64, nInputs)
	for i := range weights {
		weights[i] = dist.Rand()
	}
	return Neuron{Weights: weights}
}

// NewRand returns a deterministic generator for network construction.
func NewRand(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

func (n *Neuron) activate(inputs []float64) {
	var sum float64
	for k, w := range n.Weights {
		sum += w * inputs[k]
	}
	n.Activation = Sigmoid(sum + n.Bias)
}
