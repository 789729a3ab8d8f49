package nn

import (
	"fmt"
	"math/rand/v2"
)

// LayerKind tells hidden layers from the output layer.
type LayerKind int

const (
	ActivationLayer LayerKind = iota
	OutputLayer
)

func (k LayerKind) String() string {
	switch k {
	case ActivationLayer:
		return "activation"
	case OutputLayer:
		return "output"
	}
	return fmt.Sprintf("LayerKind(%d)", int(k))
}

// InputLayer holds the raw pixel values of the current sample. It has no weights.
type InputLayer struct {
	Activations []float64
}

// NewInputLayer returns an input layer of the given size, zeroed.
func NewInputLayer(size int) *InputLayer {
	return &InputLayer{Activations: make([]float64, size)}
}

// Size is the number of input values.
func (l *InputLayer) Size() int { return len(l.Activations) }

// Layer is an ordered set of neurons fully connected to the previous layer.
type Layer struct {
	Kind    LayerKind
	Neurons []Neuron
}

// NewLayer allocates size neurons, each with inputs weights.
func NewLayer(kind LayerKind, size, inputs int, rng *rand.Rand) *Layer {
	l := &Layer{Kind: kind, Neurons: make([]Neuron, size)}
	for i := range l.Neurons {
		l.Neurons[i] = NewNeuron(inputs, rng)
	}
	return l
}

// Size is the number of neurons.
func (l *Layer) Size() int { return len(l.Neurons) }

// Inputs is the length of every neuron's weight vector.
func (l *Layer) Inputs() int {
	if len(l.Neurons) == 0 {
		return 0
	}
	return len(l.Neurons[0].Weights)
}

// Activations returns a copy of the current activations in neuron order.
func (l *Layer) Activations() []float64 {
	out := make([]float64, len(l.Neurons))
	for i := range l.Neurons {
		out[i] = l.Neurons[i].Activation
	}
	return out
}

func (l *Layer) forward(inputs []float64) {
	for i := range l.Neurons {
		l.Neurons[i].activate(inputs)
	}
}
