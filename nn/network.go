package nn

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Shape is the fixed layer layout of a network.
type Shape struct {
	Input   int
	Hidden1 int
	Hidden2 int
	Output  int
}

// DefaultShape is the 28×28 pixel, 10 class layout.
var DefaultShape = Shape{Input: 784, Hidden1: 16, Hidden2: 16, Output: 10}

// ShapeOf builds a Shape from a four element size list.
func ShapeOf(sizes []int) (Shape, error) {
	if len(sizes) != 4 {
		return Shape{}, fmt.Errorf("shape needs 4 layer sizes, got %d", len(sizes))
	}
	s := Shape{Input: sizes[0], Hidden1: sizes[1], Hidden2: sizes[2], Output: sizes[3]}
	return s, s.Validate()
}

// Validate checks that every layer has at least one unit.
func (s Shape) Validate() error {
	for i, n := range s.Sizes() {
		if n <= 0 {
			return fmt.Errorf("layer %d of shape %v must have a positive size", i, s)
		}
	}
	return nil
}

// Sizes returns the layer sizes input first.
func (s Shape) Sizes() []int {
	return []int{s.Input, s.Hidden1, s.Hidden2, s.Output}
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", s.Input, s.Hidden1, s.Hidden2, s.Output)
}

// Rule selects the weight-update formula used by BackPropagate.
type Rule int

const (
	// ReferenceRule scales output updates by the output neuron's own
	// activation and stops after hidden layer 2.
	ReferenceRule Rule = iota
	// TextbookRule applies the chain rule to every layer, hidden layer 1 included.
	TextbookRule
)

func (r Rule) String() string {
	switch r {
	case ReferenceRule:
		return "reference"
	case TextbookRule:
		return "textbook"
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// ParseRule maps "reference" or "textbook" to a Rule.
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reference":
		return ReferenceRule, nil
	case "textbook":
		return TextbookRule, nil
	}
	return ReferenceRule, fmt.Errorf("unknown gradient rule %q", s)
}

// Network is a 4-layer perceptron: one input layer, two sigmoid hidden layers
// and a sigmoid output layer. It is not safe for concurrent use.
type Network struct {
	LearningRate float64
	Rule         Rule

	Input   *InputLayer
	Hidden1 *Layer
	Hidden2 *Layer
	Output  *Layer
}

// NewNetwork builds a randomly initialised network. Every weight vector is
// sized to the previous layer here, so forward and backward passes can index
// positionally without further checks.
func NewNetwork(learningRate float64, shape Shape, rng *rand.Rand) (*Network, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if learningRate <= 0 || math.IsNaN(learningRate) || math.IsInf(learningRate, 0) {
		return nil, fmt.Errorf("learning rate must be a positive number, got %v", learningRate)
	}
	return &Network{
		LearningRate: learningRate,
		Input:        NewInputLayer(shape.Input),
		Hidden1:      NewLayer(ActivationLayer, shape.Hidden1, shape.Input, rng),
		Hidden2:      NewLayer(ActivationLayer, shape.Hidden2, shape.Hidden1, rng),
		Output:       NewLayer(OutputLayer, shape.Output, shape.Hidden2, rng),
	}, nil
}

// Shape reports the layer sizes.
func (net *Network) Shape() Shape {
	return Shape{
		Input:   net.Input.Size(),
		Hidden1: net.Hidden1.Size(),
		Hidden2: net.Hidden2.Size(),
		Output:  net.Output.Size(),
	}
}

// LayerByName returns "hidden1", "hidden2" or "output".
func (net *Network) LayerByName(name string) (*Layer, error) {
	switch name {
	case "hidden1":
		return net.Hidden1, nil
	case "hidden2":
		return net.Hidden2, nil
	case "output":
		return net.Output, nil
	}
	return nil, fmt.Errorf("unknown layer %q (want hidden1, hidden2 or output)", name)
}

// FeedForward loads image into the input layer and recomputes every
// activation, layer by layer. Nothing is mutated if the image has the wrong length.
func (net *Network) FeedForward(image []float64) error {
	if len(image) != net.Input.Size() {
		return &InputShapeError{Got: len(image), Want: net.Input.Size()}
	}
	copy(net.Input.Activations, image)

	net.Hidden1.forward(net.Input.Activations)
	net.Hidden2.forward(net.Hidden1.Activations())
	net.Output.forward(net.Hidden2.Activations())
	return nil
}

// MostActiveNeuron returns the index and activation of the output neuron with
// the greatest activation; the lowest index wins a tie. ok is false only when
// the output layer is empty.
func (net *Network) MostActiveNeuron() (index int, activation float64, ok bool) {
	if net.Output.Size() == 0 {
		return 0, 0, false
	}
	acts := net.Output.Activations()
	index = floats.MaxIdx(acts)
	return index, acts[index], true
}

// IterationCost is the monitoring cost of the current output for the given
// label: the sum over output neurons of 2^(a-1) for the labelled neuron and 2^a
// for every other one. It plays no part in the gradient.
func (net *Network) IterationCost(label int) float64 {
	var cost float64
	for i := range net.Output.Neurons {
		a := net.Output.Neurons[i].Activation
		if i == label {
			cost += math.Pow(2, a-1)
		} else {
			cost += math.Pow(2, a-0)
		}
	}
	return cost
}
