package nn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toyNetwork is a (2, 2, 2, 2) network with fixed weights and zero biases.
func toyNetwork(t *testing.T, lr float64) *Network {
	t.Helper()
	net, err := NewNetwork(lr, Shape{Input: 2, Hidden1: 2, Hidden2: 2, Output: 2}, NewRand(1))
	require.NoError(t, err)
	set := func(l *Layer, w [][]float64) {
		for i := range l.Neurons {
			l.Neurons[i].Weights = append([]float64(nil), w[i]...)
			l.Neurons[i].Bias = 0
		}
	}
	set(net.Hidden1, [][]float64{{0.5, -0.5}, {0.25, 0.75}})
	set(net.Hidden2, [][]float64{{0.1, 0.2}, {-0.3, 0.4}})
	set(net.Output, [][]float64{{0.6, -0.1}, {0.2, 0.3}})
	return net
}

func TestNewNetworkShape(t *testing.T) {
	net, err := NewNetwork(0.1, DefaultShape, NewRand(42))
	require.NoError(t, err)
	assert.Equal(t, DefaultShape, net.Shape())

	assert.Equal(t, 784, net.Input.Size())
	for _, l := range []*Layer{net.Hidden1, net.Hidden2, net.Output} {
		for _, n := range l.Neurons {
			assert.Equal(t, l.Inputs(), len(n.Weights))
			assert.Equal(t, 0.0, n.Bias)
			assert.Equal(t, 0.0, n.Activation)
			for _, w := range n.Weights {
				assert.GreaterOrEqual(t, w, WeightMin)
				assert.LessOrEqual(t, w, WeightMax)
			}
		}
	}
	assert.Equal(t, 784, net.Hidden1.Inputs())
	assert.Equal(t, 16, net.Hidden2.Inputs())
	assert.Equal(t, 16, net.Output.Inputs())
	assert.Equal(t, OutputLayer, net.Output.Kind)
	assert.Equal(t, ActivationLayer, net.Hidden1.Kind)
}

func TestNewNetworkSeeded(t *testing.T) {
	a, err := NewNetwork(0.1, DefaultShape, NewRand(7))
	require.NoError(t, err)
	b, err := NewNetwork(0.1, DefaultShape, NewRand(7))
	require.NoError(t, err)
	c, err := NewNetwork(0.1, DefaultShape, NewRand(8))
	require.NoError(t, err)

	assert.Equal(t, a.State(), b.State())
	assert.NotEqual(t, a.State().Hidden1, c.State().Hidden1)
}

func TestNewNetworkRejects(t *testing.T) {
	_, err := NewNetwork(0.1, Shape{Input: 784, Hidden1: 0, Hidden2: 16, Output: 10}, nil)
	assert.Error(t, err)
	_, err = NewNetwork(0, DefaultShape, nil)
	assert.Error(t, err)
	_, err = NewNetwork(-1, DefaultShape, nil)
	assert.Error(t, err)
}

func TestShapeOf(t *testing.T) {
	s, err := ShapeOf([]int{784, 16, 16, 10})
	require.NoError(t, err)
	assert.Equal(t, DefaultShape, s)
	assert.Equal(t, "(784, 16, 16, 10)", s.String())

	_, err = ShapeOf([]int{784, 16, 10})
	assert.Error(t, err)
	_, err = ShapeOf([]int{784, -1, 16, 10})
	assert.Error(t, err)
}

func TestParseRule(t *testing.T) {
	for in, want := range map[string]Rule{"": ReferenceRule, "reference": ReferenceRule, "Textbook": TextbookRule} {
		r, err := ParseRule(in)
		require.NoError(t, err)
		assert.Equal(t, want, r)
	}
	_, err := ParseRule("adam")
	assert.Error(t, err)
	assert.Equal(t, "textbook", TextbookRule.String())
}

func TestLayerByName(t *testing.T) {
	net := toyNetwork(t, 0.5)
	for name, want := range map[string]*Layer{"hidden1": net.Hidden1, "hidden2": net.Hidden2, "output": net.Output} {
		l, err := net.LayerByName(name)
		require.NoError(t, err)
		assert.Same(t, want, l)
	}
	_, err := net.LayerByName("input")
	assert.Error(t, err)
}

func TestFeedForward(t *testing.T) {
	net := toyNetwork(t, 0.5)
	require.NoError(t, net.FeedForward([]float64{1, 0}))

	assert.Equal(t, []float64{1, 0}, net.Input.Activations)
	assert.InDelta(t, Sigmoid(0.5), net.Hidden1.Neurons[0].Activation, 1e-15)
	assert.InDelta(t, Sigmoid(0.25), net.Hidden1.Neurons[1].Activation, 1e-15)
	assert.InDeltaSlice(t, []float64{0.5683647699102292, 0.5650225703196902}, net.Output.Activations(), 1e-12)
}

func TestFeedForwardActivationsInRange(t *testing.T) {
	net, err := NewNetwork(0.1, DefaultShape, NewRand(3))
	require.NoError(t, err)
	image := make([]float64, 784)
	for i := range image {
		image[i] = float64(i%256) / 255
	}
	require.NoError(t, net.FeedForward(image))
	for _, a := range net.Output.Activations() {
		assert.Greater(t, a, 0.0)
		assert.Less(t, a, 1.0)
	}
}

func TestFeedForwardInputShape(t *testing.T) {
	net := toyNetwork(t, 0.5)
	require.NoError(t, net.FeedForward([]float64{1, 0}))
	before := net.Output.Activations()

	err := net.FeedForward([]float64{1, 0, 1})
	var shapeErr *InputShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, 3, shapeErr.Got)
	assert.Equal(t, 2, shapeErr.Want)

	assert.Equal(t, []float64{1, 0}, net.Input.Activations)
	assert.Equal(t, before, net.Output.Activations())
}

func TestMostActiveNeuron(t *testing.T) {
	net := toyNetwork(t, 0.5)
	cases := []struct {
		acts  []float64
		index int
	}{
		{[]float64{0.2, 0.9}, 1},
		{[]float64{0.9, 0.2}, 0},
		{[]float64{0.7, 0.7}, 0},
	}
	for _, c := range cases {
		for i, a := range c.acts {
			net.Output.Neurons[i].Activation = a
		}
		index, act, ok := net.MostActiveNeuron()
		require.True(t, ok)
		assert.Equal(t, c.index, index)
		assert.Equal(t, c.acts[c.index], act)
	}

	empty := &Network{Output: &Layer{Kind: OutputLayer}}
	_, _, ok := empty.MostActiveNeuron()
	assert.False(t, ok)
}

func TestIterationCost(t *testing.T) {
	net := toyNetwork(t, 0.5)
	net.Output.Neurons[0].Activation = 1
	net.Output.Neurons[1].Activation = 0
	// 2^(1-1) + 2^0
	assert.Equal(t, 2.0, net.IterationCost(0))
	// 2^1 + 2^(0-1)
	assert.Equal(t, 2.5, net.IterationCost(1))
}
