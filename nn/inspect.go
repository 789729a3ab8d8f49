package nn

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// WeightMatrix copies the layer's weights into a Size() x Inputs() matrix,
// one row per neuron. It is a read-only view for printing; training never
// goes through it.
func (l *Layer) WeightMatrix() *mat.Dense {
	rows, cols := l.Size(), l.Inputs()
	if rows == 0 || cols == 0 {
		return nil
	}
	data := make([]float64, 0, rows*cols)
	for _, n := range l.Neurons {
		data = append(data, n.Weights...)
	}
	return mat.NewDense(rows, cols, data)
}

// Biases copies the layer's biases into a column vector.
func (l *Layer) Biases() *mat.VecDense {
	if l.Size() == 0 {
		return nil
	}
	b := make([]float64, l.Size())
	for i, n := range l.Neurons {
		b[i] = n.Bias
	}
	return mat.NewVecDense(len(b), b)
}

// Describe prints the shape, learning rate and an excerpt of every weight
// matrix to w.
func (net *Network) Describe(w io.Writer) {
	fmt.Fprintf(w, "shape %v, learning rate %g, rule %v\n", net.Shape(), net.LearningRate, net.Rule)
	layers := []struct {
		name  string
		layer *Layer
	}{
		{"hidden1", net.Hidden1},
		{"hidden2", net.Hidden2},
		{"output", net.Output},
	}
	for _, l := range layers {
		wm := l.layer.WeightMatrix()
		if wm == nil {
			fmt.Fprintf(w, "%s: empty\n", l.name)
			continue
		}
		r, c := wm.Dims()
		fmt.Fprintf(w, "%s weights (%dx%d):\n%v\n", l.name, r, c, mat.Formatted(wm, mat.Prefix("  "), mat.Squeeze(), mat.Excerpt(3)))
		fmt.Fprintf(w, "%s biases:\n%v\n", l.name, mat.Formatted(l.layer.Biases().T(), mat.Prefix("  "), mat.Squeeze(), mat.Excerpt(5)))
	}
}
