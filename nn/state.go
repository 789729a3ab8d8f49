package nn

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// StateVersion is written into every state document.
const StateVersion = "1.0"

// NeuronState is the persisted part of a neuron; activations are transient.
type NeuronState struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// LayerState holds a layer's neurons in order.
type LayerState struct {
	Neurons []NeuronState `json:"neurons"`
}

// State is the serializable form of a trained network
type State struct {
	Version      string     `json:"version"`
	LearningRate float64    `json:"learning_rate"`
	Shape        []int      `json:"shape"`
	Hidden1      LayerState `json:"hidden_layer_1"`
	Hidden2      LayerState `json:"hidden_layer_2"`
	Output       LayerState `json:"output_layer"`
}

func layerState(l *Layer) LayerState {
	ls := LayerState{Neurons: make([]NeuronState, len(l.Neurons))}
	for i, n := range l.Neurons {
		ls.Neurons[i] = NeuronState{
			Weights: append([]float64{}, n.Weights...), // copy
			Bias:    n.Bias,
		}
	}
	return ls
}

// State captures the learning rate and every weight and bias.
func (net *Network) State() *State {
	return &State{
		Version:      StateVersion,
		LearningRate: net.LearningRate,
		Shape:        net.Shape().Sizes(),
		Hidden1:      layerState(net.Hidden1),
		Hidden2:      layerState(net.Hidden2),
		Output:       layerState(net.Output),
	}
}

func checkLayerState(name string, ls LayerState, size, inputs int) error {
	if len(ls.Neurons) != size {
		return fmt.Errorf("%s has %d neurons, want %d", name, len(ls.Neurons), size)
	}
	for i, n := range ls.Neurons {
		if len(n.Weights) != inputs {
			return fmt.Errorf("%s neuron %d has %d weights, want %d", name, i, len(n.Weights), inputs)
		}
	}
	return nil
}

func restoreLayer(l *Layer, ls LayerState) {
	for i := range l.Neurons {
		l.Neurons[i].Weights = append([]float64{}, ls.Neurons[i].Weights...)
		l.Neurons[i].Bias = ls.Neurons[i].Bias
	}
}

// Restore replaces the learning rate, weights and biases with those in s. The
// whole state is checked against the network's shape first, so a rejected
// state leaves the network as it was.
func (net *Network) Restore(s *State) error {
	if s == nil {
		return fmt.Errorf("nil state")
	}
	if s.Version != StateVersion {
		return fmt.Errorf("unsupported state version %q", s.Version)
	}
	if !(s.LearningRate > 0) {
		return fmt.Errorf("learning rate must be positive, got %v", s.LearningRate)
	}
	shape := net.Shape()
	if len(s.Shape) != 4 {
		return fmt.Errorf("shape has %d layers, want 4", len(s.Shape))
	}
	for i, n := range shape.Sizes() {
		if s.Shape[i] != n {
			return fmt.Errorf("shape %v does not match network shape %v", s.Shape, shape)
		}
	}
	if err := checkLayerState("hidden_layer_1", s.Hidden1, shape.Hidden1, shape.Input); err != nil {
		return err
	}
	if err := checkLayerState("hidden_layer_2", s.Hidden2, shape.Hidden2, shape.Hidden1); err != nil {
		return err
	}
	if err := checkLayerState("output_layer", s.Output, shape.Output, shape.Hidden2); err != nil {
		return err
	}

	net.LearningRate = s.LearningRate
	restoreLayer(net.Hidden1, s.Hidden1)
	restoreLayer(net.Hidden2, s.Hidden2)
	restoreLayer(net.Output, s.Output)
	return nil
}

// WriteState encodes the network state as indented JSON.
func (net *Network) WriteState(w io.Writer) error {
	data, err := json.MarshalIndent(net.State(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ReadState decodes a state document. Unknown fields and anything after the
// document other than whitespace are rejected.
func ReadState(r io.Reader) (*State, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var s State
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after state document")
	}
	return &s, nil
}

// readStateFile separates reading path, an IOError, from decoding it, a
// DeserializationError.
func readStateFile(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	s, err := ReadState(bytes.NewReader(data))
	if err != nil {
		return nil, &DeserializationError{Path: path, Err: err}
	}
	return s, nil
}

// Save writes the state to path. The document goes to a temporary file in the
// same directory first and is renamed over path once complete.
func (net *Network) Save(path string) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	if err = net.WriteState(f); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err = f.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	if err = os.Chmod(tmp, 0o644); err != nil {
		return &IOError{Op: "chmod", Path: path, Err: err}
	}
	if err = os.Rename(tmp, path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// Load reads the state at path into the network. On any error the network is
// left unchanged.
func (net *Network) Load(path string) error {
	s, err := readStateFile(path)
	if err != nil {
		return err
	}
	if err := net.Restore(s); err != nil {
		return &DeserializationError{Path: path, Err: err}
	}
	return nil
}

// LoadNetwork builds a network shaped after the state file at path and
// restores it.
func LoadNetwork(path string) (*Network, error) {
	s, err := readStateFile(path)
	if err != nil {
		return nil, err
	}
	shape, err := ShapeOf(s.Shape)
	if err != nil {
		return nil, &DeserializationError{Path: path, Err: err}
	}
	net, err := NewNetwork(s.LearningRate, shape, nil)
	if err != nil {
		return nil, &DeserializationError{Path: path, Err: err}
	}
	if err := net.Restore(s); err != nil {
		return nil, &DeserializationError{Path: path, Err: err}
	}
	return net, nil
}
