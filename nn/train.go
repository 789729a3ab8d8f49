package nn

import (
	"fmt"
	"time"

	"mnistnet/utils"

	"gonum.org/v1/gonum/stat"
)

// Dataset is an ordered collection of (image, label) samples. Images are
// flattened and normalised to [0, 1]; labels are class indices.
type Dataset interface {
	Len() int
	Sample(i int) (image []float64, label int)
}

// Metrics aggregates one pass over a dataset.
type Metrics struct {
	Epoch    int
	Correct  int
	Total    int
	Accuracy float64
	MeanCost float64
	Duration time.Duration
}

func (m Metrics) String() string {
	return fmt.Sprintf("accuracy %.4f (%d/%d), mean cost %.6f", m.Accuracy, m.Correct, m.Total, m.MeanCost)
}

// SampleError ties a failure to the dataset position that caused it.
type SampleError struct {
	Index int
	Err   error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %d: %v", e.Index, e.Err)
}

func (e *SampleError) Unwrap() error { return e.Err }

// Step feeds one sample forward, scores the prediction made before any update,
// and back-propagates when learn is set.
func (net *Network) Step(image []float64, label int, learn bool) (correct bool, cost float64, err error) {
	if label < 0 || label >= net.Output.Size() {
		return false, 0, &LabelError{Label: label, Classes: net.Output.Size()}
	}
	if err := net.FeedForward(image); err != nil {
		return false, 0, err
	}
	predicted, _, _ := net.MostActiveNeuron()
	cost = net.IterationCost(label)
	if learn {
		if err := net.BackPropagate(label); err != nil {
			return false, 0, err
		}
	}
	return predicted == label, cost, nil
}

func (net *Network) pass(set Dataset, learn bool) (Metrics, error) {
	start := time.Now()
	total := set.Len()
	costs := make([]float64, 0, total)
	m := Metrics{Total: total}

	for i := 0; i < total; i++ {
		image, label := set.Sample(i)
		correct, cost, err := net.Step(image, label, learn)
		if err != nil {
			return m, &SampleError{Index: i, Err: err}
		}
		if correct {
			m.Correct++
		}
		costs = append(costs, cost)
	}

	if total > 0 {
		m.Accuracy = float64(m.Correct) / float64(total)
		m.MeanCost = stat.Mean(costs, nil)
	}
	m.Duration = time.Since(start)
	return m, nil
}

// Train runs epochs full passes over set in order, updating after every
// sample. Metrics for each epoch are logged and returned; a failing sample
// aborts the run.
func (net *Network) Train(set Dataset, epochs int) ([]Metrics, error) {
	history := make([]Metrics, 0, epochs)
	for epoch := 1; epoch <= epochs; epoch++ {
		m, err := net.pass(set, true)
		m.Epoch = epoch
		if err != nil {
			return history, fmt.Errorf("epoch %d: %w", epoch, err)
		}
		history = append(history, m)
		utils.Logf("Dataset iteration %d of %d complete: %s (%.2fs)", epoch, epochs, m, m.Duration.Seconds())
	}
	return history, nil
}

// Test scores the network on set without changing any weight.
func (net *Network) Test(set Dataset) (Metrics, error) {
	m, err := net.pass(set, false)
	if err != nil {
		return m, err
	}
	utils.Logf("Test complete: %s", m)
	return m, nil
}
