package nn

// BackPropagate adjusts weights and biases for the sample currently loaded by
// FeedForward, given its true label. All error signals are computed from the
// pre-update weights before any weight is changed.
func (net *Network) BackPropagate(label int) error {
	if label < 0 || label >= net.Output.Size() {
		return &LabelError{Label: label, Classes: net.Output.Size()}
	}
	switch net.Rule {
	case TextbookRule:
		net.backPropagateTextbook(label)
	default:
		net.backPropagateReference(label)
	}
	return nil
}

// outputErrors returns desired - activation for every output neuron, with the
// desired vector one-hot at label.
func (net *Network) outputErrors(label int) []float64 {
	errs := make([]float64, net.Output.Size())
	for j := range net.Output.Neurons {
		desired := 0.0
		if j == label {
			desired = 1.0
		}
		errs[j] = desired - net.Output.Neurons[j].Activation
	}
	return errs
}

// hiddenErrors propagates next-layer signals back through next's weights and
// scales them by σ' at the layer's own activations.
func hiddenErrors(layer, next *Layer, nextErrs []float64) []float64 {
	errs := make([]float64, layer.Size())
	for i := range layer.Neurons {
		var sum float64
		for j := range next.Neurons {
			sum += nextErrs[j] * next.Neurons[j].Weights[i]
		}
		errs[i] = sum * SigmoidDeriv(layer.Neurons[i].Activation)
	}
	return errs
}

// applyDeltas adds lr * errs[i] * inputs[k] to weight k of neuron i and
// lr * errs[i] to its bias.
func (net *Network) applyDeltas(layer *Layer, errs, inputs []float64) {
	for i := range layer.Neurons {
		n := &layer.Neurons[i]
		for k := range n.Weights {
			n.Weights[k] += net.LearningRate * errs[i] * inputs[k]
		}
		n.Bias += net.LearningRate * errs[i]
	}
}

// backPropagateReference is the simplified update: an output weight moves by
// lr * e_j * a_j, where a_j is the output neuron's own activation rather than
// the upstream one, and hidden layer 1 is left untouched.
func (net *Network) backPropagateReference(label int) {
	outErrs := net.outputErrors(label)
	h2Errs := hiddenErrors(net.Hidden2, net.Output, outErrs)
	h1Acts := net.Hidden1.Activations()

	for j := range net.Output.Neurons {
		n := &net.Output.Neurons[j]
		delta := net.LearningRate * outErrs[j] * n.Activation
		for k := range n.Weights {
			n.Weights[k] += delta
		}
		n.Bias += net.LearningRate * outErrs[j]
	}
	net.applyDeltas(net.Hidden2, h2Errs, h1Acts)
}

// backPropagateTextbook applies the chain rule for the squared error through
// all three weighted layers.
func (net *Network) backPropagateTextbook(label int) {
	outErrs := net.outputErrors(label)
	for j := range outErrs {
		outErrs[j] *= SigmoidDeriv(net.Output.Neurons[j].Activation)
	}
	h2Errs := hiddenErrors(net.Hidden2, net.Output, outErrs)
	h1Errs := hiddenErrors(net.Hidden1, net.Hidden2, h2Errs)

	h2Acts := net.Hidden2.Activations()
	h1Acts := net.Hidden1.Activations()
	inputs := append([]float64(nil), net.Input.Activations...)

	net.applyDeltas(net.Output, outErrs, h2Acts)
	net.applyDeltas(net.Hidden2, h2Errs, h1Acts)
	net.applyDeltas(net.Hidden1, h1Errs, inputs)
}
