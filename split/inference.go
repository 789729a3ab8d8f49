package split

import (
	"fmt"
	"io"
	"time"

	"mnistnet/core/ckkswrapper"
	"mnistnet/nn"
	"mnistnet/utils"

	"github.com/pkg/errors"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
	"gonum.org/v1/gonum/floats"
)

// Server evaluates an output layer on encrypted activations.
type Server struct {
	Output *nn.Layer

	// Refresh, when set, is used on ciphertexts that arrive without a level to
	// spare for the rescale. Only an in-process key holder can supply it.
	Refresh func(*rlwe.Ciphertext) (*rlwe.Ciphertext, error)

	// Stats accumulates server evaluation time when non-nil.
	Stats *utils.TimingStats

	kit *ckkswrapper.ServerKit
}

// NewServer returns a server for the given output layer.
func NewServer(output *nn.Layer) *Server {
	return &Server{Output: output}
}

// SetKeys installs the parameters and evaluation keys published by the client.
func (s *Server) SetKeys(params ckks.Parameters, evk *rlwe.MemEvaluationKeySet) {
	s.kit = ckkswrapper.NewServerKit(params, evk)
}

// Evaluate computes bias + Σ w·a for every output neuron. The result for
// neuron j sits in slot 0 of the j-th ciphertext; other slots are partial sums.
func (s *Server) Evaluate(ct *rlwe.Ciphertext) ([]*rlwe.Ciphertext, error) {
	if s.kit == nil {
		return nil, fmt.Errorf("no evaluation keys installed")
	}
	start := time.Now()
	if ckkswrapper.NeedsBootstrap(ct, 1) {
		if s.Refresh == nil {
			return nil, fmt.Errorf("ciphertext at level %d cannot be rescaled", ct.Level())
		}
		refreshed, err := s.Refresh(ct)
		if err != nil {
			return nil, errors.Wrap(err, "refreshing ciphertext")
		}
		ct = refreshed
	}

	params, eval := s.kit.Params, s.kit.Evaluator
	rots := ckkswrapper.TreeSumRotations(s.Output.Inputs())
	out := make([]*rlwe.Ciphertext, s.Output.Size())
	for j := range s.Output.Neurons {
		n := &s.Output.Neurons[j]

		pt := ckks.NewPlaintext(params, ct.Level())
		if err := s.kit.Encoder.Encode(n.Weights, pt); err != nil {
			return nil, errors.Wrapf(err, "encoding weights of neuron %d", j)
		}
		prod, err := eval.MulNew(ct, pt)
		if err != nil {
			return nil, errors.Wrapf(err, "neuron %d: multiply", j)
		}
		acc := rlwe.NewCiphertext(params, prod.Degree(), prod.Level()-1)
		if err := eval.Rescale(prod, acc); err != nil {
			return nil, errors.Wrapf(err, "neuron %d: rescale", j)
		}
		for _, step := range rots {
			rot, err := eval.RotateNew(acc, step)
			if err != nil {
				return nil, errors.Wrapf(err, "neuron %d: rotate %d", j, step)
			}
			if acc, err = eval.AddNew(acc, rot); err != nil {
				return nil, errors.Wrapf(err, "neuron %d: add", j)
			}
		}

		bias := ckks.NewPlaintext(params, acc.Level())
		bias.Scale = acc.Scale
		if err := s.kit.Encoder.Encode([]float64{n.Bias}, bias); err != nil {
			return nil, errors.Wrapf(err, "encoding bias of neuron %d", j)
		}
		if out[j], err = eval.AddNew(acc, bias); err != nil {
			return nil, errors.Wrapf(err, "neuron %d: add bias", j)
		}
	}
	if s.Stats != nil {
		s.Stats.ServerEvalTime += time.Since(start)
	}
	return out, nil
}

// Serve reads the client's keys, then answers activation messages until the
// client sends done or the stream ends. A failing sample is reported to the
// client and ends the session.
func (s *Server) Serve(p *Protocol) error {
	keys, err := p.ReceiveKeys()
	if err != nil {
		return errors.Wrap(err, "receiving keys")
	}
	var params ckks.Parameters
	if err := params.UnmarshalBinary(keys.Params); err != nil {
		p.SendError(err)
		return errors.Wrap(err, "decoding parameters")
	}
	evk := new(rlwe.MemEvaluationKeySet)
	if err := evk.UnmarshalBinary(keys.EvalKeys); err != nil {
		p.SendError(err)
		return errors.Wrap(err, "decoding evaluation keys")
	}
	s.SetKeys(params, evk)

	for {
		act, err := p.ReceiveActivations()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "receiving activations")
		}
		if err := s.answer(p, act); err != nil {
			p.SendError(err)
			return errors.Wrapf(err, "sample %d", act.SampleID)
		}
	}
}

func (s *Server) answer(p *Protocol, act *ActivationsPayload) error {
	if act.Length != s.Output.Inputs() {
		return &nn.InputShapeError{Got: act.Length, Want: s.Output.Inputs()}
	}
	ct := new(rlwe.Ciphertext)
	if err := ct.UnmarshalBinary(act.Ciphertext); err != nil {
		return errors.Wrap(err, "decoding ciphertext")
	}
	results, err := s.Evaluate(ct)
	if err != nil {
		return err
	}
	raw := make([][]byte, len(results))
	for j, r := range results {
		if raw[j], err = r.MarshalBinary(); err != nil {
			return errors.Wrapf(err, "encoding result %d", j)
		}
	}
	return p.SendLogits(act.SampleID, raw)
}

// Result is a classification made from decrypted output values.
type Result struct {
	Label       int
	Activation  float64
	Activations []float64
}

// Client runs the plaintext part of the network and holds the secret key.
type Client struct {
	Network *nn.Network
	He      *ckkswrapper.HeContext

	// Stats accumulates forward, encryption and decryption time when non-nil.
	Stats *utils.TimingStats
}

// NewClient pairs a network with a key holder.
func NewClient(net *nn.Network, he *ckkswrapper.HeContext) *Client {
	return &Client{Network: net, He: he}
}

// Rotations lists the rotation keys the server needs.
func (c *Client) Rotations() []int {
	return ckkswrapper.TreeSumRotations(c.Network.Hidden2.Size())
}

// Handshake publishes the parameters and evaluation keys.
func (c *Client) Handshake(p *Protocol) error {
	params, err := c.He.Params.MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encoding parameters")
	}
	evk, err := c.He.EvaluationKeys(c.Rotations()).MarshalBinary()
	if err != nil {
		return errors.Wrap(err, "encoding evaluation keys")
	}
	return p.SendKeys(params, evk)
}

// Encrypt feeds image through the hidden layers and encrypts hidden-2's
// activations.
func (c *Client) Encrypt(image []float64) (*rlwe.Ciphertext, error) {
	start := time.Now()
	if err := c.Network.FeedForward(image); err != nil {
		return nil, err
	}
	mid := time.Now()
	ct, err := c.He.EncryptVector(c.Network.Hidden2.Activations())
	if err != nil {
		return nil, err
	}
	if c.Stats != nil {
		c.Stats.ForwardPassTime += mid.Sub(start)
		c.Stats.EncryptionTime += time.Since(mid)
	}
	return ct, nil
}

// Decrypt reads slot 0 of every result, applies the sigmoid and picks the most
// active neuron. Ties go to the lowest index.
func (c *Client) Decrypt(results []*rlwe.Ciphertext) (*Result, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no output ciphertexts")
	}
	start := time.Now()
	acts := make([]float64, len(results))
	for j, ct := range results {
		v, err := c.He.DecryptVector(ct, 1)
		if err != nil {
			return nil, errors.Wrapf(err, "decrypting output %d", j)
		}
		acts[j] = nn.Sigmoid(v[0])
	}
	if c.Stats != nil {
		c.Stats.DecryptionTime += time.Since(start)
	}
	label := floats.MaxIdx(acts)
	return &Result{Label: label, Activation: acts[label], Activations: acts}, nil
}

// Classify sends one sample over p and decodes the server's answer.
func (c *Client) Classify(p *Protocol, sampleID int, image []float64) (*Result, error) {
	ct, err := c.Encrypt(image)
	if err != nil {
		return nil, err
	}
	raw, err := ct.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "encoding activations")
	}
	if err := p.SendActivations(sampleID, c.Network.Hidden2.Size(), raw); err != nil {
		return nil, errors.Wrap(err, "sending activations")
	}
	logits, err := p.ReceiveLogits()
	if err != nil {
		return nil, errors.Wrap(err, "receiving logits")
	}
	if logits.SampleID != sampleID {
		return nil, fmt.Errorf("got logits for sample %d, want %d", logits.SampleID, sampleID)
	}
	results := make([]*rlwe.Ciphertext, len(logits.Ciphertexts))
	for j, b := range logits.Ciphertexts {
		results[j] = new(rlwe.Ciphertext)
		if err := results[j].UnmarshalBinary(b); err != nil {
			return nil, errors.Wrapf(err, "decoding logit %d", j)
		}
	}
	return c.Decrypt(results)
}
