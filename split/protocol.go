// Package split runs the output layer of a network on encrypted activations:
// the client keeps the input and hidden layers and the secret key, the server
// only sees CKKS ciphertexts and the output layer's weights.
package split

import (
	"encoding/gob"
	"fmt"
	"io"
)

func init() {
	gob.Register(KeysPayload{})
	gob.Register(ActivationsPayload{})
	gob.Register(LogitsPayload{})
}

// MessageType defines message types for the split inference protocol
type MessageType int

const (
	MsgKeys MessageType = iota
	MsgActivations
	MsgLogits
	MsgDone
	MsgError
)

func (t MessageType) String() string {
	switch t {
	case MsgKeys:
		return "keys"
	case MsgActivations:
		return "activations"
	case MsgLogits:
		return "logits"
	case MsgDone:
		return "done"
	case MsgError:
		return "error"
	}
	return fmt.Sprintf("MessageType(%d)", int(t))
}

// Message is one frame on the wire.
type Message struct {
	Type    MessageType
	Payload interface{}
}

// KeysPayload carries the CKKS parameters and the public evaluation keys.
type KeysPayload struct {
	Params   []byte
	EvalKeys []byte
}

// ActivationsPayload carries the encrypted hidden-2 activations of one sample.
type ActivationsPayload struct {
	SampleID   int
	Length     int
	Ciphertext []byte
}

// LogitsPayload carries one ciphertext per output neuron; slot 0 of each
// holds that neuron's pre-activation.
type LogitsPayload struct {
	SampleID    int
	Ciphertexts [][]byte
}

// Protocol frames messages with gob over a byte stream.
type Protocol struct {
	encoder *gob.Encoder
	decoder *gob.Decoder
}

// NewProtocol creates a new protocol handler. Either side may be nil for a
// one-way protocol.
func NewProtocol(r io.Reader, w io.Writer) *Protocol {
	p := &Protocol{}
	if w != nil {
		p.encoder = gob.NewEncoder(w)
	}
	if r != nil {
		p.decoder = gob.NewDecoder(r)
	}
	return p
}

// Send sends a message
func (p *Protocol) Send(msg *Message) error {
	if p.encoder == nil {
		return fmt.Errorf("protocol has no writer")
	}
	return p.encoder.Encode(msg)
}

// Receive receives a message
func (p *Protocol) Receive() (*Message, error) {
	if p.decoder == nil {
		return nil, fmt.Errorf("protocol has no reader")
	}
	var msg Message
	if err := p.decoder.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// receive reads the next message and checks its type. A done message maps to
// io.EOF and an error message to an error carrying the remote text.
func (p *Protocol) receive(want MessageType) (*Message, error) {
	msg, err := p.Receive()
	if err != nil {
		return nil, err
	}
	switch msg.Type {
	case want:
		return msg, nil
	case MsgError:
		return nil, fmt.Errorf("remote error: %v", msg.Payload)
	case MsgDone:
		return nil, io.EOF
	}
	return nil, fmt.Errorf("expected %v message, got %v", want, msg.Type)
}

// SendKeys sends marshalled parameters and evaluation keys.
func (p *Protocol) SendKeys(params, evalKeys []byte) error {
	return p.Send(&Message{
		Type:    MsgKeys,
		Payload: KeysPayload{Params: params, EvalKeys: evalKeys},
	})
}

// ReceiveKeys receives a keys payload
func (p *Protocol) ReceiveKeys() (*KeysPayload, error) {
	msg, err := p.receive(MsgKeys)
	if err != nil {
		return nil, err
	}
	payload, ok := msg.Payload.(KeysPayload)
	if !ok {
		return nil, fmt.Errorf("invalid keys payload type %T", msg.Payload)
	}
	return &payload, nil
}

// SendActivations sends one sample's encrypted activations.
func (p *Protocol) SendActivations(sampleID, length int, ctBytes []byte) error {
	return p.Send(&Message{
		Type:    MsgActivations,
		Payload: ActivationsPayload{SampleID: sampleID, Length: length, Ciphertext: ctBytes},
	})
}

// ReceiveActivations receives an activations payload
func (p *Protocol) ReceiveActivations() (*ActivationsPayload, error) {
	msg, err := p.receive(MsgActivations)
	if err != nil {
		return nil, err
	}
	payload, ok := msg.Payload.(ActivationsPayload)
	if !ok {
		return nil, fmt.Errorf("invalid activations payload type %T", msg.Payload)
	}
	return &payload, nil
}

// SendLogits sends the per-neuron result ciphertexts.
func (p *Protocol) SendLogits(sampleID int, cts [][]byte) error {
	return p.Send(&Message{
		Type:    MsgLogits,
		Payload: LogitsPayload{SampleID: sampleID, Ciphertexts: cts},
	})
}

// ReceiveLogits receives a logits payload
func (p *Protocol) ReceiveLogits() (*LogitsPayload, error) {
	msg, err := p.receive(MsgLogits)
	if err != nil {
		return nil, err
	}
	payload, ok := msg.Payload.(LogitsPayload)
	if !ok {
		return nil, fmt.Errorf("invalid logits payload type %T", msg.Payload)
	}
	return &payload, nil
}

// SendDone signals completion
func (p *Protocol) SendDone() error {
	return p.Send(&Message{Type: MsgDone})
}

// SendError sends an error message
func (p *Protocol) SendError(err error) error {
	return p.Send(&Message{
		Type:    MsgError,
		Payload: err.Error(),
	})
}
