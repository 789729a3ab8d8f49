package nn

import "fmt"

// InputShapeError reports an image whose length does not match the input layer.
type InputShapeError struct {
	Got  int
	Want int
}

func (e *InputShapeError) Error() string {
	return fmt.Sprintf("invalid input shape: got %d values, want %d", e.Got, e.Want)
}

// LabelError reports a class label outside [0, Classes).
type LabelError struct {
	Label   int
	Classes int
}

func (e *LabelError) Error() string {
	return fmt.Sprintf("invalid label %d: must be in [0, %d)", e.Label, e.Classes)
}

// IOError reports a state file that could not be opened, read or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// DeserializationError reports a persisted state that is malformed or does not
// fit the network it is loaded into.
type DeserializationError struct {
	Path string
	Err  error
}

func (e *DeserializationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("decoding state: %v", e.Err)
	}
	return fmt.Sprintf("decoding state %s: %v", e.Path, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }
