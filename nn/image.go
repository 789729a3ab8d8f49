package nn

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
)

// NeuronImageSide is the side of the square bitmap used for n weights.
func NeuronImageSide(n int) int {
	return int(math.Round(math.Sqrt(float64(n))))
}

func weightToGray(w float64) uint8 {
	v := math.Round(w * 255)
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

// EncodeNeuronImage draws weight y*side+x at pixel (x, y). Intensity is w*255
// clamped to [0, 255], so negative weights come out black and the bias is not
// stored. When side*side exceeds len(weights) the trailing pixels stay black;
// when it falls short the trailing weights are dropped.
func EncodeNeuronImage(weights []float64) *image.Gray {
	side := NeuronImageSide(len(weights))
	img := image.NewGray(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			k := y*side + x
			if k >= len(weights) {
				continue
			}
			img.SetGray(x, y, color.Gray{Y: weightToGray(weights[k])})
		}
	}
	return img
}

// DecodeNeuronImage reads n weights back from img as intensity/255. Weights
// without a matching pixel are 0; surplus pixels are ignored.
func DecodeNeuronImage(img image.Image, n int) []float64 {
	weights := make([]float64, n)
	b := img.Bounds()
	side := b.Dx()
	if side == 0 {
		return weights
	}
	for k := range weights {
		x, y := k%side, k/side
		if y >= b.Dy() {
			break
		}
		g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
		weights[k] = float64(g.Y) / 255
	}
	return weights
}

// WriteNeuronPNG encodes a neuron's weights as a grayscale PNG.
func WriteNeuronPNG(w io.Writer, n *Neuron) error {
	return png.Encode(w, EncodeNeuronImage(n.Weights))
}

// ReadNeuronPNG decodes a PNG written by WriteNeuronPNG into n weights.
func ReadNeuronPNG(r io.Reader, n int) ([]float64, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, err
	}
	return DecodeNeuronImage(img, n), nil
}

// NeuronImagePath names the file holding neuron index of layer in dir.
func NeuronImagePath(dir, layer string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%d.png", layer, index))
}

// SaveLayerImages writes one PNG per neuron of the named layer into dir.
func (net *Network) SaveLayerImages(dir, layer string) error {
	l, err := net.LayerByName(layer)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	for i := range l.Neurons {
		path := NeuronImagePath(dir, layer, i)
		if err := writeNeuronFile(path, &l.Neurons[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeNeuronFile(path string, n *Neuron) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	if err := WriteNeuronPNG(f, n); err != nil {
		f.Close()
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// LoadLayerImages replaces the weights of the named layer with those decoded
// from dir. Biases are kept. Every file is decoded before any weight changes.
func (net *Network) LoadLayerImages(dir, layer string) error {
	l, err := net.LayerByName(layer)
	if err != nil {
		return err
	}
	decoded := make([][]float64, l.Size())
	for i := range l.Neurons {
		path := NeuronImagePath(dir, layer, i)
		f, err := os.Open(path)
		if err != nil {
			return &IOError{Op: "open", Path: path, Err: err}
		}
		weights, err := ReadNeuronPNG(f, len(l.Neurons[i].Weights))
		f.Close()
		if err != nil {
			return &DeserializationError{Path: path, Err: err}
		}
		decoded[i] = weights
	}
	for i := range l.Neurons {
		l.Neurons[i].Weights = decoded[i]
	}
	return nil
}
