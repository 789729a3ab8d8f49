package dataset

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

var fashionLabels = []string{
	"T-shirt/top",
	"Trouser",
	"Pullover",
	"Dress",
	"Coat",
	"Sandal",
	"Shirt",
	"Sneaker",
	"Bag",
	"Ankle boot",
}

// LabelDescription names a class. kind is "mnist" for handwritten digits or
// "fashion" for Fashion-MNIST.
func LabelDescription(label int, kind string) string {
	if label < 0 || label > 9 {
		return "Unknown"
	}
	if kind == "fashion" {
		return fashionLabels[label]
	}
	return strconv.Itoa(label)
}

// SaveSampleImage writes a flattened [0, 1] image of the given side as a PNG.
func SaveSampleImage(w io.Writer, pixels []float64, side int) error {
	if side <= 0 || len(pixels) != side*side {
		return errors.Errorf("%d pixels do not form a %dx%d image", len(pixels), side, side)
	}
	img := image.NewGray(image.Rect(0, 0, side, side))
	for i, p := range pixels {
		v := math.Round(math.Max(0, math.Min(1, p)) * 255)
		img.SetGray(i%side, i/side, color.Gray{Y: uint8(v)})
	}
	return png.Encode(w, img)
}
