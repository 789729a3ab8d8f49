// Package dataset loads labelled image sets for the nn package.
package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// IDX magic numbers: unsigned byte data with three (images) or one (labels) dimension.
const (
	ImagesMagic = 0x00000803
	LabelsMagic = 0x00000801
)

// Header counts are not trusted for allocation: images grow as they are read
// and labels are read in chunks.
const (
	maxImagePixels = 1 << 20
	preallocLimit  = 1 << 16
	labelChunk     = 1 << 16
)

// Set is an in-memory dataset. Images[i] is labelled Labels[i].
type Set struct {
	Images [][]float64
	Labels []int
}

// Len is the number of samples.
func (s *Set) Len() int { return len(s.Images) }

// Sample returns image i and its label.
func (s *Set) Sample(i int) ([]float64, int) { return s.Images[i], s.Labels[i] }

// Truncate keeps the first n samples. n <= 0 keeps everything.
func (s *Set) Truncate(n int) {
	if n > 0 && n < len(s.Images) {
		s.Images = s.Images[:n]
		s.Labels = s.Labels[:n]
	}
}

// ReadIDXImages decodes an IDX3 image file and normalises each pixel to p/255.
// It also returns the image width and height.
func ReadIDXImages(r io.Reader) (images [][]float64, rows, cols int, err error) {
	var header [4]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, 0, errors.Wrap(err, "reading image header")
	}
	if header[0] != ImagesMagic {
		return nil, 0, 0, errors.Errorf("bad image magic %#08x, want %#08x", header[0], ImagesMagic)
	}
	count, rows, cols := int(header[1]), int(header[2]), int(header[3])
	if rows <= 0 || cols <= 0 || rows > maxImagePixels || cols > maxImagePixels/rows {
		return nil, 0, 0, errors.Errorf("bad image size %dx%d", rows, cols)
	}

	size := rows * cols
	buf := make([]byte, size)
	images = make([][]float64, 0, min(count, preallocLimit))
	for i := 0; i < count; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, 0, 0, errors.Wrapf(err, "reading image %d of %d", i, count)
		}
		img := make([]float64, size)
		for k, p := range buf {
			img[k] = float64(p) / 255
		}
		images = append(images, img)
	}
	return images, rows, cols, nil
}

// ReadIDXLabels decodes an IDX1 label file.
func ReadIDXLabels(r io.Reader) ([]int, error) {
	var header [2]uint32
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrap(err, "reading label header")
	}
	if header[0] != LabelsMagic {
		return nil, errors.Errorf("bad label magic %#08x, want %#08x", header[0], LabelsMagic)
	}
	count := int(header[1])
	labels := make([]int, 0, min(count, preallocLimit))
	chunk := make([]byte, min(count, labelChunk))
	for len(labels) < count {
		raw := chunk[:min(count-len(labels), len(chunk))]
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, errors.Wrapf(err, "reading labels %d.. of %d", len(labels), count)
		}
		for _, b := range raw {
			labels = append(labels, int(b))
		}
	}
	return labels, nil
}

// openMaybeGzip opens path, decompressing on the fly when it ends in ".gz".
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return struct {
			io.Reader
			io.Closer
		}{bufio.NewReader(f), f}, nil
	}
	gz, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, err
	}
	return struct {
		io.Reader
		io.Closer
	}{gz, closers{gz, f}}, nil
}

type closers []io.Closer

func (c closers) Close() error {
	var first error
	for _, cl := range c {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LoadIDX reads a paired image and label file (plain or gzipped). limit > 0
// keeps only the first limit samples.
func LoadIDX(imagesPath, labelsPath string, limit int) (*Set, error) {
	imgFile, err := openMaybeGzip(imagesPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", imagesPath)
	}
	defer imgFile.Close()
	images, _, _, err := ReadIDXImages(imgFile)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", imagesPath)
	}

	lblFile, err := openMaybeGzip(labelsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", labelsPath)
	}
	defer lblFile.Close()
	labels, err := ReadIDXLabels(lblFile)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", labelsPath)
	}

	if len(images) != len(labels) {
		return nil, errors.Errorf("%s has %d images but %s has %d labels", imagesPath, len(images), labelsPath, len(labels))
	}
	set := &Set{Images: images, Labels: labels}
	set.Truncate(limit)
	return set, nil
}
