package dataset

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LoadCSV reads a file in the common MNIST CSV layout: the label first, then
// inputs pixel values in 0..255. A header line whose first field is not a
// number is skipped.
func LoadCSV(path string, inputs, classes, limit int) (*Set, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer file.Close()

	set, err := ReadCSV(bufio.NewReader(file), inputs, classes, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	return set, nil
}

// ReadCSV is LoadCSV over a stream.
func ReadCSV(r io.Reader, inputs, classes, limit int) (*Set, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = inputs + 1
	cr.ReuseRecord = true

	set := &Set{}
	for line := 1; limit <= 0 || set.Len() < limit; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		label, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, errors.Wrapf(err, "line %d: label", line)
		}
		if label < 0 || label >= classes {
			return nil, errors.Errorf("line %d: label %d outside [0, %d)", line, label, classes)
		}

		img := make([]float64, inputs)
		for i := range img {
			x, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: pixel %d", line, i)
			}
			if !(x >= 0 && x <= 255) {
				return nil, errors.Errorf("line %d: pixel %d value %v outside [0, 255]", line, i, x)
			}
			img[i] = x / 255
		}
		set.Images = append(set.Images, img)
		set.Labels = append(set.Labels, label)
	}
	return set, nil
}
