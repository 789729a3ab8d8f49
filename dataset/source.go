package dataset

import "github.com/pkg/errors"

// Source names the files of one split. Either the IDX pair or CSV is used,
// IDX first.
type Source struct {
	Images string
	Labels string
	CSV    string
}

// Empty reports whether no file is named.
func (s Source) Empty() bool {
	return s.Images == "" && s.Labels == "" && s.CSV == ""
}

// Load reads the split and checks every image against the input size and
// every label against the class count.
func (s Source) Load(inputs, classes, limit int) (*Set, error) {
	var set *Set
	var err error
	switch {
	case s.Images != "" || s.Labels != "":
		if s.Images == "" || s.Labels == "" {
			return nil, errors.New("IDX data needs both an image and a label file")
		}
		set, err = LoadIDX(s.Images, s.Labels, limit)
	case s.CSV != "":
		set, err = LoadCSV(s.CSV, inputs, classes, limit)
	default:
		return nil, errors.New("no data files given")
	}
	if err != nil {
		return nil, err
	}
	for i := range set.Images {
		if len(set.Images[i]) != inputs {
			return nil, errors.Errorf("sample %d has %d pixels, network expects %d", i, len(set.Images[i]), inputs)
		}
		if set.Labels[i] < 0 || set.Labels[i] >= classes {
			return nil, errors.Errorf("sample %d has label %d, network has %d classes", i, set.Labels[i], classes)
		}
	}
	return set, nil
}
