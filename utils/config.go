package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds the run configuration shared by the binaries
type Config struct {
	Mode         string  `yaml:"mode"`
	Shape        []int   `yaml:"shape"`
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Seed         int64   `yaml:"seed"`
	Rule         string  `yaml:"rule"`

	// Labels selects the label descriptions printed next to predictions ("mnist" or "fashion").
	Labels string `yaml:"labels"`

	TrainImages string `yaml:"train_images"`
	TrainLabels string `yaml:"train_labels"`
	TestImages  string `yaml:"test_images"`
	TestLabels  string `yaml:"test_labels"`
	TrainCSV    string `yaml:"train_csv"`
	TestCSV     string `yaml:"test_csv"`
	Limit       int    `yaml:"limit"`

	StateIn        string `yaml:"state_in"`
	StateOut       string `yaml:"state_out"`
	NeuronImageDir string `yaml:"neuron_image_dir"`
	// Dump prints the weight matrices after a run.
	Dump bool `yaml:"dump"`

	Listen  string `yaml:"listen"`
	LogN    int    `yaml:"log_n"`
	Verbose bool   `yaml:"verbose"`
}

// DefaultConfig returns the configuration used when neither a file nor flags override it.
func DefaultConfig() Config {
	return Config{
		Mode:         "train",
		Shape:        []int{784, 16, 16, 10},
		Epochs:       10,
		LearningRate: 0.1,
		Seed:         42,
		Rule:         "reference",
		Labels:       "mnist",
		Listen:       ":8080",
		LogN:         13,
		Verbose:      true,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Keys missing from the
// file keep their default value.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// ParseShape parses a layer-size list such as "784 16 16 10" or "784,16,16,10".
func ParseShape(shapeStr string) ([]int, error) {
	parts := strings.FieldsFunc(shapeStr, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	shape := make([]int, len(parts))
	for i, s := range parts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing layer size %q", s)
		}
		shape[i] = n
	}
	return shape, nil
}

// ValidateConfig validates the run configuration
func ValidateConfig(config *Config) error {
	if len(config.Shape) != 4 {
		return fmt.Errorf("shape must have exactly 4 layers (input, hidden1, hidden2, output), got %d", len(config.Shape))
	}
	for i, n := range config.Shape {
		if n <= 0 {
			return fmt.Errorf("layer %d size must be positive, got %d", i, n)
		}
	}

	switch config.Mode {
	case "train":
		if config.Epochs <= 0 {
			return fmt.Errorf("epochs must be positive")
		}
	case "test":
		if config.StateIn == "" {
			return fmt.Errorf("test mode needs a state file to load")
		}
	default:
		return fmt.Errorf("mode must be 'train' or 'test', got %q", config.Mode)
	}

	if config.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be positive")
	}

	if config.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}

	return nil
}
