package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShape(t *testing.T) {
	for _, in := range []string{"784 16 16 10", "784,16,16,10", " 784, 16 ,16,10 "} {
		shape, err := ParseShape(in)
		require.NoError(t, err, in)
		assert.Equal(t, []int{784, 16, 16, 10}, shape)
	}
	_, err := ParseShape("784,sixteen")
	assert.Error(t, err)
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ValidateConfig(&cfg))
	assert.Equal(t, []int{784, 16, 16, 10}, cfg.Shape)
	assert.Equal(t, 0.1, cfg.LearningRate)
	assert.Equal(t, 10, cfg.Epochs)
	assert.False(t, cfg.Dump)
}

func TestValidateConfig(t *testing.T) {
	cases := map[string]func(c *Config){
		"three layers":  func(c *Config) { c.Shape = []int{784, 16, 10} },
		"zero size":     func(c *Config) { c.Shape = []int{784, 0, 16, 10} },
		"zero epochs":   func(c *Config) { c.Epochs = 0 },
		"test no state": func(c *Config) { c.Mode = "test" },
		"bad mode":      func(c *Config) { c.Mode = "serve" },
		"zero lr":       func(c *Config) { c.LearningRate = 0 },
		"negative lim":  func(c *Config) { c.Limit = -1 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		assert.Error(t, ValidateConfig(&cfg), name)
	}

	cfg := DefaultConfig()
	cfg.Mode, cfg.StateIn, cfg.Epochs = "test", "net.json", 0
	assert.NoError(t, ValidateConfig(&cfg))
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	doc := "mode: test\nstate_in: net.json\nlearning_rate: 0.05\nshape: [784, 32, 16, 10]\nlabels: fashion\ndump: true\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Mode)
	assert.Equal(t, "net.json", cfg.StateIn)
	assert.Equal(t, 0.05, cfg.LearningRate)
	assert.Equal(t, []int{784, 32, 16, 10}, cfg.Shape)
	assert.Equal(t, "fashion", cfg.Labels)
	assert.True(t, cfg.Dump)
	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.Epochs)
	assert.Equal(t, "reference", cfg.Rule)
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "reading config")

	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epochs: [1, 2"), 0o644))
	_, err = LoadConfig(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestLogf(t *testing.T) {
	var buf bytes.Buffer
	out, verbose := Output, Verbose
	defer func() { Output, Verbose = out, verbose }()

	Output = &buf
	Logf("epoch %d", 1)
	Verbose = false
	Logf("hidden")
	assert.Equal(t, "epoch 1\n", buf.String())
}
