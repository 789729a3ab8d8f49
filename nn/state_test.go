package nn

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadSaveIdentical(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")

	net, err := NewNetwork(0.1, DefaultShape, NewRand(11))
	require.NoError(t, err)
	require.NoError(t, net.Save(first))

	loaded, err := NewNetwork(0.3, DefaultShape, NewRand(12))
	require.NoError(t, err)
	require.NoError(t, loaded.Load(first))
	assert.Equal(t, 0.1, loaded.LearningRate)
	require.NoError(t, loaded.Save(second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStateDocumentLayout(t *testing.T) {
	net := toyNetwork(t, 0.5)
	var buf bytes.Buffer
	require.NoError(t, net.WriteState(&buf))

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	for _, key := range []string{"version", "learning_rate", "shape", "hidden_layer_1", "hidden_layer_2", "output_layer"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, buf.String(), "activation")

	s, err := ReadState(&buf)
	require.NoError(t, err)
	assert.Equal(t, StateVersion, s.Version)
	assert.Equal(t, []int{2, 2, 2, 2}, s.Shape)
	assert.Equal(t, []float64{0.6, -0.1}, s.Output.Neurons[0].Weights)
}

func TestStateIsACopy(t *testing.T) {
	net := toyNetwork(t, 0.5)
	s := net.State()
	s.Hidden1.Neurons[0].Weights[0] = 99
	assert.Equal(t, 0.5, net.Hidden1.Neurons[0].Weights[0])

	require.NoError(t, net.Restore(s))
	s.Hidden1.Neurons[0].Weights[0] = 7
	assert.Equal(t, 99.0, net.Hidden1.Neurons[0].Weights[0])
}

func TestLoadMissingFile(t *testing.T) {
	net := toyNetwork(t, 0.5)
	err := net.Load(filepath.Join(t.TempDir(), "missing.json"))
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadDirectoryIsIOError(t *testing.T) {
	net := toyNetwork(t, 0.5)
	before := net.State()
	err := net.Load(t.TempDir())
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr), "got %v", err)
	var decErr *DeserializationError
	assert.False(t, errors.As(err, &decErr))
	assert.Equal(t, before, net.State())

	_, err = LoadNetwork(t.TempDir())
	assert.True(t, errors.As(err, &ioErr), "got %v", err)
}

func TestReadStateToleratesTrailingWhitespace(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, toyNetwork(t, 0.5).WriteState(&buf))
	buf.WriteString("\n\n  ")
	_, err := ReadState(&buf)
	assert.NoError(t, err)
}

func TestSaveUnwritable(t *testing.T) {
	net := toyNetwork(t, 0.5)
	err := net.Save(filepath.Join(t.TempDir(), "no", "such", "dir", "state.json"))
	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	net := toyNetwork(t, 0.5)
	require.NoError(t, net.Save(filepath.Join(dir, "state.json")))
	require.NoError(t, net.Save(filepath.Join(dir, "state.json")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestLoadRejectsBadDocuments(t *testing.T) {
	good := toyNetwork(t, 0.5).State()
	mutate := func(f func(s *State)) string {
		s := toyNetwork(t, 0.5).State()
		f(s)
		data, err := json.Marshal(s)
		require.NoError(t, err)
		return string(data)
	}

	cases := map[string]string{
		"not json":      "{ this is not json",
		"truncated":     `{"version": "1.0", "learning_rate": 0.5`,
		"unknown field": strings.Replace(mutate(func(*State) {}), `"version"`, `"extra": 1, "version"`, 1),
		"bad version":   mutate(func(s *State) { s.Version = "0.1" }),
		"zero lr":       mutate(func(s *State) { s.LearningRate = 0 }),
		"wrong shape":   mutate(func(s *State) { s.Shape = []int{2, 3, 2, 2} }),
		"short shape":   mutate(func(s *State) { s.Shape = []int{2, 2, 2} }),
		"missing neuron": mutate(func(s *State) {
			s.Output.Neurons = s.Output.Neurons[:1]
		}),
		"short weights": mutate(func(s *State) {
			s.Hidden2.Neurons[1].Weights = []float64{1}
		}),
		"long weights": mutate(func(s *State) {
			s.Hidden1.Neurons[0].Weights = []float64{1, 2, 3}
		}),
		"trailing data": mutate(func(*State) {}) + "\n}}} not json at all",
		"second value":  mutate(func(*State) {}) + mutate(func(*State) {}),
	}

	dir := t.TempDir()
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+".json")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

			net := toyNetwork(t, 0.5)
			// Hidden 1 would be overwritten first if Load mutated eagerly.
			net.Hidden1.Neurons[0].Weights[0] = 42
			before := net.State()

			err := net.Load(path)
			var decErr *DeserializationError
			require.True(t, errors.As(err, &decErr), "got %v", err)
			assert.Equal(t, before, net.State())
			assert.NotEqual(t, good, net.State())
		})
	}
}

func TestLoadNetwork(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toy.json")
	src := toyNetwork(t, 0.5)
	require.NoError(t, src.Save(path))

	net, err := LoadNetwork(path)
	require.NoError(t, err)
	assert.Equal(t, Shape{Input: 2, Hidden1: 2, Hidden2: 2, Output: 2}, net.Shape())
	assert.Equal(t, src.State(), net.State())

	_, err = LoadNetwork(filepath.Join(dir, "missing.json"))
	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version":"1.0","learning_rate":0.1,"shape":[2,0,2,2]}`), 0o644))
	_, err = LoadNetwork(bad)
	var decErr *DeserializationError
	assert.True(t, errors.As(err, &decErr))
}
