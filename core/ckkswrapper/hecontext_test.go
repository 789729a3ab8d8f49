package ckkswrapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

func testContext(t *testing.T) *HeContext {
	t.Helper()
	h, err := NewHeContextWithLogN(DefaultLogN)
	require.NoError(t, err)
	return h
}

func TestEncryptDecryptVector(t *testing.T) {
	h := testContext(t)
	values := []float64{0.25, -0.5, 0.75, 1}
	ct, err := h.EncryptVector(values)
	require.NoError(t, err)
	assert.Equal(t, h.Params.MaxLevel(), ct.Level())

	got, err := h.DecryptVector(ct, len(values))
	require.NoError(t, err)
	assert.InDeltaSlice(t, values, got, 1e-6)

	_, err = h.EncryptVector(make([]float64, h.Params.MaxSlots()+1))
	assert.Error(t, err)
}

func TestTreeSumRotations(t *testing.T) {
	assert.Equal(t, []int{1, 2, 4, 8}, TreeSumRotations(16))
	assert.Equal(t, []int{1, 2, 4, 8}, TreeSumRotations(10))
	assert.Nil(t, TreeSumRotations(1))
}

func TestServerKitRotateAndSum(t *testing.T) {
	h := testContext(t)
	kit := h.GenServerKit(TreeSumRotations(4))

	ct, err := h.EncryptVector([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	for _, step := range TreeSumRotations(4) {
		rot, err := kit.Evaluator.RotateNew(ct, step)
		require.NoError(t, err)
		ct, err = kit.Evaluator.AddNew(ct, rot)
		require.NoError(t, err)
	}
	got, err := h.DecryptVector(ct, 1)
	require.NoError(t, err)
	assert.InDelta(t, 10, got[0], 1e-5)
}

func TestEvaluationKeysMarshal(t *testing.T) {
	h := testContext(t)
	evk := h.EvaluationKeys([]int{1, 2, 1})
	data, err := evk.MarshalBinary()
	require.NoError(t, err)

	var back rlwe.MemEvaluationKeySet
	require.NoError(t, back.UnmarshalBinary(data))
	assert.Len(t, back.GetGaloisKeysList(), 2)
}

func TestCheatBootstrap(t *testing.T) {
	h := testContext(t)
	values := []float64{0.1, 0.2, 0.3}
	ct, err := h.EncryptVectorAt(values, 0)
	require.NoError(t, err)
	assert.True(t, NeedsBootstrap(ct, 1))

	refreshed, err := h.CheatBootstrap(ct)
	require.NoError(t, err)
	assert.Equal(t, h.Params.MaxLevel(), refreshed.Level())
	assert.False(t, NeedsBootstrap(refreshed, 1))

	got, err := h.DecryptVector(refreshed, len(values))
	require.NoError(t, err)
	assert.InDeltaSlice(t, values, got, 1e-6)
}

func TestParamsLiteral(t *testing.T) {
	params, err := ckks.NewParametersFromLiteral(ParamsLiteral(DefaultLogN))
	require.NoError(t, err)
	assert.Equal(t, 1, params.MaxLevel())
	assert.Equal(t, 1<<(DefaultLogN-1), params.MaxSlots())
}
