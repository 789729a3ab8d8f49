// Package ckkswrapper bundles the lattigo CKKS objects used for encrypted
// split inference.
package ckkswrapper

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// DefaultLogN is the ring degree used by NewHeContext.
const DefaultLogN = 13

// ParamsLiteral returns the CKKS parameters for the given ring degree. Each
// set has a single rescale level, which is all one ct-pt dot product needs,
// and keeps 10 bits of headroom above the scale on the last modulus.
func ParamsLiteral(logN int) ckks.ParametersLiteral {
	lit := ckks.ParametersLiteral{
		LogN:            logN,
		LogQ:            []int{50, 40},
		LogP:            []int{50},
		LogDefaultScale: 40,
	}
	if logN <= 12 {
		lit.LogQ = []int{45, 35}
		lit.LogP = []int{45}
		lit.LogDefaultScale = 35
	}
	lit.Xs = rlwe.DefaultXs
	lit.Xe = rlwe.DefaultXe
	return lit
}

// HeContext is the key holder's view of the scheme: it owns the secret key
// and can encrypt, decrypt and hand out evaluation keys.
type HeContext struct {
	Params    ckks.Parameters
	Encoder   *ckks.Encoder
	Encryptor *rlwe.Encryptor
	Decryptor *rlwe.Decryptor

	kgen *rlwe.KeyGenerator
	sk   *rlwe.SecretKey
	pk   *rlwe.PublicKey
	rlk  *rlwe.RelinearizationKey
}

// ServerKit is what an evaluating party needs: parameters, an encoder and an
// evaluator carrying the public evaluation keys.
type ServerKit struct {
	Params    ckks.Parameters
	Encoder   *ckks.Encoder
	Evaluator *ckks.Evaluator
	Keys      *rlwe.MemEvaluationKeySet
}

// NewHeContext creates a context with DefaultLogN.
func NewHeContext() *HeContext {
	h, err := NewHeContextWithLogN(DefaultLogN)
	if err != nil {
		panic(err)
	}
	return h
}

// NewHeContextWithLogN generates fresh keys for a ring of degree 2^logN.
func NewHeContextWithLogN(logN int) (*HeContext, error) {
	params, err := ckks.NewParametersFromLiteral(ParamsLiteral(logN))
	if err != nil {
		return nil, fmt.Errorf("ckks parameters (logN=%d): %w", logN, err)
	}
	kgen := rlwe.NewKeyGenerator(params)
	sk, pk := kgen.GenKeyPairNew()
	return &HeContext{
		Params:    params,
		Encoder:   ckks.NewEncoder(params),
		Encryptor: rlwe.NewEncryptor(params, pk),
		Decryptor: rlwe.NewDecryptor(params, sk),
		kgen:      kgen,
		sk:        sk,
		pk:        pk,
		rlk:       kgen.GenRelinearizationKeyNew(sk),
	}, nil
}

// EvaluationKeys generates the relinearisation key and one Galois key per
// rotation step.
func (h *HeContext) EvaluationKeys(rotations []int) *rlwe.MemEvaluationKeySet {
	seen := make(map[uint64]bool, len(rotations))
	galEls := make([]uint64, 0, len(rotations))
	for _, r := range rotations {
		el := h.Params.GaloisElement(r)
		if !seen[el] {
			seen[el] = true
			galEls = append(galEls, el)
		}
	}
	galks := h.kgen.GenGaloisKeysNew(galEls, h.sk)
	return rlwe.NewMemEvaluationKeySet(h.rlk, galks...)
}

// GenServerKit builds a ServerKit supporting the given rotations.
func (h *HeContext) GenServerKit(rotations []int) *ServerKit {
	return NewServerKit(h.Params, h.EvaluationKeys(rotations))
}

// NewServerKit wraps parameters and evaluation keys received from a key holder.
func NewServerKit(params ckks.Parameters, evk *rlwe.MemEvaluationKeySet) *ServerKit {
	return &ServerKit{
		Params:    params,
		Encoder:   ckks.NewEncoder(params),
		Evaluator: ckks.NewEvaluator(params, evk),
		Keys:      evk,
	}
}

// TreeSumRotations lists the rotation steps 1, 2, 4, ... below n that fold the
// first n slots into slot 0.
func TreeSumRotations(n int) []int {
	var rots []int
	for step := 1; step < n; step *= 2 {
		rots = append(rots, step)
	}
	return rots
}

// EncryptVector encodes values into the first slots of a fresh ciphertext at
// the maximum level.
func (h *HeContext) EncryptVector(values []float64) (*rlwe.Ciphertext, error) {
	return h.EncryptVectorAt(values, h.Params.MaxLevel())
}

// EncryptVectorAt is EncryptVector at an explicit level.
func (h *HeContext) EncryptVectorAt(values []float64, level int) (*rlwe.Ciphertext, error) {
	if len(values) > h.Params.MaxSlots() {
		return nil, fmt.Errorf("%d values exceed %d slots", len(values), h.Params.MaxSlots())
	}
	pt := ckks.NewPlaintext(h.Params, level)
	if err := h.Encoder.Encode(values, pt); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	ct, err := h.Encryptor.EncryptNew(pt)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	return ct, nil
}

// DecryptVector decrypts ct and returns the real part of its first n slots.
func (h *HeContext) DecryptVector(ct *rlwe.Ciphertext, n int) ([]float64, error) {
	if n > h.Params.MaxSlots() {
		n = h.Params.MaxSlots()
	}
	pt := h.Decryptor.DecryptNew(ct)
	values := make([]float64, h.Params.MaxSlots())
	if err := h.Encoder.Decode(pt, values); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return values[:n], nil
}
