package ckkswrapper

import (
	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// CheatBootstrap brings a ciphertext back to the maximum level by decrypting
// and re-encrypting it. It needs the secret key, so only the key holder can
// call it.
func (h *HeContext) CheatBootstrap(ct *rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	pt := h.Decryptor.DecryptNew(ct)
	values := make([]complex128, h.Params.MaxSlots())
	if err := h.Encoder.Decode(pt, values); err != nil {
		return nil, err
	}
	fresh := ckks.NewPlaintext(h.Params, h.Params.MaxLevel())
	if err := h.Encoder.Encode(values, fresh); err != nil {
		return nil, err
	}
	return h.Encryptor.EncryptNew(fresh)
}

// NeedsBootstrap reports whether ct has fewer than minLevel levels left.
func NeedsBootstrap(ct *rlwe.Ciphertext, minLevel int) bool {
	return ct.Level() < minLevel
}
