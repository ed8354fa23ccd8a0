package itsdangerous

import (
	"crypto/hmac"
	"hash"
)

// SigningAlgorithm computes and verifies raw signature bytes for a derived
// key and a value. Implementations must verify in constant time.
type SigningAlgorithm interface {
	// Sign returns the signature for the given key and value.
	Sign(key, value []byte) []byte

	// Verify reports whether sig is a valid signature for the given key
	// and value. The comparison runs in constant time.
	Verify(key, value, sig []byte) bool
}

// HMACAlgorithm provides signature generation using HMACs.
type HMACAlgorithm struct {
	// Digest is the hash constructor used by the MAC, e.g. sha1.New or
	// sha256.New.
	Digest func() hash.Hash
}

func (a HMACAlgorithm) Sign(key, value []byte) []byte {
	mac := hmac.New(a.Digest, key)
	mac.Write(value)
	return mac.Sum(nil)
}

func (a HMACAlgorithm) Verify(key, value, sig []byte) bool {
	return hmac.Equal(sig, a.Sign(key, value))
}

// NoneAlgorithm performs no signing and returns an empty signature. It is
// used by the JWS profile's "none" algorithm.
type NoneAlgorithm struct{}

func (NoneAlgorithm) Sign(key, value []byte) []byte {
	return []byte{}
}

func (NoneAlgorithm) Verify(key, value, sig []byte) bool {
	return hmac.Equal(sig, []byte{})
}
