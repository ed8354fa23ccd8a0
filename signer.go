package itsdangerous

import (
	"bytes"
	"crypto/hmac"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/halimath/itsdangerous/internal/encoding"
)

// KeyDerivation names a scheme for deriving the MAC key from the secret
// key and salt. Key derivation is not intended to harden weak passwords;
// secret keys should be long random byte strings.
type KeyDerivation string

const (
	// KeyDerivationConcat derives the key as digest(salt + secretKey).
	KeyDerivationConcat KeyDerivation = "concat"

	// KeyDerivationDjangoConcat derives the key as
	// digest(salt + "signer" + secretKey), the scheme used by Django's
	// signing module. This is the default.
	KeyDerivationDjangoConcat KeyDerivation = "django-concat"

	// KeyDerivationHMAC derives the key as HMAC(secretKey, salt).
	KeyDerivationHMAC KeyDerivation = "hmac"

	// KeyDerivationNone uses the secret key unchanged.
	KeyDerivationNone KeyDerivation = "none"
)

// base64Alphabet holds every byte that may occur in padded base64url
// output. Separator bytes must not collide with it.
const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789-_="

var (
	defaultSignerSalt     = []byte("itsdangerous.Signer")
	defaultSerializerSalt = []byte("itsdangerous")
)

var (
	// ErrMissingSecretKey is returned by constructors when no secret key
	// is given.
	ErrMissingSecretKey = errors.New("itsdangerous: at least one secret key is required")

	// ErrInvalidSeparator is returned by constructors when the separator
	// byte may occur in base64url encoded signatures.
	ErrInvalidSeparator = errors.New(
		"itsdangerous: separator cannot be used because it may be contained" +
			" in the signature itself; ASCII letters, digits and '-_=' are not allowed")
)

// Signer signs byte strings and unsigns them to verify that the value has
// not been changed in transit. A Signer is immutable after construction
// and safe for concurrent use.
type Signer struct {
	secretKeys    [][]byte
	salt          []byte
	sep           byte
	keyDerivation KeyDerivation
	digestMethod  func() hash.Hash
	algorithm     SigningAlgorithm
}

// NewSigner creates a Signer using the given secret keys, ordered oldest
// to newest. The newest (last) key signs; every key verifies, which allows
// rotating keys without invalidating outstanding tokens. Defaults: salt
// "itsdangerous.Signer", separator '.', django-concat key derivation,
// SHA-1 digest with an HMAC algorithm.
func NewSigner(secretKeys [][]byte, opts ...Option) (*Signer, error) {
	cfg := defaultConfig()
	cfg.apply(opts)
	return newSignerResolved(secretKeys, resolveSalt(&cfg, defaultSignerSalt), &cfg)
}

func resolveSalt(cfg *config, fallback []byte) []byte {
	if cfg.saltSet {
		return cfg.salt
	}
	return fallback
}

func newSignerResolved(secretKeys [][]byte, salt []byte, cfg *config) (*Signer, error) {
	if len(secretKeys) == 0 {
		return nil, ErrMissingSecretKey
	}

	if strings.IndexByte(base64Alphabet, cfg.sep) >= 0 {
		return nil, ErrInvalidSeparator
	}

	switch cfg.keyDerivation {
	case KeyDerivationConcat, KeyDerivationDjangoConcat, KeyDerivationHMAC, KeyDerivationNone:
	default:
		return nil, fmt.Errorf("itsdangerous: unknown key derivation method %q", cfg.keyDerivation)
	}

	alg := cfg.algorithm
	if alg == nil {
		alg = HMACAlgorithm{Digest: cfg.digestMethod}
	}

	keys := make([][]byte, len(secretKeys))
	copy(keys, secretKeys)

	return &Signer{
		secretKeys:    keys,
		salt:          salt,
		sep:           cfg.sep,
		keyDerivation: cfg.keyDerivation,
		digestMethod:  cfg.digestMethod,
		algorithm:     alg,
	}, nil
}

// SecretKey returns the newest (last) secret key, the one used for
// signing.
func (s *Signer) SecretKey() []byte {
	return s.secretKeys[len(s.secretKeys)-1]
}

// DeriveKey derives the MAC key for the given secret key using the
// configured derivation scheme and salt.
func (s *Signer) DeriveKey(secretKey []byte) []byte {
	switch s.keyDerivation {
	case KeyDerivationConcat:
		h := s.digestMethod()
		h.Write(s.salt)
		h.Write(secretKey)
		return h.Sum(nil)
	case KeyDerivationDjangoConcat:
		h := s.digestMethod()
		h.Write(s.salt)
		h.Write([]byte("signer"))
		h.Write(secretKey)
		return h.Sum(nil)
	case KeyDerivationHMAC:
		mac := hmac.New(s.digestMethod, secretKey)
		mac.Write(s.salt)
		return mac.Sum(nil)
	case KeyDerivationNone:
		return secretKey
	}
	// Unknown schemes are rejected at construction.
	panic("itsdangerous: unknown key derivation method")
}

// Signature returns the base64url encoded signature for the given value
// under the newest secret key.
func (s *Signer) Signature(value []byte) []byte {
	key := s.DeriveKey(s.SecretKey())
	return encoding.Encode(s.algorithm.Sign(key, value))
}

// Sign returns value followed by the separator and the encoded signature.
func (s *Signer) Sign(value []byte) []byte {
	sig := s.Signature(value)
	out := make([]byte, 0, len(value)+1+len(sig))
	out = append(out, value...)
	out = append(out, s.sep)
	return append(out, sig...)
}

// VerifySignature reports whether sig is a valid base64url encoded
// signature for value under any key in the ring. Keys are tried newest
// first.
func (s *Signer) VerifySignature(value, sig []byte) bool {
	raw, err := encoding.Decode(sig)
	if err != nil {
		return false
	}

	for i := len(s.secretKeys) - 1; i >= 0; i-- {
		key := s.DeriveKey(s.secretKeys[i])
		if s.algorithm.Verify(key, value, raw) {
			return true
		}
	}

	return false
}

// Unsign verifies the signature of a signed value and returns the value
// without the signature. It returns a *BadSignatureError if the separator
// is missing or no key verifies the signature; in the latter case the
// error carries the unverified payload.
func (s *Signer) Unsign(signed []byte) ([]byte, error) {
	i := bytes.LastIndexByte(signed, s.sep)
	if i < 0 {
		return nil, &BadSignatureError{
			Message: fmt.Sprintf("itsdangerous: no %q found in value", string(s.sep)),
		}
	}

	value, sig := signed[:i], signed[i+1:]
	if s.VerifySignature(value, sig) {
		return value, nil
	}

	return nil, &BadSignatureError{
		Message: fmt.Sprintf("itsdangerous: signature %q does not match", sig),
		Payload: value,
	}
}

// Validate reports whether the signed value carries a valid signature.
func (s *Signer) Validate(signed []byte) bool {
	_, err := s.Unsign(signed)
	return err == nil
}
