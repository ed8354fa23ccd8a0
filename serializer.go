package itsdangerous

import (
	"bytes"
	"encoding/json"
	"time"
)

// Codec serializes payload values to bytes and back. The stdlib JSON
// codecs below satisfy it; applications may plug in their own.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default payload codec, a thin wrapper around
// encoding/json.
type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// CompactJSON emits JSON without HTML escaping, keeping non-ASCII and
// HTML-significant characters literal. Output carries no insignificant
// whitespace. URL-safe and JWS serializers use it by default.
type CompactJSON struct{}

func (CompactJSON) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (CompactJSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Unsigner is the surface a serializer needs to verify a token. Both
// *Signer and *TimestampSigner implement it.
type Unsigner interface {
	Unsign(signed []byte) ([]byte, error)
}

// TimestampUnsigner is implemented by signers that bind a timestamp into
// the token and can enforce a maximum age while unsigning.
type TimestampUnsigner interface {
	UnsignWithTimestamp(signed []byte, maxAge time.Duration) ([]byte, time.Time, error)
}

// SignerFactory builds a signer bound to a single secret key and salt.
// Serializers call factories once per secret key in the ring while
// iterating fallback signers.
type SignerFactory func(secretKey, salt []byte) (Unsigner, error)

// FallbackSigner returns a factory producing plain Signers configured
// with the given options, for use with WithFallbackSigners.
func FallbackSigner(opts ...Option) SignerFactory {
	return func(secretKey, salt []byte) (Unsigner, error) {
		opts := append(opts[:len(opts):len(opts)], WithSalt(salt))
		return NewSigner([][]byte{secretKey}, opts...)
	}
}

// FallbackTimestampSigner returns a factory producing TimestampSigners
// configured with the given options, for use with WithFallbackSigners on
// timed serializers.
func FallbackTimestampSigner(opts ...Option) SignerFactory {
	return func(secretKey, salt []byte) (Unsigner, error) {
		opts := append(opts[:len(opts):len(opts)], WithSalt(salt))
		return NewTimestampSigner([][]byte{secretKey}, opts...)
	}
}

// sealer is the signer surface used to produce tokens.
type sealer interface {
	Sign(value []byte) []byte
	Unsign(signed []byte) ([]byte, error)
}

// Serializer wraps a Signer to sign and verify values other than raw
// bytes, serialized through a payload codec. It is immutable after
// construction and safe for concurrent use.
type Serializer struct {
	secretKeys [][]byte
	salt       []byte
	codec      Codec
	fallbacks  []SignerFactory

	makeSigner func(salt []byte) (sealer, error)
}

// NewSerializer creates a Serializer over a plain Signer. Defaults: salt
// "itsdangerous", JSONCodec payload codec; signer settings as for
// NewSigner.
func NewSerializer(secretKeys [][]byte, opts ...Option) (*Serializer, error) {
	cfg := defaultConfig()
	cfg.apply(opts)

	s, err := newSerializerResolved(secretKeys, &cfg, defaultSerializerSalt, func(salt []byte) (sealer, error) {
		return newSignerResolved(secretKeys, salt, &cfg)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newSerializerResolved(secretKeys [][]byte, cfg *config, defaultSalt []byte, makeSigner func(salt []byte) (sealer, error)) (*Serializer, error) {
	codec := cfg.codec
	if codec == nil {
		codec = JSONCodec{}
	}

	s := &Serializer{
		secretKeys: secretKeys,
		salt:       resolveSalt(cfg, defaultSalt),
		codec:      codec,
		fallbacks:  cfg.fallbacks,
		makeSigner: makeSigner,
	}

	// Building a signer validates separator, key derivation and key ring
	// once, so later operations cannot fail on configuration.
	if _, err := makeSigner(s.salt); err != nil {
		return nil, err
	}

	return s, nil
}

// Salted returns a copy of the serializer bound to the given salt. Use it
// to namespace tokens per context while sharing one configuration.
func (s *Serializer) Salted(salt []byte) *Serializer {
	c := *s
	c.salt = salt
	return &c
}

// DumpPayload serializes v through the payload codec.
func (s *Serializer) DumpPayload(v any) ([]byte, error) {
	return s.codec.Marshal(v)
}

// LoadPayload deserializes payload into v. Codec failures are reported as
// a *BadPayloadError carrying the underlying error.
func (s *Serializer) LoadPayload(payload []byte, v any) error {
	if err := s.codec.Unmarshal(payload, v); err != nil {
		return &BadPayloadError{
			Message:       "itsdangerous: could not unserialize the payload",
			OriginalError: err,
		}
	}
	return nil
}

// iterUnsigners yields the configured signer first, then one signer per
// fallback factory and secret key, oldest key first.
func (s *Serializer) iterUnsigners(salt []byte) ([]Unsigner, error) {
	primary, err := s.makeSigner(salt)
	if err != nil {
		return nil, err
	}

	unsigners := []Unsigner{primary}
	for _, factory := range s.fallbacks {
		for _, secretKey := range s.secretKeys {
			u, err := factory(secretKey, salt)
			if err != nil {
				return nil, err
			}
			unsigners = append(unsigners, u)
		}
	}

	return unsigners, nil
}

// Dumps serializes and signs v, returning the token.
func (s *Serializer) Dumps(v any) (string, error) {
	payload, err := s.DumpPayload(v)
	if err != nil {
		return "", err
	}

	signer, err := s.makeSigner(s.salt)
	if err != nil {
		return "", err
	}

	return string(signer.Sign(payload)), nil
}

// Loads verifies the token's signature and deserializes its payload into
// v. Every configured signer is tried; when all fail the error of the
// last one is returned.
func (s *Serializer) Loads(token string, v any) error {
	unsigners, err := s.iterUnsigners(s.salt)
	if err != nil {
		return err
	}

	signed := []byte(token)
	var lastErr error
	for _, u := range unsigners {
		payload, err := u.Unsign(signed)
		if err == nil {
			return s.LoadPayload(payload, v)
		}
		lastErr = err
	}

	return lastErr
}

// LoadsUnsafe loads the token's payload into v without requiring a valid
// signature. It reports whether the token loaded normally (valid signature
// and decodable payload) and whether v was populated. It never returns an
// error: a payload that cannot be decoded simply leaves v untouched, and
// then valid is false even if the signature matched.
//
// Use this for debugging only; the payload of a token with an invalid
// signature is attacker controlled.
func (s *Serializer) LoadsUnsafe(token string, v any) (valid, loaded bool) {
	return s.loadsUnsafe(s.Loads(token, v), v)
}

func (s *Serializer) loadsUnsafe(err error, v any) (valid, loaded bool) {
	if err == nil {
		return true, true
	}

	payload, ok := signaturePayload(err)
	if !ok || payload == nil {
		return false, false
	}

	if s.LoadPayload(payload, v) != nil {
		return false, false
	}

	return false, true
}
