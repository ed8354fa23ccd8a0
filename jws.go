package itsdangerous

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/json"
	"fmt"
	"time"

	"github.com/halimath/itsdangerous/internal/encoding"
)

// jwsAlgorithms maps registered JWS algorithm names to their signing
// algorithm as defined in RFC 7518 section 3.1
// (https://www.rfc-editor.org/rfc/rfc7518.html#section-3.1). Only the
// HMAC family and "none" are supported.
var jwsAlgorithms = map[string]SigningAlgorithm{
	"HS256": HMACAlgorithm{Digest: sha256.New},
	"HS384": HMACAlgorithm{Digest: sha512.New384},
	"HS512": HMACAlgorithm{Digest: sha512.New},
	"none":  NoneAlgorithm{},
}

// JWSSerializer produces tokens in the JWS compact serialization
// header.payload.signature, with every segment base64url encoded without
// padding. The "alg" header field is fixed to the configured algorithm
// and checked on load.
type JWSSerializer struct {
	Serializer

	algorithmName string
}

// NewJWSSerializer creates a JWSSerializer. The algorithm defaults to
// HS256 and is selected with WithAlgorithmName. Without a salt the secret
// keys are used as MAC keys directly, following JWS convention; a salt
// given via WithSalt enables normal key derivation.
func NewJWSSerializer(secretKeys [][]byte, opts ...Option) (*JWSSerializer, error) {
	cfg := defaultConfig()
	cfg.apply(opts)
	return newJWSResolved(secretKeys, &cfg)
}

func newJWSResolved(secretKeys [][]byte, cfg *config) (*JWSSerializer, error) {
	alg, ok := jwsAlgorithms[cfg.algorithmName]
	if !ok {
		return nil, fmt.Errorf("itsdangerous: unknown JWS algorithm %q", cfg.algorithmName)
	}

	cfg.algorithm = alg
	cfg.sep = '.'
	if cfg.codec == nil {
		cfg.codec = CompactJSON{}
	}

	makeSigner := func(salt []byte) (sealer, error) {
		scfg := *cfg
		if salt == nil {
			scfg.keyDerivation = KeyDerivationNone
		}
		return newSignerResolved(secretKeys, salt, &scfg)
	}

	inner, err := newSerializerResolved(secretKeys, cfg, nil, makeSigner)
	if err != nil {
		return nil, err
	}

	return &JWSSerializer{Serializer: *inner, algorithmName: cfg.algorithmName}, nil
}

// AlgorithmName returns the registered name of the configured algorithm,
// e.g. "HS256".
func (s *JWSSerializer) AlgorithmName() string { return s.algorithmName }

// Salted returns a copy of the serializer bound to the given salt. A
// non-nil salt enables key derivation for the copy.
func (s *JWSSerializer) Salted(salt []byte) *JWSSerializer {
	c := *s
	c.salt = salt
	return &c
}

// makeHeader builds the JOSE header from the given extra fields. The
// "alg" field is authoritative and overrides any caller supplied value.
func (s *JWSSerializer) makeHeader(headerFields map[string]any) map[string]any {
	header := make(map[string]any, len(headerFields)+1)
	for k, v := range headerFields {
		header[k] = v
	}
	header["alg"] = s.algorithmName
	return header
}

// dumpPayload serializes header and payload into the two leading JWS
// segments.
func (s *JWSSerializer) dumpPayload(header map[string]any, v any) ([]byte, error) {
	headerJSON, err := s.codec.Marshal(header)
	if err != nil {
		return nil, err
	}

	payloadJSON, err := s.codec.Marshal(v)
	if err != nil {
		return nil, err
	}

	out := encoding.Encode(headerJSON)
	out = append(out, '.')
	return append(out, encoding.Encode(payloadJSON)...), nil
}

func (s *JWSSerializer) dumpsWithHeaderMap(header map[string]any, v any) (string, error) {
	payload, err := s.dumpPayload(header, v)
	if err != nil {
		return "", err
	}

	signer, err := s.makeSigner(s.salt)
	if err != nil {
		return "", err
	}

	return string(signer.Sign(payload)), nil
}

// Dumps serializes and signs v into the JWS compact form.
func (s *JWSSerializer) Dumps(v any) (string, error) {
	return s.DumpsWithHeader(v, nil)
}

// DumpsWithHeader works like Dumps but places the given extra fields into
// the JOSE header.
func (s *JWSSerializer) DumpsWithHeader(v any, headerFields map[string]any) (string, error) {
	return s.dumpsWithHeaderMap(s.makeHeader(headerFields), v)
}

// loadPayloadWithHeader splits an unsigned two-segment payload, decodes
// both halves and deserializes the payload segment into v. It returns the
// parsed header along with its raw JSON so callers can bind additional
// header claims.
func (s *JWSSerializer) loadPayloadWithHeader(payload []byte, v any) (map[string]any, []byte, error) {
	i := bytes.IndexByte(payload, '.')
	if i < 0 {
		return nil, nil, &BadPayloadError{Message: `itsdangerous: no "." found in value`}
	}

	headerB64, payloadB64 := payload[:i], payload[i+1:]

	headerJSON, err := encoding.Decode(headerB64)
	if err != nil {
		return nil, nil, &BadHeaderError{
			BadSignatureError: BadSignatureError{Message: "itsdangerous: could not base64 decode the header"},
			OriginalError:     err,
		}
	}

	payloadJSON, err := encoding.Decode(payloadB64)
	if err != nil {
		return nil, nil, &BadPayloadError{
			Message:       "itsdangerous: could not base64 decode the payload",
			OriginalError: err,
		}
	}

	var header map[string]any
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, &BadHeaderError{
			BadSignatureError: BadSignatureError{Message: "itsdangerous: header is malformed or not a JSON object"},
			OriginalError:     err,
		}
	}

	if err := s.LoadPayload(payloadJSON, v); err != nil {
		return nil, nil, err
	}

	return header, headerJSON, nil
}

// loads unsigns the token and returns the raw two-segment payload
// together with the header in parsed and raw JSON form, enforcing the
// algorithm binding.
func (s *JWSSerializer) loads(token string, v any) ([]byte, map[string]any, []byte, error) {
	signer, err := s.makeSigner(s.salt)
	if err != nil {
		return nil, nil, nil, err
	}

	payload, err := signer.Unsign([]byte(token))
	if err != nil {
		return nil, nil, nil, err
	}

	header, headerJSON, err := s.loadPayloadWithHeader(payload, v)
	if err != nil {
		return nil, nil, nil, err
	}

	if name, _ := header["alg"].(string); name != s.algorithmName {
		return nil, nil, nil, &BadHeaderError{
			BadSignatureError: BadSignatureError{
				Message: "itsdangerous: algorithm mismatch",
				Payload: payload,
			},
			Header: header,
		}
	}

	return payload, header, headerJSON, nil
}

// Loads verifies the token and deserializes its payload into v. The
// token's "alg" header must match the configured algorithm.
func (s *JWSSerializer) Loads(token string, v any) error {
	_, err := s.LoadsWithHeader(token, v)
	return err
}

// LoadsWithHeader works like Loads but also returns the parsed JOSE
// header.
func (s *JWSSerializer) LoadsWithHeader(token string, v any) (map[string]any, error) {
	_, header, _, err := s.loads(token, v)
	return header, err
}

// LoadsUnsafe loads the token's payload into v without requiring a valid
// signature. See Serializer.LoadsUnsafe for the caveats.
func (s *JWSSerializer) LoadsUnsafe(token string, v any) (valid, loaded bool) {
	return s.loadsUnsafeResult(s.Loads(token, v), v)
}

func (s *JWSSerializer) loadsUnsafeResult(err error, v any) (valid, loaded bool) {
	if err == nil {
		return true, true
	}

	payload, ok := signaturePayload(err)
	if !ok || payload == nil {
		return false, false
	}

	if _, _, err := s.loadPayloadWithHeader(payload, v); err != nil {
		return false, false
	}

	return false, true
}

// DefaultExpiresIn is the token lifetime used by NewTimedJWSSerializer
// when WithExpiresIn is not given.
const DefaultExpiresIn = time.Hour

// timedHeaderClaims carries the registered time claims this profile binds
// into the JOSE header, as defined in RFC 7519 section 4.1
// (https://datatracker.ietf.org/doc/html/rfc7519#section-4.1).
type timedHeaderClaims struct {
	ExpirationTime int64 `json:"exp"`
	IssuedAt       int64 `json:"iat"`
}

// GetExpirationTime returns the contained expiration time as a time.Time
// value.
func (c *timedHeaderClaims) GetExpirationTime() time.Time {
	return time.Unix(c.ExpirationTime, 0).UTC()
}

// GetIssuedAt returns the contained issued at time as a time.Time value.
func (c *timedHeaderClaims) GetIssuedAt() time.Time {
	return time.Unix(c.IssuedAt, 0).UTC()
}

// TimedJWSSerializer works like JWSSerializer but stamps "iat" and "exp"
// headers on every token and rejects expired tokens on load.
type TimedJWSSerializer struct {
	JWSSerializer

	expiresIn time.Duration
	clock     Clock
}

// NewTimedJWSSerializer creates a TimedJWSSerializer. It accepts the same
// options as NewJWSSerializer plus WithExpiresIn and WithClock.
func NewTimedJWSSerializer(secretKeys [][]byte, opts ...Option) (*TimedJWSSerializer, error) {
	cfg := defaultConfig()
	cfg.apply(opts)

	inner, err := newJWSResolved(secretKeys, &cfg)
	if err != nil {
		return nil, err
	}

	return &TimedJWSSerializer{
		JWSSerializer: *inner,
		expiresIn:     cfg.expiresIn,
		clock:         cfg.clock,
	}, nil
}

// Salted returns a copy of the serializer bound to the given salt.
func (s *TimedJWSSerializer) Salted(salt []byte) *TimedJWSSerializer {
	c := *s
	c.salt = salt
	return &c
}

func (s *TimedJWSSerializer) now() int64 { return s.clock().Unix() }

// makeHeader adds "iat" and "exp" in Unix seconds to the JOSE header.
func (s *TimedJWSSerializer) makeHeader(headerFields map[string]any) map[string]any {
	header := s.JWSSerializer.makeHeader(headerFields)
	iat := s.now()
	header["iat"] = iat
	header["exp"] = iat + int64(s.expiresIn/time.Second)
	return header
}

// Dumps serializes and signs v, stamping issue and expiry times.
func (s *TimedJWSSerializer) Dumps(v any) (string, error) {
	return s.DumpsWithHeader(v, nil)
}

// DumpsWithHeader works like Dumps but places the given extra fields into
// the JOSE header.
func (s *TimedJWSSerializer) DumpsWithHeader(v any, headerFields map[string]any) (string, error) {
	return s.dumpsWithHeaderMap(s.makeHeader(headerFields), v)
}

// Loads verifies the token, checks that it has not expired and
// deserializes its payload into v.
func (s *TimedJWSSerializer) Loads(token string, v any) error {
	_, err := s.LoadsWithHeader(token, v)
	return err
}

// LoadsWithHeader works like Loads but also returns the parsed JOSE
// header.
func (s *TimedJWSSerializer) LoadsWithHeader(token string, v any) (map[string]any, error) {
	payload, header, headerJSON, err := s.loads(token, v)
	if err != nil {
		return nil, err
	}

	var claims timedHeaderClaims
	if err := json.Unmarshal(headerJSON, &claims); err != nil || claims.ExpirationTime < 0 {
		return nil, &BadHeaderError{
			BadSignatureError: BadSignatureError{
				Message: "itsdangerous: expiry date is not an IntDate",
				Payload: payload,
			},
			Header:        header,
			OriginalError: err,
		}
	}

	if claims.ExpirationTime == 0 {
		return nil, &BadSignatureError{
			Message: "itsdangerous: missing expiry date",
			Payload: payload,
		}
	}

	if claims.GetExpirationTime().Before(s.clock()) {
		return nil, &SignatureExpiredError{
			BadTimeSignatureError{
				BadSignatureError: BadSignatureError{
					Message: "itsdangerous: signature expired",
					Payload: payload,
				},
				DateSigned: s.issueDate(&claims),
			},
		}
	}

	return header, nil
}

// LoadsUnsafe loads the token's payload into v without requiring a valid
// or unexpired signature. See Serializer.LoadsUnsafe for the caveats.
func (s *TimedJWSSerializer) LoadsUnsafe(token string, v any) (valid, loaded bool) {
	return s.loadsUnsafeResult(s.Loads(token, v), v)
}

// issueDate derives the signing time from the "iat" claim when present.
func (s *TimedJWSSerializer) issueDate(claims *timedHeaderClaims) time.Time {
	if claims.IssuedAt == 0 {
		return time.Time{}
	}
	return claims.GetIssuedAt()
}
