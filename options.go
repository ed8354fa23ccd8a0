package itsdangerous

import (
	"crypto/sha1"
	"hash"
	"time"
)

// config collects the settings shared by all signer and serializer
// constructors. Options mutate a config; constructors resolve it into
// immutable values.
type config struct {
	salt          []byte
	saltSet       bool
	sep           byte
	keyDerivation KeyDerivation
	digestMethod  func() hash.Hash
	algorithm     SigningAlgorithm
	clock         Clock
	codec         Codec
	fallbacks     []SignerFactory
	algorithmName string
	expiresIn     time.Duration
}

func defaultConfig() config {
	return config{
		sep:           '.',
		keyDerivation: KeyDerivationDjangoConcat,
		digestMethod:  sha1.New,
		clock:         time.Now,
		algorithmName: "HS256",
		expiresIn:     DefaultExpiresIn,
	}
}

func (c *config) apply(opts []Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Option configures a signer or serializer at construction time. Options
// that do not apply to the value being constructed are ignored.
type Option func(*config)

// WithSalt sets the salt mixed into key derivation. Salts namespace
// signatures: a token signed under one salt does not verify under another.
func WithSalt(salt []byte) Option {
	return func(c *config) {
		c.salt = salt
		c.saltSet = true
	}
}

// WithSep sets the separator byte placed between value and signature. The
// byte must not be part of the base64url alphabet; constructors reject such
// separators.
func WithSep(sep byte) Option {
	return func(c *config) { c.sep = sep }
}

// WithKeyDerivation sets the scheme used to derive the MAC key from the
// secret key and salt.
func WithKeyDerivation(kd KeyDerivation) Option {
	return func(c *config) { c.keyDerivation = kd }
}

// WithDigestMethod sets the hash constructor used for key derivation and
// for the default HMAC algorithm, e.g. sha256.New.
func WithDigestMethod(digest func() hash.Hash) Option {
	return func(c *config) { c.digestMethod = digest }
}

// WithAlgorithm sets the signing algorithm, replacing the default
// HMACAlgorithm built from the digest method.
func WithAlgorithm(alg SigningAlgorithm) Option {
	return func(c *config) { c.algorithm = alg }
}

// WithClock sets the clock used by timestamp signers and timed serializers.
// Tests use this to freeze time.
func WithClock(clock Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithCodec sets the payload codec used by serializers. The default is
// JSONCodec for plain and timed serializers and CompactJSON for URL-safe
// and JWS serializers; URL-safe serializers wrap the codec given here into
// their base64/zlib pipeline.
func WithCodec(codec Codec) Option {
	return func(c *config) { c.codec = codec }
}

// WithFallbackSigners sets factories for additional signers to try when
// unsigning with the configured signer fails, e.g. after changing the
// digest method or key derivation of an application.
func WithFallbackSigners(factories ...SignerFactory) Option {
	return func(c *config) { c.fallbacks = factories }
}

// WithAlgorithmName selects the JWS algorithm by its registered name. One
// of "HS256", "HS384", "HS512" or "none". Only JWS serializers use this.
func WithAlgorithmName(name string) Option {
	return func(c *config) { c.algorithmName = name }
}

// WithExpiresIn sets the lifetime stamped into tokens produced by
// NewTimedJWSSerializer.
func WithExpiresIn(d time.Duration) Option {
	return func(c *config) { c.expiresIn = d }
}
