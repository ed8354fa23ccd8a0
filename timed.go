package itsdangerous

import (
	"errors"
	"time"
)

// TimedSerializer uses a TimestampSigner so that tokens record their
// signing time and can be rejected once they exceed a maximum age.
type TimedSerializer struct {
	Serializer
}

// NewTimedSerializer creates a TimedSerializer. It accepts the same
// options as NewSerializer plus WithClock.
func NewTimedSerializer(secretKeys [][]byte, opts ...Option) (*TimedSerializer, error) {
	cfg := defaultConfig()
	cfg.apply(opts)

	inner, err := newSerializerResolved(secretKeys, &cfg, defaultSerializerSalt, func(salt []byte) (sealer, error) {
		return newTimestampSignerResolved(secretKeys, salt, &cfg)
	})
	if err != nil {
		return nil, err
	}

	return &TimedSerializer{Serializer: *inner}, nil
}

// Salted returns a copy of the serializer bound to the given salt.
func (s *TimedSerializer) Salted(salt []byte) *TimedSerializer {
	c := *s
	c.salt = salt
	return &c
}

// Loads verifies the token's signature and age, then deserializes its
// payload into v. A maxAge of zero disables the age check.
func (s *TimedSerializer) Loads(token string, maxAge time.Duration, v any) error {
	_, err := s.LoadsWithTimestamp(token, maxAge, v)
	return err
}

// LoadsWithTimestamp works like Loads but also returns the time the token
// was signed.
func (s *TimedSerializer) LoadsWithTimestamp(token string, maxAge time.Duration, v any) (time.Time, error) {
	unsigners, err := s.iterUnsigners(s.salt)
	if err != nil {
		return time.Time{}, err
	}

	signed := []byte(token)
	var lastErr error
	for _, u := range unsigners {
		tu, ok := u.(TimestampUnsigner)
		if !ok {
			return time.Time{}, errors.New("itsdangerous: fallback signer does not carry timestamps")
		}

		payload, ts, err := tu.UnsignWithTimestamp(signed, maxAge)
		if err == nil {
			return ts, s.LoadPayload(payload, v)
		}
		lastErr = err
	}

	return time.Time{}, lastErr
}

// LoadsUnsafe loads the token's payload into v without requiring a valid
// or fresh signature. See Serializer.LoadsUnsafe for the caveats.
func (s *TimedSerializer) LoadsUnsafe(token string, maxAge time.Duration, v any) (valid, loaded bool) {
	return s.loadsUnsafe(s.Loads(token, maxAge, v), v)
}
