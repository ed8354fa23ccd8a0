package itsdangerous

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/halimath/itsdangerous/internal/encoding"
)

// Epoch is the zero point for encoded timestamps: 2011-01-01T00:00:00Z in
// Unix seconds. Timestamps count seconds since this epoch, which keeps
// their byte representation short.
const Epoch int64 = 1293840000

// Clock returns the current time. Timestamp signers and timed serializers
// accept a Clock via WithClock so tests can freeze time.
type Clock func() time.Time

// TimestampToTime converts a timestamp produced by
// TimestampSigner.Timestamp into a UTC wall-clock time.
func TimestampToTime(ts uint64) time.Time {
	return time.Unix(Epoch+int64(ts), 0).UTC()
}

// TimestampSigner works like Signer but also records the time of signing.
// Unsigning can verify that the signature is not older than a caller
// supplied maximum age.
type TimestampSigner struct {
	Signer

	clock Clock
}

// NewTimestampSigner creates a TimestampSigner. It accepts the same
// options as NewSigner plus WithClock.
func NewTimestampSigner(secretKeys [][]byte, opts ...Option) (*TimestampSigner, error) {
	cfg := defaultConfig()
	cfg.apply(opts)
	return newTimestampSignerResolved(secretKeys, resolveSalt(&cfg, defaultSignerSalt), &cfg)
}

func newTimestampSignerResolved(secretKeys [][]byte, salt []byte, cfg *config) (*TimestampSigner, error) {
	signer, err := newSignerResolved(secretKeys, salt, cfg)
	if err != nil {
		return nil, err
	}
	return &TimestampSigner{Signer: *signer, clock: cfg.clock}, nil
}

// Timestamp returns the current number of seconds since Epoch. Times
// before the epoch clamp to 0.
func (s *TimestampSigner) Timestamp() uint64 {
	now := s.clock().Unix() - Epoch
	if now < 0 {
		return 0
	}
	return uint64(now)
}

// Sign signs the given value and appends the current timestamp, so the
// resulting token carries two separators: value.timestamp.signature.
func (s *TimestampSigner) Sign(value []byte) []byte {
	ts := encoding.Encode(encoding.IntToBytes(s.Timestamp()))
	buf := make([]byte, 0, len(value)+1+len(ts))
	buf = append(buf, value...)
	buf = append(buf, s.sep)
	buf = append(buf, ts...)
	return s.Signer.Sign(buf)
}

// Unsign verifies the signature and the structure of the timestamp segment
// without enforcing an age limit.
func (s *TimestampSigner) Unsign(signed []byte) ([]byte, error) {
	value, _, err := s.UnsignWithTimestamp(signed, 0)
	return value, err
}

// UnsignWithTimestamp verifies the signature and returns the value
// together with the time it was signed. A maxAge greater than zero limits
// how old the signature may be; older tokens fail with a
// *SignatureExpiredError carrying the signing time. Tokens dated in the
// future fail the same way.
//
// When the signature itself is invalid the error is a
// *BadTimeSignatureError that preserves whatever payload and timestamp
// could still be recovered. If no timestamp segment can be split off the
// unverified value, the *BadSignatureError of the signature check is
// returned unchanged.
func (s *TimestampSigner) UnsignWithTimestamp(signed []byte, maxAge time.Duration) ([]byte, time.Time, error) {
	result, sigErr := s.Signer.Unsign(signed)
	if sigErr != nil {
		var bs *BadSignatureError
		if !errors.As(sigErr, &bs) {
			return nil, time.Time{}, sigErr
		}
		// Keep whatever payload the signature layer recovered so the
		// timestamp can still be reported for forensic purposes.
		result = bs.Payload
	}

	i := bytes.LastIndexByte(result, s.sep)
	if i < 0 {
		if sigErr != nil {
			return nil, time.Time{}, sigErr
		}
		return nil, time.Time{}, &BadTimeSignatureError{
			BadSignatureError: BadSignatureError{
				Message: "itsdangerous: timestamp missing",
				Payload: result,
			},
		}
	}

	value, tsBytes := result[:i], result[i+1:]

	ts, tsKnown := decodeTimestamp(tsBytes)

	if sigErr != nil {
		e := &BadTimeSignatureError{
			BadSignatureError: BadSignatureError{
				Message: sigErr.Error(),
				Payload: value,
			},
		}
		if tsKnown {
			e.DateSigned = TimestampToTime(ts)
		}
		return nil, time.Time{}, e
	}

	if !tsKnown {
		return nil, time.Time{}, &BadTimeSignatureError{
			BadSignatureError: BadSignatureError{
				Message: "itsdangerous: malformed timestamp",
				Payload: value,
			},
		}
	}

	dateSigned := TimestampToTime(ts)

	if maxAge > 0 {
		// Age in whole seconds; the multiplication guard keeps huge
		// timestamps from overflowing the duration conversion.
		age := int64(s.Timestamp()) - int64(ts)

		if age < 0 {
			return nil, time.Time{}, expired(
				fmt.Sprintf("itsdangerous: signature age %ds < 0", age), value, dateSigned)
		}

		if age > math.MaxInt64/int64(time.Second) || time.Duration(age)*time.Second > maxAge {
			return nil, time.Time{}, expired(
				fmt.Sprintf("itsdangerous: signature age %ds > %s", age, maxAge), value, dateSigned)
		}
	}

	return value, dateSigned, nil
}

func expired(msg string, payload []byte, dateSigned time.Time) *SignatureExpiredError {
	return &SignatureExpiredError{
		BadTimeSignatureError{
			BadSignatureError: BadSignatureError{Message: msg, Payload: payload},
			DateSigned:        dateSigned,
		},
	}
}

// decodeTimestamp decodes a base64url encoded big-endian timestamp,
// reporting whether it yields a representable time.
func decodeTimestamp(tsBytes []byte) (uint64, bool) {
	raw, err := encoding.Decode(tsBytes)
	if err != nil {
		return 0, false
	}

	ts, err := encoding.BytesToInt(raw)
	if err != nil {
		return 0, false
	}

	if ts > uint64(math.MaxInt64-Epoch) {
		return 0, false
	}

	return ts, true
}

// Validate reports whether the signed value carries a valid signature that
// is not older than maxAge.
func (s *TimestampSigner) Validate(signed []byte, maxAge time.Duration) bool {
	_, _, err := s.UnsignWithTimestamp(signed, maxAge)
	return err == nil
}
