package itsdangerous

import (
	"errors"
	"time"
)

// errorKind is a sentinel error value whose Unwrap chain encodes the
// taxonomy of failure kinds. Matching a kind with errors.Is also matches
// every ancestor kind.
type errorKind struct {
	msg    string
	parent error
}

func (k *errorKind) Error() string { return k.msg }

func (k *errorKind) Unwrap() error { return k.parent }

var (
	// ErrBadData is the root of all error kinds defined by this package.
	ErrBadData error = &errorKind{msg: "itsdangerous: bad data"}

	// ErrBadSignature marks errors raised when a signature does not match.
	ErrBadSignature error = &errorKind{msg: "itsdangerous: bad signature", parent: ErrBadData}

	// ErrBadTimeSignature marks errors raised when a time-based signature
	// is invalid, either because the signature itself does not match or
	// because the timestamp segment is missing or malformed.
	ErrBadTimeSignature error = &errorKind{msg: "itsdangerous: bad time signature", parent: ErrBadSignature}

	// ErrSignatureExpired marks errors raised when a signature timestamp is
	// older than the maximum age given to the unsign operation.
	ErrSignatureExpired error = &errorKind{msg: "itsdangerous: signature expired", parent: ErrBadTimeSignature}

	// ErrBadHeader marks errors raised when a signed header is invalid in
	// some form. This only happens for serializers that carry a header next
	// to the signature.
	ErrBadHeader error = &errorKind{msg: "itsdangerous: bad header", parent: ErrBadSignature}

	// ErrBadPayload marks errors raised when a payload is invalid. This
	// could happen if the payload is loaded despite an invalid signature,
	// or if there is a mismatch between serializer and deserializer.
	ErrBadPayload error = &errorKind{msg: "itsdangerous: bad payload", parent: ErrBadData}
)

// BadSignatureError is returned when a signature does not match.
//
// It matches ErrBadSignature (and ErrBadData) with errors.Is.
type BadSignatureError struct {
	Message string

	// Payload holds the value that failed the signature test. In some
	// situations callers might still want to inspect this, even knowing
	// that it may have been tampered with.
	Payload []byte
}

func (e *BadSignatureError) Error() string { return e.Message }

func (e *BadSignatureError) Unwrap() error { return ErrBadSignature }

// BadTimeSignatureError is returned when a time-based signature is invalid.
//
// It matches ErrBadTimeSignature, ErrBadSignature and ErrBadData with
// errors.Is and extracts as a *BadSignatureError with errors.As.
type BadTimeSignatureError struct {
	BadSignatureError

	// DateSigned holds the time the signature was created, when the
	// timestamp segment could be decoded. The zero value means the
	// timestamp is unknown.
	DateSigned time.Time
}

func (e *BadTimeSignatureError) Unwrap() error { return ErrBadTimeSignature }

func (e *BadTimeSignatureError) As(target any) bool {
	if t, ok := target.(**BadSignatureError); ok {
		*t = &e.BadSignatureError
		return true
	}
	return false
}

// SignatureExpiredError is returned when a signature timestamp is older
// than the maximum age given to the unsign operation.
//
// It matches ErrSignatureExpired and all its ancestor kinds with errors.Is.
type SignatureExpiredError struct {
	BadTimeSignatureError
}

func (e *SignatureExpiredError) Unwrap() error { return ErrSignatureExpired }

func (e *SignatureExpiredError) As(target any) bool {
	switch t := target.(type) {
	case **BadTimeSignatureError:
		*t = &e.BadTimeSignatureError
		return true
	case **BadSignatureError:
		*t = &e.BadSignatureError
		return true
	}
	return false
}

// BadHeaderError is returned when a signed header is invalid in some form.
//
// It matches ErrBadHeader, ErrBadSignature and ErrBadData with errors.Is.
type BadHeaderError struct {
	BadSignatureError

	// Header holds the header value when it was available but malformed
	// in some way.
	Header map[string]any

	// OriginalError holds the error that caused the header to be
	// considered invalid. This may be nil.
	OriginalError error
}

func (e *BadHeaderError) Unwrap() []error {
	if e.OriginalError == nil {
		return []error{ErrBadHeader}
	}
	return []error{ErrBadHeader, e.OriginalError}
}

func (e *BadHeaderError) As(target any) bool {
	if t, ok := target.(**BadSignatureError); ok {
		*t = &e.BadSignatureError
		return true
	}
	return false
}

// BadPayloadError is returned when a payload is invalid.
//
// It matches ErrBadPayload and ErrBadData with errors.Is.
type BadPayloadError struct {
	Message string

	// OriginalError holds the error that indicates why the payload was
	// not valid. This may be nil.
	OriginalError error
}

func (e *BadPayloadError) Error() string { return e.Message }

func (e *BadPayloadError) Unwrap() []error {
	if e.OriginalError == nil {
		return []error{ErrBadPayload}
	}
	return []error{ErrBadPayload, e.OriginalError}
}

// signaturePayload extracts the forensic payload attached to signature
// errors, reporting whether err carries one.
func signaturePayload(err error) ([]byte, bool) {
	var bs *BadSignatureError
	if errors.As(err, &bs) {
		return bs.Payload, true
	}
	return nil, false
}
