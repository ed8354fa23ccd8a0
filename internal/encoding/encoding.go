// Package encoding defines functions to encode and decode binary data
// in base64url format with no padding as specified in RFC 7515 section 2
// (https://datatracker.ietf.org/doc/html/rfc7515#section-2) as well as a
// minimal big-endian framing for unsigned integers.
package encoding

import (
	"bytes"
	"encoding/base64"
	"errors"
)

var (
	enc = base64.URLEncoding.WithPadding(base64.NoPadding)
)

// ErrIntegerOverflow is returned from BytesToInt when the input does not
// fit into an unsigned 64 bit integer.
var ErrIntegerOverflow = errors.New("encoding: integer overflows 64 bits")

// Encode encodes the given data using base64URL encoding with no padding.
func Encode(data []byte) []byte {
	out := make([]byte, enc.EncodedLen(len(data)))
	enc.Encode(out, data)
	return out
}

// Decode decodes the given base64URL encoded data. Trailing '=' padding is
// tolerated and stripped before decoding.
func Decode(data []byte) ([]byte, error) {
	data = bytes.TrimRight(data, "=")
	out := make([]byte, enc.DecodedLen(len(data)))
	n, err := enc.Decode(out, data)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// IntToBytes encodes n as its minimal big-endian byte representation.
// Leading zero bytes are stripped, so 0 encodes to an empty slice.
func IntToBytes(n uint64) []byte {
	var buf [8]byte
	for i := 7; i >= 0; i-- {
		buf[i] = byte(n)
		n >>= 8
	}
	i := 0
	for i < 8 && buf[i] == 0 {
		i++
	}
	out := make([]byte, 8-i)
	copy(out, buf[i:])
	return out
}

// BytesToInt decodes a big-endian byte representation produced by
// IntToBytes. An empty slice decodes to 0.
func BytesToInt(b []byte) (uint64, error) {
	if len(b) > 8 {
		return 0, ErrIntegerOverflow
	}

	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n, nil
}
