package encoding

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncode(t *testing.T) {
	act := Encode([]byte("hello, world"))

	if string(act) != "aGVsbG8sIHdvcmxk" {
		t.Errorf("unexpected encoded string: '%s'", act)
	}
}

func TestDecode(t *testing.T) {
	act, err := Decode([]byte("aGVsbG8sIHdvcmxk"))
	if err != nil {
		t.Fatal(err)
	}

	if string(act) != "hello, world" {
		t.Errorf("unexpected decoded string: '%s'", string(act))
	}
}

func TestDecode_padded(t *testing.T) {
	act, err := Decode([]byte("aGk="))
	if err != nil {
		t.Fatal(err)
	}

	if string(act) != "hi" {
		t.Errorf("unexpected decoded string: '%s'", string(act))
	}
}

func TestDecode_invalid(t *testing.T) {
	if _, err := Decode([]byte("a!b")); err == nil {
		t.Error("expected decoding to fail")
	}
}

func TestIntToBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want []byte
	}{
		{0, []byte{}},
		{1, []byte{1}},
		{255, []byte{255}},
		{256, []byte{1, 0}},
		{0x0102030405060708, []byte{1, 2, 3, 4, 5, 6, 7, 8}},
	}

	for _, tt := range tests {
		if got := IntToBytes(tt.in); !bytes.Equal(got, tt.want) {
			t.Errorf("IntToBytes(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBytesToInt(t *testing.T) {
	for _, n := range []uint64{0, 1, 255, 256, 91066985, 1<<64 - 1} {
		got, err := BytesToInt(IntToBytes(n))
		if err != nil {
			t.Fatal(err)
		}
		if got != n {
			t.Errorf("round trip of %d yielded %d", n, got)
		}
	}
}

func TestBytesToInt_overflow(t *testing.T) {
	_, err := BytesToInt(make([]byte, 9))
	if !errors.Is(err, ErrIntegerOverflow) {
		t.Errorf("expected ErrIntegerOverflow, got %v", err)
	}
}
