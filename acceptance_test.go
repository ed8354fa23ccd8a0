package itsdangerous_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-test/deep"

	"github.com/halimath/itsdangerous"
)

// dumperLoader adapts the serializer variants to a common surface for the
// round-trip acceptance tests.
type dumperLoader struct {
	name  string
	dumps func(v any) (string, error)
	loads func(token string, v any) error
}

func variants(t *testing.T) []dumperLoader {
	t.Helper()

	keys := [][]byte{[]byte("acceptance-secret")}

	s, err := itsdangerous.NewSerializer(keys)
	if err != nil {
		t.Fatal(err)
	}

	timed, err := itsdangerous.NewTimedSerializer(keys)
	if err != nil {
		t.Fatal(err)
	}

	urlSafe, err := itsdangerous.NewURLSafeSerializer(keys)
	if err != nil {
		t.Fatal(err)
	}

	urlSafeTimed, err := itsdangerous.NewURLSafeTimedSerializer(keys)
	if err != nil {
		t.Fatal(err)
	}

	jws, err := itsdangerous.NewJWSSerializer(keys)
	if err != nil {
		t.Fatal(err)
	}

	return []dumperLoader{
		{"Serializer", s.Dumps, s.Loads},
		{"TimedSerializer", timed.Dumps, func(token string, v any) error {
			return timed.Loads(token, time.Minute, v)
		}},
		{"URLSafeSerializer", urlSafe.Dumps, urlSafe.Loads},
		{"URLSafeTimedSerializer", urlSafeTimed.Dumps, func(token string, v any) error {
			return urlSafeTimed.Loads(token, time.Minute, v)
		}},
		{"JWSSerializer", jws.Dumps, jws.Loads},
	}
}

func TestRoundTrip(t *testing.T) {
	objects := []any{
		[]any{"a", "list"},
		"a string",
		"a unicode string ’",
		map[string]any{"a": "dictionary"},
		float64(42),
		42.5,
	}

	for _, variant := range variants(t) {
		t.Run(variant.name, func(t *testing.T) {
			for _, obj := range objects {
				token, err := variant.dumps(obj)
				if err != nil {
					t.Fatal(err)
				}

				var got any
				if err := variant.loads(token, &got); err != nil {
					t.Fatal(err)
				}

				if diff := deep.Equal(obj, got); diff != nil {
					t.Error(diff)
				}
			}
		})
	}
}

func TestTamperingIsDetected(t *testing.T) {
	transforms := []func(string) string{
		strings.ToUpper,
		func(t string) string { return t + "a" },
		func(t string) string { return "a" + t[1:] },
		func(t string) string { return strings.ReplaceAll(t, ".", "") },
	}

	for _, variant := range variants(t) {
		t.Run(variant.name, func(t *testing.T) {
			token, err := variant.dumps(map[string]any{"foo": "bar"})
			if err != nil {
				t.Fatal(err)
			}

			for _, transform := range transforms {
				tampered := transform(token)
				if tampered == token {
					continue
				}

				var got any
				if err := variant.loads(tampered, &got); !errors.Is(err, itsdangerous.ErrBadSignature) {
					t.Errorf("tampered token %q accepted: %v", tampered, err)
				}
			}
		})
	}
}

func TestExpiredLinkScenario(t *testing.T) {
	// An email confirmation link signed now must stop working once its
	// age exceeds the limit the verifying endpoint enforces.
	now := time.Now()
	clock := func() time.Time { return now }

	s, err := itsdangerous.NewURLSafeTimedSerializer(
		[][]byte{[]byte("acceptance-secret")},
		itsdangerous.WithSalt([]byte("email-confirm")),
		itsdangerous.WithClock(clock),
	)
	if err != nil {
		t.Fatal(err)
	}

	token, err := s.Dumps(map[string]any{"user_id": float64(42)})
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(30 * time.Minute)

	var got map[string]any
	signedAt, err := s.LoadsWithTimestamp(token, time.Hour, &got)
	if err != nil {
		t.Fatal(err)
	}
	if got["user_id"] != float64(42) {
		t.Errorf("unexpected payload: %v", got)
	}
	if signedAt.IsZero() {
		t.Error("signing time missing")
	}

	now = now.Add(time.Hour)

	if err := s.Loads(token, time.Hour, &got); !errors.Is(err, itsdangerous.ErrSignatureExpired) {
		t.Errorf("stale link accepted: %v", err)
	}

	// The same token is worthless under a different salt.
	other := s.Salted([]byte("password-reset"))
	if err := other.Loads(token, 0, &got); !errors.Is(err, itsdangerous.ErrBadSignature) {
		t.Errorf("token crossed salt namespaces: %v", err)
	}
}

func TestKeyRotationScenario(t *testing.T) {
	oldKey := []byte("rotated-out")
	newKey := []byte("rotated-in")

	before, err := itsdangerous.NewURLSafeSerializer([][]byte{oldKey})
	if err != nil {
		t.Fatal(err)
	}

	after, err := itsdangerous.NewURLSafeSerializer([][]byte{oldKey, newKey})
	if err != nil {
		t.Fatal(err)
	}

	token, err := before.Dumps("still valid")
	if err != nil {
		t.Fatal(err)
	}

	var got any
	if err := after.Loads(token, &got); err != nil {
		t.Fatal(err)
	}
	if got != "still valid" {
		t.Errorf("unexpected payload: %v", got)
	}
}
