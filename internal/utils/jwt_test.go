package utils

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "u-1", "hotelOwner", KindUser, 5)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "u-1" || claims.Role != "hotelOwner" || claims.Kind != KindUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, _ := NewAccessToken("s3cret", "u-1", "user", KindUser, 5)
	expired, _ := NewAccessToken("s3cret", "u-1", "user", KindUser, -5)
	noKind, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u-1"}).SignedString([]byte("s3cret"))

	cases := map[string]struct{ secret, raw string }{
		"wrong secret": {"other", good.Token},
		"expired":      {"s3cret", expired.Token},
		"missing kind": {"s3cret", noKind},
		"garbage":      {"s3cret", "not.a.jwt"},
	}
	for name, tc := range cases {
		if _, err := ParseAccessToken(tc.secret, tc.raw); err != ErrInvalidToken {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestRefreshTokenHashing(t *testing.T) {
	rt, err := NewRefreshToken(7)
	if err != nil {
		t.Fatal(err)
	}
	if len(rt.Raw) != 96 {
		t.Fatalf("raw length = %d, want 96", len(rt.Raw))
	}
	h := HashRefreshRaw(rt.Raw)
	if len(h) != 64 || strings.Contains(h, rt.Raw) {
		t.Fatalf("unexpected hash %q", h)
	}
	if HashRefreshRaw(rt.Raw) != h {
		t.Fatal("hash must be deterministic")
	}
}

func TestVerifyPassword(t *testing.T) {
	h, err := HashPassword("pa55", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(h, "pa55") || VerifyPassword(h, "nope") {
		t.Fatal("bcrypt comparison mismatch")
	}
	if VerifyPassword("", "") {
		t.Fatal("empty hash must never verify")
	}
}
