package service

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"testing"
	"time"

	"authentication_api/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-that-is-at-least-32-bytes!"

var issuedAt = time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC)

func newTestIssuer(t *testing.T) *TokenIssuer {
	t.Helper()
	iss, err := NewTokenIssuer(testSecret, "authentication_api")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	iss.now = func() time.Time { return issuedAt }
	return iss
}

func TestNewTokenIssuer_RejectsWeakSecret(t *testing.T) {
	for _, secret := range []string{"", "short", strings.Repeat("x", MinSecretBytes-1)} {
		if _, err := NewTokenIssuer(secret, "iss"); !errors.Is(err, ErrWeakSecret) {
			t.Fatalf("secret of %d bytes: expected ErrWeakSecret, got %v", len(secret), err)
		}
	}
	if _, err := NewTokenIssuer(strings.Repeat("x", MinSecretBytes), "iss"); err != nil {
		t.Fatalf("32-byte secret should be accepted: %v", err)
	}
}

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	iss := newTestIssuer(t)
	u := models.User{ID: 42, Username: "alice", FirstName: "A", LastName: "B"}

	tok, err := iss.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.Token == "" {
		t.Fatalf("expected non-empty token")
	}
	if want := issuedAt.Add(15 * time.Minute); !tok.ExpiresAt.Equal(want) {
		t.Fatalf("expires = %v; want %v", tok.ExpiresAt, want)
	}

	claims, err := iss.Parse(tok.Token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("UserID = %d, %v; want 42", id, err)
	}
	if claims.Username != "alice" || claims.GivenName != "A" || claims.FamilyName != "B" {
		t.Fatalf("unexpected identity claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected a token id (jti)")
	}
	if claims.Issuer != "authentication_api" {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
	if !claims.ExpiresAt.Time.Equal(tok.ExpiresAt) {
		t.Fatalf("exp claim %v differs from returned expiry %v", claims.ExpiresAt.Time, tok.ExpiresAt)
	}
}

func TestTokenIssuer_FreshTokenIDPerIssue(t *testing.T) {
	iss := newTestIssuer(t)
	u := models.User{ID: 1, Username: "bob"}

	a, err := iss.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, err := iss.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a.Token == b.Token {
		t.Fatalf("two issues at the same instant produced identical tokens")
	}
}

func TestTokenIssuer_ExpiredAfterTTL(t *testing.T) {
	iss := newTestIssuer(t)
	tok, err := iss.Issue(models.User{ID: 3, Username: "carol"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	iss.now = func() time.Time { return issuedAt.Add(14 * time.Minute) }
	if _, err := iss.Parse(tok.Token); err != nil {
		t.Fatalf("token should still be valid at T+14m: %v", err)
	}

	iss.now = func() time.Time { return issuedAt.Add(16 * time.Minute) }
	_, err = iss.Parse(tok.Token)
	if !errors.Is(err, ErrInvalidToken) || !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expected expired token error at T+16m, got %v", err)
	}
}

func TestTokenIssuer_Parse_Malformed(t *testing.T) {
	iss := newTestIssuer(t)
	if _, err := iss.Parse("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenIssuer_Parse_InvalidSignature(t *testing.T) {
	iss := newTestIssuer(t)
	other, err := NewTokenIssuer("another-secret-that-is-32-bytes-long", "authentication_api")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	other.now = iss.now

	tok, err := other.Issue(models.User{ID: 5, Username: "dave"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := iss.Parse(tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature verification error, got %v", err)
	}
}

func TestTokenIssuer_Parse_SecretIsNotUsedDirectlyAsKey(t *testing.T) {
	iss := newTestIssuer(t)

	tk := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Username: "mallory",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "authentication_api",
			Subject:   "9",
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	})
	forged, err := tk.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	if _, err := iss.Parse(forged); err == nil {
		t.Fatalf("token signed with the raw secret must not verify")
	}
}

func TestTokenIssuer_Parse_WrongIssuer(t *testing.T) {
	iss := newTestIssuer(t)
	other, err := NewTokenIssuer(testSecret, "someone-else")
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	other.now = iss.now

	tok, err := other.Issue(models.User{ID: 6, Username: "erin"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := iss.Parse(tok.Token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected issuer mismatch to be rejected, got %v", err)
	}
}

func TestTokenIssuer_Parse_UnexpectedAlg(t *testing.T) {
	iss := newTestIssuer(t)

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	tk := jwt.NewWithClaims(jwt.SigningMethodRS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "authentication_api",
			Subject:   "12",
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
		},
	})
	tokenStr, err := tk.SignedString(privateKey)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err := iss.Parse(tokenStr); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected error due to unexpected signing method, got %v", err)
	}
}

func TestClaims_UserID_NonNumericSubject(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	if _, err := c.UserID(); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
