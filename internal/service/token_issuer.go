package service

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"authentication_api/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	// TokenTTL is fixed; there is no refresh flow.
	TokenTTL = 15 * time.Minute
	// MinSecretBytes matches the HS256 key size.
	MinSecretBytes = 32

	signingKeyInfo = "authentication_api/jwt/hs256"
)

var ErrWeakSecret = errors.New("signing secret must be at least 32 bytes")

// Claims are the identity facts carried by an issued token.
type Claims struct {
	Username   string `json:"username"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q", ErrInvalidToken, c.Subject)
	}
	return id, nil
}

// TokenIssuer signs and verifies HS256 bearer tokens. The HMAC key is
// derived from the configured secret with HKDF-SHA256.
type TokenIssuer struct {
	key    []byte
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string) (*TokenIssuer, error) {
	if len([]byte(secret)) < MinSecretBytes {
		return nil, ErrWeakSecret
	}
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(signingKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return &TokenIssuer{key: key, issuer: issuer, now: time.Now}, nil
}

// Issue signs a token for u that expires TokenTTL after issuance.
func (t *TokenIssuer) Issue(u models.User) (models.IssuedToken, error) {
	// NumericDate has second precision; keep ExpiresAt equal to the exp claim.
	now := t.now().UTC().Truncate(time.Second)
	expires := now.Add(TokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Username:   u.Username,
		GivenName:  u.FirstName,
		FamilyName: u.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString(t.key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return models.IssuedToken{Token: signed, ExpiresAt: expires}, nil
}

// Parse verifies signature, issuer and expiry and returns the claims.
func (t *TokenIssuer) Parse(accessToken string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
