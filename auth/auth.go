/*
auth.go - Credential hashing and JWT identity

PURPOSE:
  Issues and verifies the bearer tokens the banking endpoints require,
  and owns password hashing. The ledger core never sees credentials; it
  only receives the verified Identity this package produces.

CREDENTIALS:
  Passwords are stored as bcrypt hashes, never compared in clear text.

TOKENS:
  HS256 JWTs with the account ID as subject, a username claim, and an
  enforced expiry.

SEE ALSO:
  - middleware.go: HTTP integration
*/
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidToken is returned when a token fails verification for
	// any reason (bad signature, expired, malformed).
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidCredentials is returned when a username/password pair
	// does not match. Deliberately the same for unknown user and wrong
	// password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Identity is a verified account identity. Downstream code trusts it
// completely; all credential checking happens here.
type Identity struct {
	AccountID string
	Username  string
}

// =============================================================================
// PASSWORD HASHING
// =============================================================================

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash against a candidate password.
// Returns ErrInvalidCredentials on mismatch.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// =============================================================================
// TOKEN SERVICE
// =============================================================================

type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service issues and verifies JWTs.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a token service with the given signing secret and
// token lifetime.
func NewService(secret []byte, ttl time.Duration) *Service {
	return &Service{secret: secret, ttl: ttl}
}

// Issue returns a signed token for the given account.
func (s *Service) Issue(accountID, username string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the identity it
// carries. Returns ErrInvalidToken on any failure.
func (s *Service) Verify(tokenString string) (Identity, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{AccountID: claims.Subject, Username: claims.Username}, nil
}
