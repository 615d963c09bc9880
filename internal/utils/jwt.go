package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for refresh and email tokens
	"encoding/hex"  // hex encoding functions
	"errors"        // sentinel errors for token validation
	"time"          // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned when a token fails signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and sent in the Authorization header when
// calling protected endpoints.  The payload carries the user id and role.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived signed token used to obtain new
// access tokens.  Raw is the JWT string returned to the client; SessionID
// is the random jti claim identifying this session.  Only the SHA-256 hash
// of Raw is stored server side.
type RefreshToken struct {
	Raw       string    // signed JWT returned to the client
	SessionID string    // random session identifier (jti claim)
	Exp       time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The JWT carries
// standard claims: subject (sub), role, expiration (exp) and issued at (iat).
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken builds and signs a refresh JWT with its own secret.  The
// token carries the user id, role and a cryptographically random session
// identifier in jti so two logins for the same user produce distinct tokens.
// ttlDays controls how many days the token stays valid.
func NewRefreshToken(secret string, userID uint64, role string, ttlDays int) (RefreshToken, error) {
	sid, err := randomHex(16)
	if err != nil {
		return RefreshToken{}, err
	}
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"jti":  sid,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Raw: signed, SessionID: sid, Exp: exp}, nil
}

// ParseRefreshToken verifies a refresh JWT's signature and expiry with the
// refresh secret and returns the user id it was issued to.  Any failure is
// reported as ErrInvalidToken; callers must not leak which check failed.
func ParseRefreshToken(secret, raw string) (uint64, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, ErrInvalidToken
	}
	return uint64(sub), nil
}

// HashToken returns the SHA-256 hash of a raw token as a hex string.
// Refresh, verification and reset tokens are all stored hashed so a stolen
// database copy cannot be replayed against the API.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewMailToken returns a single-use token for email verification or password
// reset flows: the raw value mailed to the user, the SHA-256 hash persisted
// on the account, and the expiry computed from ttl.
func NewMailToken(ttl time.Duration) (raw, hash string, exp time.Time, err error) {
	raw, err = randomHex(32)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return raw, HashToken(raw), time.Now().UTC().Add(ttl), nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
