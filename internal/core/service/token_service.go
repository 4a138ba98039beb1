package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lesbonsservices/booking-api/internal/core/domain"
)

// minSecretLen is the HS256 key size in bytes.
const minSecretLen = 32

// JWTTokenService signs and verifies HS256 session tokens carrying only the
// registered sub, iat and exp claims.
type JWTTokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type TokenOption func(*JWTTokenService)

// WithClock replaces time.Now for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *JWTTokenService) {
		s.now = now
	}
}

// NewJWTTokenService decodes the base64 secret once and keeps it for the
// lifetime of the service.
func NewJWTTokenService(encodedSecret string, ttl time.Duration, opts ...TokenOption) (*JWTTokenService, error) {
	key, err := decodeSecret(encodedSecret)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	if len(key) < minSecretLen {
		return nil, fmt.Errorf("token service: secret must decode to at least %d bytes, got %d", minSecretLen, len(key))
	}
	if ttl <= 0 {
		return nil, errors.New("token service: ttl must be positive")
	}

	s := &JWTTokenService{key: key, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func decodeSecret(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("secret is empty")
	}
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if key, err := enc.DecodeString(encoded); err == nil {
			return key, nil
		}
	}
	return nil, errors.New("secret is not valid base64")
}

// Issue mints a token for the given principal id.
func (s *JWTTokenService) Issue(subjectID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subjectID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks structure, signature and expiry.
func (s *JWTTokenService) Verify(token string) bool {
	_, err := s.parse(token)
	return err == nil
}

// ExtractSubject returns the sub claim of a valid token.
func (s *JWTTokenService) ExtractSubject(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (s *JWTTokenService) parse(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTokenInvalid, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}
