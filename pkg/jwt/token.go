// Package jwt issues and verifies the bearer tokens collaborators present to the API.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the role claim
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RolePayment = "payment"
)

var (
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token has expired")
)

// Claims is the payload of a collaborator token. Subject holds the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and parses HS256 tokens with one shared secret
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenService creates a new TokenService
func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// ValidRole reports whether role is one the API understands
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin || role == RolePayment
}

// Issue signs a token for subject with the given role
func (s *TokenService) Issue(subject, role string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}
	if !ValidRole(role) {
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidToken, role)
	}
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
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

// Parse verifies a token's signature, issuer and expiry and returns its claims
func (s *TokenService) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" || !ValidRole(claims.Role) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
