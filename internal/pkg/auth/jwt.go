// Package auth turns bearer JWTs into kernel actors for the HTTP and AMQP front doors.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"lastmile/internal/core/domain/model/kernel"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated is returned for a missing, malformed, expired or badly signed token.
var ErrUnauthenticated = errors.New("unauthenticated")

// Claims carry the chat-platform identity in sub and the actor role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWT signs and verifies HS256 tokens.
type JWT struct {
	secret []byte
	issuer string
}

func NewJWT(secret, issuer string) (*JWT, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &JWT{secret: []byte(secret), issuer: issuer}, nil
}

// Issue signs a token for actor valid for ttl from now.
func (j *JWT) Issue(actor kernel.Actor, ttl time.Duration, now time.Time) (string, error) {
	if err := actor.Validate(); err != nil {
		return "", err
	}
	claims := &Claims{
		Role: actor.Role().String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID(),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Actor verifies token and returns the actor it was issued to.
func (j *JWT) Actor(token string) (kernel.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return kernel.Actor{}, fmt.Errorf("%w: no token", ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		return kernel.Actor{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return kernel.Actor{}, fmt.Errorf("%w: invalid claims", ErrUnauthenticated)
	}

	role, err := kernel.ParseRole(claims.Role)
	if err != nil {
		return kernel.Actor{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	actor, err := kernel.NewActor(claims.Subject, role)
	if err != nil {
		return kernel.Actor{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return actor, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
