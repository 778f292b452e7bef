// Package auth verifies bearer tokens against the identity provider and
// carries the resulting identity through request contexts.
package auth

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/usergate/user_service/internal/errors"
)

// Identity is the authenticated caller attached to a request after token
// verification. Lifetime is one request.
type Identity struct {
	ID            string
	Email         string
	EmailVerified bool
}

// TokenVerifier validates a bearer token and resolves the caller identity.
// The identity provider is an external collaborator behind this interface.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Claims are the token claims issued by the identity provider.
type Claims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier verifies RS256-signed tokens against a public key.
type JWTVerifier struct {
	publicKey *rsa.PublicKey
}

var _ TokenVerifier = (*JWTVerifier)(nil)

// NewJWTVerifier creates a verifier using the given public key.
func NewJWTVerifier(publicKey *rsa.PublicKey) *JWTVerifier {
	return &JWTVerifier{publicKey: publicKey}
}

// NewJWTVerifierFromFile loads a PEM-encoded RSA public key from path.
func NewJWTVerifierFromFile(path string) (*JWTVerifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return NewJWTVerifier(key), nil
}

// Verify parses and validates the token, returning the caller identity.
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return v.publicKey, nil
	})
	if err != nil {
		return Identity{}, errors.InvalidToken(err)
	}
	if !token.Valid {
		return Identity{}, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Identity{}, errors.InvalidToken(nil).WithDetails("reason", "invalid claims type")
	}

	return Identity{
		ID:            claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

type contextKey struct{}

// WithIdentity attaches the authenticated identity to the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFrom extracts the authenticated identity from the context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
