package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for a missing, malformed, expired or wrongly signed credential.
var ErrUnauthorized = errors.New("identity: unauthorized")

// userIDClaims are checked in order; the first non-empty string wins.
var userIDClaims = []string{"id", "_id", "user_id", "sub"}

// Verifier resolves a bearer credential to a user id.
type Verifier interface {
	Verify(token string) (string, error)
}

// HS256Verifier verifies HMAC-SHA256 signed JWTs issued by the signup/login service.
type HS256Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewHS256Verifier builds a verifier for secret.
func NewHS256Verifier(secret string) (*HS256Verifier, error) {
	if secret == "" {
		return nil, errors.New("hs256 secret required")
	}
	return &HS256Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}, nil
}

// Verify returns the user id carried by token.
func (v *HS256Verifier) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthorized
	}
	tok, err := v.parser.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return "", ErrUnauthorized
	}
	for _, name := range userIDClaims {
		if s, _ := claims[name].(string); s != "" {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: user id claim missing", ErrUnauthorized)
}

// BearerToken extracts the credential from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	return tok, tok != ""
}
