// Package auth extracts the authenticated principal from tokens minted by the
// external identity provider. Credential issuance and the login flow live
// outside this service; everything here trusts a verified token.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the coarse authorization level carried by a principal.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	Subject string
	Name    string
	Role    Role
	Active  bool
}

// ErrInvalidToken is returned for tokens that fail verification or carry
// malformed claims.
var ErrInvalidToken = errors.New("invalid token")

// ParseToken verifies an HMAC-signed bearer token and maps its claims onto a
// Principal. An empty issuer disables the issuer check.
func ParseToken(raw, secret, issuer string) (Principal, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}

	p := Principal{}
	if sub, ok := claims["sub"].(string); ok {
		p.Subject = sub
	}
	if name, ok := claims["name"].(string); ok {
		p.Name = name
	}
	if role, ok := claims["role"].(string); ok {
		p.Role = Role(role)
	}
	if active, ok := claims["active"].(bool); ok {
		p.Active = active
	}

	if p.Subject == "" {
		return Principal{}, ErrInvalidToken
	}
	if p.Role != RoleAdmin && p.Role != RoleStaff {
		return Principal{}, ErrInvalidToken
	}

	return p, nil
}
