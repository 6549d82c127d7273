package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrBadToken      = errors.New("invalid token")
	ErrOutsideDomain = errors.New("account is outside the institutional domain")
)

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	Email     string
	Name      string
	Role      string
	StudentID string
}

type Claims struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	StudentID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Principal() Principal {
	return Principal{Email: strings.ToLower(c.Email), Name: c.Name, Role: c.Role, StudentID: c.StudentID}
}

// MakeToken signs an HS256 token for p. Used by the admin CLI and tests; in
// production tokens come from the identity provider.
func MakeToken(p Principal, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := Claims{
		Email:     p.Email,
		Name:      p.Name,
		Role:      p.Role,
		StudentID: p.StudentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Email,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}

func ParseToken(raw, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		// block alg confusion
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	c, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || c.Email == "" {
		return nil, ErrBadToken
	}
	return c, nil
}

// InDomain reports whether email belongs to the institution, e.g. suffix "@davao.sti.edu.ph".
func InDomain(email, suffix string) bool {
	return suffix != "" && strings.HasSuffix(strings.ToLower(email), strings.ToLower(suffix))
}
