package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token claims the service reads. Theater scoping is optional;
// a token without a theaterId is valid for any theater.
type Claims struct {
	UserID    string `json:"user_id"`
	TheaterID string `json:"theaterId,omitempty"`
	Role      string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Validator validates HS256 tokens minted by the collaborator auth service.
type Validator struct {
	secret []byte
}

// NewValidator creates a token validator.
func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// ValidateToken validates and parses a token string.
func (v *Validator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// AuthorizedForTheater reports whether the claims may act for the theater.
func (c *Claims) AuthorizedForTheater(theaterID string) bool {
	return c.TheaterID == "" || c.TheaterID == theaterID
}

// TokenFromRequest extracts the token from the Authorization header or, for
// browser EventSource clients that cannot set headers, the token query
// parameter.
func TokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return authHeader
	}
	return r.URL.Query().Get("token")
}
