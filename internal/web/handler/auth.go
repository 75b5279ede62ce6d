package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// OperatorClaims are the JWT claims of a BatchTrace operator token. Mutation
// endpoints require one; read endpoints are public.
type OperatorClaims struct {
	jwt.RegisteredClaims
	Operator string `json:"operator"`
}

// TokenIssuer issues and verifies operator tokens, signed HS256 with a
// shared secret from the process configuration. The CLI mints tokens
// (`batchctl token new`) with the same secret.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. ttl zero defaults to 24 hours.
func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl}
}

// Issue creates a signed operator token for the named operator.
func (t *TokenIssuer) Issue(operator string) (string, error) {
	now := time.Now().UTC()
	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   operator,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
			ID:        uuid.New().String(),
		},
		Operator: operator,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign operator token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates an operator token, returning its claims.
func (t *TokenIssuer) Verify(tokenStr string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&OperatorClaims{},
		func(tok *jwt.Token) (any, error) {
			if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
	)
	if err != nil {
		return nil, fmt.Errorf("parse operator token: %w", err)
	}
	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid operator token")
	}
	return claims, nil
}

// RequireOperator returns a middleware that rejects requests without a valid
// operator bearer token. The verified claims are stored in the context under
// "operator_claims".
func RequireOperator(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid operator token"})
			return
		}
		c.Set("operator_claims", claims)
		c.Next()
	}
}
