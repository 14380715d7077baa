package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/ance-ai/metered-gateway/internal/domain"
)

// TokenService issues and verifies the signed bearer tokens that bind a
// request to an account.
//
// Tokens do not expire by default, matching the behavior this gateway
// replaces. Setting a positive ttl adds an expiry claim; verification
// failures stay uniform either way.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service signing with the given secret.
// ttl of zero disables expiry.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue produces a signed token for the account.
func (t *TokenService) Issue(accountID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  strconv.FormatInt(accountID, 10),
		IssuedAt: jwt.NewNumericDate(now),
		ID:       uuid.New().String(),
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", domain.ErrServer("token issuance failed")
	}
	return signed, nil
}

// Verify validates the token and returns the bound account ID. Every
// failure mode (bad signature, unexpected signing method, malformed payload,
// missing or non-numeric subject, expiry) is normalized to the same
// invalid-token error so callers get no oracle.
func (t *TokenService) Verify(tokenString string) (int64, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken()
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, domain.ErrInvalidToken()
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return 0, domain.ErrInvalidToken()
	}

	accountID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || accountID <= 0 {
		return 0, domain.ErrInvalidToken()
	}

	return accountID, nil
}
