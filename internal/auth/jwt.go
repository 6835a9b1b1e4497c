package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"StudentShift-backend/internal/model"
)

// JwtIssuer is written to and required in every access token.
const JwtIssuer = "StudentShift"

// ErrInvalidIssuer is returned for tokens signed with our key but another issuer.
var ErrInvalidIssuer = errors.New("Invalid token issuer")

// Claims is the payload of an access token. Subject is the account id,
// ID is the token id used for revocation.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and validates HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager returns a TokenManager issuing tokens valid for ttl.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// TTL is the lifetime of tokens issued by Generate.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// Generate issues an access token for user.
func (tm *TokenManager) Generate(user model.User) (string, *Claims, error) {
	return tm.GenerateWithDuration(user, tm.ttl)
}

// GenerateWithDuration issues an access token for user valid for d.
func (tm *TokenManager) GenerateWithDuration(user model.User, d time.Duration) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    JwtIssuer,
			Subject:   user.ID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", nil, fmt.Errorf("Failed to sign token: %w", err)
	}
	return signedToken, claims, nil
}

// Validate parses encodedToken and returns its claims.
// Expired tokens fail with an error matching jwt.ErrTokenExpired.
func (tm *TokenManager) Validate(encodedToken string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(encodedToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, isvalid := token.Method.(*jwt.SigningMethodHMAC); !isvalid {
			return nil, fmt.Errorf("Invalid token")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("Invalid access token")
	}
	if claims.Issuer != JwtIssuer {
		return nil, ErrInvalidIssuer
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, errors.New("Invalid token subject")
	}
	return claims, nil
}
