package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	AccessToken  = "access"
	RefreshToken = "refresh"
)

var (
	ErrInvalidToken     = errors.New("invalid or expired token")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// TokenManager issues and validates HS256 access/refresh token pairs.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Generate returns a fresh access and refresh token for userID.
func (m *TokenManager) Generate(userID uint) (string, string, error) {
	access, err := m.sign(userID, AccessToken, m.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := m.sign(userID, RefreshToken, m.refreshTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return access, refresh, nil
}

func (m *TokenManager) sign(userID uint, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     now.Add(ttl).Unix(),
		"iat":     now.Unix(),
		"type":    tokenType,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Validate parses tokenString and returns its user id when the token is
// valid and of the wanted type.
func (m *TokenManager) Validate(tokenString, wantType string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return 0, ErrInvalidTokenType
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return uint(userID), nil
}
