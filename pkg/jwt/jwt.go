package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secretKey      string
	accessDuration time.Duration
	issuer         string
	now            func() time.Time
}

type TokenManagerConfig struct {
	SecretKey      string
	AccessDuration time.Duration
	Issuer         string
}

func NewTokenManager(cfg TokenManagerConfig) *TokenManager {
	if cfg.AccessDuration == 0 {
		cfg.AccessDuration = time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "auth-service"
	}

	return &TokenManager{
		secretKey:      cfg.SecretKey,
		accessDuration: cfg.AccessDuration,
		issuer:         cfg.Issuer,
		now:            time.Now,
	}
}

// GenerateToken issues a signed session token whose subject is the email.
func (tm *TokenManager) GenerateToken(email string) (string, error) {
	now := tm.now()

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.issuer,
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(tm.secretKey))
}

func (tm *TokenManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(tm.secretKey), nil
	}, jwt.WithIssuer(tm.issuer), jwt.WithTimeFunc(tm.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
