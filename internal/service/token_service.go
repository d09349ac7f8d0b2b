package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"fintrack/internal/domain"
)

// TokenService emite y valida tokens JWT de acceso y refresh. Cada clase se
// firma con un secreto distinto para que comprometer una no permita forjar
// la otra.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

// Claims son los claims embebidos en ambos tipos de token.
type Claims struct {
	AccountID string `json:"uid"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

func NewTokenService(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        "fintrack",
	}
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) IssueAccessToken(acct domain.Account) (string, error) {
	if len(s.accessSecret) == 0 {
		return "", ErrTokenInvalid
	}
	return s.signToken(acct, s.accessTTL, "access", s.accessSecret)
}

func (s *TokenService) IssueRefreshToken(acct domain.Account) (string, error) {
	if len(s.refreshSecret) == 0 {
		return "", ErrTokenInvalid
	}
	return s.signToken(acct, s.refreshTTL, "refresh", s.refreshSecret)
}

// ParseAccessToken valida un access token contra el secreto de acceso.
func (s *TokenService) ParseAccessToken(token string) (Claims, error) {
	return s.parseAs(token, "access", s.accessSecret)
}

// ParseRefreshToken valida un refresh token contra el secreto de refresh.
func (s *TokenService) ParseRefreshToken(token string) (Claims, error) {
	return s.parseAs(token, "refresh", s.refreshSecret)
}

func (s *TokenService) signToken(acct domain.Account, ttl time.Duration, tokenType string, secret []byte) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		AccountID: acct.ID,
		Email:     acct.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   acct.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (s *TokenService) parseAs(token, tokenType string, secret []byte) (Claims, error) {
	if len(secret) == 0 || strings.TrimSpace(token) == "" {
		return Claims{}, ErrTokenInvalid
	}
	claims, err := parseToken(token, secret)
	if err != nil {
		return Claims{}, err
	}
	if claims.TokenType != tokenType {
		return Claims{}, ErrTokenInvalid
	}
	if !s.isValidClaims(claims) {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

func parseToken(tokenString string, secret []byte) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (s *TokenService) isValidClaims(claims Claims) bool {
	if strings.TrimSpace(claims.AccountID) == "" {
		return false
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return false
	}
	if claims.Subject != claims.AccountID {
		return false
	}
	return strings.TrimSpace(claims.Issuer) == s.issuer
}
