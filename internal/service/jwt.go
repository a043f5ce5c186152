package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Payphone-Digital/lms/config"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// kind, malformed and expired alike.
var ErrInvalidToken = errors.New("invalid token")

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims carried by both token kinds. Refresh tokens also set the JTI to the
// session id.
type Claims struct {
	Email     string `json:"email"`
	Role      string `json:"role,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	TokenType string `json:"token_type"`
	// Sid links an access token to the session it was issued with.
	Sid string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// SessionID is the JTI on refresh tokens and the sid claim on access tokens.
func (c *Claims) SessionID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Sid
}

// TokenSubject is what gets signed into a token.
type TokenSubject struct {
	UserID    string
	Email     string
	Role      string
	CompanyID string
}

// JWTService signs and verifies access and refresh tokens with independent
// secrets and lifetimes.
type JWTService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for issuing and validating.
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	s.now = now
	return s
}

func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}

func (s *JWTService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

func (s *JWTService) SignAccess(sub TokenSubject, sessionID string) (string, error) {
	return s.sign(sub, TokenTypeAccess, sessionID, s.accessTTL, s.accessSecret)
}

func (s *JWTService) SignRefresh(sub TokenSubject, sessionID string) (string, error) {
	return s.sign(sub, TokenTypeRefresh, sessionID, s.refreshTTL, s.refreshSecret)
}

func (s *JWTService) VerifyAccess(tokenString string) (*Claims, error) {
	return s.verify(tokenString, TokenTypeAccess, s.accessSecret)
}

func (s *JWTService) VerifyRefresh(tokenString string) (*Claims, error) {
	claims, err := s.verify(tokenString, TokenTypeRefresh, s.refreshSecret)
	if err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) sign(sub TokenSubject, tokenType, sessionID string, ttl time.Duration, secret []byte) (string, error) {
	now := s.now()
	claims := Claims{
		Email:     sub.Email,
		Role:      sub.Role,
		CompanyID: sub.CompanyID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if tokenType == TokenTypeRefresh {
		claims.ID = sessionID
	} else {
		claims.Sid = sessionID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *JWTService) verify(tokenString, tokenType string, secret []byte) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != tokenType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
