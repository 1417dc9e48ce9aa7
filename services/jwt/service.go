package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken = errors.New("invalid JWT token")
	ErrExpiredToken = errors.New("JWT token has expired")
)

// Kind selects the secret and lifetime a token is issued and verified with.
type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

type Claims struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Subject is the identity a token is issued for.
type Subject struct {
	UserID   string
	Username string
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service struct {
	config *config.Config
	logger *logging.Service
	now    func() time.Time
}

func NewService(cfg *config.Config, logger *logging.Service) *Service {
	return &Service{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SetClock replaces the time source used for issuing and verifying tokens.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) AccessExpiry() time.Duration {
	return s.config.JWT.AccessExpiry
}

func (s *Service) RefreshExpiry() time.Duration {
	return s.config.JWT.RefreshExpiry
}

func (s *Service) Issue(subject Subject) (TokenPair, error) {
	access, err := s.sign(subject, Access)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.sign(subject, Refresh)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) IssueAccess(subject Subject) (string, error) {
	return s.sign(subject, Access)
}

func (s *Service) sign(subject Subject, kind Kind) (string, error) {
	now := s.now()
	jti := uuid.New().String()
	claims := Claims{
		UserID:   subject.UserID,
		Username: subject.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    s.config.JWT.Issuer,
			Subject:   subject.UserID,
			Audience:  []string{string(kind)},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry(kind))),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret(kind))
	if err != nil {
		s.logger.Error("failed to sign JWT token", zap.String("kind", string(kind)), zap.Error(err))
		return "", fmt.Errorf("failed to generate JWT %s token: %w", kind, err)
	}

	return tokenString, nil
}

// Verify checks signature and expiry for the given kind. An expired token
// whose signature is intact returns its claims together with ErrExpiredToken;
// every other failure is ErrInvalidToken.
func (s *Service) Verify(tokenString string, kind Kind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() == "none" {
			return nil, errors.New("'none' algorithm is not allowed")
		}

		if token.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected algorithm: expected HS256, got %s", token.Method.Alg())
		}

		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid algorithm family: %v", token.Header["alg"])
		}

		return s.secret(kind), nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.config.JWT.Issuer),
		jwt.WithAudience(string(kind)),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && claims.UserID != "" {
			return claims, ErrExpiredToken
		}

		s.logger.Warn("JWT token validation failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (s *Service) secret(kind Kind) []byte {
	if kind == Refresh {
		return []byte(s.config.JWT.RefreshSecret)
	}
	return []byte(s.config.JWT.AccessSecret)
}

func (s *Service) expiry(kind Kind) time.Duration {
	if kind == Refresh {
		return s.config.JWT.RefreshExpiry
	}
	return s.config.JWT.AccessExpiry
}
