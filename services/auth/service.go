package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tech-arch1tect/backoffice/config"
	"github.com/tech-arch1tect/backoffice/services/account"
	"github.com/tech-arch1tect/backoffice/services/jwt"
	"github.com/tech-arch1tect/backoffice/services/logging"
	"github.com/tech-arch1tect/backoffice/services/sessions"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrValidation            = errors.New("missing required field")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrAccountExists         = account.ErrAccountExists
	ErrPasswordHashingFailed = errors.New("failed to hash password")
)

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type LoginInput struct {
	// Identifier is either the username or the email.
	Identifier string
	Password   string
	IP         string
	UserAgent  string
	DeviceInfo map[string]any
}

type LoginResult struct {
	User    *account.User
	Tokens  jwt.TokenPair
	Session *account.DeviceSession
}

type Service struct {
	config   *config.Config
	store    account.Store
	tokens   *jwt.Service
	sessions *sessions.Service
	logger   *logging.Service
	now      func() time.Time

	// compared against when the account does not exist so both failure
	// paths cost one bcrypt comparison
	decoyHash []byte
}

func NewService(cfg *config.Config, store account.Store, tokens *jwt.Service, registry *sessions.Service, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}

	decoy, _ := bcrypt.GenerateFromPassword([]byte("decoy-password"), cfg.Auth.BcryptCost)

	return &Service{
		config:    cfg,
		store:     store,
		tokens:    tokens,
		sessions:  registry,
		logger:    logger,
		now:       time.Now,
		decoyHash: decoy,
	}
}

func (s *Service) HashPassword(password string) (string, error) {
	s.logger.Debug("generating password hash", zap.Int("bcrypt_cost", s.config.Auth.BcryptCost))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return "", ErrPasswordHashingFailed
	}
	return string(hash), nil
}

func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register creates an account with an empty session list.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*account.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if username == "" || email == "" || input.Password == "" {
		return nil, ErrValidation
	}
	if len(input.Password) < s.config.Auth.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, s.config.Auth.MinPasswordLength)
	}

	exists, err := s.store.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		s.logger.Info("registration rejected: account exists", zap.String("username", username))
		return nil, ErrAccountExists
	}

	hash, err := s.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	userID, err := account.NewUserID(s.config.Auth.UserIDPrefix, email, s.now())
	if err != nil {
		return nil, err
	}

	user := &account.User{
		UserID:       userID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, account.ErrAccountExists) {
			return nil, ErrAccountExists
		}
		s.logger.Error("failed to create account", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("account registered", zap.String("user_id", userID), zap.String("username", username))
	return user, nil
}

// Login checks credentials, issues a token pair and records a new device
// session for it. Unknown accounts and wrong passwords both yield
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, ErrValidation
	}

	user, err := s.store.FindByIdentifier(ctx, identifier)
	if errors.Is(err, account.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.decoyHash, []byte(input.Password))
		s.logger.Warn("login failed", zap.String("reason", "unknown identifier"))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.VerifyPassword(user.PasswordHash, input.Password); err != nil {
		s.logger.Warn("login failed", zap.String("reason", "wrong password"), zap.String("user_id", user.UserID))
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(jwt.Subject{UserID: user.UserID, Username: user.Username})
	if err != nil {
		return nil, err
	}

	metadata := DeviceMetadata(input.UserAgent, input.DeviceInfo)
	session, err := s.sessions.AddSession(ctx, user.UserID, pair.RefreshToken, input.IP, metadata)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login succeeded", zap.String("user_id", user.UserID), zap.String("session_id", session.PublicID))
	return &LoginResult{User: user, Tokens: pair, Session: session}, nil
}
