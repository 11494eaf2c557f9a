package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskmaster/tracker/internal/domain/entities"
	"github.com/taskmaster/tracker/internal/infrastructure/config"
	"github.com/taskmaster/tracker/internal/infrastructure/logger"
	"github.com/taskmaster/tracker/internal/infrastructure/metrics"
	"github.com/taskmaster/tracker/internal/ports"
)

// AuthService handles authentication operations
type AuthService struct {
	store     ports.Store
	jwtConfig config.JWTConfig
	logger    *logger.Logger
	opts      options

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates a new auth service
func NewAuthService(store ports.Store, jwtConfig config.JWTConfig, logger *logger.Logger, opts ...Option) *AuthService {
	return &AuthService{
		store:     store,
		jwtConfig: jwtConfig,
		logger:    logger.Component("auth"),
		opts:      newOptions(opts),
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*entities.User, error) {
	if err := entities.ValidateStruct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := s.opts.hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.opts.timestamp()
	user := &entities.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.WithinTx(ctx, func(tx ports.Store) error {
		if err := ensureUsernameFree(ctx, tx, req.Username, uuid.Nil); err != nil {
			return err
		}
		if err := ensureEmailFree(ctx, tx, req.Email, uuid.Nil); err != nil {
			return err
		}
		return tx.Users().Create(ctx, user)
	})
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}

	s.logger.Infow("User registered", "user_id", user.ID, "username", user.Username)

	return user, nil
}

// Login checks the credentials and issues an access token. An unknown email
// and a wrong password fail identically.
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.TokenResponse, error) {
	if err := entities.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, entities.ErrUserNotFound) {
			return nil, fmt.Errorf("login: %w", err)
		}
		// Spend the same bcrypt work as for a known account.
		_ = bcrypt.CompareHashAndPassword(s.dummyPasswordHash(), []byte(req.Password))
		s.opts.metrics.LoginAttempt(metrics.LoginRejected)
		s.logger.LogSecurityEvent("login_failed", "", "", map[string]interface{}{"reason": "unknown_email"})
		return nil, entities.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.opts.metrics.LoginAttempt(metrics.LoginRejected)
		s.logger.LogSecurityEvent("login_failed", user.ID.String(), "", map[string]interface{}{"reason": "bad_password"})
		return nil, entities.ErrInvalidCredentials
	}

	if !user.IsActive {
		s.opts.metrics.LoginAttempt(metrics.LoginDisabled)
		s.logger.Warnw("Login attempt with inactive account", "user_id", user.ID)
		return nil, entities.ErrAccountDisabled
	}

	accessToken, err := s.generateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	s.opts.metrics.LoginAttempt(metrics.LoginSucceeded)
	s.logger.Infow("User logged in", "user_id", user.ID)

	return &ports.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.jwtConfig.ExpiresIn.Seconds()),
	}, nil
}

// VerifyToken validates an HS256 access token and returns the user id in
// its subject.
func (s *AuthService) VerifyToken(tokenString string) (uuid.UUID, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.opts.now),
	}
	if s.jwtConfig.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(s.jwtConfig.Issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtConfig.Secret), nil
	}, parserOpts...)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", entities.ErrInvalidToken, err)
	}
	if !token.Valid {
		return uuid.Nil, entities.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject: %v", entities.ErrInvalidToken, err)
	}

	return userID, nil
}

func (s *AuthService) generateAccessToken(userID uuid.UUID) (string, error) {
	now := s.opts.now()
	claims := &jwt.RegisteredClaims{
		Subject:   userID.String(),
		Issuer:    s.jwtConfig.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (s *AuthService) dummyPasswordHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.opts.bcryptCost)
		if err != nil {
			s.logger.Errorw("Failed to prepare dummy password hash", "error", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func ensureUsernameFree(ctx context.Context, store ports.Store, username string, self uuid.UUID) error {
	existing, err := store.Users().GetByUsername(ctx, username)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return entities.ErrUsernameTaken
	}
	return nil
}

func ensureEmailFree(ctx context.Context, store ports.Store, email string, self uuid.UUID) error {
	existing, err := store.Users().GetByEmail(ctx, email)
	switch {
	case errors.Is(err, entities.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != self:
		return entities.ErrEmailTaken
	}
	return nil
}
