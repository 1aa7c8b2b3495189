package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/battle-arena/internal/config"
	"github.com/battle-arena/internal/metrics"
	"github.com/battle-arena/internal/models"
	"github.com/battle-arena/internal/ratelimit"
	"github.com/battle-arena/internal/repository"
	"github.com/battle-arena/pkg/crypto"
	"github.com/battle-arena/pkg/errutil"
	"github.com/battle-arena/pkg/keygen"
)

// AuthService issues and validates opaque bearer tokens
type AuthService struct {
	userRepo   *repository.UserRepository
	authConfig config.AuthConfig
	guard      ratelimit.Guard
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService. guard and m may be nil.
func NewAuthService(userRepo *repository.UserRepository, authConfig config.AuthConfig, guard ratelimit.Guard, m *metrics.Metrics, logger *slog.Logger) *AuthService {
	if guard == nil {
		guard = ratelimit.NoopGuard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		userRepo:   userRepo,
		authConfig: authConfig,
		guard:      guard,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
}

// TokenResponse represents the bearer token response
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken returns the user's current token while it has more than the
// renew window left, and otherwise rotates it
func (s *AuthService) IssueToken(ctx context.Context, user *models.User) (*TokenResponse, error) {
	now := s.now()
	if user.HasToken() && user.TokenExpiration.After(now.Add(s.authConfig.RenewWindow())) {
		return &TokenResponse{Token: *user.Token, ExpiresAt: *user.TokenExpiration}, nil
	}

	token, err := keygen.GenerateBearerToken()
	if err != nil {
		return nil, err
	}
	expiresAt := now.Add(s.authConfig.TokenTTL())

	if err := s.userRepo.UpdateToken(ctx, user.ID, &token, &expiresAt); err != nil {
		return nil, err
	}
	user.SetToken(token, expiresAt)

	return &TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateToken returns the holder of a live token. It never extends expiry.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if !user.HasToken() || !user.TokenExpiration.After(s.now()) {
		return nil, ErrInvalidToken
	}
	return user, nil
}

// Authenticate checks a username and password. Repeated failures lock the
// username out when a guard is configured.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	state, err := s.guard.Check(ctx, username)
	if err != nil {
		// fail open
		errutil.LogError(s.logger, "login guard check failed", err, "username", username)
	} else if state.IsLockedOut {
		return nil, ErrLockedOut
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailure(ctx, username)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(password, user.PasswordHash) {
		s.recordFailure(ctx, username)
		return nil, ErrInvalidCredentials
	}

	if err := s.guard.Reset(ctx, username); err != nil {
		errutil.LogError(s.logger, "login guard reset failed", err, "username", username)
	}
	return user, nil
}

// RevokeToken clears the user's token so it stops validating immediately
func (s *AuthService) RevokeToken(ctx context.Context, user *models.User) error {
	if err := s.userRepo.UpdateToken(ctx, user.ID, nil, nil); err != nil {
		return err
	}
	user.ClearToken()
	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, username string) {
	s.metrics.RecordLoginFailure()
	state, err := s.guard.RecordFailure(ctx, username)
	if err != nil {
		errutil.LogError(s.logger, "login guard update failed", err, "username", username)
		return
	}
	if state.IsLockedOut {
		s.logger.Warn("username locked out", "username", username, "failures", state.Failures)
	}
}
