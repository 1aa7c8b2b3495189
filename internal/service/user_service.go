package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/battle-arena/internal/models"
	"github.com/battle-arena/internal/repository"
	"github.com/battle-arena/pkg/crypto"
)

// UserService handles registration and self-service account changes
type UserService struct {
	userRepo *repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// UpdateUserRequest carries the fields a user may change on their own record.
// Absent fields are left untouched.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IsAdmin  *bool   `json:"is_admin"` // accepted, not persisted
}

// Register creates a user after checking that username and email are free
func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	if req.Username == nil || *req.Username == "" {
		return nil, missingField("username")
	}
	if req.Email == nil || *req.Email == "" {
		return nil, missingField("email")
	}
	if req.Password == nil || *req.Password == "" {
		return nil, missingField("password")
	}
	username, email := *req.Username, *req.Email

	if err := s.ensureAvailable(ctx, username, email, 0); err != nil {
		return nil, err
	}

	passwordHash, err := crypto.HashPassword(*req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict(username, email)
		}
		return nil, err
	}
	return user, nil
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Update applies req to the caller's own record
func (s *UserService) Update(ctx context.Context, caller *models.User, id uint, req *UpdateUserRequest) (*models.User, error) {
	if caller.ID != id {
		return nil, fmt.Errorf("%w: You do not have access to update this user", ErrPermissionDenied)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	username, email := user.Username, user.Email
	if req.Username != nil {
		username = *req.Username
	}
	if req.Email != nil {
		email = *req.Email
	}
	if username != user.Username || email != user.Email {
		if err := s.ensureAvailable(ctx, username, email, user.ID); err != nil {
			return nil, err
		}
	}
	user.Username = username
	user.Email = email

	if req.Password != nil {
		if *req.Password == "" {
			return nil, &ValidationError{Field: "password", Message: "password cannot be empty"}
		}
		hash, err := crypto.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict(username, email)
		}
		return nil, err
	}
	return user, nil
}

// Delete removes the caller's own record and every character they own.
// The deleted user is returned for the confirmation message.
func (s *UserService) Delete(ctx context.Context, caller *models.User, id uint) (*models.User, error) {
	if caller.ID != id {
		return nil, fmt.Errorf("%w: You do not have access to delete this user", ErrPermissionDenied)
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return user, nil
}

// ensureAvailable fails with ErrConflict when another user holds username or email
func (s *UserService) ensureAvailable(ctx context.Context, username, email string, excludeID uint) error {
	taken, err := s.userRepo.ExistsByUsername(ctx, username, excludeID)
	if err != nil {
		return err
	}
	if !taken {
		taken, err = s.userRepo.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return err
		}
	}
	if taken {
		return conflict(username, email)
	}
	return nil
}

func conflict(username, email string) error {
	return fmt.Errorf("%w: User with username %s or email %s already exists", ErrConflict, username, email)
}
