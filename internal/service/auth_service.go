package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/francesco74/sonde/internal/credentials"
	"github.com/francesco74/sonde/internal/domain"
	"github.com/francesco74/sonde/internal/repository"

	"go.uber.org/zap"
)

// AuthService authenticates users and manages accounts. It does not
// create sessions itself; the HTTP layer combines its result with the
// session store.
type AuthService interface {
	// Login verifies the username/password pair and, on success, returns
	// the identity together with the permission set resolved at this
	// moment.
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)

	// CreateUser registers a new account with a hashed credential.
	CreateUser(ctx context.Context, username, password string) error
}

type authService struct {
	users  repository.UsersRepository
	perms  repository.PermissionsRepository
	logger *zap.Logger
}

func NewAuthService(users repository.UsersRepository, perms repository.PermissionsRepository, logger *zap.Logger) AuthService {
	return &authService{users: users, perms: perms, logger: logger}
}

// LoginRequest carries the credentials plus client metadata for logging.
type LoginRequest struct {
	Username  string
	Password  string
	IPAddress string
}

// LoginResult is the authenticated identity and its permission snapshot.
type LoginResult struct {
	Identity    domain.Identity
	Permissions domain.PermissionSet
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same error as a wrong password so responses don't reveal
			// which usernames exist.
			s.logger.Warn("Login failed: unknown username",
				zap.String("username", req.Username),
				zap.String("ip_address", req.IPAddress),
			)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !credentials.Verify(user.PasswordHash, req.Password) {
		s.logger.Warn("Login failed: wrong password",
			zap.String("username", req.Username),
			zap.String("ip_address", req.IPAddress),
		)
		return nil, ErrInvalidCredentials
	}

	macrogroups, err := s.perms.MacrogroupGrants(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve macrogroup grants: %w", err)
	}
	practices, err := s.perms.PracticeGrants(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve practice grants: %w", err)
	}

	s.logger.Info("Authentication successful",
		zap.String("username", user.Username),
		zap.Int64("user_id", user.ID),
		zap.Int("macrogroup_grants", len(macrogroups)),
		zap.Int("practice_grants", len(practices)),
	)

	return &LoginResult{
		Identity: domain.Identity{UserID: user.ID, Username: user.Username},
		Permissions: domain.PermissionSet{
			Macrogroups: macrogroups,
			Practices:   practices,
		},
	}, nil
}

func (s *authService) CreateUser(ctx context.Context, username, password string) error {
	hash, err := credentials.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash credential: %w", err)
	}

	id, err := s.users.Create(ctx, username, hash)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("New user created",
		zap.String("username", username),
		zap.Int64("user_id", id),
	)
	return nil
}
